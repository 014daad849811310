package scanner

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsbruva/airsonic-advanced/internal/database"
	"github.com/fsbruva/airsonic-advanced/internal/events"
	"github.com/google/uuid"
)

// MockEventBus implements events.EventBus for testing.
type MockEventBus struct {
	mu     sync.RWMutex
	events []events.Event
}

func (m *MockEventBus) Publish(ctx context.Context, event events.Event) error {
	m.PublishAsync(event)
	return nil
}

func (m *MockEventBus) PublishAsync(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockEventBus) Subscribe(handler events.EventHandler, types ...events.EventType) *events.Subscription {
	return nil
}

func (m *MockEventBus) Unsubscribe(subscriptionID string) {}

func (m *MockEventBus) Stop() {}

func (m *MockEventBus) Events(eventType events.EventType) []events.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []events.Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeFolderStore returns a fixed folder list.
type fakeFolderStore struct {
	mu      sync.Mutex
	folders []*database.MusicFolder
	block   chan struct{} // when set, All blocks until closed
}

func (f *fakeFolderStore) All(ctx context.Context) ([]*database.MusicFolder, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.folders, nil
}

// fakeLibrary is an in-memory MediaFileStore backed by a parent-path tree.
type fakeLibrary struct {
	mu          sync.Mutex
	roots       map[uint32]*database.MediaFile
	children    map[string][]*database.MediaFile
	childrenErr map[string]error

	updates        []*database.MediaFile
	markedPresent  map[uint32][]string
	presentDate    time.Time
	nonPresentDate time.Time
	genres         []database.Genre
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		roots:       make(map[uint32]*database.MediaFile),
		children:    make(map[string][]*database.MediaFile),
		childrenErr: make(map[string]error),
	}
}

func (l *fakeLibrary) addDir(folderID uint32, path string, mediaType database.MediaType) *database.MediaFile {
	dir := &database.MediaFile{
		ID:         uuid.NewString(),
		FolderID:   folderID,
		Path:       path,
		ParentPath: parentOf(path),
		MediaType:  mediaType,
	}
	l.attach(folderID, dir)
	return dir
}

func (l *fakeLibrary) addSong(folderID uint32, path string, file database.MediaFile) *database.MediaFile {
	file.ID = uuid.NewString()
	file.FolderID = folderID
	file.Path = path
	file.ParentPath = parentOf(path)
	if file.MediaType == "" {
		file.MediaType = database.TypeMusic
	}
	// Match the column default; only explicitly indexed tracks carry a
	// start position.
	if file.StartPosition == 0 {
		file.StartPosition = -1
	}
	l.attach(folderID, &file)
	return &file
}

func (l *fakeLibrary) attach(folderID uint32, file *database.MediaFile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if file.Path == "" {
		l.roots[folderID] = file
		return
	}
	key := childKey(folderID, file.ParentPath)
	l.children[key] = append(l.children[key], file)
}

func parentOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

func childKey(folderID uint32, parentPath string) string {
	return strconv.FormatUint(uint64(folderID), 10) + "|" + parentPath
}

func (l *fakeLibrary) Root(ctx context.Context, folder *database.MusicFolder) (*database.MediaFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	root, ok := l.roots[folder.ID]
	if !ok {
		root = &database.MediaFile{ID: uuid.NewString(), FolderID: folder.ID, MediaType: database.TypeDirectory}
		l.roots[folder.ID] = root
	}
	return root, nil
}

func (l *fakeLibrary) Children(ctx context.Context, file *database.MediaFile) ([]*database.MediaFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.childrenErr[file.Path]; ok {
		return nil, err
	}
	return l.children[childKey(file.FolderID, file.Path)], nil
}

func (l *fakeLibrary) Parent(ctx context.Context, file *database.MediaFile) (*database.MediaFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if file.Path == "" {
		return nil, nil
	}
	if file.ParentPath == "" {
		return l.roots[file.FolderID], nil
	}
	for _, sibling := range l.children[childKey(file.FolderID, parentOf(file.ParentPath))] {
		if sibling.Path == file.ParentPath {
			return sibling, nil
		}
	}
	return nil, nil
}

func (l *fakeLibrary) Update(ctx context.Context, file *database.MediaFile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, file)
	return nil
}

func (l *fakeLibrary) MarkPresent(ctx context.Context, encountered map[uint32][]string, scanDate time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markedPresent = encountered
	l.presentDate = scanDate
	return nil
}

func (l *fakeLibrary) MarkNonPresent(ctx context.Context, scanDate time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nonPresentDate = scanDate
	return nil
}

func (l *fakeLibrary) UpdateGenres(ctx context.Context, genres []database.Genre) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.genres = genres
	return nil
}

func (l *fakeLibrary) presentPaths(folderID uint32) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markedPresent[folderID]
}

// fakeAlbumStore mimics album persistence. Lookups return copies, like rows
// loaded from a database.
type fakeAlbumStore struct {
	mu             sync.Mutex
	rows           map[string]database.Album
	nextID         uint32
	saves          map[string]int
	nonPresentDate time.Time

	// persistedSaveErr fails saves of rows that already have an ID, which
	// singles out the reconciliation-phase save of a first-encountered album.
	persistedSaveErr error
}

func newFakeAlbumStore() *fakeAlbumStore {
	return &fakeAlbumStore{rows: make(map[string]database.Album), saves: make(map[string]int)}
}

func albumKey(artist, name string) string {
	return artist + "\x00" + name
}

func (s *fakeAlbumStore) seed(album database.Album) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	album.ID = s.nextID
	s.rows[albumKey(album.Artist, album.Name)] = album
}

func (s *fakeAlbumStore) FindByArtistAndName(ctx context.Context, artist, name string) (*database.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[albumKey(artist, name)]
	if !ok {
		return nil, nil
	}
	copied := row
	return &copied, nil
}

func (s *fakeAlbumStore) SaveAndFlush(ctx context.Context, album *database.Album) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persistedSaveErr != nil && album.ID != 0 {
		return s.persistedSaveErr
	}
	if album.ID == 0 {
		s.nextID++
		album.ID = s.nextID
	}
	s.rows[albumKey(album.Artist, album.Name)] = *album
	s.saves[albumKey(album.Artist, album.Name)]++
	return nil
}

func (s *fakeAlbumStore) MarkNonPresent(ctx context.Context, scanDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonPresentDate = scanDate
	return nil
}

func (s *fakeAlbumStore) get(artist, name string) (database.Album, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[albumKey(artist, name)]
	return row, ok
}

func (s *fakeAlbumStore) saveCount(artist, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[albumKey(artist, name)]
}

// fakeArtistStore mimics artist persistence.
type fakeArtistStore struct {
	mu             sync.Mutex
	rows           map[string]database.Artist
	nextID         uint32
	nonPresentDate time.Time
}

func newFakeArtistStore() *fakeArtistStore {
	return &fakeArtistStore{rows: make(map[string]database.Artist)}
}

func (s *fakeArtistStore) seed(artist database.Artist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	artist.ID = s.nextID
	s.rows[artist.Name] = artist
}

func (s *fakeArtistStore) FindByName(ctx context.Context, name string) (*database.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[name]
	if !ok {
		return nil, nil
	}
	copied := row
	return &copied, nil
}

func (s *fakeArtistStore) SaveAndFlush(ctx context.Context, artist *database.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if artist.ID == 0 {
		s.nextID++
		artist.ID = s.nextID
	}
	s.rows[artist.Name] = *artist
	return nil
}

func (s *fakeArtistStore) MarkNonPresent(ctx context.Context, scanDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonPresentDate = scanDate
	return nil
}

func (s *fakeArtistStore) get(name string) (database.Artist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[name]
	return row, ok
}

// fakeIndex records index activity and last-scan statistics.
type fakeIndex struct {
	mu            sync.Mutex
	started       int
	stopped       int
	indexedFiles  int
	indexedAlbums int
	stats         *database.IndexStatistics
}

func (i *fakeIndex) StartIndexing(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.started++
	return nil
}

func (i *fakeIndex) IndexFile(file *database.MediaFile, folder *database.MusicFolder) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexedFiles++
}

func (i *fakeIndex) IndexAlbum(album *database.Album) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexedAlbums++
}

func (i *fakeIndex) IndexArtist(artist *database.Artist, folder *database.MusicFolder) {}

func (i *fakeIndex) StopIndexing(ctx context.Context, stats database.IndexStatistics) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stopped++
	i.stats = &stats
	return nil
}

func (i *fakeIndex) Statistics(ctx context.Context) (*database.IndexStatistics, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats, nil
}

// fakeCoverArt serves pre-registered art and records persistence requests.
type fakeCoverArt struct {
	mu        sync.Mutex
	art       map[string]*database.CoverArt
	persisted map[string]*database.CoverArt
}

func newFakeCoverArt() *fakeCoverArt {
	return &fakeCoverArt{art: make(map[string]*database.CoverArt), persisted: make(map[string]*database.CoverArt)}
}

func (c *fakeCoverArt) register(entityType, entityID string, art *database.CoverArt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.art[entityType+"/"+entityID] = art
}

func (c *fakeCoverArt) Get(ctx context.Context, entityType, entityID string) (*database.CoverArt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.art[entityType+"/"+entityID], nil
}

func (c *fakeCoverArt) PersistIfNeeded(ctx context.Context, entityType, entityID string, art *database.CoverArt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persisted[entityType+"/"+entityID] = art
	return nil
}

// fakePlaylists counts import attempts and can block to hold a scan open.
type fakePlaylists struct {
	mu       sync.Mutex
	imported int
	block    chan struct{}
}

func (p *fakePlaylists) ImportPlaylists(ctx context.Context) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imported++
	return nil
}

func (p *fakePlaylists) importCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imported
}

package scanner

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// scanContext holds the scratch state for one scan run. All of its maps
// are safe for concurrent use by traversal workers and are consumed exactly
// once by the reconciliation phase; a context is never reused across runs.
type scanContext struct {
	sem        *semaphore.Weighted
	statistics *MediaLibraryStatistics
	genres     *Genres

	albums      albumMap
	artists     artistMap
	albumsInDB  adoptedAlbums
	albumCount  artistAlbumCounter
	encountered encounteredSet
}

func newScanContext(parallelism int64, separators string, splitGenres bool) *scanContext {
	return &scanContext{
		sem:        semaphore.NewWeighted(parallelism),
		statistics: NewStatistics(),
		genres:     NewGenres(separators, splitGenres),
		albums:     albumMap{entries: make(map[string]*albumEntry)},
		artists:    artistMap{entries: make(map[string]*artistEntry)},
		albumsInDB: adoptedAlbums{albums: make(map[uint32]*database.Album)},
		albumCount: artistAlbumCounter{counts: make(map[string]int)},
		encountered: encounteredSet{
			paths: make(map[uint32]map[string]struct{}),
		},
	}
}

// albumMap resolves album aggregates by (name, artist) identity key.
// Compute serializes per key: lookups and mutations for the same album are
// one indivisible step, so concurrent visits to the same album never lose
// updates or race to create duplicate identities.
type albumMap struct {
	mu      sync.Mutex
	entries map[string]*albumEntry
}

type albumEntry struct {
	mu    sync.Mutex
	album *database.Album
}

func (m *albumMap) compute(key string, fn func(current *database.Album) (*database.Album, error)) (*database.Album, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &albumEntry{}
		m.entries[key] = entry
	}
	m.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	album, err := fn(entry.album)
	if err != nil {
		return nil, err
	}
	entry.album = album
	return album, nil
}

// values returns the distinct resolved albums. Adopted persisted albums can
// be reached through several keys; duplicates are collapsed.
func (m *albumMap) values() []*database.Album {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[*database.Album]struct{}, len(m.entries))
	out := make([]*database.Album, 0, len(m.entries))
	for _, entry := range m.entries {
		entry.mu.Lock()
		album := entry.album
		entry.mu.Unlock()
		if album == nil {
			continue
		}
		if _, dup := seen[album]; dup {
			continue
		}
		seen[album] = struct{}{}
		out = append(out, album)
	}
	return out
}

// artistMap mirrors albumMap for artist aggregates keyed by name.
type artistMap struct {
	mu      sync.Mutex
	entries map[string]*artistEntry
}

type artistEntry struct {
	mu     sync.Mutex
	artist *database.Artist
}

func (m *artistMap) compute(key string, fn func(current *database.Artist) (*database.Artist, error)) (*database.Artist, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &artistEntry{}
		m.entries[key] = entry
	}
	m.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	artist, err := fn(entry.artist)
	if err != nil {
		return nil, err
	}
	entry.artist = artist
	return artist, nil
}

func (m *artistMap) values() []*database.Artist {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*database.Artist, 0, len(m.entries))
	for _, entry := range m.entries {
		entry.mu.Lock()
		if entry.artist != nil {
			out = append(out, entry.artist)
		}
		entry.mu.Unlock()
	}
	return out
}

// adoptedAlbums tracks persisted albums adopted into this run. Adoption
// resets the album's accumulated duration and song count exactly once per
// run, not once per lookup.
type adoptedAlbums struct {
	mu     sync.Mutex
	albums map[uint32]*database.Album
}

func (a *adoptedAlbums) adopt(album *database.Album) *database.Album {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.albums[album.ID]; ok {
		return existing
	}
	album.DurationSeconds = 0
	album.SongCount = 0
	a.albums[album.ID] = album
	return album
}

// artistAlbumCounter tallies albums first encountered this run per artist.
type artistAlbumCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *artistAlbumCounter) increment(artist string) {
	c.mu.Lock()
	c.counts[artist]++
	c.mu.Unlock()
}

func (c *artistAlbumCounter) get(artist string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[artist]
}

func (c *artistAlbumCounter) distinctArtists() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

func (c *artistAlbumCounter) totalAlbums() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// encounteredSet records, per folder, the relative paths visited this run.
type encounteredSet struct {
	mu    sync.Mutex
	paths map[uint32]map[string]struct{}
}

func (e *encounteredSet) add(folderID uint32, path string) {
	e.mu.Lock()
	set, ok := e.paths[folderID]
	if !ok {
		set = make(map[string]struct{})
		e.paths[folderID] = set
	}
	set[path] = struct{}{}
	e.mu.Unlock()
}

// byFolder returns the visited paths as slices keyed by folder.
func (e *encounteredSet) byFolder() map[uint32][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[uint32][]string, len(e.paths))
	for folderID, set := range e.paths {
		paths := make([]string, 0, len(set))
		for p := range set {
			paths = append(paths, p)
		}
		out[folderID] = paths
	}
	return out
}

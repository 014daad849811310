package scanner

import (
	"context"
	"time"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// FolderStore provides the configured library roots.
type FolderStore interface {
	All(ctx context.Context) ([]*database.MusicFolder, error)
}

// MediaFileStore is the file-level persistence collaborator. Children is
// expected to return entries already annotated with prior-known metadata;
// the scan engine never parses tags itself.
type MediaFileStore interface {
	Root(ctx context.Context, folder *database.MusicFolder) (*database.MediaFile, error)
	Children(ctx context.Context, file *database.MediaFile) ([]*database.MediaFile, error)
	Parent(ctx context.Context, file *database.MediaFile) (*database.MediaFile, error)
	Update(ctx context.Context, file *database.MediaFile) error
	MarkPresent(ctx context.Context, encountered map[uint32][]string, scanDate time.Time) error
	MarkNonPresent(ctx context.Context, scanDate time.Time) error
	UpdateGenres(ctx context.Context, genres []database.Genre) error
}

// AlbumStore persists album aggregates.
type AlbumStore interface {
	FindByArtistAndName(ctx context.Context, artist, name string) (*database.Album, error)
	SaveAndFlush(ctx context.Context, album *database.Album) error
	MarkNonPresent(ctx context.Context, scanDate time.Time) error
}

// ArtistStore persists artist aggregates.
type ArtistStore interface {
	FindByName(ctx context.Context, name string) (*database.Artist, error)
	SaveAndFlush(ctx context.Context, artist *database.Artist) error
	MarkNonPresent(ctx context.Context, scanDate time.Time) error
}

// IndexWriter feeds scanned entities into the search index. The Index*
// methods are called concurrently from traversal workers and must not
// block the scan on failure.
type IndexWriter interface {
	StartIndexing(ctx context.Context) error
	IndexFile(file *database.MediaFile, folder *database.MusicFolder)
	IndexAlbum(album *database.Album)
	IndexArtist(artist *database.Artist, folder *database.MusicFolder)
	StopIndexing(ctx context.Context, stats database.IndexStatistics) error
	Statistics(ctx context.Context) (*database.IndexStatistics, error)
}

// CoverArtProvider resolves and persists cover art links.
type CoverArtProvider interface {
	Get(ctx context.Context, entityType, entityID string) (*database.CoverArt, error)
	PersistIfNeeded(ctx context.Context, entityType, entityID string, art *database.CoverArt) error
}

// PlaylistImporter imports playlist files; attempted after every scan.
type PlaylistImporter interface {
	ImportPlaylists(ctx context.Context) error
}

package scanner

import (
	"sync/atomic"
	"time"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// MediaLibraryStatistics accumulates scan-scoped counters. Its scan date is
// the run's watermark: aggregates stamped with it are "present this run".
// All counters are safe for concurrent use by traversal workers.
type MediaLibraryStatistics struct {
	scanDate time.Time

	songs          atomic.Int64
	albums         atomic.Int64
	artists        atomic.Int64
	durationMillis atomic.Int64
	sizeBytes      atomic.Int64
}

// NewStatistics creates statistics stamped with the current time.
func NewStatistics() *MediaLibraryStatistics {
	return &MediaLibraryStatistics{scanDate: time.Now().UTC()}
}

// ScanDate returns the run's watermark.
func (s *MediaLibraryStatistics) ScanDate() time.Time {
	return s.scanDate
}

// IncrementSongs adds to the song counter.
func (s *MediaLibraryStatistics) IncrementSongs(n int64) {
	s.songs.Add(n)
}

// IncrementAlbums adds to the album counter.
func (s *MediaLibraryStatistics) IncrementAlbums(n int64) {
	s.albums.Add(n)
}

// IncrementArtists adds to the artist counter.
func (s *MediaLibraryStatistics) IncrementArtists(n int64) {
	s.artists.Add(n)
}

// AddDuration adds seconds to the total duration.
func (s *MediaLibraryStatistics) AddDuration(seconds float64) {
	s.durationMillis.Add(int64(seconds * 1000))
}

// AddBytes adds to the total size.
func (s *MediaLibraryStatistics) AddBytes(n int64) {
	s.sizeBytes.Add(n)
}

// Songs returns the song count so far.
func (s *MediaLibraryStatistics) Songs() int64 {
	return s.songs.Load()
}

// Snapshot returns a persistable view of the counters.
func (s *MediaLibraryStatistics) Snapshot() database.IndexStatistics {
	return database.IndexStatistics{
		SongCount:            s.songs.Load(),
		AlbumCount:           s.albums.Load(),
		ArtistCount:          s.artists.Load(),
		TotalDurationSeconds: float64(s.durationMillis.Load()) / 1000,
		TotalSizeBytes:       s.sizeBytes.Load(),
		ScanDate:             s.scanDate,
	}
}

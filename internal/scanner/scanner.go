// Package scanner implements the media library scan engine: concurrent
// filesystem traversal, album and artist aggregation, and post-scan
// reconciliation of presence state.
package scanner

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/fsbruva/airsonic-advanced/internal/config"
	"github.com/fsbruva/airsonic-advanced/internal/database"
	"github.com/fsbruva/airsonic-advanced/internal/events"
	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// Service orchestrates media library scans. At most one scan runs at a
// time; requests made while a scan is active are ignored.
type Service struct {
	cfg config.ScannerConfig

	folders   FolderStore
	files     MediaFileStore
	albums    AlbumStore
	artists   ArtistStore
	index     IndexWriter
	coverArt  CoverArtProvider
	playlists PlaylistImporter
	bus       events.EventBus
	throttler *Throttler
	log       hclog.Logger

	mu        sync.Mutex
	scanning  bool
	scanCount atomic.Int64
}

// New creates a scan service. The throttler may be nil to scan at full speed.
func New(
	cfg config.ScannerConfig,
	folders FolderStore,
	files MediaFileStore,
	albums AlbumStore,
	artists ArtistStore,
	index IndexWriter,
	coverArt CoverArtProvider,
	playlists PlaylistImporter,
	bus events.EventBus,
	throttler *Throttler,
) *Service {
	return &Service{
		cfg:       cfg,
		folders:   folders,
		files:     files,
		albums:    albums,
		artists:   artists,
		index:     index,
		coverArt:  coverArt,
		playlists: playlists,
		bus:       bus,
		throttler: throttler,
		log:       logger.Named("scanner"),
	}
}

// IsScanning reports whether a scan is currently running.
func (s *Service) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// ScanCount returns the number of entries processed by the current or most
// recent scan.
func (s *Service) ScanCount() int64 {
	return s.scanCount.Load()
}

// NeverScanned reports whether the library has never completed a scan.
func (s *Service) NeverScanned(ctx context.Context) (bool, error) {
	stats, err := s.index.Statistics(ctx)
	if err != nil {
		return false, err
	}
	return stats == nil, nil
}

// Statistics returns the totals recorded by the most recent completed scan,
// or nil when the library has never been scanned.
func (s *Service) Statistics(ctx context.Context) (*database.IndexStatistics, error) {
	return s.index.Statistics(ctx)
}

// ScanLibrary starts a scan in the background. A second call while a scan
// is running is a silent no-op. The scanning flag flips and the status
// broadcast goes out in the same critical section, so observers never see
// a started scan without a broadcast.
func (s *Service) ScanLibrary() {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return
	}
	s.scanning = true
	s.scanCount.Store(0)
	s.broadcastStatus(true, 0)
	s.mu.Unlock()

	go s.run(context.Background())
}

// run executes one scan with the configured deadline. The traversal is not
// cancelled on timeout; it keeps writing in the background while the run
// moves on. Playlist import is attempted after every outcome, and the
// scanning flag is released last.
func (s *Service) run(ctx context.Context) {
	timeout := s.cfg.Timeout()

	done := make(chan error, 1)
	go func() {
		done <- s.doScanLibrary(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Error("media library scan failed", "error", err)
			s.bus.PublishAsync(events.NewSystemEvent(events.EventScanFailed, "Scan failed", err.Error()))
		} else {
			s.log.Info("media library scan completed", "scanned", s.scanCount.Load())
			s.bus.PublishAsync(events.NewSystemEvent(events.EventScanCompleted, "Scan completed", ""))
		}
	case <-time.After(timeout):
		s.log.Error("media library scan timed out", "timeout", timeout)
		s.bus.PublishAsync(events.NewSystemEvent(events.EventScanTimedOut, "Scan timed out", timeout.String()))
	}

	if err := s.playlists.ImportPlaylists(ctx); err != nil {
		s.log.Warn("playlist import failed", "error", err)
	}

	s.mu.Lock()
	s.scanning = false
	s.broadcastStatus(false, s.scanCount.Load())
	s.mu.Unlock()
}

func (s *Service) doScanLibrary(ctx context.Context) error {
	start := time.Now()
	s.log.Info("starting media library scan", "full", s.cfg.FullScan, "parallelism", s.parallelism())
	s.bus.PublishAsync(events.NewSystemEvent(events.EventScanStarted, "Scan started", ""))

	if err := s.index.StartIndexing(ctx); err != nil {
		return err
	}

	sc := newScanContext(int64(s.parallelism()), s.cfg.GenreSeparators, s.cfg.GenreSeparators != "")
	defer func() {
		if err := s.index.StopIndexing(ctx, sc.statistics.Snapshot()); err != nil {
			s.log.Warn("failed to finalize search index", "error", err)
		}
		s.log.Info("media library scan finished",
			"songs", sc.statistics.Songs(),
			"duration", time.Since(start).Round(time.Millisecond))
	}()

	folders, err := s.folders.All(ctx)
	if err != nil {
		return err
	}
	for _, folder := range folders {
		root, err := s.files.Root(ctx, folder)
		if err != nil {
			s.log.Warn("skipping unreadable folder", "folder", folder.Name, "error", err)
			continue
		}
		s.scanFile(ctx, sc, root, folder)
	}

	sc.statistics.IncrementArtists(int64(sc.albumCount.distinctArtists()))
	sc.statistics.IncrementAlbums(int64(sc.albumCount.totalAlbums()))

	return s.reconcile(ctx, sc)
}

// reconcile persists the run's aggregates and flips presence in four
// concurrent phases: albums, artists, media files, and genres. The phases
// are independent; a failure in one never stops the others, so no shared
// cancel context here. Each phase logs its own failure and the first error
// is reported after all four have finished.
func (s *Service) reconcile(ctx context.Context, sc *scanContext) error {
	scanDate := sc.statistics.ScanDate()
	var g errgroup.Group

	g.Go(func() error {
		err := s.reconcileAlbums(ctx, sc, scanDate)
		if err != nil {
			s.log.Error("album reconciliation failed", "error", err)
		}
		return err
	})

	g.Go(func() error {
		err := s.reconcileArtists(ctx, sc, scanDate)
		if err != nil {
			s.log.Error("artist reconciliation failed", "error", err)
		}
		return err
	})

	g.Go(func() error {
		err := s.reconcileFiles(ctx, sc, scanDate)
		if err != nil {
			s.log.Error("file presence reconciliation failed", "error", err)
		}
		return err
	})

	g.Go(func() error {
		err := s.files.UpdateGenres(ctx, sc.genres.All())
		if err != nil {
			s.log.Error("genre reconciliation failed", "error", err)
		}
		return err
	})

	return g.Wait()
}

func (s *Service) reconcileAlbums(ctx context.Context, sc *scanContext, scanDate time.Time) error {
	for _, album := range sc.albums.values() {
		if err := s.albums.SaveAndFlush(ctx, album); err != nil {
			return err
		}
		if album.Art != nil {
			id := strconv.FormatUint(uint64(album.ID), 10)
			if err := s.coverArt.PersistIfNeeded(ctx, database.EntityTypeAlbum, id, album.Art); err != nil {
				s.log.Warn("failed to persist album art", "album", album.Name, "error", err)
			}
		}
	}
	return s.albums.MarkNonPresent(ctx, scanDate)
}

func (s *Service) reconcileArtists(ctx context.Context, sc *scanContext, scanDate time.Time) error {
	for _, artist := range sc.artists.values() {
		if err := s.artists.SaveAndFlush(ctx, artist); err != nil {
			return err
		}
		if artist.Art != nil {
			id := strconv.FormatUint(uint64(artist.ID), 10)
			if err := s.coverArt.PersistIfNeeded(ctx, database.EntityTypeArtist, id, artist.Art); err != nil {
				s.log.Warn("failed to persist artist art", "artist", artist.Name, "error", err)
			}
		}
	}
	return s.artists.MarkNonPresent(ctx, scanDate)
}

func (s *Service) reconcileFiles(ctx context.Context, sc *scanContext, scanDate time.Time) error {
	if err := s.files.MarkPresent(ctx, sc.encountered.byFolder(), scanDate); err != nil {
		return err
	}
	return s.files.MarkNonPresent(ctx, scanDate)
}

func (s *Service) parallelism() int {
	if s.cfg.Parallelism > 0 {
		return s.cfg.Parallelism
	}
	return runtime.NumCPU()
}

func (s *Service) broadcastStatus(scanning bool, count int64) {
	event := events.NewSystemEvent(events.EventScanStatus, "Scan status", "")
	event.Data = map[string]interface{}{
		"scanning": scanning,
		"count":    count,
	}
	s.bus.PublishAsync(event)
}

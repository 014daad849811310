package scanner

import (
	"context"
	"sync"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// progressInterval is the number of scanned entries between progress
// broadcasts.
const progressInterval = 250

// scanFile processes one catalog entry and recurses into its children.
// Directory children fan out onto new goroutines while the run's semaphore
// has capacity and are scanned inline once it is exhausted, so traversal
// degrades to depth-first instead of blocking. An unreadable directory is
// logged and its subtree skipped; the rest of the scan continues.
func (s *Service) scanFile(ctx context.Context, sc *scanContext, file *database.MediaFile, folder *database.MusicFolder) {
	if s.throttler != nil {
		s.throttler.Wait(ctx)
	}

	count := s.scanCount.Add(1)
	if count%progressInterval == 0 {
		// Report the live flag: a traversal that outlived its run's timeout
		// must not resurrect scanning=true after the final idle broadcast.
		s.broadcastStatus(s.IsScanning(), count)
		s.log.Info("scan in progress", "scanned", count)
	}

	// Entries can move between library roots on disk; re-home the row before
	// anything downstream keys off the folder.
	if file.FolderID != folder.ID {
		file.FolderID = folder.ID
		if err := s.files.Update(ctx, file); err != nil {
			s.log.Warn("failed to re-associate entry with folder", "path", file.Path, "folder", folder.Name, "error", err)
		}
	}

	s.index.IndexFile(file, folder)

	if file.IsDirectory() {
		children, err := s.files.Children(ctx, file)
		if err != nil {
			s.log.Warn("skipping unreadable directory", "path", file.Path, "error", err)
		} else {
			var wg sync.WaitGroup
			for _, child := range children {
				if sc.sem.TryAcquire(1) {
					wg.Add(1)
					go func(child *database.MediaFile) {
						defer wg.Done()
						defer sc.sem.Release(1)
						s.scanFile(ctx, sc, child, folder)
					}(child)
				} else {
					s.scanFile(ctx, sc, child, folder)
				}
			}
			wg.Wait()
		}
	} else {
		// Only media folders feed the album and artist aggregates; podcast
		// and upload folders still get their files counted.
		if folder.Type == database.FolderTypeMedia {
			if err := s.updateAlbum(ctx, sc, file, folder); err != nil {
				s.log.Warn("failed to update album", "path", file.Path, "error", err)
			}
			if err := s.updateArtist(ctx, sc, file, folder); err != nil {
				s.log.Warn("failed to update artist", "path", file.Path, "error", err)
			}
		}
		sc.statistics.IncrementSongs(1)
	}

	s.updateGenres(sc, file)
	sc.encountered.add(folder.ID, file.Path)

	// Cue-sheet virtual tracks share their parent's bytes and duration;
	// counting them would double the totals.
	if !file.IsIndexedTrack() {
		sc.statistics.AddDuration(file.DurationSeconds)
		sc.statistics.AddBytes(file.FileSize)
	}
}

func (s *Service) updateGenres(sc *scanContext, file *database.MediaFile) {
	if file.Genre == "" {
		return
	}
	if file.IsAlbum() {
		sc.genres.IncrementAlbumCount(file.Genre)
	} else if file.IsAudio() {
		sc.genres.IncrementSongCount(file.Genre)
	}
}

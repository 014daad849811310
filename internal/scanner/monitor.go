package scanner

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// Watcher starts a scan when library roots change on disk. Filesystem
// events are debounced so a burst of writes, a rip or a large copy, turns
// into a single scan after the burst settles.
type Watcher struct {
	watcher  *fsnotify.Watcher
	svc      *Service
	folders  FolderStore
	debounce time.Duration
	log      hclog.Logger
}

// NewWatcher creates a filesystem watcher for the given scan service.
func NewWatcher(svc *Service, folders FolderStore) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		svc:      svc,
		folders:  folders,
		debounce: 30 * time.Second,
		log:      logger.Named("watcher"),
	}, nil
}

// Start registers the enabled library roots and begins watching. Roots
// that cannot be watched are logged and skipped.
func (w *Watcher) Start(ctx context.Context) error {
	folders, err := w.folders.All(ctx)
	if err != nil {
		return err
	}
	for _, folder := range folders {
		if err := w.watcher.Add(folder.Path); err != nil {
			w.log.Warn("cannot watch folder", "folder", folder.Name, "path", folder.Path, "error", err)
			continue
		}
		w.log.Info("watching folder for changes", "folder", folder.Name, "path", folder.Path)
	}
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			w.log.Info("library changed on disk, starting scan")
			w.svc.ScanLibrary()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("filesystem watch error", "error", err)
		}
	}
}

// Stop closes the watcher and ends the event loop.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

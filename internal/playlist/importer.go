// Package playlist imports playlist files from the configured playlist
// folder into the catalog. Import runs after every library scan, whether
// the scan succeeded, failed, or timed out.
package playlist

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fsbruva/airsonic-advanced/internal/database"
	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// Importer scans the playlist folder for m3u files.
type Importer struct {
	db     *gorm.DB
	folder string
}

// NewImporter creates a playlist importer reading from the given folder.
func NewImporter(db *gorm.DB, folder string) *Importer {
	return &Importer{db: db, folder: folder}
}

// ImportPlaylists walks the playlist folder and upserts one playlist row
// per m3u/m3u8 file found. A missing folder is not an error.
func (i *Importer) ImportPlaylists(ctx context.Context) error {
	entries, err := os.ReadDir(i.folder)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("playlist folder does not exist, skipping import", "folder", i.folder)
			return nil
		}
		return err
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".m3u" && ext != ".m3u8" {
			continue
		}
		path := filepath.Join(i.folder, entry.Name())
		count, err := countEntries(path)
		if err != nil {
			logger.Warn("failed to read playlist file", "path", path, "error", err)
			continue
		}
		row := database.Playlist{
			Name:       strings.TrimSuffix(entry.Name(), ext),
			Path:       path,
			EntryCount: count,
			ImportedAt: time.Now(),
		}
		err = i.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "entry_count", "imported_at", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			logger.Warn("failed to import playlist", "path", path, "error", err)
			continue
		}
		imported++
	}

	if imported > 0 {
		logger.Info("imported playlists", "count", imported, "folder", i.folder)
	}
	return nil
}

func countEntries(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		count++
	}
	return count, scanner.Err()
}

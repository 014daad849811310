// Package search maintains the searchable entity index and the per-scan
// library statistics row that doubles as the "last scanned" record.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fsbruva/airsonic-advanced/internal/database"
	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// IndexManager writes scanned entities into the search index.
type IndexManager struct {
	db *gorm.DB
}

// NewIndexManager creates an index manager.
func NewIndexManager(db *gorm.DB) *IndexManager {
	return &IndexManager{db: db}
}

// StartIndexing prepares the index for a scan run.
func (m *IndexManager) StartIndexing(ctx context.Context) error {
	// Entries are upserted in place during the scan; nothing to reset.
	logger.Debug("search indexing started")
	return nil
}

// IndexFile indexes a media file entry. Failures are logged, never fatal:
// the scan must not stop because a single row could not be indexed.
func (m *IndexManager) IndexFile(file *database.MediaFile, folder *database.MusicFolder) {
	m.upsert(database.SearchEntry{
		EntityType: database.EntityTypeMediaFile,
		EntityID:   file.ID,
		Name:       file.Title,
		FolderID:   folder.ID,
	})
}

// IndexAlbum indexes an album aggregate.
func (m *IndexManager) IndexAlbum(album *database.Album) {
	m.upsert(database.SearchEntry{
		EntityType: database.EntityTypeAlbum,
		EntityID:   strconv.FormatUint(uint64(album.ID), 10),
		Name:       album.Name,
		FolderID:   album.FolderID,
	})
}

// IndexArtist indexes an artist aggregate.
func (m *IndexManager) IndexArtist(artist *database.Artist, folder *database.MusicFolder) {
	m.upsert(database.SearchEntry{
		EntityType: database.EntityTypeArtist,
		EntityID:   strconv.FormatUint(uint64(artist.ID), 10),
		Name:       artist.Name,
		FolderID:   folder.ID,
	})
}

func (m *IndexManager) upsert(entry database.SearchEntry) {
	err := m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "folder_id", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		logger.Warn("failed to index entity", "entity_type", entry.EntityType, "entity_id", entry.EntityID, "error", err)
	}
}

// StopIndexing finalizes the run by recording its statistics.
func (m *IndexManager) StopIndexing(ctx context.Context, stats database.IndexStatistics) error {
	if err := m.db.WithContext(ctx).Create(&stats).Error; err != nil {
		return fmt.Errorf("failed to persist index statistics: %w", err)
	}
	logger.Debug("search indexing stopped", "songs", stats.SongCount, "albums", stats.AlbumCount, "artists", stats.ArtistCount)
	return nil
}

// Statistics returns the most recent scan statistics, or nil when the
// library has never been scanned.
func (m *IndexManager) Statistics(ctx context.Context) (*database.IndexStatistics, error) {
	var stats database.IndexStatistics
	err := m.db.WithContext(ctx).Order("scan_date DESC").First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

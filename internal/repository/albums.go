package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// AlbumRepository persists album aggregates.
type AlbumRepository struct {
	db *gorm.DB
}

// NewAlbumRepository creates an album repository.
func NewAlbumRepository(db *gorm.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// FindByArtistAndName returns the persisted album for the identity key, or
// nil when none exists.
func (r *AlbumRepository) FindByArtistAndName(ctx context.Context, artist, name string) (*database.Album, error) {
	var album database.Album
	err := r.db.WithContext(ctx).
		Where("artist = ? AND name = ?", artist, name).
		First(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// SaveAndFlush writes the album synchronously so concurrent lookups observe
// a stable identity.
func (r *AlbumRepository) SaveAndFlush(ctx context.Context, album *database.Album) error {
	return r.db.WithContext(ctx).Save(album).Error
}

// MarkNonPresent flags albums whose watermark predates the scan date.
func (r *AlbumRepository) MarkNonPresent(ctx context.Context, scanDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&database.Album{}).
		Where("last_scanned < ? AND present", scanDate).
		Update("present", false).Error
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// ArtistRepository persists artist aggregates.
type ArtistRepository struct {
	db *gorm.DB
}

// NewArtistRepository creates an artist repository.
func NewArtistRepository(db *gorm.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// FindByName returns the persisted artist, or nil when none exists.
func (r *ArtistRepository) FindByName(ctx context.Context, name string) (*database.Artist, error) {
	var artist database.Artist
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&artist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// SaveAndFlush writes the artist synchronously.
func (r *ArtistRepository) SaveAndFlush(ctx context.Context, artist *database.Artist) error {
	return r.db.WithContext(ctx).Save(artist).Error
}

// MarkNonPresent flags artists whose watermark predates the scan date.
func (r *ArtistRepository) MarkNonPresent(ctx context.Context, scanDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&database.Artist{}).
		Where("last_scanned < ? AND present", scanDate).
		Update("present", false).Error
}

// Package coverart resolves and persists cover art links between image
// files and the entities that own them.
package coverart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// Service looks up and persists cover art rows.
type Service struct {
	db *gorm.DB
}

// NewService creates a cover art service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get returns the art attached to an entity, or nil when it has none.
func (s *Service) Get(ctx context.Context, entityType, entityID string) (*database.CoverArt, error) {
	var art database.CoverArt
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		First(&art).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// PersistIfNeeded stores art for an entity unless it already has some.
// Art attaches at most once; existing art is never replaced by a scan.
func (s *Service) PersistIfNeeded(ctx context.Context, entityType, entityID string, art *database.CoverArt) error {
	if art == nil {
		return nil
	}
	existing, err := s.Get(ctx, entityType, entityID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	row := database.CoverArt{
		EntityType: entityType,
		EntityID:   entityID,
		Path:       art.Path,
		FolderID:   art.FolderID,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

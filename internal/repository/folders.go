package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// FolderRepository persists configured music folders.
type FolderRepository struct {
	db *gorm.DB
}

// NewFolderRepository creates a folder repository.
func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// All returns every enabled music folder.
func (r *FolderRepository) All(ctx context.Context) ([]*database.MusicFolder, error) {
	var folders []*database.MusicFolder
	err := r.db.WithContext(ctx).
		Where("enabled").
		Order("id").
		Find(&folders).Error
	return folders, err
}

// Ensure registers a folder path if it is not configured yet and returns the
// stored row.
func (r *FolderRepository) Ensure(ctx context.Context, name, path, folderType string) (*database.MusicFolder, error) {
	folder := database.MusicFolder{Name: name, Path: path, Type: folderType, Enabled: true}
	err := r.db.WithContext(ctx).
		Where("path = ?", path).
		FirstOrCreate(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

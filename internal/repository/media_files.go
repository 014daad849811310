// Package repository contains the gorm-backed stores for the media catalog.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

var audioFormats = map[string]bool{
	".mp3": true, ".flac": true, ".ogg": true, ".oga": true, ".m4a": true,
	".m4b": true, ".aac": true, ".wav": true, ".wma": true, ".opus": true,
	".ape": true, ".mpc": true, ".shn": true,
}

var videoFormats = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".webm": true,
	".flv": true, ".mpg": true, ".mpeg": true,
}

var imageFormats = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

const markPresentChunkSize = 500

// MediaFileRepository persists media file entries and reconciles their
// presence state against scan watermarks. When cue indexing is disabled,
// cue-sheet virtual tracks stay in the catalog but are not surfaced as
// directory children.
type MediaFileRepository struct {
	db          *gorm.DB
	cueIndexing bool
}

// NewMediaFileRepository creates a media file repository.
func NewMediaFileRepository(db *gorm.DB, cueIndexing bool) *MediaFileRepository {
	return &MediaFileRepository{db: db, cueIndexing: cueIndexing}
}

// Root returns the placeholder entry for a folder's root directory,
// creating it when the folder has never been scanned.
func (r *MediaFileRepository) Root(ctx context.Context, folder *database.MusicFolder) (*database.MediaFile, error) {
	var root database.MediaFile
	err := r.db.WithContext(ctx).
		Where("folder_id = ? AND path = ?", folder.ID, "").
		First(&root).Error
	if err == nil {
		return &root, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load root entry for folder %q: %w", folder.Name, err)
	}

	info, err := os.Stat(folder.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat folder %q: %w", folder.Path, err)
	}
	root = database.MediaFile{
		ID:            uuid.NewString(),
		FolderID:      folder.ID,
		Path:          "",
		MediaType:     database.TypeDirectory,
		Title:         folder.Name,
		StartPosition: -1,
		Changed:       info.ModTime(),
	}
	if err := r.db.WithContext(ctx).Create(&root).Error; err != nil {
		return nil, fmt.Errorf("failed to create root entry for folder %q: %w", folder.Name, err)
	}
	return &root, nil
}

// Children lists a directory entry's children, merging the on-disk state
// with previously known metadata. New files get fresh rows; images are not
// returned as entries but recorded as cover-art candidates for the parent.
func (r *MediaFileRepository) Children(ctx context.Context, file *database.MediaFile) ([]*database.MediaFile, error) {
	var folder database.MusicFolder
	if err := r.db.WithContext(ctx).First(&folder, file.FolderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load folder %d: %w", file.FolderID, err)
	}

	absDir := filepath.Join(folder.Path, filepath.FromSlash(file.Path))
	dirents, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", absDir, err)
	}

	var existing []database.MediaFile
	if err := r.db.WithContext(ctx).
		Where("folder_id = ? AND parent_path = ? AND path <> ''", file.FolderID, file.Path).
		Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load known children of %q: %w", file.Path, err)
	}
	known := make(map[string]*database.MediaFile, len(existing))
	for i := range existing {
		known[existing[i].Path] = &existing[i]
	}

	children := make([]*database.MediaFile, 0, len(dirents))
	hasAudio := false
	for _, dirent := range dirents {
		name := dirent.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		relPath := name
		if file.Path != "" {
			relPath = file.Path + "/" + name
		}
		info, err := dirent.Info()
		if err != nil {
			continue
		}

		if !dirent.IsDir() {
			ext := strings.ToLower(filepath.Ext(name))
			if imageFormats[ext] {
				r.recordCoverArtCandidate(ctx, file, &folder, filepath.Join(absDir, name))
				continue
			}
			if !audioFormats[ext] && !videoFormats[ext] {
				continue
			}
		}

		child, ok := known[relPath]
		if !ok {
			child = r.newEntry(&folder, file, relPath, dirent.IsDir(), info)
			if err := r.db.WithContext(ctx).Create(child).Error; err != nil {
				return nil, fmt.Errorf("failed to create entry %q: %w", relPath, err)
			}
		} else if !dirent.IsDir() && (child.FileSize != info.Size() || !child.Changed.Equal(info.ModTime())) {
			child.FileSize = info.Size()
			child.Changed = info.ModTime()
			if err := r.db.WithContext(ctx).Save(child).Error; err != nil {
				return nil, fmt.Errorf("failed to refresh entry %q: %w", relPath, err)
			}
		}
		if child.IsAudio() {
			hasAudio = true
		}
		children = append(children, child)
	}

	// Also surface cue-sheet virtual tracks carved from files in this
	// directory; they exist only in the catalog, never on disk.
	if r.cueIndexing {
		for i := range existing {
			if existing[i].IsIndexedTrack() {
				children = append(children, &existing[i])
			}
		}
	}

	// A directory directly holding audio is an album-level entry.
	if hasAudio && file.MediaType == database.TypeDirectory && file.Path != "" {
		file.MediaType = database.TypeAlbum
		if err := r.db.WithContext(ctx).Save(file).Error; err != nil {
			return nil, fmt.Errorf("failed to promote %q to album: %w", file.Path, err)
		}
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
	return children, nil
}

func (r *MediaFileRepository) newEntry(folder *database.MusicFolder, parent *database.MediaFile, relPath string, isDir bool, info os.FileInfo) *database.MediaFile {
	entry := &database.MediaFile{
		ID:            uuid.NewString(),
		FolderID:      folder.ID,
		Path:          relPath,
		ParentPath:    parent.Path,
		StartPosition: -1,
		Changed:       info.ModTime(),
	}
	name := filepath.Base(relPath)
	if isDir {
		entry.MediaType = database.TypeDirectory
		entry.Title = name
		return entry
	}

	ext := strings.ToLower(filepath.Ext(name))
	entry.Format = strings.TrimPrefix(ext, ".")
	entry.Title = strings.TrimSuffix(name, filepath.Ext(name))
	entry.FileSize = info.Size()
	switch {
	case videoFormats[ext]:
		entry.MediaType = database.TypeVideo
	case folder.Type == database.FolderTypePodcast:
		entry.MediaType = database.TypePodcast
	default:
		entry.MediaType = database.TypeMusic
	}
	return entry
}

func (r *MediaFileRepository) recordCoverArtCandidate(ctx context.Context, dir *database.MediaFile, folder *database.MusicFolder, absPath string) {
	art := database.CoverArt{
		EntityType: database.EntityTypeMediaFile,
		EntityID:   dir.ID,
		Path:       absPath,
		FolderID:   folder.ID,
	}
	// First image wins; later candidates for the same directory are ignored.
	r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", art.EntityType, art.EntityID).
		FirstOrCreate(&database.CoverArt{}, art)
}

// Parent returns the entry owning the given file, or nil when unknown.
func (r *MediaFileRepository) Parent(ctx context.Context, file *database.MediaFile) (*database.MediaFile, error) {
	var parent database.MediaFile
	err := r.db.WithContext(ctx).
		Where("folder_id = ? AND path = ?", file.FolderID, file.ParentPath).
		First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

// Update persists changes to an entry.
func (r *MediaFileRepository) Update(ctx context.Context, file *database.MediaFile) error {
	return r.db.WithContext(ctx).Save(file).Error
}

// MarkPresent flags every encountered path as present as of the scan date.
func (r *MediaFileRepository) MarkPresent(ctx context.Context, encountered map[uint32][]string, scanDate time.Time) error {
	for folderID, paths := range encountered {
		for start := 0; start < len(paths); start += markPresentChunkSize {
			end := start + markPresentChunkSize
			if end > len(paths) {
				end = len(paths)
			}
			err := r.db.WithContext(ctx).
				Model(&database.MediaFile{}).
				Where("folder_id = ? AND path IN ?", folderID, paths[start:end]).
				Updates(map[string]interface{}{"present": true, "last_scanned": scanDate}).Error
			if err != nil {
				return fmt.Errorf("failed to mark files present for folder %d: %w", folderID, err)
			}
		}
	}
	return nil
}

// MarkNonPresent flags every file whose watermark predates the scan date.
func (r *MediaFileRepository) MarkNonPresent(ctx context.Context, scanDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&database.MediaFile{}).
		Where("last_scanned < ? AND present", scanDate).
		Update("present", false).Error
}

// UpdateGenres replaces the stored genre tallies with this run's totals.
func (r *MediaFileRepository) UpdateGenres(ctx context.Context, genres []database.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&database.Genre{}).Error; err != nil {
			return err
		}
		if len(genres) == 0 {
			return nil
		}
		return tx.Create(&genres).Error
	})
}

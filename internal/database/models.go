package database

import (
	"time"
)

// MusicFolder represents a configured library root directory.
type MusicFolder struct {
	ID        uint32    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Path      string    `gorm:"not null;uniqueIndex" json:"path"`
	Type      string    `gorm:"not null;default:'media'" json:"type"` // media, podcast, upload
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Music folder types. Only "media" folders feed album/artist aggregation.
const (
	FolderTypeMedia   = "media"
	FolderTypePodcast = "podcast"
	FolderTypeUpload  = "upload"
)

// MediaType enum for media_files.media_type
type MediaType string

const (
	TypeDirectory MediaType = "directory"
	TypeAlbum     MediaType = "album"
	TypeMusic     MediaType = "music"
	TypeAudiobook MediaType = "audiobook"
	TypePodcast   MediaType = "podcast"
	TypeVideo     MediaType = "video"
)

// MediaFile represents one filesystem node (file or directory) known to the
// catalog. Paths are stored relative to the owning folder root.
type MediaFile struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FolderID   uint32    `gorm:"not null;uniqueIndex:idx_media_files_folder_path" json:"folder_id"`
	Path       string    `gorm:"uniqueIndex:idx_media_files_folder_path" json:"path"`
	ParentPath string    `gorm:"index" json:"parent_path"`
	MediaType  MediaType `gorm:"type:text;not null;index" json:"media_type"`
	Format     string    `json:"format"` // e.g. flac, mp3, ogg

	Title       string `json:"title"`
	AlbumName   string `json:"album_name"`
	Artist      string `json:"artist"`
	AlbumArtist string `json:"album_artist"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
	TrackNumber int    `json:"track_number"`

	DurationSeconds float64 `json:"duration_seconds"`
	FileSize        int64   `json:"file_size"`

	MusicBrainzReleaseID   string `json:"musicbrainz_release_id,omitempty"`
	MusicBrainzRecordingID string `json:"musicbrainz_recording_id,omitempty"`

	// StartPosition >= 0 marks a virtual track carved out of a physical file
	// by a cue sheet. Virtual tracks share their parent's duration and size.
	StartPosition float64 `gorm:"default:-1" json:"start_position"`

	Present     bool      `gorm:"index" json:"present"`
	LastScanned time.Time `gorm:"index" json:"last_scanned"`
	Changed     time.Time `json:"changed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsDirectory reports whether the entry can have children.
func (f *MediaFile) IsDirectory() bool {
	return f.MediaType == TypeDirectory || f.MediaType == TypeAlbum
}

// IsAlbum reports whether the entry is an album-level directory.
func (f *MediaFile) IsAlbum() bool {
	return f.MediaType == TypeAlbum
}

// IsAudio reports whether the entry is an audio leaf.
func (f *MediaFile) IsAudio() bool {
	switch f.MediaType {
	case TypeMusic, TypeAudiobook, TypePodcast:
		return true
	}
	return false
}

// IsIndexedTrack reports whether the entry is a cue-sheet virtual track.
func (f *MediaFile) IsIndexedTrack() bool {
	return f.StartPosition >= 0
}

// AlbumArtistOrArtist returns the artist used for album identity resolution.
func (f *MediaFile) AlbumArtistOrArtist() string {
	if f.AlbumArtist != "" {
		return f.AlbumArtist
	}
	return f.Artist
}

// Album is the per-album catalog aggregate, keyed by (name, artist).
type Album struct {
	ID                   uint32    `gorm:"primaryKey" json:"id"`
	Path                 string    `json:"path"`
	Name                 string    `gorm:"not null;index:idx_albums_artist_name" json:"name"`
	Artist               string    `gorm:"not null;index:idx_albums_artist_name" json:"artist"`
	SongCount            int       `json:"song_count"`
	DurationSeconds      float64   `json:"duration_seconds"`
	Year                 int       `json:"year"`
	Genre                string    `json:"genre"`
	MusicBrainzReleaseID string    `json:"musicbrainz_release_id,omitempty"`
	FolderID             uint32    `gorm:"index" json:"folder_id"`
	Created              time.Time `json:"created"`
	LastScanned          time.Time `gorm:"index" json:"last_scanned"`
	Present              bool      `gorm:"index" json:"present"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Art is candidate cover art discovered during the scan; persisted by the
	// cover-art service during reconciliation, never stored on this row.
	Art *CoverArt `gorm:"-" json:"-"`
}

// Artist is the per-artist catalog aggregate, keyed by album-artist name.
type Artist struct {
	ID          uint32    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	AlbumCount  int       `json:"album_count"`
	FolderID    uint32    `gorm:"index" json:"folder_id"`
	LastScanned time.Time `gorm:"index" json:"last_scanned"`
	Present     bool      `gorm:"index" json:"present"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Art *CoverArt `gorm:"-" json:"-"`
}

// Genre holds library-wide tallies for one genre label.
type Genre struct {
	Name       string `gorm:"primaryKey" json:"name"`
	SongCount  int    `json:"song_count"`
	AlbumCount int    `json:"album_count"`
}

// Cover art owner entity types.
const (
	EntityTypeAlbum     = "album"
	EntityTypeArtist    = "artist"
	EntityTypeMediaFile = "media_file"
)

// CoverArt links an image file to an owning entity.
type CoverArt struct {
	ID         uint32    `gorm:"primaryKey" json:"id"`
	EntityType string    `gorm:"not null;uniqueIndex:idx_cover_art_entity" json:"entity_type"`
	EntityID   string    `gorm:"not null;uniqueIndex:idx_cover_art_entity" json:"entity_id"`
	Path       string    `gorm:"not null" json:"path"`
	FolderID   uint32    `json:"folder_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SearchEntry is one searchable row maintained by the index writer.
type SearchEntry struct {
	ID         uint32    `gorm:"primaryKey" json:"id"`
	EntityType string    `gorm:"not null;uniqueIndex:idx_search_entries_entity" json:"entity_type"`
	EntityID   string    `gorm:"uniqueIndex:idx_search_entries_entity" json:"entity_id"`
	Name       string    `gorm:"index" json:"name"`
	FolderID   uint32    `json:"folder_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IndexStatistics records the totals of one completed scan. The newest row is
// the library's "last scanned" watermark; no rows means never scanned.
type IndexStatistics struct {
	ID                   uint32    `gorm:"primaryKey" json:"id"`
	SongCount            int64     `json:"song_count"`
	AlbumCount           int64     `json:"album_count"`
	ArtistCount          int64     `json:"artist_count"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	TotalSizeBytes       int64     `json:"total_size_bytes"`
	ScanDate             time.Time `gorm:"index" json:"scan_date"`
	CreatedAt            time.Time `json:"created_at"`
}

// Playlist represents an imported playlist file.
type Playlist struct {
	ID         uint32    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Path       string    `gorm:"not null;uniqueIndex" json:"path"`
	EntryCount int       `json:"entry_count"`
	ImportedAt time.Time `json:"imported_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

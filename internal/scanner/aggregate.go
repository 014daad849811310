package scanner

import (
	"context"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// updateAlbum resolves the album aggregate for an audio file and folds the
// file into it. Resolution order: in-run instance, then persisted album
// adopted with its counters reset, then a fresh aggregate. The whole
// read-modify-write runs under the identity key's lock, so concurrent files
// of the same album serialize and no increment is lost.
func (s *Service) updateAlbum(ctx context.Context, sc *scanContext, file *database.MediaFile, folder *database.MusicFolder) error {
	artistName := file.AlbumArtistOrArtist()
	if file.AlbumName == "" || artistName == "" || file.ParentPath == "" || !file.IsAudio() {
		return nil
	}

	scanDate := sc.statistics.ScanDate()
	album, err := sc.albums.compute(file.AlbumName+"\x00"+artistName, func(current *database.Album) (*database.Album, error) {
		album := current
		if album == nil {
			dbAlbum, err := s.albums.FindByArtistAndName(ctx, artistName, file.AlbumName)
			if err != nil {
				return nil, err
			}
			if dbAlbum != nil {
				album = sc.albumsInDB.adopt(dbAlbum)
			}
		}
		if album == nil {
			album = &database.Album{
				Path:    file.ParentPath,
				Name:    file.AlbumName,
				Artist:  artistName,
				Created: file.Changed,
			}
		}

		// A stale watermark means this is the run's first touch of the key.
		firstEncounter := !scanDate.Equal(album.LastScanned)

		album.DurationSeconds += file.DurationSeconds
		album.SongCount++
		album.LastScanned = scanDate
		album.Present = true

		// Optional fields refresh only from files that actually carry them.
		if file.MusicBrainzReleaseID != "" {
			album.MusicBrainzReleaseID = file.MusicBrainzReleaseID
		}
		if file.Year != 0 {
			album.Year = file.Year
		}
		if file.Genre != "" {
			album.Genre = file.Genre
		}

		if album.Art == nil {
			album.Art = s.parentArt(ctx, file, database.EntityTypeAlbum)
		}

		if firstEncounter {
			album.FolderID = folder.ID
			if err := s.albums.SaveAndFlush(ctx, album); err != nil {
				return nil, err
			}
			sc.albumCount.increment(artistName)
			s.index.IndexAlbum(album)
		}
		return album, nil
	})
	if err != nil {
		return err
	}

	// Keep the file's album-artist aligned with the album's artist of record.
	if album.Artist != file.AlbumArtist {
		file.AlbumArtist = album.Artist
		if err := s.files.Update(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

// updateArtist mirrors updateAlbum for the album-artist aggregate. The
// album count never regresses below a previously persisted value.
func (s *Service) updateArtist(ctx context.Context, sc *scanContext, file *database.MediaFile, folder *database.MusicFolder) error {
	if file.AlbumArtist == "" || !file.IsAudio() {
		return nil
	}

	scanDate := sc.statistics.ScanDate()
	_, err := sc.artists.compute(file.AlbumArtist, func(current *database.Artist) (*database.Artist, error) {
		artist := current
		if artist == nil {
			dbArtist, err := s.artists.FindByName(ctx, file.AlbumArtist)
			if err != nil {
				return nil, err
			}
			if dbArtist != nil {
				artist = dbArtist
			} else {
				artist = &database.Artist{Name: file.AlbumArtist}
			}
		}

		if n := sc.albumCount.get(artist.Name); n > artist.AlbumCount {
			artist.AlbumCount = n
		}

		firstEncounter := !scanDate.Equal(artist.LastScanned)
		artist.LastScanned = scanDate
		artist.Present = true

		if artist.Art == nil {
			artist.Art = s.parentArt(ctx, file, database.EntityTypeArtist)
		}

		if firstEncounter {
			artist.FolderID = folder.ID
			if err := s.artists.SaveAndFlush(ctx, artist); err != nil {
				return nil, err
			}
			s.index.IndexArtist(artist, folder)
		}
		return artist, nil
	})
	return err
}

// parentArt returns art attached to the file's parent directory entry,
// re-typed for the receiving entity. Failures degrade to "no art".
func (s *Service) parentArt(ctx context.Context, file *database.MediaFile, entityType string) *database.CoverArt {
	parent, err := s.files.Parent(ctx, file)
	if err != nil || parent == nil {
		return nil
	}
	art, err := s.coverArt.Get(ctx, database.EntityTypeMediaFile, parent.ID)
	if err != nil || art == nil {
		return nil
	}
	return &database.CoverArt{
		EntityType: entityType,
		Path:       art.Path,
		FolderID:   art.FolderID,
	}
}

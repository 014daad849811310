package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

func TestAlbumFindAndSaveRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlbumRepository(db)

	missing, err := repo.FindByArtistAndName(context.Background(), "Artist", "Album")
	require.NoError(t, err)
	assert.Nil(t, missing)

	album := &database.Album{Name: "Album", Artist: "Artist", SongCount: 3, Present: true}
	require.NoError(t, repo.SaveAndFlush(context.Background(), album))
	require.NotZero(t, album.ID)

	found, err := repo.FindByArtistAndName(context.Background(), "Artist", "Album")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, album.ID, found.ID)
	assert.Equal(t, 3, found.SongCount)
}

func TestAlbumMarkNonPresentFlipsStaleRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlbumRepository(db)

	old := time.Now().Add(-time.Hour).UTC()
	scanDate := time.Now().UTC()
	require.NoError(t, db.Create(&database.Album{Name: "Stale", Artist: "A", Present: true, LastScanned: old}).Error)
	require.NoError(t, db.Create(&database.Album{Name: "Fresh", Artist: "A", Present: true, LastScanned: scanDate}).Error)

	require.NoError(t, repo.MarkNonPresent(context.Background(), scanDate))

	var stale, fresh database.Album
	require.NoError(t, db.First(&stale, "name = ?", "Stale").Error)
	require.NoError(t, db.First(&fresh, "name = ?", "Fresh").Error)
	assert.False(t, stale.Present)
	assert.True(t, fresh.Present)
}

// The watermark comparison is the load-bearing part of the presence sweep;
// pin the generated SQL so a mapping change cannot silently widen it.
func TestAlbumMarkNonPresentSQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	scanDate := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "albums" SET .* WHERE last_scanned < .* AND present`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewAlbumRepository(db).MarkNonPresent(context.Background(), scanDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

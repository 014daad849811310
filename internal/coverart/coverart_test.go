package coverart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestGetReturnsNilWithoutArt(t *testing.T) {
	svc := NewService(newTestDB(t))
	art, err := svc.Get(context.Background(), database.EntityTypeAlbum, "1")
	require.NoError(t, err)
	assert.Nil(t, art)
}

func TestPersistIfNeededAttachesOnce(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	first := &database.CoverArt{Path: "/music/a/cover.jpg", FolderID: 1}
	require.NoError(t, svc.PersistIfNeeded(ctx, database.EntityTypeAlbum, "1", first))

	// A later candidate must not replace the existing art.
	second := &database.CoverArt{Path: "/music/a/back.jpg", FolderID: 1}
	require.NoError(t, svc.PersistIfNeeded(ctx, database.EntityTypeAlbum, "1", second))

	art, err := svc.Get(ctx, database.EntityTypeAlbum, "1")
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, "/music/a/cover.jpg", art.Path)
}

func TestPersistIfNeededIgnoresNil(t *testing.T) {
	svc := NewService(newTestDB(t))
	assert.NoError(t, svc.PersistIfNeeded(context.Background(), database.EntityTypeArtist, "9", nil))
}

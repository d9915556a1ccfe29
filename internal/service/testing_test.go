package service

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// setupTestDB opens a named in-memory database so every caller gets an
// isolated schema even though gorm pools connections.
func setupTestDB(t *testing.T, name string, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := "file:" + name + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

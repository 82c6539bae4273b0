package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/inventrack/internal/infrastructure/storage"
	"github.com/jhoicas/inventrack/pkg/config"
)

func TestOpen_SQLiteMigraAlAbrir(t *testing.T) {
	ctx := context.Background()
	cfg := config.DBConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "inv.db")}

	s, err := storage.Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, config.DriverSQLite, s.Driver)

	applied, err := s.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "las migraciones ya se aplicaron en Open")

	list, err := s.Products.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := storage.Open(context.Background(), config.DBConfig{Driver: "mysql"}, zerolog.Nop())
	assert.ErrorContains(t, err, "mysql")
}

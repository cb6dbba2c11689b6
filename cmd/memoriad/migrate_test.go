package main

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/internal/database"
	"github.com/ninaia/memoria/store"
)

// The serve and migrate paths live in one binary, so the gorm sqlite
// dialector and the migration tooling must share a single database/sql
// driver registration. A second registration panics at init, before main.
func TestMigrateAndStoreShareSQLiteDriver(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "memoria.db")

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	migrator, err := createMigrator(fs, []string{
		"--db-type", "sqlite",
		"--db-url", "file:" + dbPath + "?mode=rwc&_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, migrator.Up(ctx))

	version, dirty, err := migrator.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, migrator.Close())

	// The migrated file opens through the gorm dialector in the same process.
	docs, err := store.NewFileDocumentStore(filepath.Join(dir, "documents"), zap.NewNop())
	require.NoError(t, err)

	poolCfg := database.DefaultPoolConfig()
	poolCfg.HealthCheckInterval = 0

	st, err := store.Open(store.Config{
		Driver:          "sqlite",
		Path:            dbPath,
		Pool:            poolCfg,
		SkipAutoMigrate: true,
	}, docs, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.UpsertUser(ctx, "42", "maria"))
}

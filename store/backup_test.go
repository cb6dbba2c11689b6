package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninaia/memoria/types"
)

func TestBackupRestore_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))
	_, err := s.RecordInteraction(ctx, types.Interaction{
		UserID:         "u1",
		ChannelID:      "c1",
		ContentSummary: "antes do backup",
	})
	require.NoError(t, err)

	backupDir := filepath.Join(t.TempDir(), "snapshot")
	require.NoError(t, s.Backup(ctx, backupDir))

	// The snapshot contains the database file and the documents.
	_, err = os.Stat(filepath.Join(backupDir, backupDBFile))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(backupDir, backupDocsDir))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	// Diverge from the snapshot, then roll back.
	existed, err := s.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	require.True(t, existed)

	require.NoError(t, s.Restore(ctx, backupDir))

	profile, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, int64(1), profile.InteractionCount)

	got, err := s.GetRecentInteractions(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "antes do backup", got[0].ContentSummary)

	// The store keeps working after the connection swap.
	require.NoError(t, s.UpsertUser(ctx, "u2", "bob"))
}

func TestBackup_Repeatable(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))

	dir := filepath.Join(t.TempDir(), "snap")
	require.NoError(t, s.Backup(ctx, dir))
	// A second run replaces the previous snapshot in place.
	require.NoError(t, s.Backup(ctx, dir))
}

func TestRestore_MissingSnapshot(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	err := s.Restore(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestBackup_EmptyDir(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	err := s.Backup(context.Background(), "")
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

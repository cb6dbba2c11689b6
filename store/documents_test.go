package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/types"
)

func newFileStore(t *testing.T) *FileDocumentStore {
	t.Helper()
	s, err := NewFileDocumentStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestFileDocumentStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newFileStore(t)
	ctx := context.Background()

	in := map[string]string{"hello": "mundo"}
	require.NoError(t, s.Write(ctx, UserDocKey("42"), in))

	var out map[string]string
	require.NoError(t, s.Read(ctx, UserDocKey("42"), &out))
	assert.Equal(t, in, out)
}

func TestFileDocumentStore_ReadMissing(t *testing.T) {
	t.Parallel()
	s := newFileStore(t)

	var out map[string]string
	err := s.Read(context.Background(), "user_missing", &out)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestFileDocumentStore_MalformedDocument(t *testing.T) {
	t.Parallel()
	s := newFileStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "user_bad.json"), []byte("{not json"), 0o644))

	var out map[string]string
	err := s.Read(context.Background(), "user_bad", &out)
	require.Error(t, err)
	assert.Equal(t, types.ErrMalformedDocument, types.GetErrorCode(err))
}

func TestFileDocumentStore_SanitizesKeys(t *testing.T) {
	t.Parallel()
	s := newFileStore(t)
	ctx := context.Background()

	// A hostile id must not escape the documents directory.
	key := "user_../../etc/passwd"
	require.NoError(t, s.Write(ctx, key, map[string]string{"x": "y"}))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user_..~..~etc~passwd.json", entries[0].Name())

	var out map[string]string
	require.NoError(t, s.Read(ctx, key, &out))
}

func TestFileDocumentStore_DeleteIdempotent(t *testing.T) {
	t.Parallel()
	s := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "user_1", map[string]int{"a": 1}))
	require.NoError(t, s.Delete(ctx, "user_1"))
	require.NoError(t, s.Delete(ctx, "user_1"))

	var out map[string]int
	assert.True(t, types.IsNotFound(s.Read(ctx, "user_1", &out)))
}

func TestFileDocumentStore_ListByPrefix(t *testing.T) {
	t.Parallel()
	s := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, UserDocKey("1"), map[string]int{}))
	require.NoError(t, s.Write(ctx, UserDocKey("2"), map[string]int{}))
	require.NoError(t, s.Write(ctx, ChannelDocKey("9"), map[string]int{}))
	// Stray files from interrupted writes are invisible.
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ".tmp-123"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644))

	users, err := s.List(ctx, UserDocPrefix)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user_1", "user_2"}, users)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCopyDocuments(t *testing.T) {
	t.Parallel()
	src := newFileStore(t)
	dst := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, src.Write(ctx, "user_1", map[string]string{"a": "b"}))
	require.NoError(t, src.Write(ctx, "channel_2", map[string]string{"c": "d"}))

	copied, err := copyDocuments(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, copied)

	var out map[string]string
	require.NoError(t, dst.Read(ctx, "user_1", &out))
	assert.Equal(t, "b", out["a"])
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()
	cfg.Prefix = "test"
	cfg.HealthCheckInterval = 0

	m, err := NewManager(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m, mr
}

func TestManager_SetGet(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "user:42", `{"name":"Alice"}`, time.Minute))

	val, err := m.Get(ctx, "user:42")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Alice"}`, val)
}

func TestManager_GetMiss(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)

	_, err := m.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	type doc struct {
		Name  string   `json:"name"`
		Moods []string `json:"moods"`
	}

	in := doc{Name: "Bob", Moods: []string{"feliz", "neutro"}}
	require.NoError(t, m.SetJSON(ctx, "doc:user:1", in, 0))

	var out doc
	require.NoError(t, m.GetJSON(ctx, "doc:user:1", &out))
	assert.Equal(t, in, out)
}

func TestManager_KeyPrefix(t *testing.T) {
	t.Parallel()

	m, mr := newTestManager(t)

	require.NoError(t, m.Set(context.Background(), "channel:7", "x", time.Minute))

	// The raw key in Redis carries the configured prefix.
	assert.True(t, mr.Exists("test:channel:7"))
	assert.False(t, mr.Exists("channel:7"))
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, m.Set(ctx, "b", "2", time.Minute))

	require.NoError(t, m.Delete(ctx, "a", "b"))

	n, err := m.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestManager_DeleteByPattern(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "doc:user:1", "x", time.Minute))
	require.NoError(t, m.Set(ctx, "doc:user:2", "y", time.Minute))
	require.NoError(t, m.Set(ctx, "doc:channel:1", "z", time.Minute))

	require.NoError(t, m.DeleteByPattern(ctx, "doc:user:*"))

	n, err := m.Exists(ctx, "doc:user:1", "doc:user:2")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = m.Exists(ctx, "doc:channel:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestManager_TTLExpiry(t *testing.T) {
	t.Parallel()

	m, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "ephemeral", "v", 30*time.Second))

	mr.FastForward(time.Minute)

	_, err := m.Get(ctx, "ephemeral")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_ClosedRejectsOperations(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	require.NoError(t, m.Close())

	_, err := m.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, IsCacheMiss(err))

	assert.Error(t, m.Set(context.Background(), "k", "v", 0))
	assert.Error(t, m.Ping(context.Background()))

	// Close is idempotent.
	assert.NoError(t, m.Close())
}

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(addr string) Config {
	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func TestManager_StartAndServe(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	m := NewManager(handler, testConfig("127.0.0.1:0"), zap.NewNop())
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	// The listener address carries the real port when Addr used :0.
	m.mu.RLock()
	addr := m.listener.Addr().String()
	m.mu.RUnlock()

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestManager_DoubleStart(t *testing.T) {
	m := NewManager(http.NewServeMux(), testConfig("127.0.0.1:0"), zap.NewNop())
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	assert.Error(t, m.Start())
}

func TestManager_Shutdown(t *testing.T) {
	m := NewManager(http.NewServeMux(), testConfig("127.0.0.1:0"), zap.NewNop())
	require.NoError(t, m.Start())

	assert.True(t, m.IsRunning())
	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())

	// A second shutdown is a no-op.
	assert.NoError(t, m.Shutdown(context.Background()))

	// Starting after shutdown is rejected.
	assert.Error(t, m.Start())
}

func TestManager_ListenFailure(t *testing.T) {
	m1 := NewManager(http.NewServeMux(), testConfig("127.0.0.1:0"), zap.NewNop())
	require.NoError(t, m1.Start())
	t.Cleanup(func() { _ = m1.Shutdown(context.Background()) })

	m1.mu.RLock()
	addr := m1.listener.Addr().String()
	m1.mu.RUnlock()

	// Binding the same port again must fail immediately.
	m2 := NewManager(http.NewServeMux(), testConfig(addr), zap.NewNop())
	assert.Error(t, m2.Start())
}

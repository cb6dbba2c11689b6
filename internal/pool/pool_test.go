package pool

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsSubmittedTasks(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(WorkerPoolConfig{MaxWorkers: 4, QueueSize: 16, IdleTimeout: time.Second})

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		err := p.Submit(context.Background(), func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	p.Close()

	assert.Equal(t, int64(10), ran.Load())
	stats := p.Stats()
	assert.Equal(t, int64(10), stats.Submitted)
	assert.Equal(t, int64(10), stats.Completed)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestWorkerPool_SubmitWaitReturnsTaskError(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(DefaultWorkerPoolConfig())
	defer p.Close()

	wantErr := errors.New("boom")
	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, int64(1), p.Stats().Failed)
}

func TestWorkerPool_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	var recovered atomic.Bool
	p := NewWorkerPool(WorkerPoolConfig{
		MaxWorkers:   2,
		QueueSize:    4,
		IdleTimeout:  time.Second,
		PanicHandler: func(any) { recovered.Store(true) },
	})
	defer p.Close()

	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.True(t, recovered.Load())

	// Pool keeps working after a panic.
	err = p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestWorkerPool_RejectsAfterClose(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(DefaultWorkerPoolConfig())
	p.Close()

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil }), ErrPoolClosed)

	// Double close is a no-op.
	p.Close()
}

func TestByteBuffers_ResetOnReuse(t *testing.T) {
	t.Parallel()

	buf := ByteBuffers.Get()
	buf.WriteString("leftover")
	ByteBuffers.Put(buf)

	again := ByteBuffers.Get()
	defer ByteBuffers.Put(again)
	assert.Equal(t, 0, again.Len())
}

func TestPoolCounters(t *testing.T) {
	t.Parallel()

	p := NewPool(func() *bytes.Buffer { return &bytes.Buffer{} }, nil)
	b := p.Get()
	p.Put(b)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Gets)
	assert.Equal(t, int64(1), stats.Puts)
	assert.Equal(t, int64(1), stats.News)
}

func TestPoolStats_HitRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, PoolStats{}.HitRate())
	assert.Equal(t, 0.75, PoolStats{Gets: 4, News: 1}.HitRate())
}

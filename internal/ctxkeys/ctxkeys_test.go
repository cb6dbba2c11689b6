package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := RequestID(ctx)
	assert.False(t, ok)

	ctx = WithRequestID(ctx, "req-abc")
	id, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-abc", id)

	_, ok = RequestID(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
}

func TestSubject(t *testing.T) {
	t.Parallel()

	ctx := WithSubject(context.Background(), "service-a")
	subject, ok := Subject(ctx)
	assert.True(t, ok)
	assert.Equal(t, "service-a", subject)

	_, ok = Subject(context.Background())
	assert.False(t, ok)
}

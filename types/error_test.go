package types

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ChainAndUnwrap(t *testing.T) {
	t.Parallel()

	err := NewError(ErrStorageFailure, "write failed").
		WithCause(io.ErrClosedPipe).
		WithEntity("user:u1").
		WithOperation("upsert_user")

	assert.Equal(t, ErrStorageFailure, GetErrorCode(err))
	assert.Equal(t, "user:u1", err.Entity)
	assert.Equal(t, "upsert_user", err.Operation)
	assert.True(t, errors.Is(err, io.ErrClosedPipe))
	assert.Contains(t, err.Error(), "STORAGE_FAILURE")
	assert.Contains(t, err.Error(), "write failed")
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFound(NewError(ErrNotFound, "no such user")))
	assert.True(t, IsNotFound(NewError(ErrSessionNotFound, "no such session")))
	assert.False(t, IsNotFound(NewError(ErrStorageFailure, "disk full")))
	assert.False(t, IsNotFound(errors.New("plain error")))
	assert.False(t, IsNotFound(nil))
}

func TestPersonality_Sanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Personality
		want Personality
	}{
		{
			name: "out of range traits clamped",
			in:   Personality{Formality: 180, Humor: -20, Technicality: 100},
			want: Personality{Formality: 100, Humor: 0, Technicality: 100, ResponseSpeed: ResponseSpeedMedium, Verbosity: VerbosityMedium},
		},
		{
			name: "unknown categorical values replaced",
			in:   Personality{Formality: 50, Humor: 50, Technicality: 50, ResponseSpeed: "warp", Verbosity: "rambling"},
			want: Personality{Formality: 50, Humor: 50, Technicality: 50, ResponseSpeed: ResponseSpeedMedium, Verbosity: VerbosityMedium},
		},
		{
			name: "valid values untouched",
			in:   Personality{Formality: 10, Humor: 90, Technicality: 60, ResponseSpeed: ResponseSpeedFast, Verbosity: VerbosityDetailed},
			want: Personality{Formality: 10, Humor: 90, Technicality: 60, ResponseSpeed: ResponseSpeedFast, Verbosity: VerbosityDetailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Sanitize()
			require.Equal(t, tt.want, got)
		})
	}
}

package personality

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/internal/database"
	"github.com/ninaia/memoria/store"
	"github.com/ninaia/memoria/types"
)

func newTestEngine(t *testing.T) (*Engine, *store.EntityStore) {
	t.Helper()

	dir := t.TempDir()
	docs, err := store.NewFileDocumentStore(filepath.Join(dir, "documents"), zap.NewNop())
	require.NoError(t, err)

	pool := database.DefaultPoolConfig()
	pool.HealthCheckInterval = 0

	st, err := store.Open(store.Config{
		Driver: "sqlite",
		Path:   filepath.Join(dir, "test.db"),
		Pool:   pool,
	}, docs, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewEngine(st, zap.NewNop()), st
}

func TestDerive_NoInteractions(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	p := e.Derive(nil, nil)
	assert.Equal(t, 50, p.Formality)
	assert.Equal(t, 50, p.Humor)
	assert.Equal(t, 50, p.Technicality)
	assert.Equal(t, types.ResponseSpeedMedium, p.ResponseSpeed)
	assert.Equal(t, types.VerbosityMedium, p.Verbosity)
}

func TestDerive_PositiveTechnicalChannel(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	recent := []types.Interaction{
		{ContentSummary: "adoro programar", SentimentScore: 0.8, Topics: []string{"tecnologia"}},
		{ContentSummary: "computador novo chegou", SentimentScore: 0.6, Topics: []string{"tecnologia"}},
	}
	p := e.Derive(nil, recent)

	assert.Greater(t, p.Humor, 50)
	assert.Greater(t, p.Technicality, 50)
	assert.Less(t, p.Formality, 50)
}

func TestDerive_LongMessagesRaiseFormality(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	long := strings.Repeat("palavra ", 25)
	p := e.Derive(nil, []types.Interaction{{ContentSummary: long, SentimentScore: 0}})
	assert.Equal(t, 60, p.Formality)

	medium := strings.Repeat("palavra ", 15)
	p = e.Derive(nil, []types.Interaction{{ContentSummary: medium, SentimentScore: 0}})
	assert.Equal(t, 55, p.Formality)
}

func TestDerive_PassesThroughCategoricalTraits(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	profile := &types.ChannelProfile{
		Document: &types.ChannelDocument{
			Personality: types.Personality{
				ResponseSpeed: types.ResponseSpeedFast,
				Verbosity:     types.VerbosityConcise,
			},
		},
	}
	p := e.Derive(profile, []types.Interaction{{ContentSummary: "oi", SentimentScore: 0}})
	assert.Equal(t, types.ResponseSpeedFast, p.ResponseSpeed)
	assert.Equal(t, types.VerbosityConcise, p.Verbosity)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()
	e, st := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertChannel(ctx, "c1", "general", "", ""))

	p := types.Personality{Formality: 80, Humor: 20, Technicality: 90,
		ResponseSpeed: types.ResponseSpeedSlow, Verbosity: types.VerbosityDetailed}
	require.NoError(t, e.Save(ctx, "c1", p))

	got, err := e.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 80, got.Formality)
	assert.Equal(t, 20, got.Humor)
	assert.Equal(t, types.ResponseSpeedSlow, got.ResponseSpeed)
}

func TestSave_ClampsOutOfRange(t *testing.T) {
	t.Parallel()
	e, st := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertChannel(ctx, "c1", "general", "", ""))
	require.NoError(t, e.Save(ctx, "c1", types.Personality{Formality: 500, Humor: -3}))

	got, err := e.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Formality)
	assert.Equal(t, 0, got.Humor)
}

func TestNamedProfiles(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.SaveProfile(ctx, "sarcastica", types.Personality{Humor: 95}))
	require.NoError(t, e.SaveProfile(ctx, "academica", types.Personality{Formality: 90, Technicality: 85}))

	names, err := e.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"academica", "sarcastica"}, names)

	p, err := e.LoadProfile(ctx, "sarcastica")
	require.NoError(t, err)
	assert.Equal(t, 95, p.Humor)

	require.NoError(t, e.DeleteProfile(ctx, "sarcastica"))
	_, err = e.LoadProfile(ctx, "sarcastica")
	assert.True(t, types.IsNotFound(err))

	err = e.SaveProfile(ctx, "", types.Personality{})
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Parallel()

	formal := BuildSystemPrompt("Nina", types.Personality{Formality: 90, Humor: 50, Technicality: 50})
	assert.Contains(t, formal, "Nina")
	assert.Contains(t, formal, "formal e polida")

	casual := BuildSystemPrompt("", types.Personality{Formality: 10, Humor: 80, Technicality: 10,
		Verbosity: types.VerbosityConcise})
	assert.Contains(t, casual, "informal")
	assert.Contains(t, casual, "bem-humorada")
	assert.Contains(t, casual, "curta e objetiva")
}

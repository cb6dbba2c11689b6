package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/internal/database"
	"github.com/ninaia/memoria/store"
	"github.com/ninaia/memoria/types"
)

func newTestEngine(t *testing.T) *Engine {
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

	e := New(st, zap.NewNop())
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestProcessInput_PortugueseScenario(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.ProcessInput(ctx, "Eu amo tecnologia e programação!", "u1", "c1", time.Time{})
	require.NoError(t, err)

	assert.Greater(t, res.InteractionID, int64(0))
	assert.Greater(t, res.Analysis.Sentiment, 0.0)
	assert.Contains(t, res.Analysis.Topics, "tecnologia")
	assert.Contains(t, res.Analysis.Topics, "programação")

	require.NotNil(t, res.UserProfile)
	assert.Equal(t, int64(1), res.UserProfile.InteractionCount)
	assert.Equal(t, types.EmotionHappy, res.UserProfile.Document.Emotions.Predominant)

	require.NotNil(t, res.ChannelProfile)
	assert.Equal(t, int64(1), res.ChannelProfile.MessageCount)
	assert.Contains(t, res.ChannelProfile.Document.RecurringThemes, "tecnologia")
}

func TestProcessInput_EmptyText(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	_, err := e.ProcessInput(context.Background(), "", "u1", "c1", time.Time{})
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestGetContextForResponse(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ProcessInput(ctx, "Vamos falar de música hoje", "u1", "c1", time.Time{})
	require.NoError(t, err)

	rc, err := e.GetContextForResponse(ctx, "u1", "c1", 5)
	require.NoError(t, err)

	require.NotNil(t, rc.UserProfile)
	require.NotNil(t, rc.ChannelProfile)
	assert.Equal(t, 50, rc.Personality.Formality)
	require.Len(t, rc.RecentInteractions, 1)
	assert.Equal(t, "Vamos falar de música hoje", rc.RecentInteractions[0].ContentSummary)
}

func TestGetContextForResponse_NoChannel(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ProcessInput(ctx, "oi", "u1", "c1", time.Time{})
	require.NoError(t, err)

	rc, err := e.GetContextForResponse(ctx, "u1", "", 5)
	require.NoError(t, err)
	assert.Nil(t, rc.ChannelProfile)
	assert.Equal(t, 50, rc.Personality.Humor)
	assert.Empty(t, rc.RecentInteractions)
}

func TestUpdateAfterResponse(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ProcessInput(ctx, "oi", "u1", "c1", time.Time{})
	require.NoError(t, err)
	require.NoError(t, e.UpdateAfterResponse(ctx, "olá, tudo bem?", "u1", "c1"))

	recent, err := e.Store().GetRecentInteractions(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	reply := recent[0]
	assert.Equal(t, types.AgentUserID, reply.UserID)
	assert.Equal(t, types.InteractionTypeAgentReply, reply.Type)
	assert.Equal(t, "u1", reply.TargetUserID)
}

func TestAdaptPersonality_Scenario(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	// Positive technical conversation pushes humor and technicality up.
	for _, text := range []string{
		"Eu amo tecnologia e programação!",
		"Que legal esse computador novo, excelente!",
		"Adoro estudar software e internet, muito bom!",
	} {
		_, err := e.ProcessInput(ctx, text, "u1", "c1", time.Time{})
		require.NoError(t, err)
	}

	p, err := e.AdaptPersonality(ctx, "c1")
	require.NoError(t, err)

	assert.Greater(t, p.Humor, 50)
	assert.Greater(t, p.Technicality, 50)

	// The adapted block is persisted in the channel document.
	stored, err := e.Personality().Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, p.Humor, stored.Humor)
	assert.Equal(t, p.Technicality, stored.Technicality)
}

func TestDeleteMemories(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ProcessInput(ctx, "oi pessoal", "u1", "c1", time.Time{})
	require.NoError(t, err)

	existed, err := e.DeleteUserMemory(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = e.GetUserProfile(ctx, "u1")
	assert.True(t, types.IsNotFound(err))

	existed, err = e.DeleteChannelMemory(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestSearchAndStatistics(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ProcessInput(ctx, "Eu amo tecnologia!", "u1", "c1", time.Time{})
	require.NoError(t, err)

	results, err := e.Search(ctx, "tecnologia", types.SearchScopeTopics, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "tecnologia", results[0].ID)

	stats, err := e.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.UserCount)
	assert.Equal(t, int64(1), stats.InteractionCount)
}

func TestBackupRestoreThroughFacade(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ProcessInput(ctx, "antes do snapshot", "u1", "c1", time.Time{})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "snap")
	require.NoError(t, e.Backup(ctx, dir))

	_, err = e.DeleteUserMemory(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, e.Restore(ctx, dir))

	profile, err := e.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.InteractionCount)
}

func TestFormatContextForLLM(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ProcessInput(ctx, "Eu amo tecnologia e programação!", "u1", "c1", time.Time{})
	require.NoError(t, err)

	rc, err := e.GetContextForResponse(ctx, "u1", "c1", 5)
	require.NoError(t, err)

	out := FormatContextForLLM(rc)
	assert.Contains(t, out, "Sobre u1")
	assert.Contains(t, out, "tecnologia")
	assert.Contains(t, out, "Conversa recente")

	assert.Empty(t, FormatContextForLLM(nil))
}

func TestFormatContextForLLM_NilDocuments(t *testing.T) {
	t.Parallel()

	// Profiles can arrive without their sidecar documents.
	rc := &types.ResponseContext{
		UserProfile:    &types.UserProfile{},
		ChannelProfile: &types.ChannelProfile{},
	}
	rc.ChannelProfile.ChannelName = "geral"

	out := FormatContextForLLM(rc)
	assert.Contains(t, out, "Sobre o canal geral")
	assert.NotContains(t, out, "Tom predominante")
}

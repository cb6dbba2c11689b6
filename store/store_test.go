package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/internal/database"
	"github.com/ninaia/memoria/types"
)

func newTestStore(t *testing.T) *EntityStore {
	t.Helper()

	dir := t.TempDir()
	docs, err := NewFileDocumentStore(filepath.Join(dir, "documents"), zap.NewNop())
	require.NoError(t, err)

	pool := database.DefaultPoolConfig()
	pool.HealthCheckInterval = 0

	s, err := Open(Config{
		Driver: "sqlite",
		Path:   filepath.Join(dir, "test.db"),
		Pool:   pool,
	}, docs, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	docs, err := NewFileDocumentStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = Open(Config{Driver: "oracle"}, docs, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupported, types.GetErrorCode(err))
}

func TestUpsertUser_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))
	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))

	profile, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, int64(0), profile.InteractionCount)

	users, err := s.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpsertUser_RenameKeepsFirstSeen(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "old-name"))
	before, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, s.UpsertUser(ctx, "u1", "new-name"))
	after, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, "new-name", after.Username)
	assert.True(t, after.FirstSeen.Equal(before.FirstSeen))
}

func TestGetUserProfile_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.GetUserProfile(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestGetUserProfile_HealsMissingDocument(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))
	require.NoError(t, s.docs.Delete(ctx, UserDocKey("u1")))

	profile, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, profile.Document)
	assert.Equal(t, types.EmotionNeutral, profile.Document.Emotions.Predominant)

	// The healed document is persisted, not just synthesized.
	var doc types.UserDocument
	require.NoError(t, s.docs.Read(ctx, UserDocKey("u1"), &doc))
}

func TestNewChannelDefaults(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertChannel(ctx, "c1", "general", "g1", "My Guild"))

	profile, err := s.GetChannelProfile(ctx, "c1")
	require.NoError(t, err)

	dist := profile.Document.Tone.Distribution
	assert.InDelta(t, 0.33, dist[types.ToneInformal], 1e-9)
	assert.InDelta(t, 0.34, dist[types.ToneNeutral], 1e-9)
	assert.InDelta(t, 0.33, dist[types.ToneFormal], 1e-9)
	assert.Equal(t, types.ToneNeutral, profile.Document.Tone.Predominant)

	p := profile.Document.Personality
	assert.Equal(t, 50, p.Formality)
	assert.Equal(t, 50, p.Humor)
	assert.Equal(t, 50, p.Technicality)
	assert.Equal(t, types.ResponseSpeedMedium, p.ResponseSpeed)
	assert.Equal(t, types.VerbosityMedium, p.Verbosity)
}

func TestUpsertChannel_UpgradesGuildPlaceholder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertChannel(ctx, "c1", "general", "g1", ""))

	var guild guildRow
	require.NoError(t, s.db.First(&guild, "guild_id = ?", "g1").Error)
	assert.Equal(t, UnknownGuildName, guild.GuildName)

	require.NoError(t, s.UpsertChannel(ctx, "c2", "random", "g1", "Real Name"))
	require.NoError(t, s.db.First(&guild, "guild_id = ?", "g1").Error)
	assert.Equal(t, "Real Name", guild.GuildName)
}

func TestRecordInteraction_AutoCreates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.RecordInteraction(ctx, types.Interaction{
		UserID:         "ghost",
		ChannelID:      "void",
		ContentSummary: "primeira mensagem",
		SentimentScore: 0.5,
		Topics:         []string{"tecnologia"},
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	user, err := s.GetUserProfile(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.InteractionCount)
	require.NotNil(t, user.Document)

	channel, err := s.GetChannelProfile(ctx, "void")
	require.NoError(t, err)
	assert.Equal(t, int64(1), channel.MessageCount)

	var stat userChannelStatRow
	require.NoError(t, s.db.First(&stat, "user_id = ? AND channel_id = ?", "ghost", "void").Error)
	assert.Equal(t, int64(1), stat.MessageCount)
}

func TestRecordInteraction_Validation(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordInteraction(ctx, types.Interaction{ContentSummary: "x"})
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))

	_, err = s.RecordInteraction(ctx, types.Interaction{UserID: "u1"})
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestRecordInteraction_MonotonicIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 5

	var mu sync.Mutex
	seen := make(map[int64]struct{})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := s.RecordInteraction(ctx, types.Interaction{
					UserID:         "u1",
					ChannelID:      "c1",
					ContentSummary: "oi",
				})
				assert.NoError(t, err)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)

	// IDs must form a gap-free run: with N distinct values, max-min+1 == N.
	var minID, maxID int64
	for id := range seen {
		if minID == 0 || id < minID {
			minID = id
		}
		if id > maxID {
			maxID = id
		}
	}
	assert.Equal(t, int64(workers*perWorker), maxID-minID+1)

	user, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), user.InteractionCount)
}

func TestGetRecentInteractions_NewestFirst(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	for _, msg := range []string{"um", "dois", "três"} {
		_, err := s.RecordInteraction(ctx, types.Interaction{
			UserID:         "u1",
			ChannelID:      "c1",
			ContentSummary: msg,
		})
		require.NoError(t, err)
	}

	got, err := s.GetRecentInteractions(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "três", got[0].ContentSummary)
	assert.Equal(t, "dois", got[1].ContentSummary)
}

func TestDeleteUser_Cascades(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordInteraction(ctx, types.Interaction{
		UserID:         "u1",
		ChannelID:      "c1",
		ContentSummary: "olá",
	})
	require.NoError(t, err)
	require.NoError(t, s.ApplyAnalysis(ctx, "u1", "c1", types.AnalysisResult{
		Sentiment:   0.8,
		Topics:      []string{"tecnologia"},
		Expressions: []string{"valeu demais"},
		CharCount:   12,
	}, time.Now()))

	existed, err := s.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = s.GetUserProfile(ctx, "u1")
	assert.True(t, types.IsNotFound(err))

	got, err := s.GetUserInteractions(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	var count int64
	require.NoError(t, s.db.Model(&userTopicRow{}).Where("user_id = ?", "u1").Count(&count).Error)
	assert.Zero(t, count)

	var doc types.UserDocument
	err = s.docs.Read(ctx, UserDocKey("u1"), &doc)
	assert.True(t, types.IsNotFound(err))

	existed, err = s.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDeleteChannel_Cascades(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordInteraction(ctx, types.Interaction{
		UserID:         "u1",
		ChannelID:      "c1",
		ContentSummary: "olá",
	})
	require.NoError(t, err)

	existed, err := s.DeleteChannel(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = s.GetChannelProfile(ctx, "c1")
	assert.True(t, types.IsNotFound(err))

	got, err := s.GetRecentInteractions(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The author survives the channel.
	_, err = s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ctx := context.Background()
	err := s.UpsertUser(ctx, "u1", "alice")
	assert.Equal(t, types.ErrStoreClosed, types.GetErrorCode(err))

	_, err = s.GetStatistics(ctx)
	assert.Equal(t, types.ErrStoreClosed, types.GetErrorCode(err))
}

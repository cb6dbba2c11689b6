package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninaia/memoria/types"
)

func TestApplyAnalysis_UserSide(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))

	ts := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	res := types.AnalysisResult{
		Sentiment:   0.8,
		Topics:      []string{"tecnologia", "jogos"},
		Expressions: []string{"valeu demais"},
		WordCount:   5,
		CharCount:   30,
	}
	require.NoError(t, s.ApplyAnalysis(ctx, "u1", "", res, ts))

	profile, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	doc := profile.Document

	assert.Equal(t, types.EmotionHappy, doc.Emotions.Predominant)
	assert.Equal(t, 1.0, doc.Emotions.Distribution[types.EmotionHappy])
	assert.Contains(t, doc.FrequentExpressions, "valeu demais")

	topics := map[string]float64{}
	for _, tr := range doc.Topics {
		topics[tr.Topic] = tr.Relevance
	}
	assert.Equal(t, 1.0, topics["tecnologia"])
	assert.Equal(t, 1.0, topics["jogos"])

	assert.Contains(t, doc.InteractionPatterns.ActiveHours, 15)
	assert.Contains(t, doc.InteractionPatterns.ActiveDays, "saturday")
	assert.InDelta(t, 30, doc.InteractionPatterns.AverageMessageLength, 1e-9)

	var topic userTopicRow
	require.NoError(t, s.db.First(&topic, "user_id = ? AND topic = ?", "u1", "tecnologia").Error)
	assert.Equal(t, 1.0, topic.Score)

	var word userFrequentWordRow
	require.NoError(t, s.db.First(&word, "user_id = ? AND word = ?", "u1", "valeu demais").Error)
	assert.Equal(t, int64(1), word.Count)
}

func TestApplyAnalysis_RepeatAccumulates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))
	res := types.AnalysisResult{
		Sentiment: 0.8,
		Topics:    []string{"tecnologia"},
		CharCount: 10,
	}
	require.NoError(t, s.ApplyAnalysis(ctx, "u1", "", res, time.Now()))
	require.NoError(t, s.ApplyAnalysis(ctx, "u1", "", res, time.Now()))

	profile, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, profile.Document.Emotions.Distribution[types.EmotionHappy])
	require.Len(t, profile.Document.Topics, 1)
	assert.Equal(t, 2.0, profile.Document.Topics[0].Relevance)

	var topic userTopicRow
	require.NoError(t, s.db.First(&topic, "user_id = ? AND topic = ?", "u1", "tecnologia").Error)
	assert.Equal(t, 2.0, topic.Score)
}

func TestApplyAnalysis_ChannelTone(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertChannel(ctx, "c1", "general", "", ""))

	res := types.AnalysisResult{
		Sentiment: 0.9,
		Topics:    []string{"música"},
	}
	require.NoError(t, s.ApplyAnalysis(ctx, "u1", "c1", res, time.Now()))

	profile, err := s.GetChannelProfile(ctx, "c1")
	require.NoError(t, err)
	doc := profile.Document

	// One informal increment over the 0.33/0.34/0.33 starting point.
	assert.InDelta(t, 0.38, doc.Tone.Distribution[types.ToneInformal], 1e-9)
	assert.InDelta(t, 0.34, doc.Tone.Distribution[types.ToneNeutral], 1e-9)
	assert.Equal(t, types.ToneInformal, doc.Tone.Predominant)

	assert.Contains(t, doc.RecurringThemes, "música")
	assert.Contains(t, doc.ActiveUsers, "u1")

	var topic channelTopicRow
	require.NoError(t, s.db.First(&topic, "channel_id = ? AND topic = ?", "c1", "música").Error)
	assert.Equal(t, 1.0, topic.Score)
}

func TestApplyAnalysis_NegativeSentiment(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "u1", "alice"))
	require.NoError(t, s.ApplyAnalysis(ctx, "u1", "", types.AnalysisResult{Sentiment: -0.6}, time.Now()))

	profile, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	// One sad tick plus the 1.0 neutral prior does not flip predominance.
	assert.Equal(t, 1.0, profile.Document.Emotions.Distribution[types.EmotionSad])
	assert.Equal(t, types.EmotionNeutral, profile.Document.Emotions.Predominant)

	require.NoError(t, s.ApplyAnalysis(ctx, "u1", "", types.AnalysisResult{Sentiment: -0.6}, time.Now()))
	profile, err = s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.EmotionSad, profile.Document.Emotions.Predominant)
}

func TestMergeExpressions_CapAndOrder(t *testing.T) {
	t.Parallel()

	existing := make([]string, 0, types.MaxFrequentExpressions)
	for i := 0; i < types.MaxFrequentExpressions; i++ {
		existing = append(existing, string(rune('a'+i%26))+string(rune('0'+i%10)))
	}

	merged := mergeExpressions(existing, []string{"nova expressão"})
	assert.Len(t, merged, types.MaxFrequentExpressions)
	assert.Equal(t, "nova expressão", merged[0])
	// Oldest entry fell off the end.
	assert.NotContains(t, merged, existing[len(existing)-1])
}

func TestClassifyEmotion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sentiment float64
		want      string
	}{
		{0.9, types.EmotionHappy},
		{0.3, types.EmotionHappy},
		{0.29, types.EmotionNeutral},
		{0.0, types.EmotionNeutral},
		{-0.29, types.EmotionNeutral},
		{-0.3, types.EmotionSad},
		{-1.0, types.EmotionSad},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyEmotion(tc.sentiment), "sentiment %v", tc.sentiment)
	}
}

package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// Sentiment must stay within [-1,1] for arbitrary input, including text far
// outside the keyword vocabulary.
func TestAnalyze_SentimentBounds(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		res := a.Analyze(text)

		require.GreaterOrEqual(t, res.Sentiment, -1.0)
		require.LessOrEqual(t, res.Sentiment, 1.0)
		require.GreaterOrEqual(t, res.WordCount, 0)
		require.GreaterOrEqual(t, res.CharCount, 0)
	})
}

// Analyze is pure: repeated calls on the same input agree exactly.
func TestAnalyze_Deterministic(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		first := a.Analyze(text)
		second := a.Analyze(text)

		require.Equal(t, first, second)
	})
}

// Case never matters: analysis happens over the lower-cased text.
func TestAnalyze_CaseInsensitive(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[A-Za-zÀ-ú ]{0,64}`).Draw(t, "text")

		require.Equal(t, a.Analyze(strings.ToLower(text)), a.Analyze(strings.ToUpper(text)))
	})
}

// Batch aggregation preserves the per-message sentiment bounds.
func TestAnalyzeUserPattern_Bounds(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	rapid.Check(t, func(t *rapid.T) {
		messages := rapid.SliceOfN(rapid.String(), 1, 20).Draw(t, "messages")
		pattern := a.AnalyzeUserPattern(messages)

		require.GreaterOrEqual(t, pattern.AverageSentiment, -1.0)
		require.LessOrEqual(t, pattern.AverageSentiment, 1.0)
		require.LessOrEqual(t, len(pattern.TopTopics), 5)
		require.LessOrEqual(t, len(pattern.TopExpressions), 5)
		require.Equal(t, len(messages), pattern.MessageCount)
	})
}

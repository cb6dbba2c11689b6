package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/types"
)

func TestKeywordAnalyzer_Analyze(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	tests := []struct {
		name       string
		text       string
		wantTopics []string
		wantExprs  []string
		minSent    float64
		maxSent    float64
		wantWords  int
	}{
		{
			name:       "positive tech message",
			text:       "Eu amo tecnologia e programação, é incrível!",
			wantTopics: []string{"tecnologia", "programação"},
			minSent:    0.01,
			maxSent:    1.0,
			wantWords:  7,
		},
		{
			name:       "negative message",
			text:       "Estou muito triste e irritado hoje",
			wantTopics: []string{},
			minSent:    -1.0,
			maxSent:    -0.01,
			wantWords:  6,
		},
		{
			name:       "expression detection",
			text:       "pois é, sei lá, esse filme é ótimo",
			wantTopics: []string{"filmes", "filme"},
			wantExprs:  []string{"pois é", "sei lá"},
			minSent:    0.01,
			maxSent:    1.0,
			wantWords:  8,
		},
		{
			name:       "empty input yields zero result",
			text:       "",
			wantTopics: []string{},
			wantExprs:  []string{},
			minSent:    0,
			maxSent:    0,
			wantWords:  0,
		},
		{
			name:       "multiple topic categories in stable order",
			text:       "depois do trabalho vou jogar no xbox ouvindo música",
			wantTopics: []string{"jogos", "música", "trabalho", "jogar", "xbox"},
			minSent:    0,
			maxSent:    0,
			wantWords:  9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Analyze(tt.text)

			assert.Equal(t, tt.wantTopics, res.Topics)
			if tt.wantExprs != nil {
				assert.Equal(t, tt.wantExprs, res.Expressions)
			}
			assert.GreaterOrEqual(t, res.Sentiment, tt.minSent)
			assert.LessOrEqual(t, res.Sentiment, tt.maxSent)
			assert.Equal(t, tt.wantWords, res.WordCount)
		})
	}
}

func TestKeywordAnalyzer_EmojiSentiment(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	happy := a.Analyze("😄😄😄")
	require.Greater(t, happy.Sentiment, 0.0)

	angry := a.Analyze("😡")
	require.Less(t, angry.Sentiment, 0.0)
}

func TestKeywordAnalyzer_ExpressionDeduplication(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	res := a.Analyze("sei lá, sei lá, sei lá")
	assert.Equal(t, []string{"sei lá"}, res.Expressions)
}

func TestAnalyzeUserPattern(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	messages := []string{
		"Eu amo programação, é ótimo",
		"tecnologia é maravilhosa",
		"comprei um computador novo, estou feliz",
		"vou estudar para a aula na faculdade",
	}

	pattern := a.AnalyzeUserPattern(messages)

	assert.Equal(t, 4, pattern.MessageCount)
	assert.Greater(t, pattern.AverageSentiment, 0.0)
	assert.Contains(t, pattern.TopTopics, "tecnologia")
	assert.Contains(t, pattern.TopTopics, "educação")
	assert.Greater(t, pattern.AverageWordCount, 0.0)
	assert.Greater(t, pattern.AverageCharCount, pattern.AverageWordCount)
}

func TestAnalyzeUserPattern_Empty(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())
	assert.Equal(t, types.UserPattern{}, a.AnalyzeUserPattern(nil))
}

func TestAnalyzeChannelPattern(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	messages := []types.ChannelMessage{
		{UserID: "u1", Content: "esse jogo é incrível, estou muito feliz"},
		{UserID: "u1", Content: "que campeonato maravilhoso"},
		{UserID: "u2", Content: "ótimo jogo mesmo"},
	}

	pattern := a.AnalyzeChannelPattern(messages)

	assert.Equal(t, 3, pattern.MessageCount)
	assert.Equal(t, 2, pattern.UserCount)
	assert.Equal(t, types.ToneInformal, pattern.PredominantTone)
	assert.Contains(t, pattern.TopTopics, "jogos")
	assert.Equal(t, "u1", pattern.TopUsers[0])
}

func TestClassifyTone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sentiment float64
		want      string
	}{
		{0.5, types.ToneInformal},
		{0.3, types.ToneInformal},
		{0.0, types.ToneNeutral},
		{-0.3, types.ToneNeutral},
		{-0.31, types.ToneFormal},
		{-1.0, types.ToneFormal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTone(tt.sentiment), "sentiment %v", tt.sentiment)
	}
}

func TestDetectUserPersonality(t *testing.T) {
	t.Parallel()

	a := NewKeywordAnalyzer(zap.NewNop())

	happy := a.DetectUserPersonality([]string{
		"estou muito feliz com o projeto de tecnologia",
		"programação é maravilhosa, adoro meu trabalho",
	})
	assert.Greater(t, happy.Humor, 50)
	assert.Greater(t, happy.Technicality, 50)
	assert.Less(t, happy.Formality, 51)

	empty := a.DetectUserPersonality(nil)
	assert.Equal(t, 50, empty.Humor)
	assert.Equal(t, 50, empty.Formality)
	assert.Equal(t, 50, empty.Technicality)
}

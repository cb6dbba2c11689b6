package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ninaia/memoria/types"
)

// TextAnalyzer analyzes a single message. Implementations must be pure and
// deterministic: same text in, same result out, no I/O, no failures — garbage
// input degrades to the zero result.
type TextAnalyzer interface {
	Analyze(text string) types.AnalysisResult
}

// KeywordAnalyzer is the keyword-table implementation of TextAnalyzer.
type KeywordAnalyzer struct {
	topics      map[string][]string
	topicOrder  []string
	emotions    map[string][]string
	weights     map[string]float64
	expressions []*regexp.Regexp
	logger      *zap.Logger
}

// NewKeywordAnalyzer builds the analyzer from the fixed keyword tables.
func NewKeywordAnalyzer(logger *zap.Logger) *KeywordAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}

	order := make([]string, 0, len(topicKeywords))
	for topic := range topicKeywords {
		order = append(order, topic)
	}
	sort.Strings(order)

	exprs := make([]*regexp.Regexp, 0, len(commonExpressions))
	for _, pattern := range commonExpressions {
		exprs = append(exprs, regexp.MustCompile(pattern))
	}

	a := &KeywordAnalyzer{
		topics:      topicKeywords,
		topicOrder:  order,
		emotions:    emotionKeywords,
		weights:     emotionWeights,
		expressions: exprs,
		logger:      logger.With(zap.String("component", "analyzer")),
	}

	a.logger.Debug("keyword analyzer initialized",
		zap.Int("topic_categories", len(a.topics)),
		zap.Int("emotion_categories", len(a.emotions)),
		zap.Int("expressions", len(a.expressions)),
	)

	return a
}

// Analyze implements TextAnalyzer.
func (a *KeywordAnalyzer) Analyze(text string) types.AnalysisResult {
	lower := strings.ToLower(text)

	return types.AnalysisResult{
		Sentiment:   a.sentiment(lower),
		Topics:      a.extractTopics(lower),
		Expressions: a.detectExpressions(lower),
		WordCount:   len(strings.Fields(lower)),
		CharCount:   utf8.RuneCountInString(lower),
	}
}

// sentiment scores lower-cased text by counting emotion-keyword hits,
// weighting them per category and normalizing by the total hit count. The
// result is always within [-1,1].
func (a *KeywordAnalyzer) sentiment(lower string) float64 {
	var score float64
	var hits int

	for emotion, keywords := range a.emotions {
		weight := a.weights[emotion]
		for _, keyword := range keywords {
			count := strings.Count(lower, keyword)
			if count > 0 {
				score += float64(count) * weight
				hits += count
			}
		}
	}

	if hits == 0 {
		return 0.0
	}

	score /= float64(hits)
	if score > 1.0 {
		return 1.0
	}
	if score < -1.0 {
		return -1.0
	}
	return score
}

// extractTopics returns the categories with at least one keyword hit, in
// stable lexicographic category order, followed by the matched keywords
// themselves. The keywords keep the specific subject ("programação") next to
// its broad category ("tecnologia") in the memory.
func (a *KeywordAnalyzer) extractTopics(lower string) []string {
	topics := []string{}
	var matched []string
	for _, topic := range a.topicOrder {
		hit := false
		for _, keyword := range a.topics[topic] {
			if strings.Contains(lower, keyword) {
				hit = true
				matched = append(matched, keyword)
			}
		}
		if hit {
			topics = append(topics, topic)
		}
	}

	seen := make(map[string]struct{}, len(topics)+len(matched))
	for _, topic := range topics {
		seen[topic] = struct{}{}
	}
	for _, keyword := range matched {
		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		topics = append(topics, keyword)
	}
	return topics
}

// detectExpressions returns de-duplicated expression matches in table order.
func (a *KeywordAnalyzer) detectExpressions(lower string) []string {
	found := []string{}
	seen := make(map[string]struct{})

	for _, re := range a.expressions {
		for _, match := range re.FindAllString(lower, -1) {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			found = append(found, match)
		}
	}
	return found
}

// AnalyzeUserPattern aggregates a batch of one user's messages: mean
// sentiment, top-5 topics and expressions by frequency, mean word and char
// counts. An empty batch yields the zero pattern.
func (a *KeywordAnalyzer) AnalyzeUserPattern(messages []string) types.UserPattern {
	if len(messages) == 0 {
		return types.UserPattern{}
	}

	var sentimentSum, wordSum, charSum float64
	topicCounts := make(map[string]int)
	exprCounts := make(map[string]int)

	for _, msg := range messages {
		res := a.Analyze(msg)
		sentimentSum += res.Sentiment
		wordSum += float64(res.WordCount)
		charSum += float64(res.CharCount)
		for _, topic := range res.Topics {
			topicCounts[topic]++
		}
		for _, expr := range res.Expressions {
			exprCounts[expr]++
		}
	}

	n := float64(len(messages))
	return types.UserPattern{
		AverageSentiment: sentimentSum / n,
		TopTopics:        topByCount(topicCounts, 5),
		TopExpressions:   topByCount(exprCounts, 5),
		AverageWordCount: wordSum / n,
		AverageCharCount: charSum / n,
		MessageCount:     len(messages),
	}
}

// AnalyzeChannelPattern aggregates a batch of channel messages, additionally
// ranking the participating users and classifying the predominant tone by
// mean sentiment.
func (a *KeywordAnalyzer) AnalyzeChannelPattern(messages []types.ChannelMessage) types.ChannelPattern {
	if len(messages) == 0 {
		return types.ChannelPattern{}
	}

	var sentimentSum, wordSum, charSum float64
	topicCounts := make(map[string]int)
	userCounts := make(map[string]int)

	for _, msg := range messages {
		res := a.Analyze(msg.Content)
		sentimentSum += res.Sentiment
		wordSum += float64(res.WordCount)
		charSum += float64(res.CharCount)
		for _, topic := range res.Topics {
			topicCounts[topic]++
		}
		userCounts[msg.UserID]++
	}

	n := float64(len(messages))
	avgSentiment := sentimentSum / n

	return types.ChannelPattern{
		AverageSentiment: avgSentiment,
		PredominantTone:  ClassifyTone(avgSentiment),
		TopTopics:        topByCount(topicCounts, 5),
		TopUsers:         topByCount(userCounts, 5),
		AverageWordCount: wordSum / n,
		AverageCharCount: charSum / n,
		MessageCount:     len(messages),
		UserCount:        len(userCounts),
	}
}

// DetectUserPersonality estimates personality traits from a batch of one
// user's messages. response_speed and verbosity are operator-controlled and
// are not derived here.
func (a *KeywordAnalyzer) DetectUserPersonality(messages []string) types.Personality {
	pattern := a.AnalyzeUserPattern(messages)

	formality := 50.0
	formality -= pattern.AverageSentiment * 20
	if pattern.AverageWordCount > 20 {
		formality += 10
	} else if pattern.AverageWordCount > 10 {
		formality += 5
	}

	humor := 50 + pattern.AverageSentiment*50

	technicality := 50
	for _, topic := range pattern.TopTopics {
		if IsTechnicalTopic(topic) {
			technicality += 10
		}
	}

	return types.Personality{
		Formality:     types.ClampTrait(int(formality)),
		Humor:         types.ClampTrait(int(humor)),
		Technicality:  types.ClampTrait(technicality),
		ResponseSpeed: types.ResponseSpeedMedium,
		Verbosity:     types.VerbosityMedium,
	}
}

// ClassifyTone maps a mean sentiment to the predominant channel tone.
func ClassifyTone(avgSentiment float64) string {
	switch {
	case avgSentiment >= 0.3:
		return types.ToneInformal
	case avgSentiment >= -0.3:
		return types.ToneNeutral
	default:
		return types.ToneFormal
	}
}

// technicalTopics are the categories that raise the technicality trait.
var technicalTopics = map[string]struct{}{
	"tecnologia": {},
	"educação":   {},
	"política":   {},
	"trabalho":   {},
}

// IsTechnicalTopic reports whether topic counts as technical for trait
// derivation.
func IsTechnicalTopic(topic string) bool {
	_, ok := technicalTopics[topic]
	return ok
}

// topByCount returns the limit highest-count keys, count descending, ties
// broken lexicographically so batch aggregation stays deterministic.
func topByCount(counts map[string]int, limit int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

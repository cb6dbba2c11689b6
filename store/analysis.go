package store

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ninaia/memoria/analyzer"
	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 🧠 Analysis Aggregation
// =============================================================================

const (
	maxRecurringThemes = 20
	maxActiveUsers     = 50

	// toneIncrement is the additive weight one message contributes to its
	// tone bucket. The distribution is never renormalized, so long-lived
	// channels drift toward their real tone mix.
	toneIncrement = 0.05

	// lengthSmoothing is the exponential-smoothing factor for the running
	// average message length.
	lengthSmoothing = 0.2
)

// ApplyAnalysis folds one message analysis into the author's and channel's
// aggregated memory: expression lists, emotion and tone distributions, topic
// relevances and the relational term tables. The user side and channel side
// are updated under their own stripe locks.
func (s *EntityStore) ApplyAnalysis(ctx context.Context, userID, channelID string, res types.AnalysisResult, ts time.Time) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if userID == "" {
		return types.NewError(types.ErrInvalidInput, "user id is required").WithOperation("apply_analysis")
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if err := s.applyUserAnalysis(ctx, userID, res, ts); err != nil {
		return err
	}
	if channelID == "" {
		return nil
	}
	return s.applyChannelAnalysis(ctx, channelID, userID, res, ts)
}

func (s *EntityStore) applyUserAnalysis(ctx context.Context, userID string, res types.AnalysisResult, ts time.Time) error {
	unlock := s.lockEntity("user", userID)
	defer unlock()

	doc := &types.UserDocument{}
	if err := s.docs.Read(ctx, UserDocKey(userID), doc); err != nil {
		if types.GetErrorCode(err) != types.ErrNotFound {
			return err
		}
		doc = types.NewUserDocument(userID, userID, ts)
	}

	doc.FrequentExpressions = mergeExpressions(doc.FrequentExpressions, res.Expressions)

	emotion := classifyEmotion(res.Sentiment)
	if doc.Emotions.Distribution == nil {
		doc.Emotions.Distribution = map[string]float64{}
	}
	doc.Emotions.Distribution[emotion]++
	doc.Emotions.Predominant = predominantKey(doc.Emotions.Distribution, types.EmotionNeutral)
	doc.Emotions.LastUpdated = ts

	doc.Topics = bumpTopicRelevances(doc.Topics, res.Topics, ts)

	hour := ts.Hour()
	doc.InteractionPatterns.ActiveHours = appendUniqueInt(doc.InteractionPatterns.ActiveHours, hour)
	doc.InteractionPatterns.ActiveDays = appendUnique(doc.InteractionPatterns.ActiveDays, strings.ToLower(ts.Weekday().String()), 7)
	if doc.InteractionPatterns.AverageMessageLength == 0 {
		doc.InteractionPatterns.AverageMessageLength = float64(res.CharCount)
	} else {
		doc.InteractionPatterns.AverageMessageLength = (1-lengthSmoothing)*doc.InteractionPatterns.AverageMessageLength + lengthSmoothing*float64(res.CharCount)
	}

	if err := s.docs.Write(ctx, UserDocKey(userID), doc); err != nil {
		return err
	}

	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		for _, topic := range res.Topics {
			if err := upsertScore(tx, &userTopicRow{UserID: userID, Topic: topic, Score: 1},
				[]clause.Column{{Name: "user_id"}, {Name: "topic"}},
				"score", "user_topics.score + 1"); err != nil {
				return err
			}
		}
		for _, word := range significantWords(res.Expressions) {
			if err := upsertScore(tx, &userFrequentWordRow{UserID: userID, Word: word, Count: 1},
				[]clause.Column{{Name: "user_id"}, {Name: "word"}},
				"count", "user_frequent_words.count + 1"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to update user term tables").WithEntity(userID).WithOperation("apply_analysis").WithCause(err)
	}
	return nil
}

func (s *EntityStore) applyChannelAnalysis(ctx context.Context, channelID, userID string, res types.AnalysisResult, ts time.Time) error {
	unlock := s.lockEntity("channel", channelID)
	defer unlock()

	doc := &types.ChannelDocument{}
	if err := s.docs.Read(ctx, ChannelDocKey(channelID), doc); err != nil {
		if types.GetErrorCode(err) != types.ErrNotFound {
			return err
		}
		doc = types.NewChannelDocument(channelID, "", channelID, ts)
	}

	bucket := analyzer.ClassifyTone(res.Sentiment)
	if doc.Tone.Distribution == nil {
		doc.Tone.Distribution = map[string]float64{}
	}
	doc.Tone.Distribution[bucket] += toneIncrement
	doc.Tone.Predominant = predominantKey(doc.Tone.Distribution, types.ToneNeutral)
	doc.Tone.LastUpdated = ts

	for _, topic := range res.Topics {
		doc.RecurringThemes = appendUnique(doc.RecurringThemes, topic, maxRecurringThemes)
	}
	doc.ActiveUsers = appendUnique(doc.ActiveUsers, userID, maxActiveUsers)

	if err := s.docs.Write(ctx, ChannelDocKey(channelID), doc); err != nil {
		return err
	}

	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		for _, topic := range res.Topics {
			if err := upsertScore(tx, &channelTopicRow{ChannelID: channelID, Topic: topic, Score: 1},
				[]clause.Column{{Name: "channel_id"}, {Name: "topic"}},
				"score", "channel_topics.score + 1"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to update channel topic table").WithEntity(channelID).WithOperation("apply_analysis").WithCause(err)
	}
	return nil
}

func upsertScore(tx *gorm.DB, row interface{}, keys []clause.Column, col, expr string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   keys,
		DoUpdates: clause.Assignments(map[string]interface{}{col: gorm.Expr(expr)}),
	}).Create(row).Error
}

// classifyEmotion maps a message sentiment to an emotion bucket.
func classifyEmotion(sentiment float64) string {
	switch {
	case sentiment >= 0.3:
		return types.EmotionHappy
	case sentiment <= -0.3:
		return types.EmotionSad
	default:
		return types.EmotionNeutral
	}
}

// mergeExpressions prepends new expressions most-recent-first, deduplicated,
// capped at MaxFrequentExpressions.
func mergeExpressions(existing, fresh []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(fresh))
	out := make([]string, 0, len(existing)+len(fresh))
	for _, expr := range fresh {
		if _, ok := seen[expr]; ok {
			continue
		}
		seen[expr] = struct{}{}
		out = append(out, expr)
	}
	for _, expr := range existing {
		if _, ok := seen[expr]; ok {
			continue
		}
		seen[expr] = struct{}{}
		out = append(out, expr)
	}
	if len(out) > types.MaxFrequentExpressions {
		out = out[:types.MaxFrequentExpressions]
	}
	return out
}

func bumpTopicRelevances(topics []types.TopicRelevance, names []string, ts time.Time) []types.TopicRelevance {
	for _, name := range names {
		found := false
		for i := range topics {
			if topics[i].Topic == name {
				topics[i].Relevance++
				topics[i].LastDiscussed = ts
				found = true
				break
			}
		}
		if !found {
			topics = append(topics, types.TopicRelevance{Topic: name, Relevance: 1, LastDiscussed: ts})
		}
	}
	return topics
}

func predominantKey(dist map[string]float64, fallback string) string {
	best := fallback
	bestW := -1.0
	for k, w := range dist {
		if w > bestW || (w == bestW && k < best) {
			best, bestW = k, w
		}
	}
	return best
}

func appendUnique(list []string, v string, limit int) []string {
	for _, cur := range list {
		if cur == v {
			return list
		}
	}
	list = append(list, v)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}

func appendUniqueInt(list []int, v int) []int {
	for _, cur := range list {
		if cur == v {
			return list
		}
	}
	return append(list, v)
}

// significantWords keeps terms long enough to be meaningful for the frequent
// word table.
func significantWords(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if utf8.RuneCountInString(term) > 3 {
			out = append(out, term)
		}
	}
	return out
}

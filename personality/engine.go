package personality

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ninaia/memoria/analyzer"
	"github.com/ninaia/memoria/store"
	"github.com/ninaia/memoria/types"
)

// ProfileDocPrefix is the document key prefix for named personality presets.
const ProfileDocPrefix = "profile_"

// ProfileDocKey returns the document key for a named preset.
func ProfileDocKey(name string) string { return ProfileDocPrefix + name }

// topDerivationTopics bounds how many topics feed the technicality trait.
const topDerivationTopics = 5

// =============================================================================
// 🎭 Personality Engine
// =============================================================================

// Engine derives channel personalities from observed conversation and
// persists them through the entity store.
type Engine struct {
	store  *store.EntityStore
	docs   store.DocumentStore
	logger *zap.Logger
}

// NewEngine returns an engine bound to the entity store.
func NewEngine(st *store.EntityStore, logger *zap.Logger) *Engine {
	return &Engine{
		store:  st,
		docs:   st.Documents(),
		logger: logger.With(zap.String("component", "personality_engine")),
	}
}

// Derive computes a personality from the channel's recent conversation. With
// no interactions it returns Suggest(). Categorical traits pass through from
// the stored block; numeric traits come from the observed sentiment, message
// length and topic mix.
func (e *Engine) Derive(profile *types.ChannelProfile, recent []types.Interaction) types.Personality {
	if len(recent) == 0 {
		return e.Suggest()
	}

	var sentimentSum float64
	var wordSum int
	topicCounts := map[string]int{}
	for _, in := range recent {
		sentimentSum += in.SentimentScore
		wordSum += len(strings.Fields(in.ContentSummary))
		for _, topic := range in.Topics {
			topicCounts[topic]++
		}
	}

	meanSentiment := sentimentSum / float64(len(recent))
	meanWords := float64(wordSum) / float64(len(recent))

	formality := 50 - meanSentiment*20
	switch {
	case meanWords > 20:
		formality += 10
	case meanWords > 10:
		formality += 5
	}

	humor := 50 + meanSentiment*50

	technicality := 50
	for _, topic := range topTopics(topicCounts, topDerivationTopics) {
		if analyzer.IsTechnicalTopic(topic) {
			technicality += 10
		}
	}

	speed := types.ResponseSpeedMedium
	verbosity := types.VerbosityMedium
	if profile != nil && profile.Document != nil {
		if profile.Document.Personality.ResponseSpeed != "" {
			speed = profile.Document.Personality.ResponseSpeed
		}
		if profile.Document.Personality.Verbosity != "" {
			verbosity = profile.Document.Personality.Verbosity
		}
	}

	return types.Personality{
		Formality:     types.ClampTrait(int(formality)),
		Humor:         types.ClampTrait(int(humor)),
		Technicality:  types.ClampTrait(technicality),
		ResponseSpeed: speed,
		Verbosity:     verbosity,
		LastUpdated:   time.Now().UTC(),
	}
}

// Suggest returns the neutral starting personality.
func (e *Engine) Suggest() types.Personality {
	return types.DefaultPersonality(time.Now().UTC())
}

// Save persists p as the channel's active personality.
func (e *Engine) Save(ctx context.Context, channelID string, p types.Personality) error {
	return e.store.UpdateChannelPersonality(ctx, channelID, p)
}

// Load returns the channel's active personality.
func (e *Engine) Load(ctx context.Context, channelID string) (types.Personality, error) {
	profile, err := e.store.GetChannelProfile(ctx, channelID)
	if err != nil {
		return types.Personality{}, err
	}
	return profile.Document.Personality, nil
}

// SaveProfile stores p as a named preset, sanitized.
func (e *Engine) SaveProfile(ctx context.Context, name string, p types.Personality) error {
	if name == "" {
		return types.NewError(types.ErrInvalidInput, "profile name is required").WithOperation("save_profile")
	}
	p = p.Sanitize()
	p.LastUpdated = time.Now().UTC()
	return e.docs.Write(ctx, ProfileDocKey(name), p)
}

// LoadProfile returns a named preset.
func (e *Engine) LoadProfile(ctx context.Context, name string) (types.Personality, error) {
	var p types.Personality
	if err := e.docs.Read(ctx, ProfileDocKey(name), &p); err != nil {
		return types.Personality{}, err
	}
	return p.Sanitize(), nil
}

// ListProfiles returns the stored preset names, sorted.
func (e *Engine) ListProfiles(ctx context.Context) ([]string, error) {
	keys, err := e.docs.List(ctx, ProfileDocPrefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, strings.TrimPrefix(key, ProfileDocPrefix))
	}
	sort.Strings(names)
	return names, nil
}

// DeleteProfile removes a named preset. Absent names are not an error.
func (e *Engine) DeleteProfile(ctx context.Context, name string) error {
	return e.docs.Delete(ctx, ProfileDocKey(name))
}

// topTopics returns the limit most counted topics, ties broken by name so
// derivation is deterministic.
func topTopics(counts map[string]int, limit int) []string {
	topics := make([]string, 0, len(counts))
	for topic := range counts {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

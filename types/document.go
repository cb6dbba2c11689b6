package types

import "time"

// Emotion categories tracked in user documents. The labels match the keyword
// tables of the analyzer, which operate on Portuguese text.
const (
	EmotionHappy   = "feliz"
	EmotionSad     = "triste"
	EmotionAngry   = "bravo"
	EmotionNeutral = "neutro"
)

// Tone categories tracked in channel documents.
const (
	ToneInformal = "informal"
	ToneNeutral  = "neutro"
	ToneFormal   = "formal"
)

// MaxFrequentExpressions caps the per-user expression list. The list is kept
// most-recent-first, so the cap evicts the stalest entry.
const MaxFrequentExpressions = 50

// EmotionState is the aggregated emotion distribution of a user. Weights are
// non-negative and need not sum to 1.
type EmotionState struct {
	Predominant  string             `json:"predominant"`
	Distribution map[string]float64 `json:"distribution"`
	LastUpdated  time.Time          `json:"last_updated"`
}

// ToneState is the aggregated tone distribution of a channel. The
// distribution sums to roughly 1.0 at creation and drifts under updates.
type ToneState struct {
	Predominant  string             `json:"predominant"`
	Distribution map[string]float64 `json:"distribution"`
	LastUpdated  time.Time          `json:"last_updated"`
}

// TopicRelevance pairs a topic with its relevance and recency.
type TopicRelevance struct {
	Topic         string    `json:"topic"`
	Relevance     float64   `json:"relevance"`
	LastDiscussed time.Time `json:"last_discussed"`
}

// VoiceActivity captures a user's voice-channel participation stats.
type VoiceActivity struct {
	TotalTime         float64    `json:"total_time"`
	AverageSession    float64    `json:"average_session"`
	LastSession       *time.Time `json:"last_session,omitempty"`
	PreferredChannels []string   `json:"preferred_channels"`
}

// InteractionPatterns captures when and how a user tends to interact.
type InteractionPatterns struct {
	ActiveHours          []int    `json:"active_hours"`
	ActiveDays           []string `json:"active_days"`
	ResponseRate         float64  `json:"response_rate"`
	AverageMessageLength float64  `json:"average_message_length"`
}

// ActivityPatterns captures channel-level activity rhythm.
type ActivityPatterns struct {
	PeakHours           []int    `json:"peak_hours"`
	PeakDays            []string `json:"peak_days"`
	MessagesPerDay      float64  `json:"messages_per_day"`
	AverageParticipants float64  `json:"average_participants"`
}

// UserDocument is the sidecar document owned by a User row. It is created
// atomically with the row and removed with it; a row without a document is a
// storage invariant violation.
type UserDocument struct {
	UserID              string              `json:"user_id"`
	Username            string              `json:"username"`
	FrequentExpressions []string            `json:"frequent_expressions"`
	Emotions            EmotionState        `json:"emotions"`
	Topics              []TopicRelevance    `json:"topics"`
	VoiceActivity       VoiceActivity       `json:"voice_activity"`
	InteractionPatterns InteractionPatterns `json:"interaction_patterns"`
}

// ChannelDocument is the sidecar document owned by a Channel row.
type ChannelDocument struct {
	ChannelID        string           `json:"channel_id"`
	GuildID          string           `json:"guild_id"`
	Name             string           `json:"name"`
	Tone             ToneState        `json:"tone"`
	RecurringThemes  []string         `json:"recurring_themes"`
	ActivityPatterns ActivityPatterns `json:"activity_patterns"`
	Personality      Personality      `json:"personality"`
	ActiveUsers      []string         `json:"active_users"`
}

// NewUserDocument returns the document created alongside a fresh User row:
// neutral emotion, no topics, no expressions.
func NewUserDocument(userID, username string, now time.Time) *UserDocument {
	return &UserDocument{
		UserID:              userID,
		Username:            username,
		FrequentExpressions: []string{},
		Emotions: EmotionState{
			Predominant: EmotionNeutral,
			Distribution: map[string]float64{
				EmotionHappy:   0.0,
				EmotionNeutral: 1.0,
				EmotionAngry:   0.0,
				EmotionSad:     0.0,
			},
			LastUpdated: now,
		},
		Topics: []TopicRelevance{},
		VoiceActivity: VoiceActivity{
			PreferredChannels: []string{},
		},
		InteractionPatterns: InteractionPatterns{
			ActiveHours: []int{},
			ActiveDays:  []string{},
		},
	}
}

// NewChannelDocument returns the document created alongside a fresh Channel
// row: near-uniform tone distribution and an all-neutral personality block.
func NewChannelDocument(channelID, guildID, name string, now time.Time) *ChannelDocument {
	return &ChannelDocument{
		ChannelID: channelID,
		GuildID:   guildID,
		Name:      name,
		Tone: ToneState{
			Predominant: ToneNeutral,
			Distribution: map[string]float64{
				ToneInformal: 0.33,
				ToneNeutral:  0.34,
				ToneFormal:   0.33,
			},
			LastUpdated: now,
		},
		RecurringThemes: []string{},
		ActivityPatterns: ActivityPatterns{
			PeakHours: []int{},
			PeakDays:  []string{},
		},
		Personality: DefaultPersonality(now),
		ActiveUsers: []string{},
	}
}

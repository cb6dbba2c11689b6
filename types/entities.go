package types

import "time"

// AgentUserID is the reserved user id that interactions authored by the
// assistant itself are attributed to.
const AgentUserID = "assistant"

// User is the relational row of a known user.
type User struct {
	UserID                  string    `json:"user_id"`
	Username                string    `json:"username"`
	FirstSeen               time.Time `json:"first_seen"`
	LastSeen                time.Time `json:"last_seen"`
	InteractionCount        int64     `json:"interaction_count"`
	VoiceParticipationCount int64     `json:"voice_participation_count"`
}

// Guild is the relational row of a server. Guilds are created implicitly the
// first time a channel belonging to them is seen.
type Guild struct {
	GuildID       string    `json:"guild_id"`
	GuildName     string    `json:"guild_name"`
	FirstActivity time.Time `json:"first_activity"`
	LastActivity  time.Time `json:"last_activity"`
}

// Channel is the relational row of a conversation channel.
type Channel struct {
	ChannelID     string    `json:"channel_id"`
	GuildID       string    `json:"guild_id"`
	ChannelName   string    `json:"channel_name"`
	ChannelType   string    `json:"channel_type"`
	FirstActivity time.Time `json:"first_activity"`
	LastActivity  time.Time `json:"last_activity"`
	MessageCount  int64     `json:"message_count"`
}

// Interaction is one immutable logged message attributed to a user/channel
// pair. Agent replies use AgentUserID and carry the user they answered in
// TargetUserID.
type Interaction struct {
	InteractionID  int64     `json:"interaction_id"`
	UserID         string    `json:"user_id"`
	ChannelID      string    `json:"channel_id"`
	Timestamp      time.Time `json:"timestamp"`
	Type           string    `json:"interaction_type"`
	ContentSummary string    `json:"content_summary"`
	SentimentScore float64   `json:"sentiment_score"`
	Topics         []string  `json:"topics"`
	TargetUserID   string    `json:"target_user_id,omitempty"`
}

// Interaction types.
const (
	InteractionTypeMessage    = "message"
	InteractionTypeAgentReply = "agent_reply"
)

// UserChannelStat tracks one user's participation in one channel.
type UserChannelStat struct {
	UserID             string    `json:"user_id"`
	ChannelID          string    `json:"channel_id"`
	MessageCount       int64     `json:"message_count"`
	LastInteraction    time.Time `json:"last_interaction"`
	ParticipationScore float64   `json:"participation_score"`
}

// UserProfile is the composite view of a user: the relational row plus the
// sidecar document.
type UserProfile struct {
	User
	Document *UserDocument `json:"document"`
}

// ChannelProfile is the composite view of a channel.
type ChannelProfile struct {
	Channel
	Document *ChannelDocument `json:"document"`
}

// Statistics is the whole-store summary returned by GetStatistics.
type Statistics struct {
	UserCount        int64         `json:"user_count"`
	ChannelCount     int64         `json:"channel_count"`
	InteractionCount int64         `json:"interaction_count"`
	TopUsers         []EntityCount `json:"top_users"`
	TopChannels      []EntityCount `json:"top_channels"`
	TopTopics        []TopicWeight `json:"top_topics"`
}

// EntityCount pairs an entity id/name with an activity count.
type EntityCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TopicWeight pairs a topic with its accumulated relevance.
type TopicWeight struct {
	Topic  string  `json:"topic"`
	Weight float64 `json:"weight"`
}

// SearchScope selects which tables Search matches against.
type SearchScope string

const (
	SearchScopeAll      SearchScope = "all"
	SearchScopeUsers    SearchScope = "users"
	SearchScopeChannels SearchScope = "channels"
	SearchScopeTopics   SearchScope = "topics"
)

// SearchResult is one match returned by Search.
type SearchResult struct {
	Kind      string  `json:"kind"` // user, channel, topic, interaction
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Snippet   string  `json:"snippet,omitempty"`
	Relevance float64 `json:"relevance,omitempty"`
}

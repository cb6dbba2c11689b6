package types

import "time"

// ProcessResult is returned by the facade after ingesting a message.
type ProcessResult struct {
	InteractionID  int64           `json:"interaction_id"`
	Analysis       AnalysisResult  `json:"analysis"`
	UserProfile    *UserProfile    `json:"user_profile"`
	ChannelProfile *ChannelProfile `json:"channel_profile"`
}

// ResponseContext is everything the caller needs to generate a personalized
// reply: profiles, the channel personality and the recent history.
type ResponseContext struct {
	UserProfile        *UserProfile    `json:"user_profile"`
	ChannelProfile     *ChannelProfile `json:"channel_profile"`
	Personality        Personality     `json:"personality"`
	RecentInteractions []Interaction   `json:"recent_interactions"`
	Timestamp          time.Time       `json:"timestamp"`
}

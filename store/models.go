package store

import (
	"encoding/json"
	"time"

	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 🗄️ Relational Row Models
// =============================================================================
// Column names match the embedded SQL migrations exactly, so AutoMigrate
// (dev/test) and golang-migrate (deploy) produce the same schema.

type userRow struct {
	UserID                  string    `gorm:"column:user_id;primaryKey"`
	Username                string    `gorm:"column:username;not null"`
	FirstSeen               time.Time `gorm:"column:first_seen"`
	LastSeen                time.Time `gorm:"column:last_seen"`
	InteractionCount        int64     `gorm:"column:interaction_count;not null;default:0"`
	VoiceParticipationCount int64     `gorm:"column:voice_participation_count;not null;default:0"`
}

func (userRow) TableName() string { return "users" }

type guildRow struct {
	GuildID       string    `gorm:"column:guild_id;primaryKey"`
	GuildName     string    `gorm:"column:guild_name;not null"`
	FirstActivity time.Time `gorm:"column:first_activity"`
	LastActivity  time.Time `gorm:"column:last_activity"`
}

func (guildRow) TableName() string { return "guilds" }

type channelRow struct {
	ChannelID     string    `gorm:"column:channel_id;primaryKey"`
	GuildID       string    `gorm:"column:guild_id;index"`
	ChannelName   string    `gorm:"column:channel_name;not null"`
	ChannelType   string    `gorm:"column:channel_type;not null;default:text"`
	FirstActivity time.Time `gorm:"column:first_activity"`
	LastActivity  time.Time `gorm:"column:last_activity"`
	MessageCount  int64     `gorm:"column:message_count;not null;default:0"`
}

func (channelRow) TableName() string { return "channels" }

type interactionRow struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          string    `gorm:"column:user_id;index;not null"`
	ChannelID       string    `gorm:"column:channel_id;index"`
	InteractionType string    `gorm:"column:interaction_type;not null;default:message"`
	ContentSummary  string    `gorm:"column:content_summary;not null"`
	SentimentScore  float64   `gorm:"column:sentiment_score;not null;default:0"`
	Topics          string    `gorm:"column:topics;not null;default:[]"`
	TargetUserID    string    `gorm:"column:target_user_id"`
	CreatedAt       time.Time `gorm:"column:created_at;index"`
}

func (interactionRow) TableName() string { return "interactions" }

type userChannelStatRow struct {
	UserID             string    `gorm:"column:user_id;primaryKey"`
	ChannelID          string    `gorm:"column:channel_id;primaryKey"`
	MessageCount       int64     `gorm:"column:message_count;not null;default:0"`
	LastInteraction    time.Time `gorm:"column:last_interaction"`
	ParticipationScore float64   `gorm:"column:participation_score;not null;default:0"`
}

func (userChannelStatRow) TableName() string { return "user_channel_stats" }

type userFrequentWordRow struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	Word   string `gorm:"column:word;primaryKey"`
	Count  int64  `gorm:"column:count;not null;default:0"`
}

func (userFrequentWordRow) TableName() string { return "user_frequent_words" }

type userTopicRow struct {
	UserID string  `gorm:"column:user_id;primaryKey"`
	Topic  string  `gorm:"column:topic;primaryKey;index"`
	Score  float64 `gorm:"column:score;not null;default:0"`
}

func (userTopicRow) TableName() string { return "user_topics" }

type channelTopicRow struct {
	ChannelID string  `gorm:"column:channel_id;primaryKey"`
	Topic     string  `gorm:"column:topic;primaryKey;index"`
	Score     float64 `gorm:"column:score;not null;default:0"`
}

func (channelTopicRow) TableName() string { return "channel_topics" }

// allModels is the AutoMigrate set for dev and test databases.
func allModels() []interface{} {
	return []interface{}{
		&userRow{},
		&guildRow{},
		&channelRow{},
		&interactionRow{},
		&userChannelStatRow{},
		&userFrequentWordRow{},
		&userTopicRow{},
		&channelTopicRow{},
	}
}

// =============================================================================
// 🔄 Row <-> Type Converters
// =============================================================================

func (r userRow) toUser() types.User {
	return types.User{
		UserID:                  r.UserID,
		Username:                r.Username,
		FirstSeen:               r.FirstSeen,
		LastSeen:                r.LastSeen,
		InteractionCount:        r.InteractionCount,
		VoiceParticipationCount: r.VoiceParticipationCount,
	}
}

func (r channelRow) toChannel() types.Channel {
	return types.Channel{
		ChannelID:     r.ChannelID,
		GuildID:       r.GuildID,
		ChannelName:   r.ChannelName,
		ChannelType:   r.ChannelType,
		FirstActivity: r.FirstActivity,
		LastActivity:  r.LastActivity,
		MessageCount:  r.MessageCount,
	}
}

func (r interactionRow) toInteraction() types.Interaction {
	var topics []string
	if r.Topics != "" {
		// A corrupt topics blob degrades to an empty list rather than
		// failing the read.
		_ = json.Unmarshal([]byte(r.Topics), &topics)
	}
	if topics == nil {
		topics = []string{}
	}

	return types.Interaction{
		InteractionID:  r.ID,
		UserID:         r.UserID,
		ChannelID:      r.ChannelID,
		Timestamp:      r.CreatedAt,
		Type:           r.InteractionType,
		ContentSummary: r.ContentSummary,
		SentimentScore: r.SentimentScore,
		Topics:         topics,
		TargetUserID:   r.TargetUserID,
	}
}

func encodeTopics(topics []string) string {
	if len(topics) == 0 {
		return "[]"
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return "[]"
	}
	return string(data)
}

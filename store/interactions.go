package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 💬 Interaction Log
// =============================================================================

// RecordInteraction appends one interaction to the log, bumping the author's
// and channel's counters in the same transaction. Unregistered users and
// channels are created on the fly with defaults. The returned id is the
// database autoincrement: strictly increasing, never reused.
func (s *EntityStore) RecordInteraction(ctx context.Context, in types.Interaction) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if in.UserID == "" {
		return 0, types.NewError(types.ErrInvalidInput, "user id is required").WithOperation("record_interaction")
	}
	if in.ContentSummary == "" {
		return 0, types.NewError(types.ErrInvalidInput, "content is required").WithOperation("record_interaction")
	}
	if in.Type == "" {
		in.Type = types.InteractionTypeMessage
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	unlock := s.lockPair("user", in.UserID, "channel", in.ChannelID)
	defer unlock()

	var createdUser, createdChannel bool
	row := interactionRow{
		UserID:          in.UserID,
		ChannelID:       in.ChannelID,
		InteractionType: in.Type,
		ContentSummary:  in.ContentSummary,
		SentimentScore:  clampSentiment(in.SentimentScore),
		Topics:          encodeTopics(in.Topics),
		TargetUserID:    in.TargetUserID,
		CreatedAt:       in.Timestamp,
	}

	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		var err error
		createdUser, err = ensureUserTx(tx, in.UserID, "", in.Timestamp)
		if err != nil {
			return err
		}

		if in.ChannelID != "" {
			createdChannel, err = ensureChannelTx(tx, in.ChannelID, "", in.Timestamp)
			if err != nil {
				return err
			}
		}

		row.ID = 0
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if err := tx.Model(&userRow{}).
			Where("user_id = ?", in.UserID).
			Updates(map[string]interface{}{
				"interaction_count": gorm.Expr("interaction_count + 1"),
				"last_seen":         in.Timestamp,
			}).Error; err != nil {
			return err
		}

		if in.ChannelID == "" {
			return nil
		}

		if err := tx.Model(&channelRow{}).
			Where("channel_id = ?", in.ChannelID).
			Updates(map[string]interface{}{
				"message_count": gorm.Expr("message_count + 1"),
				"last_activity": in.Timestamp,
			}).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "channel_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"message_count":    gorm.Expr("user_channel_stats.message_count + 1"),
				"last_interaction": in.Timestamp,
			}),
		}).Create(&userChannelStatRow{
			UserID:          in.UserID,
			ChannelID:       in.ChannelID,
			MessageCount:    1,
			LastInteraction: in.Timestamp,
		}).Error
	})
	if err != nil {
		return 0, types.NewError(types.ErrStorageFailure, "failed to record interaction").WithEntity(in.UserID).WithOperation("record_interaction").WithCause(err)
	}

	// Rows created on the fly still need their sidecar documents.
	if createdUser {
		if err := s.ensureUserDocument(ctx, in.UserID, in.UserID, in.Timestamp); err != nil {
			return 0, err
		}
	}
	if createdChannel {
		if err := s.ensureChannelDocument(ctx, in.ChannelID, "", in.ChannelID, in.Timestamp); err != nil {
			return 0, err
		}
	}

	return row.ID, nil
}

func clampSentiment(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// GetRecentInteractions returns the latest interactions in a channel, newest
// first.
func (s *EntityStore) GetRecentInteractions(ctx context.Context, channelID string, limit int) ([]types.Interaction, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	var rows []interactionRow
	err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to load interactions").WithEntity(channelID).WithOperation("get_recent_interactions").WithCause(err)
	}

	return rowsToInteractions(rows), nil
}

// GetUserInteractions returns the latest interactions authored by a user,
// newest first.
func (s *EntityStore) GetUserInteractions(ctx context.Context, userID string, limit int) ([]types.Interaction, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	var rows []interactionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to load interactions").WithEntity(userID).WithOperation("get_user_interactions").WithCause(err)
	}

	return rowsToInteractions(rows), nil
}

// GetInteraction loads one interaction by id.
func (s *EntityStore) GetInteraction(ctx context.Context, id int64) (*types.Interaction, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var row interactionRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, "interaction not found").WithOperation("get_interaction")
	}
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to load interaction").WithOperation("get_interaction").WithCause(err)
	}

	in := row.toInteraction()
	return &in, nil
}

// DeleteInteraction removes one log entry, for moderation-driven erasure.
// Counters are not rewound; the log is otherwise append-only.
func (s *EntityStore) DeleteInteraction(ctx context.Context, id int64) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).Delete(&interactionRow{}, "id = ?", id)
	if res.Error != nil {
		return false, types.NewError(types.ErrStorageFailure, "failed to delete interaction").WithOperation("delete_interaction").WithCause(res.Error)
	}

	return res.RowsAffected > 0, nil
}

func rowsToInteractions(rows []interactionRow) []types.Interaction {
	out := make([]types.Interaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toInteraction())
	}
	return out
}

package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ninaia/memoria/types"
)

// UnknownGuildName is the placeholder for guilds created implicitly when a
// channel arrives before its guild is registered.
const UnknownGuildName = "Unknown Guild"

// =============================================================================
// 📺 Channels & Guilds
// =============================================================================

// UpsertChannel registers a channel (and, implicitly, its guild) or
// refreshes an existing one. guildName may be empty; an unseen guild is
// created with a placeholder name that a later upsert can correct.
func (s *EntityStore) UpsertChannel(ctx context.Context, channelID, channelName, guildID, guildName string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if channelID == "" {
		return types.NewError(types.ErrInvalidInput, "channel id is required").WithOperation("upsert_channel")
	}
	if channelName == "" {
		channelName = channelID
	}

	unlock := s.lockEntity("channel", channelID)
	defer unlock()

	now := time.Now().UTC()

	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		if guildID != "" {
			if err := ensureGuildTx(tx, guildID, guildName, now); err != nil {
				return err
			}
		}

		var row channelRow
		err := tx.First(&row, "channel_id = ?", channelID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = channelRow{
				ChannelID:     channelID,
				GuildID:       guildID,
				ChannelName:   channelName,
				ChannelType:   "text",
				FirstActivity: now,
				LastActivity:  now,
			}
			return tx.Create(&row).Error
		case err != nil:
			return err
		default:
			updates := map[string]interface{}{
				"channel_name":  channelName,
				"last_activity": now,
			}
			if guildID != "" {
				updates["guild_id"] = guildID
			}
			return tx.Model(&channelRow{}).
				Where("channel_id = ?", channelID).
				Updates(updates).Error
		}
	})
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to upsert channel").WithEntity(channelID).WithOperation("upsert_channel").WithCause(err)
	}

	return s.ensureChannelDocument(ctx, channelID, guildID, channelName, now)
}

// ensureGuildTx creates or refreshes a guild row inside a transaction.
func ensureGuildTx(tx *gorm.DB, guildID, guildName string, now time.Time) error {
	var row guildRow
	err := tx.First(&row, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if guildName == "" {
			guildName = UnknownGuildName
		}
		return tx.Create(&guildRow{
			GuildID:       guildID,
			GuildName:     guildName,
			FirstActivity: now,
			LastActivity:  now,
		}).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"last_activity": now}
	// A real name replaces the placeholder once known.
	if guildName != "" && row.GuildName == UnknownGuildName {
		updates["guild_name"] = guildName
	}
	return tx.Model(&guildRow{}).Where("guild_id = ?", guildID).Updates(updates).Error
}

// ensureChannelTx creates the channel row (and implicit guild) inside an
// ongoing transaction if missing.
func ensureChannelTx(tx *gorm.DB, channelID, guildID string, now time.Time) (bool, error) {
	var row channelRow
	err := tx.First(&row, "channel_id = ?", channelID).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if guildID != "" {
		if err := ensureGuildTx(tx, guildID, "", now); err != nil {
			return false, err
		}
	}

	row = channelRow{
		ChannelID:     channelID,
		GuildID:       guildID,
		ChannelName:   channelID,
		ChannelType:   "text",
		FirstActivity: now,
		LastActivity:  now,
	}
	return true, tx.Create(&row).Error
}

func (s *EntityStore) ensureChannelDocument(ctx context.Context, channelID, guildID, name string, now time.Time) error {
	var doc types.ChannelDocument
	err := s.docs.Read(ctx, ChannelDocKey(channelID), &doc)
	if err == nil {
		return nil
	}
	if types.GetErrorCode(err) != types.ErrNotFound {
		return err
	}

	return s.docs.Write(ctx, ChannelDocKey(channelID), types.NewChannelDocument(channelID, guildID, name, now))
}

// GetChannelProfile returns the composite view of a channel.
func (s *EntityStore) GetChannelProfile(ctx context.Context, channelID string) (*types.ChannelProfile, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, types.NewError(types.ErrInvalidInput, "channel id is required").WithOperation("get_channel_profile")
	}

	var row channelRow
	err := s.db.WithContext(ctx).First(&row, "channel_id = ?", channelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, "channel not found").WithEntity(channelID).WithOperation("get_channel_profile")
	}
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to load channel").WithEntity(channelID).WithOperation("get_channel_profile").WithCause(err)
	}

	doc := &types.ChannelDocument{}
	if err := s.docs.Read(ctx, ChannelDocKey(channelID), doc); err != nil {
		if types.GetErrorCode(err) != types.ErrNotFound {
			return nil, err
		}
		s.logger.Warn("channel document missing, recreating", zap.String("channel_id", channelID))
		doc = types.NewChannelDocument(channelID, row.GuildID, row.ChannelName, time.Now().UTC())
		if err := s.docs.Write(ctx, ChannelDocKey(channelID), doc); err != nil {
			return nil, err
		}
	}

	return &types.ChannelProfile{Channel: row.toChannel(), Document: doc}, nil
}

// DeleteChannel removes a channel with its interactions, stats, topic rows
// and document. Returns false when the channel was never known.
func (s *EntityStore) DeleteChannel(ctx context.Context, channelID string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if channelID == "" {
		return false, types.NewError(types.ErrInvalidInput, "channel id is required").WithOperation("delete_channel")
	}

	unlock := s.lockEntity("channel", channelID)
	defer unlock()

	existed := false
	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		res := tx.Delete(&channelRow{}, "channel_id = ?", channelID)
		if res.Error != nil {
			return res.Error
		}
		existed = res.RowsAffected > 0
		if !existed {
			return nil
		}

		for _, del := range []error{
			tx.Delete(&interactionRow{}, "channel_id = ?", channelID).Error,
			tx.Delete(&userChannelStatRow{}, "channel_id = ?", channelID).Error,
			tx.Delete(&channelTopicRow{}, "channel_id = ?", channelID).Error,
		} {
			if del != nil {
				return del
			}
		}
		return nil
	})
	if err != nil {
		return false, types.NewError(types.ErrStorageFailure, "failed to delete channel").WithEntity(channelID).WithOperation("delete_channel").WithCause(err)
	}

	if !existed {
		return false, nil
	}

	if err := s.docs.Delete(ctx, ChannelDocKey(channelID)); err != nil {
		return true, err
	}

	s.logger.Info("channel memory deleted", zap.String("channel_id", channelID))
	return true, nil
}

// ListChannels pages through known channels, most recently active first.
func (s *EntityStore) ListChannels(ctx context.Context, limit, offset int) ([]types.Channel, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []channelRow
	err := s.db.WithContext(ctx).
		Order("last_activity DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to list channels").WithOperation("list_channels").WithCause(err)
	}

	channels := make([]types.Channel, 0, len(rows))
	for _, row := range rows {
		channels = append(channels, row.toChannel())
	}
	return channels, nil
}

// UpdateChannelPersonality writes a sanitized personality block into the
// channel document. The channel must exist.
func (s *EntityStore) UpdateChannelPersonality(ctx context.Context, channelID string, p types.Personality) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	unlock := s.lockEntity("channel", channelID)
	defer unlock()

	profile, err := s.GetChannelProfile(ctx, channelID)
	if err != nil {
		return err
	}

	p = p.Sanitize()
	p.LastUpdated = time.Now().UTC()
	profile.Document.Personality = p

	return s.docs.Write(ctx, ChannelDocKey(channelID), profile.Document)
}

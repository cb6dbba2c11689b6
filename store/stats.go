package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 📊 Statistics
// =============================================================================

const topStatLimit = 5

// GetStatistics computes a global snapshot of the memory: entity counts plus
// the most active users, channels and topics. The six queries run
// concurrently.
func (s *EntityStore) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	stats := &types.Statistics{
		TopUsers:    []types.EntityCount{},
		TopChannels: []types.EntityCount{},
		TopTopics:   []types.TopicWeight{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&userRow{}).Count(&stats.UserCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&channelRow{}).Count(&stats.ChannelCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&interactionRow{}).Count(&stats.InteractionCount).Error
	})
	g.Go(func() error {
		var rows []userRow
		err := s.db.WithContext(gctx).
			Order("interaction_count DESC").
			Limit(topStatLimit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for _, row := range rows {
			stats.TopUsers = append(stats.TopUsers, types.EntityCount{
				ID:    row.UserID,
				Name:  row.Username,
				Count: row.InteractionCount,
			})
		}
		return nil
	})
	g.Go(func() error {
		var rows []channelRow
		err := s.db.WithContext(gctx).
			Order("message_count DESC").
			Limit(topStatLimit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for _, row := range rows {
			stats.TopChannels = append(stats.TopChannels, types.EntityCount{
				ID:    row.ChannelID,
				Name:  row.ChannelName,
				Count: row.MessageCount,
			})
		}
		return nil
	})
	g.Go(func() error {
		type topicAgg struct {
			Topic string
			Total float64
		}
		var agg []topicAgg
		err := s.db.WithContext(gctx).Raw(`
			SELECT topic, SUM(score) AS total FROM (
				SELECT topic, score FROM user_topics
				UNION ALL
				SELECT topic, score FROM channel_topics
			) t GROUP BY topic ORDER BY total DESC LIMIT ?`, topStatLimit).
			Scan(&agg).Error
		if err != nil {
			return err
		}
		for _, row := range agg {
			stats.TopTopics = append(stats.TopTopics, types.TopicWeight{
				Topic:  row.Topic,
				Weight: row.Total,
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to compute statistics").WithOperation("get_statistics").WithCause(err)
	}
	return stats, nil
}

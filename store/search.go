package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 🔍 Search
// =============================================================================

// Search matches the query against usernames, channel names, aggregated
// topics, and (for the all scope) interaction summaries. Matching is a
// case-insensitive substring scan over the relational index.
func (s *EntityStore) Search(ctx context.Context, query string, scope types.SearchScope, limit int) ([]types.SearchResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.NewError(types.ErrInvalidInput, "query is required").WithOperation("search")
	}
	if scope == "" {
		scope = types.SearchScopeAll
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + strings.ToLower(query) + "%"
	results := make([]types.SearchResult, 0, limit)

	if scope == types.SearchScopeAll || scope == types.SearchScopeUsers {
		users, err := s.searchUsers(ctx, pattern, limit-len(results))
		if err != nil {
			return nil, err
		}
		results = append(results, users...)
	}

	if len(results) < limit && (scope == types.SearchScopeAll || scope == types.SearchScopeChannels) {
		channels, err := s.searchChannels(ctx, pattern, limit-len(results))
		if err != nil {
			return nil, err
		}
		results = append(results, channels...)
	}

	if len(results) < limit && (scope == types.SearchScopeAll || scope == types.SearchScopeTopics) {
		topics, err := s.searchTopics(ctx, pattern, limit-len(results))
		if err != nil {
			return nil, err
		}
		results = append(results, topics...)
	}

	if len(results) < limit && scope == types.SearchScopeAll {
		interactions, err := s.searchInteractions(ctx, pattern, limit-len(results))
		if err != nil {
			return nil, err
		}
		results = append(results, interactions...)
	}

	return results, nil
}

func (s *EntityStore) searchUsers(ctx context.Context, pattern string, limit int) ([]types.SearchResult, error) {
	var rows []userRow
	err := s.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(user_id) LIKE ?", pattern, pattern).
		Order("interaction_count DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "user search failed").WithOperation("search").WithCause(err)
	}

	out := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.SearchResult{
			Kind:      "user",
			ID:        row.UserID,
			Label:     row.Username,
			Relevance: float64(row.InteractionCount),
		})
	}
	return out, nil
}

func (s *EntityStore) searchChannels(ctx context.Context, pattern string, limit int) ([]types.SearchResult, error) {
	var rows []channelRow
	err := s.db.WithContext(ctx).
		Where("LOWER(channel_name) LIKE ? OR LOWER(channel_id) LIKE ?", pattern, pattern).
		Order("message_count DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "channel search failed").WithOperation("search").WithCause(err)
	}

	out := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.SearchResult{
			Kind:      "channel",
			ID:        row.ChannelID,
			Label:     row.ChannelName,
			Relevance: float64(row.MessageCount),
		})
	}
	return out, nil
}

// searchTopics aggregates the user and channel topic tables into one ranked
// list keyed by topic name.
func (s *EntityStore) searchTopics(ctx context.Context, pattern string, limit int) ([]types.SearchResult, error) {
	type topicAgg struct {
		Topic string
		Total float64
	}

	var agg []topicAgg
	err := s.db.WithContext(ctx).Raw(`
		SELECT topic, SUM(score) AS total FROM (
			SELECT topic, score FROM user_topics WHERE LOWER(topic) LIKE ?
			UNION ALL
			SELECT topic, score FROM channel_topics WHERE LOWER(topic) LIKE ?
		) t GROUP BY topic ORDER BY total DESC LIMIT ?`,
		pattern, pattern, limit).Scan(&agg).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "topic search failed").WithOperation("search").WithCause(err)
	}

	out := make([]types.SearchResult, 0, len(agg))
	for _, row := range agg {
		out = append(out, types.SearchResult{
			Kind:      "topic",
			ID:        row.Topic,
			Label:     row.Topic,
			Relevance: row.Total,
		})
	}
	return out, nil
}

func (s *EntityStore) searchInteractions(ctx context.Context, pattern string, limit int) ([]types.SearchResult, error) {
	var rows []interactionRow
	err := s.db.WithContext(ctx).
		Where("LOWER(content_summary) LIKE ?", pattern).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "interaction search failed").WithOperation("search").WithCause(err)
	}

	out := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.SearchResult{
			Kind:    "interaction",
			ID:      strconv.FormatInt(row.ID, 10),
			Label:   row.UserID,
			Snippet: snippet(row.ContentSummary, 120),
		})
	}
	return out, nil
}

func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

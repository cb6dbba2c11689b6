package memory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/analyzer"
	"github.com/ninaia/memoria/internal/metrics"
	"github.com/ninaia/memoria/personality"
	"github.com/ninaia/memoria/session"
	"github.com/ninaia/memoria/store"
	"github.com/ninaia/memoria/types"
)

const tracerName = "github.com/ninaia/memoria/memory"

// =============================================================================
// 🧠 Memory Engine Facade
// =============================================================================

// Engine is the single entry point of the memory system.
type Engine struct {
	analyzer    *analyzer.KeywordAnalyzer
	store       *store.EntityStore
	personality *personality.Engine
	sessions    *session.Manager
	collector   *metrics.Collector
	tracer      trace.Tracer
	logger      *zap.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithCollector installs a metrics collector. Without one the engine skips
// metric recording.
func WithCollector(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithTokenCounter selects the token counter used for session history
// windows. The default is the rune heuristic.
func WithTokenCounter(c session.TokenCounter) Option {
	return func(e *Engine) {
		e.sessions = session.NewManager(e.store.Documents(), e.logger, session.WithTokenCounter(c))
	}
}

// New wires the facade over an opened entity store.
func New(st *store.EntityStore, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		analyzer:    analyzer.NewKeywordAnalyzer(logger),
		store:       st,
		personality: personality.NewEngine(st, logger),
		sessions:    session.NewManager(st.Documents(), logger),
		tracer:      otel.Tracer(tracerName),
		logger:      logger.With(zap.String("component", "memory_engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the underlying entity store.
func (e *Engine) Store() *store.EntityStore { return e.store }

// Personality exposes the personality engine.
func (e *Engine) Personality() *personality.Engine { return e.personality }

// Sessions exposes the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Close shuts the engine down. The store owns every persistent resource.
func (e *Engine) Close() error {
	return e.store.Close()
}

func (e *Engine) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ProcessInput ingests one user message: analyze, log the interaction, fold
// the analysis into the user and channel memories and return the updated
// view.
func (e *Engine) ProcessInput(ctx context.Context, text, userID, channelID string, ts time.Time) (*types.ProcessResult, error) {
	ctx, span := e.span(ctx, "memory.ProcessInput",
		attribute.String("user.id", userID),
		attribute.String("channel.id", channelID),
	)
	var err error
	defer func() { endSpan(span, err) }()

	if text == "" {
		err = types.NewError(types.ErrInvalidInput, "text is required").WithOperation("process_input")
		return nil, err
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	start := time.Now()
	res := e.analyzer.Analyze(text)
	if e.collector != nil {
		e.collector.RecordAnalysis(time.Since(start), len(res.Topics))
	}

	var id int64
	id, err = e.store.RecordInteraction(ctx, types.Interaction{
		UserID:         userID,
		ChannelID:      channelID,
		Timestamp:      ts,
		Type:           types.InteractionTypeMessage,
		ContentSummary: text,
		SentimentScore: res.Sentiment,
		Topics:         res.Topics,
	})
	if err != nil {
		return nil, err
	}
	if e.collector != nil {
		e.collector.RecordInteraction(types.InteractionTypeMessage)
	}

	if err = e.store.ApplyAnalysis(ctx, userID, channelID, res, ts); err != nil {
		return nil, err
	}

	result := &types.ProcessResult{InteractionID: id, Analysis: res}
	if result.UserProfile, err = e.store.GetUserProfile(ctx, userID); err != nil {
		return nil, err
	}
	if channelID != "" {
		if result.ChannelProfile, err = e.store.GetChannelProfile(ctx, channelID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// GetContextForResponse gathers everything needed to craft a personalized
// reply: the profiles, the channel personality and the recent history.
func (e *Engine) GetContextForResponse(ctx context.Context, userID, channelID string, maxInteractions int) (*types.ResponseContext, error) {
	ctx, span := e.span(ctx, "memory.GetContextForResponse",
		attribute.String("user.id", userID),
		attribute.String("channel.id", channelID),
	)
	var err error
	defer func() { endSpan(span, err) }()

	if maxInteractions <= 0 {
		maxInteractions = 10
	}

	rc := &types.ResponseContext{Timestamp: time.Now().UTC()}

	if rc.UserProfile, err = e.store.GetUserProfile(ctx, userID); err != nil {
		return nil, err
	}

	if channelID != "" {
		if rc.ChannelProfile, err = e.store.GetChannelProfile(ctx, channelID); err != nil {
			return nil, err
		}
		rc.Personality = rc.ChannelProfile.Document.Personality
		if rc.RecentInteractions, err = e.store.GetRecentInteractions(ctx, channelID, maxInteractions); err != nil {
			return nil, err
		}
	} else {
		rc.Personality = e.personality.Suggest()
		rc.RecentInteractions = []types.Interaction{}
	}

	return rc, nil
}

// UpdateAfterResponse records the assistant's own reply in the interaction
// log so later context windows include it.
func (e *Engine) UpdateAfterResponse(ctx context.Context, responseText, userID, channelID string) error {
	ctx, span := e.span(ctx, "memory.UpdateAfterResponse",
		attribute.String("channel.id", channelID),
	)
	var err error
	defer func() { endSpan(span, err) }()

	if responseText == "" {
		err = types.NewError(types.ErrInvalidInput, "response text is required").WithOperation("update_after_response")
		return err
	}

	_, err = e.store.RecordInteraction(ctx, types.Interaction{
		UserID:         types.AgentUserID,
		ChannelID:      channelID,
		Type:           types.InteractionTypeAgentReply,
		ContentSummary: responseText,
		TargetUserID:   userID,
	})
	if err != nil {
		return err
	}
	if e.collector != nil {
		e.collector.RecordInteraction(types.InteractionTypeAgentReply)
	}
	return nil
}

// AdaptPersonality re-derives the channel personality from its recent
// conversation and persists the result.
func (e *Engine) AdaptPersonality(ctx context.Context, channelID string) (types.Personality, error) {
	ctx, span := e.span(ctx, "memory.AdaptPersonality",
		attribute.String("channel.id", channelID),
	)
	var err error
	defer func() { endSpan(span, err) }()

	var profile *types.ChannelProfile
	if profile, err = e.store.GetChannelProfile(ctx, channelID); err != nil {
		return types.Personality{}, err
	}

	var recent []types.Interaction
	if recent, err = e.store.GetRecentInteractions(ctx, channelID, 50); err != nil {
		return types.Personality{}, err
	}

	p := e.personality.Derive(profile, recent)
	if err = e.personality.Save(ctx, channelID, p); err != nil {
		return types.Personality{}, err
	}
	if e.collector != nil {
		e.collector.RecordPersonalityUpdate("adapt")
	}

	e.logger.Info("channel personality adapted",
		zap.String("channel_id", channelID),
		zap.Int("formality", p.Formality),
		zap.Int("humor", p.Humor),
		zap.Int("technicality", p.Technicality),
	)
	return p, nil
}

// GetUserProfile returns the composite user view.
func (e *Engine) GetUserProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	ctx, span := e.span(ctx, "memory.GetUserProfile", attribute.String("user.id", userID))
	profile, err := e.store.GetUserProfile(ctx, userID)
	endSpan(span, err)
	return profile, err
}

// GetChannelProfile returns the composite channel view.
func (e *Engine) GetChannelProfile(ctx context.Context, channelID string) (*types.ChannelProfile, error) {
	ctx, span := e.span(ctx, "memory.GetChannelProfile", attribute.String("channel.id", channelID))
	profile, err := e.store.GetChannelProfile(ctx, channelID)
	endSpan(span, err)
	return profile, err
}

// Search queries the memory.
func (e *Engine) Search(ctx context.Context, query string, scope types.SearchScope, limit int) ([]types.SearchResult, error) {
	ctx, span := e.span(ctx, "memory.Search", attribute.String("search.scope", string(scope)))
	results, err := e.store.Search(ctx, query, scope, limit)
	endSpan(span, err)
	return results, err
}

// DeleteUserMemory erases everything known about a user.
func (e *Engine) DeleteUserMemory(ctx context.Context, userID string) (bool, error) {
	ctx, span := e.span(ctx, "memory.DeleteUserMemory", attribute.String("user.id", userID))
	existed, err := e.store.DeleteUser(ctx, userID)
	endSpan(span, err)
	return existed, err
}

// DeleteChannelMemory erases everything known about a channel.
func (e *Engine) DeleteChannelMemory(ctx context.Context, channelID string) (bool, error) {
	ctx, span := e.span(ctx, "memory.DeleteChannelMemory", attribute.String("channel.id", channelID))
	existed, err := e.store.DeleteChannel(ctx, channelID)
	endSpan(span, err)
	return existed, err
}

// GetStatistics returns the global memory snapshot.
func (e *Engine) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	ctx, span := e.span(ctx, "memory.GetStatistics")
	stats, err := e.store.GetStatistics(ctx)
	endSpan(span, err)
	return stats, err
}

// Backup snapshots the full memory into dir.
func (e *Engine) Backup(ctx context.Context, dir string) error {
	ctx, span := e.span(ctx, "memory.Backup")
	err := e.store.Backup(ctx, dir)
	endSpan(span, err)
	return err
}

// Restore replaces the memory with a snapshot from dir.
func (e *Engine) Restore(ctx context.Context, dir string) error {
	ctx, span := e.span(ctx, "memory.Restore")
	err := e.store.Restore(ctx, dir)
	endSpan(span, err)
	return err
}

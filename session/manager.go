package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/store"
	"github.com/ninaia/memoria/types"
)

// idTimeLayout is the timestamp half of a session id.
const idTimeLayout = "20060102150405"

// document is the persisted shape of one session.
type document struct {
	ID       string                 `json:"id"`
	Metadata types.SessionMetadata  `json:"metadata"`
	Messages []types.SessionMessage `json:"messages"`
}

// =============================================================================
// 💬 Session Manager
// =============================================================================

// Manager stores and retrieves conversation sessions. All mutations are
// serialized through one mutex; sessions are small documents and contention
// is low.
type Manager struct {
	docs    store.DocumentStore
	counter TokenCounter
	logger  *zap.Logger
	mu      sync.Mutex
}

// Option configures the manager.
type Option func(*Manager)

// WithTokenCounter installs a token counter used by GetMessagesForLLM to
// bound histories by token budget.
func WithTokenCounter(c TokenCounter) Option {
	return func(m *Manager) { m.counter = c }
}

// NewManager returns a session manager over docs.
func NewManager(docs store.DocumentStore, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		docs:    docs,
		counter: HeuristicCounter{},
		logger:  logger.With(zap.String("component", "session_manager")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession starts a new session and returns its id. The id embeds the
// creation time plus a random suffix, so ids sort chronologically and two
// sessions created in the same second never collide.
func (m *Manager) CreateSession(ctx context.Context, name string) (string, error) {
	now := time.Now().UTC()
	id := now.Format(idTimeLayout) + "." + uuid.NewString()[:8]
	if name == "" {
		name = "Sessão " + now.Format("02/01/2006 15:04")
	}

	doc := document{
		ID: id,
		Metadata: types.SessionMetadata{
			Name:         name,
			CreatedAt:    now,
			LastActivity: now,
		},
		Messages: []types.SessionMessage{},
	}

	if err := m.docs.Write(ctx, store.SessionDocKey(id), doc); err != nil {
		return "", err
	}

	m.logger.Info("session created", zap.String("session_id", id), zap.String("name", name))
	return id, nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*document, error) {
	var doc document
	if err := m.docs.Read(ctx, store.SessionDocKey(sessionID), &doc); err != nil {
		if types.IsNotFound(err) {
			return nil, types.NewError(types.ErrSessionNotFound, "session not found").WithEntity(sessionID)
		}
		return nil, err
	}
	return &doc, nil
}

func (m *Manager) save(ctx context.Context, doc *document) error {
	doc.Metadata.LastActivity = time.Now().UTC()
	return m.docs.Write(ctx, store.SessionDocKey(doc.ID), doc)
}

// AddMessage appends a message and returns its index within the session.
func (m *Manager) AddMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (int, error) {
	switch role {
	case types.RoleUser, types.RoleAssistant, types.RoleSystem:
	default:
		return 0, types.NewError(types.ErrInvalidInput, "unknown message role: "+role).WithOperation("add_message")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	doc.Messages = append(doc.Messages, types.SessionMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	})

	if err := m.save(ctx, doc); err != nil {
		return 0, err
	}
	return len(doc.Messages) - 1, nil
}

// GetMessages returns the session history, optionally filtered by roles and
// truncated to the last limit messages. A zero limit means everything.
func (m *Manager) GetMessages(ctx context.Context, sessionID string, limit int, roles ...string) ([]types.SessionMessage, error) {
	doc, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	messages := doc.Messages
	if len(roles) > 0 {
		wanted := make(map[string]struct{}, len(roles))
		for _, r := range roles {
			wanted[r] = struct{}{}
		}
		filtered := make([]types.SessionMessage, 0, len(messages))
		for _, msg := range messages {
			if _, ok := wanted[msg.Role]; ok {
				filtered = append(filtered, msg)
			}
		}
		messages = filtered
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// GetMessagesForLLM shapes the history for a model request: system messages
// are excluded from the list and the most recent one is returned as the
// system prompt. limit bounds the message count and maxTokens the token
// budget; zero disables either bound. Trimming drops the oldest first.
func (m *Manager) GetMessagesForLLM(ctx context.Context, sessionID string, limit, maxTokens int) (*types.LLMView, error) {
	doc, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &types.LLMView{Messages: []types.SessionMessage{}}
	for _, msg := range doc.Messages {
		if msg.Role == types.RoleSystem {
			view.SystemPrompt = msg.Content
			continue
		}
		view.Messages = append(view.Messages, msg)
	}

	if limit > 0 && len(view.Messages) > limit {
		view.Messages = view.Messages[len(view.Messages)-limit:]
	}

	if maxTokens > 0 {
		budget := maxTokens - m.counter.Count(view.SystemPrompt)
		kept := len(view.Messages)
		used := 0
		for i := len(view.Messages) - 1; i >= 0; i-- {
			cost := m.counter.Count(view.Messages[i].Content)
			if used+cost > budget {
				kept = len(view.Messages) - 1 - i
				break
			}
			used += cost
		}
		view.Messages = view.Messages[len(view.Messages)-kept:]
	}

	return view, nil
}

// ClearHistory removes every message but keeps the session.
func (m *Manager) ClearHistory(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}

	doc.Messages = []types.SessionMessage{}
	return m.save(ctx, doc)
}

// RenameSession updates the display name.
func (m *Manager) RenameSession(ctx context.Context, sessionID, name string) error {
	if name == "" {
		return types.NewError(types.ErrInvalidInput, "session name is required").WithOperation("rename_session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}

	doc.Metadata.Name = name
	return m.save(ctx, doc)
}

// DeleteSession removes a session. Returns false when the id was not known.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.load(ctx, sessionID); err != nil {
		if types.GetErrorCode(err) == types.ErrSessionNotFound {
			return false, nil
		}
		return false, err
	}

	if err := m.docs.Delete(ctx, store.SessionDocKey(sessionID)); err != nil {
		return false, err
	}

	m.logger.Info("session deleted", zap.String("session_id", sessionID))
	return true, nil
}

// ListSessions returns every session, most recently active first.
func (m *Manager) ListSessions(ctx context.Context) ([]types.SessionInfo, error) {
	keys, err := m.docs.List(ctx, store.SessionDocPrefix)
	if err != nil {
		return nil, err
	}

	infos := make([]types.SessionInfo, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, store.SessionDocPrefix)
		doc, err := m.load(ctx, id)
		if err != nil {
			// A session deleted between List and Read just drops out.
			if types.GetErrorCode(err) == types.ErrSessionNotFound {
				continue
			}
			return nil, err
		}
		infos = append(infos, types.SessionInfo{
			ID:              doc.ID,
			SessionMetadata: doc.Metadata,
			MessageCount:    len(doc.Messages),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastActivity.After(infos[j].LastActivity)
	})
	return infos, nil
}

// ExportSession writes the full session as a standalone JSON file.
func (m *Manager) ExportSession(ctx context.Context, sessionID, path string) error {
	doc, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}

	export := types.SessionExport{
		SessionID: doc.ID,
		Metadata:  doc.Metadata,
		Messages:  doc.Messages,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return types.NewError(types.ErrInternalError, "failed to marshal session export").WithEntity(sessionID).WithCause(err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.NewError(types.ErrStorageFailure, "failed to create export directory").WithCause(err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to write session export").WithEntity(sessionID).WithCause(err)
	}
	return nil
}

// ImportSession loads an exported file as a new session and returns the new
// id. The original id is recorded in the metadata.
func (m *Manager) ImportSession(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", types.NewError(types.ErrNotFound, "export file not found").WithCause(err)
		}
		return "", types.NewError(types.ErrStorageFailure, "failed to read session export").WithCause(err)
	}

	var export types.SessionExport
	if err := json.Unmarshal(data, &export); err != nil {
		return "", types.NewError(types.ErrMalformedDocument, "export file is not valid JSON").WithCause(err)
	}

	now := time.Now().UTC()
	id := now.Format(idTimeLayout) + "." + uuid.NewString()[:8]

	meta := export.Metadata
	meta.ImportedFrom = export.SessionID
	meta.ImportedAt = now
	meta.LastActivity = now
	if meta.Name == "" {
		meta.Name = "Sessão importada"
	}

	messages := export.Messages
	if messages == nil {
		messages = []types.SessionMessage{}
	}

	doc := document{ID: id, Metadata: meta, Messages: messages}
	if err := m.docs.Write(ctx, store.SessionDocKey(id), doc); err != nil {
		return "", err
	}

	m.logger.Info("session imported",
		zap.String("session_id", id),
		zap.String("imported_from", export.SessionID),
	)
	return id, nil
}

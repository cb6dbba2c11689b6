package types

import "time"

// Message roles within a session.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// SessionMessage is one role-tagged message inside a session.
type SessionMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SessionMetadata describes a session independent of its messages.
type SessionMetadata struct {
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ImportedFrom string    `json:"imported_from,omitempty"`
	ImportedAt   time.Time `json:"imported_at,omitempty"`
}

// SessionInfo is the listing view of a session.
type SessionInfo struct {
	ID string `json:"id"`
	SessionMetadata
	MessageCount int `json:"message_count"`
}

// SessionExport is the JSON round-trip structure written by ExportSession and
// consumed by ImportSession.
type SessionExport struct {
	SessionID string           `json:"session_id"`
	Metadata  SessionMetadata  `json:"metadata"`
	Messages  []SessionMessage `json:"messages"`
}

// LLMView is the session history shaped for a language-model request: the
// most recent system message separated out, everything else in insertion
// order without system messages.
type LLMView struct {
	SystemPrompt string           `json:"system_prompt,omitempty"`
	Messages     []SessionMessage `json:"messages"`
}

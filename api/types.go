// =============================================================================
// 📦 Memoria API Payloads
// =============================================================================
// Request and response bodies for the REST surface
// =============================================================================
package api

import (
	"time"

	"github.com/ninaia/memoria/types"
)

// ===== 🧠 Memory operations =====

// ProcessInputRequest carries one observed message.
type ProcessInputRequest struct {
	// Text is the raw message content.
	Text string `json:"text"`

	// UserID identifies the author.
	UserID string `json:"user_id"`

	// Username optionally updates the stored display name.
	Username string `json:"username,omitempty"`

	// ChannelID is empty for direct messages.
	ChannelID string `json:"channel_id,omitempty"`

	// Timestamp defaults to the server clock when omitted.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ContextResponse bundles the assembled response context with its
// ready-to-use prompt rendering.
type ContextResponse struct {
	Context   *types.ResponseContext `json:"context"`
	Formatted string                 `json:"formatted"`
}

// UpdateResponseRequest records a reply the agent sent.
type UpdateResponseRequest struct {
	// Text is the reply content.
	Text string `json:"text"`

	// UserID is the user the agent replied to.
	UserID string `json:"user_id"`

	ChannelID string `json:"channel_id,omitempty"`
}

// ===== 🎭 Personality operations =====

// PersonalityRequest sets channel traits explicitly.
type PersonalityRequest struct {
	Personality types.Personality `json:"personality"`
}

// ProfileRequest saves a named personality profile.
type ProfileRequest struct {
	Name        string            `json:"name"`
	Personality types.Personality `json:"personality"`
}

// ===== 💬 Session operations =====

// CreateSessionRequest opens a new conversation session.
type CreateSessionRequest struct {
	// Name is optional; a date-based name is generated when empty.
	Name string `json:"name,omitempty"`
}

// CreateSessionResponse returns the generated session id.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// AddMessageRequest appends one message to a session.
type AddMessageRequest struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AddMessageResponse returns the index of the stored message.
type AddMessageResponse struct {
	Index int `json:"index"`
}

// RenameSessionRequest changes a session's display name.
type RenameSessionRequest struct {
	Name string `json:"name"`
}

// SessionFileRequest names a file path for export or import.
type SessionFileRequest struct {
	Path string `json:"path"`
}

// ImportSessionResponse returns the id assigned to imported history.
type ImportSessionResponse struct {
	SessionID string `json:"session_id"`
}

// ===== 🗄️ Administration =====

// SnapshotRequest names the backup directory. Empty selects the configured
// default.
type SnapshotRequest struct {
	Dir string `json:"dir,omitempty"`
}

// DeletedResponse reports whether a delete removed anything.
type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ninaia/memoria/api"
	"github.com/ninaia/memoria/session"
	"github.com/ninaia/memoria/types"
	"go.uber.org/zap"
)

// =============================================================================
// 💬 Session Handler
// =============================================================================

// SessionHandler exposes conversation session management.
type SessionHandler struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions *session.Manager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(zap.String("component", "session_handler")),
	}
}

// HandleCreate handles POST /api/v1/sessions.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	id, err := h.sessions.CreateSession(r.Context(), req.Name)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.CreateSessionResponse{SessionID: id})
}

// HandleList handles GET /api/v1/sessions.
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	infos, err := h.sessions.ListSessions(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, infos)
}

// HandleGetMessages handles GET /api/v1/sessions/{id}/messages.
// Optional query parameters: limit, roles (comma separated).
func (h *SessionHandler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", h.logger)
	if !ok {
		return
	}

	var roles []string
	if raw := r.URL.Query().Get("roles"); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			roles = append(roles, strings.TrimSpace(role))
		}
	}

	messages, err := h.sessions.GetMessages(r.Context(), r.PathValue("id"), limit, roles...)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, messages)
}

// HandleGetLLMView handles GET /api/v1/sessions/{id}/llm.
// Optional query parameters: limit, max_tokens.
func (h *SessionHandler) HandleGetLLMView(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", h.logger)
	if !ok {
		return
	}
	maxTokens, ok := intParam(w, r, "max_tokens", h.logger)
	if !ok {
		return
	}

	view, err := h.sessions.GetMessagesForLLM(r.Context(), r.PathValue("id"), limit, maxTokens)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, view)
}

// HandleAddMessage handles POST /api/v1/sessions/{id}/messages.
func (h *SessionHandler) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	var req api.AddMessageRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	index, err := h.sessions.AddMessage(r.Context(), r.PathValue("id"), req.Role, req.Content, req.Metadata)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.AddMessageResponse{Index: index})
}

// HandleClear handles POST /api/v1/sessions/{id}/clear.
func (h *SessionHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ClearHistory(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, nil)
}

// HandleRename handles PUT /api/v1/sessions/{id}/name.
func (h *SessionHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req api.RenameSessionRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if err := h.sessions.RenameSession(r.Context(), r.PathValue("id"), req.Name); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, nil)
}

// HandleDelete handles DELETE /api/v1/sessions/{id}.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.sessions.DeleteSession(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.DeletedResponse{Deleted: deleted})
}

// HandleExport handles POST /api/v1/sessions/{id}/export.
func (h *SessionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req api.SessionFileRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Path == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "path is required", h.logger)
		return
	}

	if err := h.sessions.ExportSession(r.Context(), r.PathValue("id"), req.Path); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"path": req.Path})
}

// HandleImport handles POST /api/v1/sessions/import.
func (h *SessionHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req api.SessionFileRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Path == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "path is required", h.logger)
		return
	}

	id, err := h.sessions.ImportSession(r.Context(), req.Path)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.ImportSessionResponse{SessionID: id})
}

// intParam parses an optional non-negative integer query parameter. On
// failure the error response has already been written.
func intParam(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, name+" must be a non-negative integer", logger)
		return 0, false
	}
	return n, true
}

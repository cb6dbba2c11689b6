package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ninaia/memoria/api"
	"github.com/ninaia/memoria/memory"
	"github.com/ninaia/memoria/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🧠 Memory Handler
// =============================================================================

// MemoryHandler exposes the observe/respond cycle of the memory engine.
type MemoryHandler struct {
	engine *memory.Engine
	logger *zap.Logger
}

// NewMemoryHandler creates a memory handler.
func NewMemoryHandler(engine *memory.Engine, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{
		engine: engine,
		logger: logger.With(zap.String("component", "memory_handler")),
	}
}

// HandleProcessInput handles POST /api/v1/memory/input.
func (h *MemoryHandler) HandleProcessInput(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessInputRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	// An explicit username updates the stored display name before the
	// interaction is recorded against it.
	if req.Username != "" {
		if err := h.engine.Store().UpsertUser(r.Context(), req.UserID, req.Username); err != nil {
			WriteError(w, err, h.logger)
			return
		}
	}

	result, err := h.engine.ProcessInput(r.Context(), req.Text, req.UserID, req.ChannelID, ts)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, result)
}

// HandleGetContext handles GET /api/v1/memory/context.
func (h *MemoryHandler) HandleGetContext(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "user_id is required", h.logger)
		return
	}
	channelID := r.URL.Query().Get("channel_id")

	maxInteractions := 0
	if raw := r.URL.Query().Get("max_interactions"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "max_interactions must be a non-negative integer", h.logger)
			return
		}
		maxInteractions = n
	}

	rc, err := h.engine.GetContextForResponse(r.Context(), userID, channelID, maxInteractions)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, api.ContextResponse{
		Context:   rc,
		Formatted: memory.FormatContextForLLM(rc),
	})
}

// HandleUpdateResponse handles POST /api/v1/memory/response.
func (h *MemoryHandler) HandleUpdateResponse(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateResponseRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if err := h.engine.UpdateAfterResponse(r.Context(), req.Text, req.UserID, req.ChannelID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, nil)
}

// HandleAdaptPersonality handles POST /api/v1/channels/{id}/personality/adapt.
func (h *MemoryHandler) HandleAdaptPersonality(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")
	if channelID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "channel id is required", h.logger)
		return
	}

	p, err := h.engine.AdaptPersonality(r.Context(), channelID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, p)
}

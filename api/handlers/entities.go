package handlers

import (
	"net/http"
	"strconv"

	"github.com/ninaia/memoria/api"
	"github.com/ninaia/memoria/memory"
	"github.com/ninaia/memoria/types"
	"go.uber.org/zap"
)

// =============================================================================
// 👤 Entity Handler
// =============================================================================

// EntityHandler exposes user and channel profiles, personality management,
// search and statistics.
type EntityHandler struct {
	engine *memory.Engine
	logger *zap.Logger
}

// NewEntityHandler creates an entity handler.
func NewEntityHandler(engine *memory.Engine, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		engine: engine,
		logger: logger.With(zap.String("component", "entity_handler")),
	}
}

// ===== 👤 Users =====

// HandleListUsers handles GET /api/v1/users.
func (h *EntityHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := paginationParams(w, r, h.logger)
	if !ok {
		return
	}

	users, err := h.engine.Store().ListUsers(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, users)
}

// HandleGetUser handles GET /api/v1/users/{id}.
func (h *EntityHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.GetUserProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, profile)
}

// HandleDeleteUser handles DELETE /api/v1/users/{id}.
func (h *EntityHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.engine.DeleteUserMemory(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.DeletedResponse{Deleted: deleted})
}

// ===== 📺 Channels =====

// HandleListChannels handles GET /api/v1/channels.
func (h *EntityHandler) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := paginationParams(w, r, h.logger)
	if !ok {
		return
	}

	channels, err := h.engine.Store().ListChannels(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, channels)
}

// HandleGetChannel handles GET /api/v1/channels/{id}.
func (h *EntityHandler) HandleGetChannel(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.GetChannelProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, profile)
}

// HandleDeleteChannel handles DELETE /api/v1/channels/{id}.
func (h *EntityHandler) HandleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.engine.DeleteChannelMemory(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.DeletedResponse{Deleted: deleted})
}

// ===== 🎭 Personality =====

// HandleGetPersonality handles GET /api/v1/channels/{id}/personality.
func (h *EntityHandler) HandleGetPersonality(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Personality().Load(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, p)
}

// HandleSetPersonality handles PUT /api/v1/channels/{id}/personality.
func (h *EntityHandler) HandleSetPersonality(w http.ResponseWriter, r *http.Request) {
	var req api.PersonalityRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if err := h.engine.Personality().Save(r.Context(), r.PathValue("id"), req.Personality); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, nil)
}

// HandleListProfiles handles GET /api/v1/profiles.
func (h *EntityHandler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := h.engine.Personality().ListProfiles(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, names)
}

// HandleSaveProfile handles POST /api/v1/profiles.
func (h *EntityHandler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req api.ProfileRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if err := h.engine.Personality().SaveProfile(r.Context(), req.Name, req.Personality); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, nil)
}

// HandleGetProfile handles GET /api/v1/profiles/{name}.
func (h *EntityHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Personality().LoadProfile(r.Context(), r.PathValue("name"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, p)
}

// HandleDeleteProfile handles DELETE /api/v1/profiles/{name}.
func (h *EntityHandler) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Personality().DeleteProfile(r.Context(), r.PathValue("name")); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, nil)
}

// ===== 🔍 Search and statistics =====

// HandleSearch handles GET /api/v1/search.
func (h *EntityHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	scope := types.SearchScope(r.URL.Query().Get("scope"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "limit must be a non-negative integer", h.logger)
			return
		}
		limit = n
	}

	results, err := h.engine.Search(r.Context(), query, scope, limit)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, results)
}

// HandleStatistics handles GET /api/v1/statistics.
func (h *EntityHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetStatistics(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, stats)
}

// ===== 🗄️ Snapshots =====

// SnapshotHandler exposes backup and restore. It carries the configured
// default directory so requests can omit one.
type SnapshotHandler struct {
	engine     *memory.Engine
	defaultDir string
	logger     *zap.Logger
}

// NewSnapshotHandler creates a snapshot handler.
func NewSnapshotHandler(engine *memory.Engine, defaultDir string, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		engine:     engine,
		defaultDir: defaultDir,
		logger:     logger.With(zap.String("component", "snapshot_handler")),
	}
}

// HandleBackup handles POST /api/v1/backup.
func (h *SnapshotHandler) HandleBackup(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.snapshotDir(w, r)
	if !ok {
		return
	}

	if err := h.engine.Backup(r.Context(), dir); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"dir": dir})
}

// HandleRestore handles POST /api/v1/restore.
func (h *SnapshotHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.snapshotDir(w, r)
	if !ok {
		return
	}

	if err := h.engine.Restore(r.Context(), dir); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"dir": dir})
}

func (h *SnapshotHandler) snapshotDir(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req api.SnapshotRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return "", false
	}

	dir := req.Dir
	if dir == "" {
		dir = h.defaultDir
	}
	if dir == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "no snapshot directory configured", h.logger)
		return "", false
	}
	return dir, true
}

// paginationParams parses limit and offset query parameters. On failure the
// error response has already been written.
func paginationParams(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (limit, offset int, ok bool) {
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &limit},
		{"offset", &offset},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, p.name+" must be a non-negative integer", logger)
			return 0, 0, false
		}
		*p.dst = n
	}
	return limit, offset, true
}

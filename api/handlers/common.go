package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ninaia/memoria/types"
	"go.uber.org/zap"
)

// =============================================================================
// 📦 Response envelope
// =============================================================================

// Response is the uniform API response structure.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
}

// =============================================================================
// 🎯 Response helpers
// =============================================================================

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// Headers are out once encoding starts; a failure here is unreportable.
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful envelope.
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError writes an error envelope. Engine errors carry their own code
// and HTTP status; anything else maps to an internal error.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var engineErr *types.Error
	if !errors.As(err, &engineErr) {
		engineErr = types.NewError(types.ErrInternalError, err.Error())
	}

	status := engineErr.HTTPStatus
	if status == 0 {
		status = mapErrorCodeToHTTPStatus(engineErr.Code)
	}

	if logger != nil {
		logger.Error("API error",
			zap.String("code", string(engineErr.Code)),
			zap.String("message", engineErr.Message),
			zap.Int("status", status),
			zap.Error(engineErr.Cause),
		)
	}

	WriteJSON(w, status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(engineErr.Code),
			Message: engineErr.Message,
			Entity:  engineErr.Entity,
		},
		Timestamp: time.Now(),
	})
}

// WriteErrorMessage writes a simple error envelope.
func WriteErrorMessage(w http.ResponseWriter, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, types.NewError(code, message).WithHTTPStatus(status), logger)
}

func mapErrorCodeToHTTPStatus(code types.ErrorCode) int {
	switch code {
	case types.ErrInvalidInput:
		return http.StatusBadRequest
	case types.ErrNotFound, types.ErrSessionNotFound:
		return http.StatusNotFound
	case types.ErrUnsupported:
		return http.StatusUnprocessableEntity
	case types.ErrStoreClosed:
		return http.StatusServiceUnavailable
	case types.ErrStorageFailure, types.ErrMalformedDocument, types.ErrInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// 🛡️ Request helpers
// =============================================================================

// DecodeJSONBody decodes and validates a JSON request body. On failure the
// error response has already been written.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) error {
	if r.Body == nil {
		err := types.NewError(types.ErrInvalidInput, "request body is empty")
		WriteError(w, err, logger)
		return err
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		apiErr := types.NewError(types.ErrInvalidInput, "invalid JSON body").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, apiErr, logger)
		return apiErr
	}

	return nil
}

// =============================================================================
// 📊 Status-capturing writer
// =============================================================================

// ResponseWriter wraps http.ResponseWriter to record the status code for
// logging and metrics middleware.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter wraps w with status capture.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

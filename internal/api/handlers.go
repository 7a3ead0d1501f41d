package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/activity"
	"github.com/earningbee/bee-engine/internal/auth"
	"github.com/earningbee/bee-engine/internal/catalog"
	"github.com/earningbee/bee-engine/internal/recommend"
	"github.com/earningbee/bee-engine/internal/storage"
)

const maxBodyBytes = 1 << 20

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Error("failed to encode error response", zap.Error(err))
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body is reported
// as io.EOF so callers can tell it apart from malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
		return
	}
	respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
}

// respondServiceError maps domain errors to HTTP statuses. action names the
// failed operation in the log line and generic 500 message.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, recommend.ErrInvalidQuery):
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, recommend.ErrMethodNotFound):
		respondError(w, http.StatusNotFound, "not_found", "earning method not found")
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, catalog.ErrNotLoaded):
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "catalog not loaded")
	case errors.Is(err, auth.ErrInvalidFaceData),
		errors.Is(err, auth.ErrInvalidProfile),
		errors.Is(err, activity.ErrInvalidPage),
		errors.Is(err, activity.ErrNegativeSeconds):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrSessionExpired):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, auth.ErrScanFailed):
		respondError(w, http.StatusUnprocessableEntity, "scan_failed", "face scan failed, please try again")
	default:
		s.logger.Error("request failed", zap.String("action", action), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.Methods(""); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "catalog not loaded")
		return
	}

	if s.health != nil {
		statuses, ok := s.health.CheckAll(r.Context())
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(apiResponse{
				Success: false,
				Data:    map[string]interface{}{"status": "not_ready", "services": statuses},
				Error:   &apiError{Code: "not_ready", Message: "service not ready"},
			})
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ready",
			"services": statuses,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

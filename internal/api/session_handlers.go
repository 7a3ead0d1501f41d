package api

import (
	"errors"
	"net/http"

	"github.com/earningbee/bee-engine/internal/auth"
	"github.com/earningbee/bee-engine/internal/models"
	"github.com/earningbee/bee-engine/internal/storage"
)

// --- Login ---

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	result, err := s.scanner.Scan(r.Context())
	if err != nil {
		s.respondServiceError(w, err, "scan face")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	resp, err := s.auth.Login(r.Context(), req.FaceData)
	if err != nil {
		s.respondServiceError(w, err, "log in")
		return
	}

	status := http.StatusOK
	if resp.NewUser {
		status = http.StatusCreated
	}
	respondJSON(w, status, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	if err := s.auth.Logout(r.Context(), session.Token); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		s.respondServiceError(w, err, "log out")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// --- Profile ---

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, UserFromContext(r.Context()))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	user, err := s.auth.UpdateProfile(r.Context(), UserFromContext(r.Context()).ID, req)
	if err != nil {
		s.respondServiceError(w, err, "update profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleRegenerateAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.RegenerateAvatar(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		s.respondServiceError(w, err, "regenerate avatar")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// --- Saved input and theme ---

func (s *Server) handleGetSavedInput(w http.ResponseWriter, r *http.Request) {
	q, err := s.repo.GetSavedInput(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no saved input")
			return
		}
		s.respondServiceError(w, err, "get saved input")
		return
	}

	respondJSON(w, http.StatusOK, q)
}

// handleSavedRecommendations re-runs the caller's last submitted query
func (s *Server) handleSavedRecommendations(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	q, err := s.repo.GetSavedInput(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no saved input, submit the earning form first")
			return
		}
		s.respondServiceError(w, err, "get saved input")
		return
	}

	resp, err := s.engine.Recommend(r.Context(), *q, models.SortKey(r.URL.Query().Get("sort")))
	if err != nil {
		s.respondServiceError(w, err, "compute recommendations")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := s.repo.GetTheme(r.Context(), UserFromContext(r.Context()).ID)
	if errors.Is(err, storage.ErrNotFound) {
		mode, err = models.ThemeLight, nil
	}
	if err != nil {
		s.respondServiceError(w, err, "get theme")
		return
	}

	respondJSON(w, http.StatusOK, models.ThemeRequest{Mode: mode})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req models.ThemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	if !req.Mode.Valid() {
		respondError(w, http.StatusBadRequest, "validation_error", "mode must be light or dark")
		return
	}

	if err := s.repo.SaveTheme(r.Context(), UserFromContext(r.Context()).ID, req.Mode); err != nil {
		s.respondServiceError(w, err, "save theme")
		return
	}

	respondJSON(w, http.StatusOK, req)
}

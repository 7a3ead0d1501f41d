package api

import (
	"net/http"

	"github.com/earningbee/bee-engine/internal/models"
)

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := s.activity.Get(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		s.respondServiceError(w, err, "get activity")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleResetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := s.activity.Reset(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		s.respondServiceError(w, err, "reset activity")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleRecordPage(w http.ResponseWriter, r *http.Request) {
	var req models.PageVisitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	a, err := s.activity.RecordPageVisit(r.Context(), UserFromContext(r.Context()).ID, req.Page)
	if err != nil {
		s.respondServiceError(w, err, "record page visit")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	a, err := s.activity.RecordRecommendationView(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		s.respondServiceError(w, err, "record recommendation view")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleAddTime(w http.ResponseWriter, r *http.Request) {
	var req models.TimeSpentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	a, err := s.activity.AddTimeSpent(r.Context(), UserFromContext(r.Context()).ID, req.Seconds)
	if err != nil {
		s.respondServiceError(w, err, "add time spent")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

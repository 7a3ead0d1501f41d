package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/models"
	"github.com/earningbee/bee-engine/internal/recommend"
)

// Catalog handlers: browsing, scoring and ranking earning methods

func (s *Server) handleListMethods(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		respondError(w, http.StatusBadRequest, "validation_error", "category must be online or offline")
		return
	}

	methods, err := s.engine.Methods(category)
	if err != nil {
		s.respondServiceError(w, err, "list earning methods")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"methods": methods,
		"total":   len(methods),
	})
}

func (s *Server) handleGetMethod(w http.ResponseWriter, r *http.Request) {
	m, err := s.engine.Method(chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err, "get earning method")
		return
	}

	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleScoreMethod(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	resp, err := s.engine.ScoreMethod(chi.URLParam(r, "id"), q)
	if err != nil {
		s.respondServiceError(w, err, "score earning method")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// queryRequest is the wire form of a UserQuery. Numeric fields are pointers
// so an omitted field is told apart from an explicit zero.
type queryRequest struct {
	Investment  *int              `json:"investment"`
	MonthlyGoal *int              `json:"monthlyGoal"`
	Preference  models.Preference `json:"preference"`
}

func (q queryRequest) toQuery() (models.UserQuery, error) {
	if q.Investment == nil {
		return models.UserQuery{}, fmt.Errorf("%w: investment is required", recommend.ErrInvalidQuery)
	}
	if q.MonthlyGoal == nil {
		return models.UserQuery{}, fmt.Errorf("%w: monthlyGoal is required", recommend.ErrInvalidQuery)
	}
	return models.UserQuery{
		Investment:  *q.Investment,
		MonthlyGoal: *q.MonthlyGoal,
		Preference:  q.Preference,
	}, nil
}

// decodeQuery reads a query body and writes the error response itself when
// the body is unusable.
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (models.UserQuery, bool) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return models.UserQuery{}, false
	}

	q, err := req.toQuery()
	if err != nil {
		s.respondServiceError(w, err, "decode query")
		return models.UserQuery{}, false
	}
	return q, true
}

// handleRecommend ranks methods for the submitted query. Signed-in callers
// also get the query saved and a search counted.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	resp, err := s.engine.Recommend(r.Context(), q, models.SortKey(r.URL.Query().Get("sort")))
	if err != nil {
		s.respondServiceError(w, err, "compute recommendations")
		return
	}

	if user := UserFromContext(r.Context()); user != nil {
		if err := s.repo.SaveInput(r.Context(), user.ID, q); err != nil {
			s.logger.Warn("failed to save input", zap.String("user_id", user.ID), zap.Error(err))
		}
		if _, err := s.activity.RecordSearch(r.Context(), user.ID); err != nil {
			s.logger.Warn("failed to record search", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

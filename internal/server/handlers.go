package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/engine"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/storage"
)

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("question request",
		zap.String("asker_id", req.AskerID),
		zap.Bool("follow_up", req.ParentQuestionID != ""))
	out, err := s.engine.ProcessQuestion(r.Context(), req)
	if err != nil {
		s.respondEngineError(w, "process question", err)
		return
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.engine.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondEngineError(w, "get question", err)
		return
	}
	s.respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleSubmitExperience(w http.ResponseWriter, r *http.Request) {
	var req models.ExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MentorID == "" {
		s.respondError(w, http.StatusBadRequest, "mentor_id is required")
		return
	}
	card, err := s.engine.SubmitExperience(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondEngineError(w, "submit experience", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, card)
}

func (s *Server) handleCloseQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.CloseQuestion(r.Context(), id); err != nil {
		s.respondEngineError(w, "close question", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(models.StatusClosed)})
}

func (s *Server) handleMarkDelivered(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.MarkDelivered(r.Context(), id); err != nil {
		s.respondEngineError(w, "mark delivered", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(models.StatusDelivered)})
}

func (s *Server) handleAnswerFollowUp(w http.ResponseWriter, r *http.Request) {
	var req models.FollowUpAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card, err := s.engine.AnswerFollowUp(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondEngineError(w, "answer follow-up", err)
		return
	}
	s.respondJSON(w, http.StatusOK, card)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.engine.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondEngineError(w, "get card", err)
		return
	}
	s.respondJSON(w, http.StatusOK, card)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var fb models.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.engine.SubmitFeedback(r.Context(), id, fb); err != nil {
		s.respondEngineError(w, "submit feedback", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "recorded"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{"engine": st}

	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"embedding_model":      s.config.Embedding.Model,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"database_path":        s.config.Storage.DatabasePath,
			"vector_index_path":    s.config.Storage.VectorIndexPath,
			"max_assign_attempts":  s.config.Engine.MaxAssignAttempts,
		}
		usage, err := storage.MeasureDiskUsage(s.config.Storage.DatabasePath, s.config.Storage.VectorIndexPath)
		if err == nil {
			resp["disk_usage"] = usage
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondEngineError maps engine and storage errors to HTTP statuses.
func (s *Server) respondEngineError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotAssignedMentor):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrInvalidState), errors.Is(err, engine.ErrFollowUpLimit):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

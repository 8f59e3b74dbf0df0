package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"
)

// SessionEndpoints translates REST calls into orchestrator operations and
// maps the error taxonomy onto HTTP statuses
type SessionEndpoints struct {
	orchestrator *SessionOrchestrator
	repo         *repository.GORMRepository
}

func NewSessionEndpoints(orchestrator *SessionOrchestrator, repo *repository.GORMRepository) *SessionEndpoints {
	return &SessionEndpoints{
		orchestrator: orchestrator,
		repo:         repo,
	}
}

func (e *SessionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", e.CreateSessionHandler)
		r.Get("/", e.GetSessionsHandler)
		r.Get("/{id}", e.GetSessionHandler)
		r.Post("/{id}/pause", e.PauseSessionHandler)
		r.Post("/{id}/resume", e.ResumeSessionHandler)
		r.Post("/{id}/abandon", e.AbandonSessionHandler)
		r.Post("/{id}/questions/next", e.NextQuestionHandler)
		r.Post("/{id}/responses", e.SubmitResponseHandler)
		r.Get("/{id}/analytics", e.GetAnalyticsHandler)
	})
}

func (e *SessionEndpoints) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var params CreateSessionParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	params.UserID = user.ID

	session, err := e.orchestrator.CreateSession(r.Context(), params)
	if err != nil {
		writeOrchestratorError(w, err, "create session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": session,
	})
}

func (e *SessionEndpoints) GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessions, err := e.repo.GetSessions(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (e *SessionEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.repo.GetSessionForUser(r.Context(), sessionID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": session,
	})
}

func (e *SessionEndpoints) PauseSessionHandler(w http.ResponseWriter, r *http.Request) {
	e.transitionHandler(w, r, e.orchestrator.PauseSession, "pause session")
}

func (e *SessionEndpoints) ResumeSessionHandler(w http.ResponseWriter, r *http.Request) {
	e.transitionHandler(w, r, e.orchestrator.ResumeSession, "resume session")
}

func (e *SessionEndpoints) AbandonSessionHandler(w http.ResponseWriter, r *http.Request) {
	e.transitionHandler(w, r, e.orchestrator.AbandonSession, "abandon session")
}

func (e *SessionEndpoints) NextQuestionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	question, err := e.orchestrator.GenerateNextQuestion(r.Context(), sessionID, user.ID)
	if err != nil {
		writeOrchestratorError(w, err, "generate question")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"question": question,
	})
}

type SubmitResponseRequest struct {
	QuestionID       string `json:"question_id"`
	ResponseText     string `json:"response_text"`
	InputMode        string `json:"input_mode"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

func (e *SessionEndpoints) SubmitResponseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "id")
	response, err := e.orchestrator.ProcessResponse(r.Context(), sessionID, user.ID, req.QuestionID, req.ResponseText, req.InputMode, req.TimeSpentSeconds)
	if err != nil {
		writeOrchestratorError(w, err, "process response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"response": response,
	})
}

func (e *SessionEndpoints) GetAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	analytics, err := e.orchestrator.GetSessionAnalytics(r.Context(), sessionID, user.ID)
	if err != nil {
		writeOrchestratorError(w, err, "get analytics")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"analytics": analytics,
	})
}

func (e *SessionEndpoints) transitionHandler(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID, userID string) (*models.InterviewSession, error), operation string) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := op(r.Context(), sessionID, user.ID)
	if err != nil {
		writeOrchestratorError(w, err, operation)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": session,
	})
}

// writeOrchestratorError maps the error taxonomy onto HTTP statuses: invalid
// input is a 400, rejected transitions are a 409, unknown resources a 404,
// and persistence failures a 500
func writeOrchestratorError(w http.ResponseWriter, err error, operation string) {
	var validationErr *ValidationError
	var stateErr *InvalidStateTransition
	var persistenceErr *PersistenceError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &stateErr):
		http.Error(w, stateErr.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.As(err, &persistenceErr):
		slog.Error("Persistence failure", "error", err, "operation", operation)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	default:
		slog.Error("Unexpected failure", "error", err, "operation", operation)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

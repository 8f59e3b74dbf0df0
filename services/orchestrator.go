package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prepwise/backend/models"
)

const (
	defaultTotalQuestions = 10
	maxTotalQuestions     = 20
)

// SessionStore is the persistence surface the orchestrator needs. The GORM
// repository implements it; tests substitute an in-memory fake.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.InterviewSession) error
	GetSession(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	UpdateSession(ctx context.Context, session *models.InterviewSession) error
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, questionID string) (*models.Question, error)
	GetQuestionBySequence(ctx context.Context, sessionID string, sequence int) (*models.Question, error)
	CreateResponse(ctx context.Context, response *models.Response) error
	GetResponseByQuestion(ctx context.Context, questionID string) (*models.Response, error)
	GetResponses(ctx context.Context, sessionID string) ([]models.Response, error)
	SaveAnalytics(ctx context.Context, analytics *models.SessionAnalytics) error
	GetAnalytics(ctx context.Context, sessionID string) (*models.SessionAnalytics, error)
}

// ProgressNotifier pushes session progress events to connected clients.
// Notification is best-effort and never affects the operation outcome.
type ProgressNotifier interface {
	NotifySession(sessionID, event string, payload interface{})
}

// SessionOrchestrator owns the session lifecycle: create, ask, answer,
// evaluate, complete. Generator and evaluator failures degrade to fallback
// content inside those components; only persistence failures and invalid
// state transitions surface to the caller.
type SessionOrchestrator struct {
	store     SessionStore
	generator QuestionSource
	evaluator ResponseScorer
	notifier  ProgressNotifier
}

func NewSessionOrchestrator(store SessionStore, generator QuestionSource, evaluator ResponseScorer, notifier ProgressNotifier) *SessionOrchestrator {
	return &SessionOrchestrator{
		store:     store,
		generator: generator,
		evaluator: evaluator,
		notifier:  notifier,
	}
}

type CreateSessionParams struct {
	UserID          string   `json:"-"`
	JobPosition     string   `json:"job_position"`
	CompanyName     string   `json:"company_name"`
	InterviewStage  string   `json:"interview_stage"`
	InterviewType   string   `json:"interview_type"`
	ExperienceLevel string   `json:"experience_level"`
	Difficulty      string   `json:"difficulty"`
	FocusAreas      []string `json:"focus_areas"`
	Language        string   `json:"language"`
	TotalQuestions  int      `json:"total_questions"`
}

// CreateSession validates the required fields and persists a new active
// session starting at question 1
func (o *SessionOrchestrator) CreateSession(ctx context.Context, params CreateSessionParams) (*models.InterviewSession, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "required"}
	}
	if strings.TrimSpace(params.JobPosition) == "" {
		return nil, &ValidationError{Field: "job_position", Reason: "required"}
	}
	if strings.TrimSpace(params.InterviewStage) == "" {
		return nil, &ValidationError{Field: "interview_stage", Reason: "required"}
	}

	language := strings.TrimSpace(params.Language)
	if language == "" {
		language = "en"
	}

	totalQuestions := params.TotalQuestions
	if totalQuestions <= 0 {
		totalQuestions = defaultTotalQuestions
	}
	if totalQuestions > maxTotalQuestions {
		totalQuestions = maxTotalQuestions
	}

	session := &models.InterviewSession{
		ID:                   uuid.New().String(),
		UserID:               params.UserID,
		JobPosition:          strings.TrimSpace(params.JobPosition),
		CompanyName:          strings.TrimSpace(params.CompanyName),
		InterviewStage:       normalizeStage(params.InterviewStage),
		InterviewType:        params.InterviewType,
		ExperienceLevel:      params.ExperienceLevel,
		Difficulty:           params.Difficulty,
		FocusAreas:           strings.Join(params.FocusAreas, ","),
		Language:             language,
		Status:               models.SessionActive,
		CurrentQuestionIndex: 1,
		TotalQuestions:       totalQuestions,
		StartedAt:            time.Now(),
	}

	if err := o.store.CreateSession(ctx, session); err != nil {
		return nil, &PersistenceError{Operation: "create session", Err: err}
	}

	slog.Info("Session created", "session_id", session.ID, "user_id", session.UserID, "stage", session.InterviewStage, "total_questions", session.TotalQuestions)
	return session, nil
}

// GenerateNextQuestion produces the question at the session's current index.
// If that question already exists it is returned unchanged: a retry or
// double-submit must not generate a duplicate, and a new question is never
// issued while the current one awaits a response. The index only advances
// when a response is recorded, so a transient failure here cannot skip a step.
func (o *SessionOrchestrator) GenerateNextQuestion(ctx context.Context, sessionID, userID string) (*models.Question, error) {
	session, err := o.loadOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, &InvalidStateTransition{Operation: "generate question", Reason: "session is " + session.Status}
	}

	existing, err := o.store.GetQuestionBySequence(ctx, session.ID, session.CurrentQuestionIndex)
	if err != nil {
		return nil, &PersistenceError{Operation: "load current question", Err: err}
	}
	if existing != nil {
		slog.Info("Returning existing unanswered question", "session_id", session.ID, "sequence", existing.SequenceNumber)
		return existing, nil
	}

	if session.CurrentQuestionIndex > session.TotalQuestions {
		return nil, &InvalidStateTransition{Operation: "generate question", Reason: "all questions already asked"}
	}

	generated := o.generator.GenerateQuestion(ctx, o.questionContext(session))

	question := &models.Question{
		ID:                 uuid.New().String(),
		SessionID:          session.ID,
		QuestionText:       generated.QuestionText,
		TranslatedText:     generated.TranslatedText,
		Category:           generated.Category,
		Difficulty:         generated.Difficulty,
		SequenceNumber:     session.CurrentQuestionIndex,
		StarMethodRelevant: generated.StarMethodRelevant,
		GeneratedBy:        generated.GeneratedBy,
	}
	if err := o.store.CreateQuestion(ctx, question); err != nil {
		// A concurrent request may have inserted this sequence between the
		// existence check and the insert; the unique index on
		// (session_id, sequence_number) makes the loser fail here, so hand
		// back the winner's row instead of erroring
		winner, lookupErr := o.store.GetQuestionBySequence(ctx, session.ID, session.CurrentQuestionIndex)
		if lookupErr == nil && winner != nil {
			slog.Info("Concurrent question generation lost the insert race, returning existing question", "session_id", session.ID, "sequence", winner.SequenceNumber)
			return winner, nil
		}
		return nil, &PersistenceError{Operation: "create question", Err: err}
	}

	o.notify(session.ID, "question.ready", question)
	return question, nil
}

// ProcessResponse scores and records a candidate answer, advances the
// session, and completes it once the last question is answered. A second
// submission for an already-answered question is rejected, not double-scored.
func (o *SessionOrchestrator) ProcessResponse(ctx context.Context, sessionID, userID, questionID, responseText, inputMode string, timeSpentSeconds int) (*models.Response, error) {
	if strings.TrimSpace(responseText) == "" {
		return nil, &ValidationError{Field: "response_text", Reason: "required"}
	}
	switch inputMode {
	case "":
		inputMode = models.InputModeText
	case models.InputModeText, models.InputModeVoice:
	default:
		return nil, &ValidationError{Field: "input_mode", Reason: "must be text or voice"}
	}

	session, err := o.loadOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, &InvalidStateTransition{Operation: "process response", Reason: "session is " + session.Status}
	}

	question, err := o.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, &PersistenceError{Operation: "load question", Err: err}
	}
	if question == nil || question.SessionID != session.ID {
		return nil, &InvalidStateTransition{Operation: "process response", Reason: "question does not belong to session"}
	}

	answered, err := o.store.GetResponseByQuestion(ctx, question.ID)
	if err != nil {
		return nil, &PersistenceError{Operation: "check existing response", Err: err}
	}
	if answered != nil {
		return nil, &InvalidStateTransition{Operation: "process response", Reason: "question already answered"}
	}

	assessment := o.evaluator.Evaluate(ctx, responseText, question.QuestionText, o.questionContext(session))

	response := &models.Response{
		ID:               uuid.New().String(),
		SessionID:        session.ID,
		QuestionID:       question.ID,
		ResponseText:     responseText,
		InputMode:        inputMode,
		SituationScore:   assessment.Situation,
		TaskScore:        assessment.Task,
		ActionScore:      assessment.Action,
		ResultScore:      assessment.Result,
		FlowScore:        assessment.Flow,
		OverallScore:     assessment.Overall,
		Feedback:         assessment.Summary,
		Strengths:        encodeList(assessment.Strengths),
		Improvements:     encodeList(assessment.Improvements),
		Recommendations:  encodeList(assessment.Recommendations),
		EvaluatedBy:      assessment.EvaluatedBy,
		TimeSpentSeconds: timeSpentSeconds,
	}
	if err := o.store.CreateResponse(ctx, response); err != nil {
		return nil, &PersistenceError{Operation: "create response", Err: err}
	}

	session.CurrentQuestionIndex++
	if session.CurrentQuestionIndex > session.TotalQuestions {
		now := time.Now()
		session.Status = models.SessionCompleted
		session.EndedAt = &now
	}
	if err := o.store.UpdateSession(ctx, session); err != nil {
		return nil, &PersistenceError{Operation: "advance session", Err: err}
	}

	o.notify(session.ID, "evaluation.ready", response)

	if session.Status == models.SessionCompleted {
		if err := o.aggregateAnalytics(ctx, session); err != nil {
			return nil, err
		}
		o.notify(session.ID, "session.completed", session)
		slog.Info("Session completed", "session_id", session.ID, "user_id", session.UserID)
	}

	return response, nil
}

// PauseSession moves an active session to paused
func (o *SessionOrchestrator) PauseSession(ctx context.Context, sessionID, userID string) (*models.InterviewSession, error) {
	return o.transition(ctx, sessionID, userID, models.SessionActive, models.SessionPaused, "pause session")
}

// ResumeSession moves a paused session back to active
func (o *SessionOrchestrator) ResumeSession(ctx context.Context, sessionID, userID string) (*models.InterviewSession, error) {
	return o.transition(ctx, sessionID, userID, models.SessionPaused, models.SessionActive, "resume session")
}

// AbandonSession terminates a session without completing it. Legal from
// active or paused.
func (o *SessionOrchestrator) AbandonSession(ctx context.Context, sessionID, userID string) (*models.InterviewSession, error) {
	session, err := o.loadOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, &InvalidStateTransition{Operation: "abandon session", Reason: "session is " + session.Status}
	}

	now := time.Now()
	session.Status = models.SessionAbandoned
	session.EndedAt = &now
	if err := o.store.UpdateSession(ctx, session); err != nil {
		return nil, &PersistenceError{Operation: "abandon session", Err: err}
	}

	slog.Info("Session abandoned", "session_id", session.ID, "user_id", session.UserID)
	return session, nil
}

// GetSessionAnalytics returns the aggregate for a completed session
func (o *SessionOrchestrator) GetSessionAnalytics(ctx context.Context, sessionID, userID string) (*models.SessionAnalytics, error) {
	if _, err := o.loadOwnedSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	analytics, err := o.store.GetAnalytics(ctx, sessionID)
	if err != nil {
		return nil, &PersistenceError{Operation: "load analytics", Err: err}
	}
	if analytics == nil {
		return nil, ErrNotFound
	}
	return analytics, nil
}

func (o *SessionOrchestrator) transition(ctx context.Context, sessionID, userID, from, to, operation string) (*models.InterviewSession, error) {
	session, err := o.loadOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != from {
		return nil, &InvalidStateTransition{Operation: operation, Reason: "session is " + session.Status}
	}

	session.Status = to
	if err := o.store.UpdateSession(ctx, session); err != nil {
		return nil, &PersistenceError{Operation: operation, Err: err}
	}

	slog.Info("Session transitioned", "session_id", session.ID, "from", from, "to", to)
	return session, nil
}

func (o *SessionOrchestrator) loadOwnedSession(ctx context.Context, sessionID, userID string) (*models.InterviewSession, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, &PersistenceError{Operation: "load session", Err: err}
	}
	if session == nil || session.UserID != userID {
		return nil, ErrNotFound
	}
	return session, nil
}

func (o *SessionOrchestrator) questionContext(session *models.InterviewSession) QuestionContext {
	var focusAreas []string
	if session.FocusAreas != "" {
		focusAreas = strings.Split(session.FocusAreas, ",")
	}
	return QuestionContext{
		JobPosition:     session.JobPosition,
		CompanyName:     session.CompanyName,
		InterviewStage:  session.InterviewStage,
		ExperienceLevel: session.ExperienceLevel,
		Language:        session.Language,
		Difficulty:      session.Difficulty,
		FocusAreas:      focusAreas,
		QuestionNumber:  session.CurrentQuestionIndex,
	}
}

// aggregateAnalytics recomputes the session aggregate from all responses
func (o *SessionOrchestrator) aggregateAnalytics(ctx context.Context, session *models.InterviewSession) error {
	responses, err := o.store.GetResponses(ctx, session.ID)
	if err != nil {
		return &PersistenceError{Operation: "load responses for analytics", Err: err}
	}

	analytics := &models.SessionAnalytics{
		ID:            uuid.New().String(),
		SessionID:     session.ID,
		ResponseCount: len(responses),
	}

	if len(responses) > 0 {
		var situation, task, action, result, overall float64
		var strengths, improvements []string
		for _, r := range responses {
			situation += r.SituationScore
			task += r.TaskScore
			action += r.ActionScore
			result += r.ResultScore
			overall += r.OverallScore
			strengths = appendDistinct(strengths, decodeList(r.Strengths)...)
			improvements = appendDistinct(improvements, decodeList(r.Improvements)...)
		}
		n := float64(len(responses))
		analytics.AverageSituation = roundScore(situation / n)
		analytics.AverageTask = roundScore(task / n)
		analytics.AverageAction = roundScore(action / n)
		analytics.AverageResult = roundScore(result / n)
		analytics.AverageOverall = roundScore(overall / n)
		analytics.Strengths = encodeList(capList(strengths, 5))
		analytics.Improvements = encodeList(capList(improvements, 5))
	}

	if err := o.store.SaveAnalytics(ctx, analytics); err != nil {
		return &PersistenceError{Operation: "save analytics", Err: err}
	}
	return nil
}

func (o *SessionOrchestrator) notify(sessionID, event string, payload interface{}) {
	if o.notifier != nil {
		o.notifier.NotifySession(sessionID, event, payload)
	}
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func decodeList(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return nil
	}
	return items
}

func appendDistinct(list []string, items ...string) []string {
	for _, item := range items {
		seen := false
		for _, existing := range list {
			if existing == item {
				seen = true
				break
			}
		}
		if !seen {
			list = append(list, item)
		}
	}
	return list
}

func capList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

func roundScore(value float64) float64 {
	return math.Round(value*10) / 10
}

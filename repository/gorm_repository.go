package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/prepwise/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.InterviewSession{},
		&models.Question{},
		&models.Response{},
		&models.SessionAnalytics{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// Session operations
func (r *GORMRepository) CreateSession(ctx context.Context, session *models.InterviewSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create interview session", "error", err)
		return err
	}
	slog.Info("Interview session created", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

func (r *GORMRepository) GetSession(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetSessionForUser(ctx context.Context, sessionID, userID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number")
		}).
		Preload("Responses").
		Preload("Analytics").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview session for user", "error", err, "session_id", sessionID, "user_id", userID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetSessions(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC").Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get interview sessions", "error", err, "user_id", userID)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) UpdateSession(ctx context.Context, session *models.InterviewSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		slog.Error("Failed to update interview session", "error", err, "session_id", session.ID)
		return err
	}
	return nil
}

// Question operations
func (r *GORMRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		slog.Error("Failed to create question", "error", err)
		return err
	}
	slog.Info("Question created", "question_id", question.ID, "session_id", question.SessionID, "sequence", question.SequenceNumber, "source", question.GeneratedBy)
	return nil
}

func (r *GORMRepository) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).Where("id = ?", questionID).First(&question).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get question", "error", err, "question_id", questionID)
		return nil, err
	}
	return &question, nil
}

func (r *GORMRepository) GetQuestionBySequence(ctx context.Context, sessionID string, sequence int) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND sequence_number = ?", sessionID, sequence).
		First(&question).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get question by sequence", "error", err, "session_id", sessionID, "sequence", sequence)
		return nil, err
	}
	return &question, nil
}

func (r *GORMRepository) GetQuestions(ctx context.Context, sessionID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("sequence_number").Find(&questions).Error
	if err != nil {
		slog.Error("Failed to get questions", "error", err, "session_id", sessionID)
		return nil, err
	}
	return questions, nil
}

// Response operations
func (r *GORMRepository) CreateResponse(ctx context.Context, response *models.Response) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		slog.Error("Failed to create response", "error", err)
		return err
	}
	slog.Info("Response created", "response_id", response.ID, "session_id", response.SessionID, "question_id", response.QuestionID, "source", response.EvaluatedBy)
	return nil
}

func (r *GORMRepository) GetResponseByQuestion(ctx context.Context, questionID string) (*models.Response, error) {
	var response models.Response
	err := r.db.WithContext(ctx).Where("question_id = ?", questionID).First(&response).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get response by question", "error", err, "question_id", questionID)
		return nil, err
	}
	return &response, nil
}

func (r *GORMRepository) GetResponses(ctx context.Context, sessionID string) ([]models.Response, error) {
	var responses []models.Response
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at").Find(&responses).Error
	if err != nil {
		slog.Error("Failed to get responses", "error", err, "session_id", sessionID)
		return nil, err
	}
	return responses, nil
}

// Analytics operations

// SaveAnalytics replaces any existing aggregate for the session with the
// freshly computed one. Implemented as an upsert on session_id: a soft delete
// would leave the old row in the unique index and break the re-insert.
func (r *GORMRepository) SaveAnalytics(ctx context.Context, analytics *models.SessionAnalytics) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"average_situation", "average_task", "average_action", "average_result",
			"average_overall", "strengths", "improvements", "response_count", "updated_at",
		}),
	}).Create(analytics).Error
	if err != nil {
		slog.Error("Failed to save session analytics", "error", err, "session_id", analytics.SessionID)
		return err
	}
	slog.Info("Session analytics saved", "session_id", analytics.SessionID, "average_overall", analytics.AverageOverall)
	return nil
}

func (r *GORMRepository) GetAnalytics(ctx context.Context, sessionID string) (*models.SessionAnalytics, error) {
	var analytics models.SessionAnalytics
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&analytics).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get session analytics", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &analytics, nil
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Session status values
const (
	SessionActive    = "active"
	SessionPaused    = "paused"
	SessionCompleted = "completed"
	SessionAbandoned = "abandoned"
)

// InterviewSession represents one practice run: a user working through a
// sequence of generated questions for a specific role and interview stage
type InterviewSession struct {
	ID                   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID               string         `gorm:"type:uuid;not null;index" json:"user_id"`
	JobPosition          string         `gorm:"size:255;not null" json:"job_position"`
	CompanyName          string         `gorm:"size:255" json:"company_name,omitempty"`
	InterviewStage       string         `gorm:"size:100;not null" json:"interview_stage"`
	InterviewType        string         `gorm:"size:100" json:"interview_type,omitempty"`
	ExperienceLevel      string         `gorm:"size:50" json:"experience_level,omitempty"` // entry, mid, senior, executive
	Difficulty           string         `gorm:"size:50" json:"difficulty,omitempty"`
	FocusAreas           string         `gorm:"type:text" json:"focus_areas,omitempty"` // comma-separated
	Language             string         `gorm:"size:10;not null;default:'en'" json:"language"`
	Status               string         `gorm:"not null;default:'active';check:status IN ('active', 'paused', 'completed', 'abandoned')" json:"status"`
	CurrentQuestionIndex int            `gorm:"not null;default:1" json:"current_question_index"`
	TotalQuestions       int            `gorm:"not null;default:10" json:"total_questions"`
	StartedAt            time.Time      `gorm:"not null" json:"started_at"`
	EndedAt              *time.Time     `json:"ended_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User      User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Questions []Question        `gorm:"foreignKey:SessionID" json:"questions,omitempty"`
	Responses []Response        `gorm:"foreignKey:SessionID" json:"responses,omitempty"`
	Analytics *SessionAnalytics `gorm:"foreignKey:SessionID" json:"analytics,omitempty"`
}

// IsTerminal reports whether the session can no longer change state
func (s *InterviewSession) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionAbandoned
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Input modes for a candidate response
const (
	InputModeText  = "text"
	InputModeVoice = "voice"
)

// Response is a candidate's answer to one question together with its
// STAR-method scores. Rows are immutable once scored.
type Response struct {
	ID               string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID        string         `gorm:"type:uuid;not null;index" json:"session_id"`
	QuestionID       string         `gorm:"type:uuid;not null;uniqueIndex" json:"question_id"`
	ResponseText     string         `gorm:"type:text;not null" json:"response_text"`
	AudioURL         *string        `gorm:"size:500" json:"audio_url,omitempty"`
	InputMode        string         `gorm:"size:20;not null;default:'text';check:input_mode IN ('text', 'voice')" json:"input_mode"`
	SituationScore   float64        `gorm:"type:decimal(3,1);not null" json:"situation_score"` // 1.0 to 5.0
	TaskScore        float64        `gorm:"type:decimal(3,1);not null" json:"task_score"`
	ActionScore      float64        `gorm:"type:decimal(3,1);not null" json:"action_score"`
	ResultScore      float64        `gorm:"type:decimal(3,1);not null" json:"result_score"`
	FlowScore        float64        `gorm:"type:decimal(3,1);not null" json:"flow_score"`
	OverallScore     float64        `gorm:"type:decimal(3,1);not null" json:"overall_score"`
	Feedback         string         `gorm:"type:text" json:"feedback,omitempty"`
	Strengths        string         `gorm:"type:text" json:"strengths,omitempty"`       // JSON-encoded list
	Improvements     string         `gorm:"type:text" json:"improvements,omitempty"`    // JSON-encoded list
	Recommendations  string         `gorm:"type:text" json:"recommendations,omitempty"` // JSON-encoded list
	EvaluatedBy      string         `gorm:"size:20;not null;check:evaluated_by IN ('ai', 'fallback')" json:"evaluated_by"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session  InterviewSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Question Question         `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

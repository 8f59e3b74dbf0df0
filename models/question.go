package models

import (
	"time"

	"gorm.io/gorm"
)

// Generation sources
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Question is one generated interview question within a session.
// Rows are immutable once created.
type Question struct {
	ID                 string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID          string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_questions_session_seq" json:"session_id"`
	QuestionText       string         `gorm:"type:text;not null" json:"question_text"`
	TranslatedText     *string        `gorm:"type:text" json:"translated_text,omitempty"`
	Category           string         `gorm:"size:100;not null" json:"category"`
	Difficulty         string         `gorm:"size:50" json:"difficulty,omitempty"`
	SequenceNumber     int            `gorm:"not null;uniqueIndex:idx_questions_session_seq" json:"sequence_number"`
	StarMethodRelevant bool           `gorm:"default:true" json:"star_method_relevant"`
	GeneratedBy        string         `gorm:"size:20;not null;check:generated_by IN ('ai', 'fallback')" json:"generated_by"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session  InterviewSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Response *Response        `gorm:"foreignKey:QuestionID" json:"response,omitempty"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionAnalytics holds aggregate scores for a completed session. It is
// recomputed from all responses at completion, never patched incrementally.
type SessionAnalytics struct {
	ID               string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID        string         `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	AverageSituation float64        `gorm:"type:decimal(3,1);not null" json:"average_situation"`
	AverageTask      float64        `gorm:"type:decimal(3,1);not null" json:"average_task"`
	AverageAction    float64        `gorm:"type:decimal(3,1);not null" json:"average_action"`
	AverageResult    float64        `gorm:"type:decimal(3,1);not null" json:"average_result"`
	AverageOverall   float64        `gorm:"type:decimal(3,1);not null" json:"average_overall"`
	Strengths        string         `gorm:"type:text" json:"strengths,omitempty"`    // JSON-encoded list
	Improvements     string         `gorm:"type:text" json:"improvements,omitempty"` // JSON-encoded list
	ResponseCount    int            `gorm:"not null" json:"response_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session InterviewSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

package pipeline

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Run struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventID         string         `gorm:"type:text;index" json:"event_id,omitempty"`
	DocumentID      string         `gorm:"type:text;not null;index" json:"document_id"`
	Title           string         `gorm:"type:text" json:"title"`
	Trigger         Trigger        `gorm:"type:text;not null" json:"trigger"`
	Status          RunStatus      `gorm:"type:text;not null;index" json:"status"`
	TicketIDs       datatypes.JSON `gorm:"type:jsonb" json:"ticket_ids"`
	NotificationRef string         `gorm:"type:text" json:"notification_ref,omitempty"`
	Error           string         `gorm:"type:text" json:"error,omitempty"`
	StartedAt       time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
}

func (Run) TableName() string {
	return "autopilot_runs"
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project event types. FUNDING_CORRECTED rows carry a "delta" used by reconciliation.
const (
	EventProjectCreated   = "PROJECT_CREATED"
	EventProjectUpdated   = "PROJECT_UPDATED"
	EventDonationRecorded = "DONATION_RECORDED"
	EventFunded           = "FUNDED"
	EventStatusChanged    = "STATUS_CHANGED"
	EventGoalChanged      = "GOAL_CHANGED"
	EventFundingCorrected = "FUNDING_CORRECTED"
)

// ProjectEvent is the append-only audit trail of a project.
type ProjectEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	ProjectID uuid.UUID      `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	EventType string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	ActorID   *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	EventData datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"event_data"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ProjectEvent) TableName() string {
	return "project_events"
}

func (e *ProjectEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

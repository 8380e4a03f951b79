package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donation is an immutable record of one contribution to a project.
type Donation struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID       uuid.UUID `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	DonorID         uuid.UUID `gorm:"column:donor_id;type:uuid;not null;index" json:"donor_id"`
	Amount          float64   `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	PaymentIntentID *string   `gorm:"column:payment_intent_id;uniqueIndex" json:"payment_intent_id,omitempty"`
	RecordedAt      time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

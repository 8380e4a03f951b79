package database

import (
	"encoding/json"
	"errors"
	"time"

	"greenpulse-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The helpers below take a *gorm.DB so they run equally on the pool or inside
// a Transaction callback. Store errors come back wrapped in ErrPersistenceFailure.

// FindProject loads one project; a missing row is ErrProjectNotFound.
func FindProject(db *gorm.DB, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, domain.Persistence(err)
	}
	return &p, nil
}

// LockProject loads a project with SELECT ... FOR UPDATE so a read-then-write
// inside tx cannot interleave with a concurrent donation or admin edit. SQLite
// has no row locks and drops the clause.
func LockProject(tx *gorm.DB, id uuid.UUID) (*domain.Project, error) {
	return FindProject(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// IncrementFunding adds delta to current_funding in a single UPDATE, only for a
// project whose status is in allowed. It reports whether a row matched.
func IncrementFunding(db *gorm.DB, id uuid.UUID, delta float64, now time.Time, allowed []domain.ProjectStatus) (bool, error) {
	res := db.Model(&domain.Project{}).
		Where("id = ? AND status IN ?", id, statusStrings(allowed)).
		Updates(map[string]interface{}{
			"current_funding": gorm.Expr("current_funding + ?", delta),
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, domain.Persistence(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkFunded flips status to Funded unless it already is. It reports whether
// this call performed the transition.
func MarkFunded(db *gorm.DB, id uuid.UUID, now time.Time) (bool, error) {
	res := db.Model(&domain.Project{}).
		Where("id = ? AND status <> ?", id, string(domain.StatusFunded)).
		Updates(map[string]interface{}{
			"status":     string(domain.StatusFunded),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, domain.Persistence(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetProjectFields overwrites the given columns and refreshes updated_at.
func SetProjectFields(db *gorm.DB, id uuid.UUID, fields map[string]interface{}, now time.Time) error {
	upd := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		upd[k] = v
	}
	upd["updated_at"] = now
	res := db.Model(&domain.Project{}).Where("id = ?", id).Updates(upd)
	if res.Error != nil {
		return domain.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// AppendDonation inserts a donation row. Donations are never updated.
func AppendDonation(db *gorm.DB, d *domain.Donation) error {
	if err := db.Create(d).Error; err != nil {
		return domain.Persistence(err)
	}
	return nil
}

// AppendEvent writes one audit row for a project.
func AppendEvent(db *gorm.DB, projectID uuid.UUID, eventType string, actorID *uuid.UUID, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := db.Create(&domain.ProjectEvent{
		ProjectID: projectID,
		EventType: eventType,
		ActorID:   actorID,
		EventData: datatypes.JSON(b),
	}).Error; err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func statusStrings(in []domain.ProjectStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

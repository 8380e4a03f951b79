package projects

import (
	"context"
	"math"

	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Administrator overrides. Any status may be set from any other; goal and
// funding edits never trigger a status change on their own.

// SetStatus assigns newStatus to a project on behalf of an administrator.
func (s *Service) SetStatus(ctx context.Context, projectID uuid.UUID, newStatus domain.ProjectStatus, adminID uuid.UUID) error {
	if !newStatus.Valid() {
		return domain.ErrInvalidStatus
	}
	if err := s.authorize(ctx, adminID); err != nil {
		return err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := database.LockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := database.SetProjectFields(tx, projectID, map[string]interface{}{"status": string(newStatus)}, s.now()); err != nil {
			return err
		}
		return database.AppendEvent(tx, projectID, domain.EventStatusChanged, &adminID, map[string]interface{}{
			"from": p.Status,
			"to":   newStatus,
		})
	})
	if err != nil {
		return domain.Classify(err)
	}
	log.Info().Str("project_id", projectID.String()).Str("admin_id", adminID.String()).Str("status", string(newStatus)).Msg("project status set")
	return nil
}

// SetFundingGoal changes the goal. The goal may drop below funds already raised.
func (s *Service) SetFundingGoal(ctx context.Context, projectID uuid.UUID, newGoal float64, adminID uuid.UUID) error {
	goal, err := normalizeGoal(newGoal)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, adminID); err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := database.LockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := database.SetProjectFields(tx, projectID, map[string]interface{}{"funding_goal": goal}, s.now()); err != nil {
			return err
		}
		return database.AppendEvent(tx, projectID, domain.EventGoalChanged, &adminID, map[string]interface{}{
			"from": p.FundingGoal,
			"to":   goal,
		})
	})
	if err != nil {
		return domain.Classify(err)
	}
	log.Info().Str("project_id", projectID.String()).Str("admin_id", adminID.String()).Float64("funding_goal", goal).Msg("funding goal set")
	return nil
}

// CorrectFunding overwrites current_funding and records the delta so the
// ledger can still be reconciled against donations.
func (s *Service) CorrectFunding(ctx context.Context, projectID uuid.UUID, newFunding float64, adminID uuid.UUID, reason string) error {
	if math.IsNaN(newFunding) || math.IsInf(newFunding, 0) || newFunding < 0 {
		return domain.ErrInvalidFunding
	}
	newFunding = math.Round(newFunding*100) / 100
	if err := s.authorize(ctx, adminID); err != nil {
		return err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := database.LockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := database.SetProjectFields(tx, projectID, map[string]interface{}{"current_funding": newFunding}, s.now()); err != nil {
			return err
		}
		return database.AppendEvent(tx, projectID, domain.EventFundingCorrected, &adminID, map[string]interface{}{
			"from":   p.CurrentFunding,
			"to":     newFunding,
			"delta":  math.Round((newFunding-p.CurrentFunding)*100) / 100,
			"reason": reason,
		})
	})
	if err != nil {
		return domain.Classify(err)
	}
	log.Warn().Str("project_id", projectID.String()).Str("admin_id", adminID.String()).Float64("current_funding", newFunding).Str("reason", reason).Msg("funding corrected by administrator")
	return nil
}

func (s *Service) authorize(ctx context.Context, userID uuid.UUID) error {
	if s.Admins == nil || userID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	ok, err := s.Admins.IsAdmin(ctx, userID)
	if err != nil {
		return domain.Persistence(err)
	}
	if !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

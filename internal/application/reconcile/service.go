package reconcile

import (
	"context"
	"encoding/json"
	"math"

	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Report compares a project's running total with what the ledger explains:
// the sum of its donations plus administrator corrections.
type Report struct {
	ProjectID       uuid.UUID            `json:"project_id"`
	Status          domain.ProjectStatus `json:"status"`
	CurrentFunding  float64              `json:"current_funding"`
	DonationTotal   float64              `json:"donation_total"`
	DonationCount   int64                `json:"donation_count"`
	CorrectionTotal float64              `json:"correction_total"`
	Drift           float64              `json:"drift"`
	Consistent      bool                 `json:"consistent"`

	// Correction events whose delta could not be parsed; any makes the report inconsistent.
	UnreadableEvents int `json:"unreadable_events,omitempty"`
}

type Service struct {
	DB *gorm.DB
}

// Check reconciles a single project.
func (s *Service) Check(ctx context.Context, projectID uuid.UUID) (*Report, error) {
	db := s.DB.WithContext(ctx)
	p, err := database.FindProject(db, projectID)
	if err != nil {
		return nil, err
	}
	return s.check(db, p)
}

// CheckAll reconciles every project; inconsistent ones are logged.
func (s *Service) CheckAll(ctx context.Context) ([]Report, error) {
	db := s.DB.WithContext(ctx)
	var projects []domain.Project
	if err := db.Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, domain.Persistence(err)
	}
	out := make([]Report, 0, len(projects))
	for i := range projects {
		r, err := s.check(db, &projects[i])
		if err != nil {
			return nil, err
		}
		if !r.Consistent {
			log.Warn().Str("project_id", r.ProjectID.String()).Float64("drift", r.Drift).Msg("funding drift detected")
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *Service) check(db *gorm.DB, p *domain.Project) (*Report, error) {
	var agg struct {
		Total float64
		Count int64
	}
	if err := db.Model(&domain.Donation{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("project_id = ?", p.ID).
		Scan(&agg).Error; err != nil {
		return nil, domain.Persistence(err)
	}

	var corrections []domain.ProjectEvent
	if err := db.Where("project_id = ? AND event_type = ?", p.ID, domain.EventFundingCorrected).
		Find(&corrections).Error; err != nil {
		return nil, domain.Persistence(err)
	}
	var correctionTotal float64
	unreadable := 0
	for _, e := range corrections {
		var data struct {
			Delta *float64 `json:"delta"`
		}
		if err := json.Unmarshal(e.EventData, &data); err != nil || data.Delta == nil {
			log.Error().Err(err).Str("event_id", e.EventID.String()).Msg("unreadable correction event")
			unreadable++
			continue
		}
		correctionTotal += *data.Delta
	}

	expected := round2(agg.Total + correctionTotal)
	drift := round2(p.CurrentFunding - expected)
	return &Report{
		ProjectID:        p.ID,
		Status:           p.Status,
		CurrentFunding:   p.CurrentFunding,
		DonationTotal:    round2(agg.Total),
		DonationCount:    agg.Count,
		CorrectionTotal:  round2(correctionTotal),
		Drift:            drift,
		UnreadableEvents: unreadable,
		Consistent:       math.Abs(drift) < 0.005 && unreadable == 0,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package donations

import (
	"context"
	"errors"
	"math"
	"time"

	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FundedNotifier is told once per project that a donation pushed it to Funded.
type FundedNotifier interface {
	ProjectFunded(ctx context.Context, project domain.Project)
}

type Service struct {
	DB       *gorm.DB
	Notifier FundedNotifier
	// Now is the server clock; nil means time.Now.
	Now func() time.Time
}

// Result is what the donor's screen renders right after paying.
type Result struct {
	DonationID uuid.UUID            `json:"donation_id"`
	NewTotal   float64              `json:"new_total"`
	NewStatus  domain.ProjectStatus `json:"new_status"`
	FundedNow  bool                 `json:"funded_now"`
	Replayed   bool                 `json:"replayed,omitempty"`
}

// PaidDonationInput is a donation backed by a succeeded Stripe payment intent.
type PaidDonationInput struct {
	ProjectID       uuid.UUID
	DonorID         uuid.UUID
	Amount          float64
	PaymentIntentID string
	EventID         string
	AmountCents     int64
	Currency        string
	Status          string
	RawPayload      []byte
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RecordDonation appends a donation and atomically adds it to the project's
// funding in one transaction, flipping the status to Funded when the goal is reached.
func (s *Service) RecordDonation(ctx context.Context, projectID, donorID uuid.UUID, amount float64) (*Result, error) {
	amount, err := normalizeAmount(amount)
	if err != nil {
		return nil, err
	}

	var result *Result
	var funded *domain.Project
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, p, err := s.record(tx, projectID, donorID, amount, nil)
		if err != nil {
			return err
		}
		result, funded = r, p
		return nil
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	s.afterCommit(ctx, projectID, amount, result, funded)
	return result, nil
}

// RecordPaidDonation records a Stripe-backed donation exactly once per payment
// intent. A replay returns the project's current state without counting again.
func (s *Service) RecordPaidDonation(ctx context.Context, in PaidDonationInput) (*Result, error) {
	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	if in.PaymentIntentID == "" {
		return nil, errors.New("payment intent id is required")
	}

	var result *Result
	var funded *domain.Project
	var rejected error
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Payment
		if err := tx.Where("stripe_payment_intent_id = ?", in.PaymentIntentID).First(&existing).Error; err == nil {
			p, err := database.FindProject(tx, existing.ProjectID)
			if err != nil {
				return err
			}
			result = &Result{NewTotal: p.CurrentFunding, NewStatus: p.Status, Replayed: true}
			if existing.DonationID != nil {
				result.DonationID = *existing.DonationID
			}
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Persistence(err)
		}

		raw := in.RawPayload
		if len(raw) == 0 {
			raw = []byte("{}")
		}
		payment := domain.Payment{
			StripePaymentIntentID: in.PaymentIntentID,
			StripeEventID:         in.EventID,
			ProjectID:             in.ProjectID,
			DonorID:               in.DonorID,
			AmountPaidCents:       in.AmountCents,
			Currency:              in.Currency,
			Status:                in.Status,
			RawPaymentIntent:      datatypes.JSON(raw),
		}

		intentID := in.PaymentIntentID
		r, p, err := s.record(tx, in.ProjectID, in.DonorID, amount, &intentID)
		if errors.Is(err, domain.ErrInvalidProjectState) || errors.Is(err, domain.ErrProjectNotFound) {
			// The money was taken but cannot be counted; keep the payment for a refund.
			rejected = err
			payment.Status = domain.PaymentUnapplied
			if err := tx.Create(&payment).Error; err != nil {
				return domain.Persistence(err)
			}
			return nil
		}
		if err != nil {
			return err
		}
		payment.DonationID = &r.DonationID
		if err := tx.Create(&payment).Error; err != nil {
			return domain.Persistence(err)
		}
		result, funded = r, p
		return nil
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	if rejected != nil {
		log.Warn().Str("payment_intent_id", in.PaymentIntentID).Str("project_id", in.ProjectID.String()).Err(rejected).Msg("paid donation not applied")
		return nil, rejected
	}
	if !result.Replayed {
		s.afterCommit(ctx, in.ProjectID, amount, result, funded)
	}
	return result, nil
}

// record runs inside tx. The returned project is non-nil only when this
// donation performed the Funded transition.
func (s *Service) record(tx *gorm.DB, projectID, donorID uuid.UUID, amount float64, intentID *string) (*Result, *domain.Project, error) {
	now := s.now()

	ok, err := database.IncrementFunding(tx, projectID, amount, now, domain.DonatableStatuses)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		if _, err := database.FindProject(tx, projectID); err != nil {
			return nil, nil, err
		}
		return nil, nil, domain.ErrInvalidProjectState
	}

	donation := domain.Donation{
		ProjectID:       projectID,
		DonorID:         donorID,
		Amount:          amount,
		PaymentIntentID: intentID,
		RecordedAt:      now,
	}
	if err := database.AppendDonation(tx, &donation); err != nil {
		return nil, nil, err
	}

	p, err := database.FindProject(tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	newTotal := roundCents(p.CurrentFunding)

	fundedNow := false
	if newTotal >= p.FundingGoal && p.Status != domain.StatusFunded {
		fundedNow, err = database.MarkFunded(tx, projectID, now)
		if err != nil {
			return nil, nil, err
		}
		p.Status = domain.StatusFunded
	}

	if err := database.AppendEvent(tx, projectID, domain.EventDonationRecorded, &donorID, map[string]interface{}{
		"donation_id": donation.ID,
		"amount":      amount,
		"new_total":   newTotal,
	}); err != nil {
		return nil, nil, err
	}
	var funded *domain.Project
	if fundedNow {
		if err := database.AppendEvent(tx, projectID, domain.EventFunded, nil, map[string]interface{}{
			"funding_goal":    p.FundingGoal,
			"current_funding": newTotal,
		}); err != nil {
			return nil, nil, err
		}
		p.CurrentFunding = newTotal
		funded = p
	}

	return &Result{
		DonationID: donation.ID,
		NewTotal:   newTotal,
		NewStatus:  p.Status,
		FundedNow:  fundedNow,
	}, funded, nil
}

func (s *Service) afterCommit(ctx context.Context, projectID uuid.UUID, amount float64, r *Result, funded *domain.Project) {
	log.Info().
		Str("project_id", projectID.String()).
		Float64("amount", amount).
		Float64("new_total", r.NewTotal).
		Str("status", string(r.NewStatus)).
		Msg("donation recorded")
	if funded != nil {
		log.Info().Str("project_id", projectID.String()).Msg("project reached its funding goal")
		if s.Notifier != nil {
			s.Notifier.ProjectFunded(ctx, *funded)
		}
	}
}

// CheckDonatable validates amount and the project's current status without
// writing anything. It returns the rounded amount. The donation itself is
// still gated again when it is recorded.
func (s *Service) CheckDonatable(ctx context.Context, projectID uuid.UUID, amount float64) (float64, error) {
	amount, err := normalizeAmount(amount)
	if err != nil {
		return 0, err
	}
	p, err := database.FindProject(s.DB.WithContext(ctx), projectID)
	if err != nil {
		return 0, err
	}
	if !p.Status.AcceptsDonations() {
		return 0, domain.ErrInvalidProjectState
	}
	return amount, nil
}

// ListProjectDonations returns the project and its donations, newest first.
func (s *Service) ListProjectDonations(ctx context.Context, projectID uuid.UUID) (*domain.Project, []domain.Donation, error) {
	p, err := database.FindProject(s.DB.WithContext(ctx), projectID)
	if err != nil {
		return nil, nil, err
	}
	var out []domain.Donation
	if err := s.DB.WithContext(ctx).Where("project_id = ?", projectID).Order("recorded_at DESC").Find(&out).Error; err != nil {
		return nil, nil, domain.Persistence(err)
	}
	return p, out, nil
}

// ListDonorDonations returns everything a donor has given, newest first.
func (s *Service) ListDonorDonations(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error) {
	var out []domain.Donation
	if err := s.DB.WithContext(ctx).Where("donor_id = ?", donorID).Order("recorded_at DESC").Find(&out).Error; err != nil {
		return nil, domain.Persistence(err)
	}
	return out, nil
}

func normalizeAmount(amount float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, domain.ErrInvalidAmount
	}
	amount = roundCents(amount)
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return amount, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

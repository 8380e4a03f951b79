package projects

import (
	"context"
	"math"
	"strings"
	"time"

	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/infrastructure/database"
	"greenpulse-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdminChecker answers whether a user holds the administrator role.
// Authentication itself lives outside this package.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Service struct {
	DB     *gorm.DB
	Admins AdminChecker
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateProjectInput is a user's request for a new project.
type CreateProjectInput struct {
	Title          string
	Description    string
	EnergyCategory string
	Location       string
	FundingGoal    float64
}

// CreateProject stores a new request in status Pending with zero funding.
func (s *Service) CreateProject(ctx context.Context, ownerID uuid.UUID, in CreateProjectInput) (*domain.Project, error) {
	title := strings.TrimSpace(in.Title)
	if !validation.IsValidTitle(title) {
		return nil, domain.ErrMissingTitle
	}
	category, err := domain.ParseEnergyCategory(strings.TrimSpace(in.EnergyCategory))
	if err != nil {
		return nil, err
	}
	goal, err := normalizeGoal(in.FundingGoal)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &domain.Project{
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		EnergyCategory: category,
		Location:       strings.TrimSpace(in.Location),
		Status:         domain.StatusPending,
		FundingGoal:    goal,
		CurrentFunding: 0,
		OwnerID:        ownerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return domain.Persistence(err)
		}
		return database.AppendEvent(tx, p.ID, domain.EventProjectCreated, &ownerID, map[string]interface{}{
			"title":        p.Title,
			"funding_goal": p.FundingGoal,
		})
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	log.Info().Str("project_id", p.ID.String()).Str("owner_id", ownerID.String()).Msg("project requested")
	return p, nil
}

// UpdateProjectInput holds the owner-editable fields; nil means unchanged.
type UpdateProjectInput struct {
	Title          *string
	Description    *string
	EnergyCategory *string
	Location       *string
}

// UpdateProject lets the owner edit descriptive fields while the project is Pending.
func (s *Service) UpdateProject(ctx context.Context, ownerID, projectID uuid.UUID, in UpdateProjectInput) (*domain.Project, error) {
	fields := map[string]interface{}{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if !validation.IsValidTitle(t) {
			return nil, domain.ErrMissingTitle
		}
		fields["title"] = t
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.EnergyCategory != nil {
		c, err := domain.ParseEnergyCategory(strings.TrimSpace(*in.EnergyCategory))
		if err != nil {
			return nil, err
		}
		fields["energy_category"] = string(c)
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}

	var out *domain.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := database.LockProject(tx, projectID)
		if err != nil {
			return err
		}
		if p.OwnerID != ownerID {
			return domain.ErrNotProjectOwner
		}
		if p.Status != domain.StatusPending {
			return domain.ErrProjectLocked
		}
		if len(fields) > 0 {
			if err := database.SetProjectFields(tx, projectID, fields, s.now()); err != nil {
				return err
			}
			if err := database.AppendEvent(tx, projectID, domain.EventProjectUpdated, &ownerID, fields); err != nil {
				return err
			}
		}
		out, err = database.FindProject(tx, projectID)
		return err
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return out, nil
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return database.FindProject(s.DB.WithContext(ctx), projectID)
}

// ListProjects returns projects newest first, optionally filtered by status.
func (s *Service) ListProjects(ctx context.Context, statuses ...domain.ProjectStatus) ([]domain.Project, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		q = q.Where("status IN ?", names)
	}
	var out []domain.Project
	if err := q.Find(&out).Error; err != nil {
		return nil, domain.Persistence(err)
	}
	return out, nil
}

// ListOwnerProjects returns the projects a user has requested.
func (s *Service) ListOwnerProjects(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	var out []domain.Project
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, domain.Persistence(err)
	}
	return out, nil
}

// ListProjectEvents returns the audit trail of a project, oldest first.
func (s *Service) ListProjectEvents(ctx context.Context, projectID uuid.UUID) ([]domain.ProjectEvent, error) {
	if _, err := database.FindProject(s.DB.WithContext(ctx), projectID); err != nil {
		return nil, err
	}
	var out []domain.ProjectEvent
	if err := s.DB.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, domain.Persistence(err)
	}
	return out, nil
}

func normalizeGoal(goal float64) (float64, error) {
	if math.IsNaN(goal) || math.IsInf(goal, 0) {
		return 0, domain.ErrInvalidGoal
	}
	goal = math.Round(goal*100) / 100
	if goal <= 0 {
		return 0, domain.ErrInvalidGoal
	}
	return goal, nil
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle stage of a project.
type ProjectStatus string

const (
	StatusPending     ProjectStatus = "Pending"
	StatusApproved    ProjectStatus = "Approved"
	StatusRejected    ProjectStatus = "Rejected"
	StatusPublished   ProjectStatus = "Published"
	StatusFunded      ProjectStatus = "Funded"
	StatusImplemented ProjectStatus = "Implemented"
)

// ProjectStatuses lists every status an administrator may assign.
var ProjectStatuses = []ProjectStatus{
	StatusPending, StatusApproved, StatusRejected, StatusPublished, StatusFunded, StatusImplemented,
}

// DonatableStatuses are the statuses in which a project accepts donations.
var DonatableStatuses = []ProjectStatus{StatusApproved, StatusPublished}

// Valid reports whether s is one of the six known statuses.
func (s ProjectStatus) Valid() bool {
	for _, st := range ProjectStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// AcceptsDonations reports whether a project in status s may receive a donation.
func (s ProjectStatus) AcceptsDonations() bool {
	for _, st := range DonatableStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ParseProjectStatus matches case-insensitively ("funded" -> Funded).
func ParseProjectStatus(s string) (ProjectStatus, error) {
	for _, st := range ProjectStatuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// EnergyCategory classifies the renewable source a project builds.
type EnergyCategory string

const (
	CategorySolar EnergyCategory = "Solar"
	CategoryWind  EnergyCategory = "Wind"
	CategoryHydro EnergyCategory = "Hydro"
	CategoryOther EnergyCategory = "Other"
)

var energyCategories = []EnergyCategory{CategorySolar, CategoryWind, CategoryHydro, CategoryOther}

// ParseEnergyCategory matches case-insensitively; empty input defaults to Other.
func ParseEnergyCategory(s string) (EnergyCategory, error) {
	if s == "" {
		return CategoryOther, nil
	}
	for _, c := range energyCategories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// Project is one renewable-energy funding request.
type Project struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description;type:text" json:"description"`
	EnergyCategory EnergyCategory `gorm:"column:energy_category;type:varchar(20);not null;default:'Other'" json:"energy_category"`
	Location       string         `gorm:"column:location" json:"location"`
	Status         ProjectStatus  `gorm:"column:status;type:varchar(20);not null;default:'Pending';index" json:"status"`
	FundingGoal    float64        `gorm:"column:funding_goal;type:decimal(18,2);not null" json:"funding_goal"`
	CurrentFunding float64        `gorm:"column:current_funding;type:decimal(18,2);not null;default:0" json:"current_funding"`
	OwnerID        uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

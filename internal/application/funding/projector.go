package funding

import (
	"math"

	"greenpulse-backend/internal/domain"
)

// Projection is the display view of a project's funding progress.
type Projection struct {
	Percent       float64 `json:"percent_funded"`
	IsFullyFunded bool    `json:"is_fully_funded"`
}

// Project computes percent funded (clamped to [0, 100]) and whether the goal is met.
// A non-positive goal projects to zero percent and not funded; stored status is
// authoritative, this is display only.
func Project(currentFunding, fundingGoal float64) Projection {
	if fundingGoal <= 0 || math.IsNaN(fundingGoal) || math.IsNaN(currentFunding) {
		return Projection{}
	}
	if currentFunding < 0 {
		currentFunding = 0
	}
	full := currentFunding >= fundingGoal
	if full {
		return Projection{Percent: 100, IsFullyFunded: true}
	}
	return Projection{Percent: math.Min(100, currentFunding/fundingGoal*100), IsFullyFunded: false}
}

// ProjectView is a project plus its projection, the shape every project response uses.
type ProjectView struct {
	domain.Project
	Projection
}

// View wraps p with its projection.
func View(p domain.Project) ProjectView {
	return ProjectView{Project: p, Projection: Project(p.CurrentFunding, p.FundingGoal)}
}

// Views maps View over a slice.
func Views(ps []domain.Project) []ProjectView {
	out := make([]ProjectView, 0, len(ps))
	for _, p := range ps {
		out = append(out, View(p))
	}
	return out
}

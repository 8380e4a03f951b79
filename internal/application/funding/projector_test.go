package funding

import (
	"testing"

	"greenpulse-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestProject_Partial(t *testing.T) {
	p := Project(7500, 10000)
	assert.Equal(t, 75.0, p.Percent)
	assert.False(t, p.IsFullyFunded)
}

func TestProject_ClampsOverFunding(t *testing.T) {
	p := Project(15000, 10000)
	assert.Equal(t, 100.0, p.Percent)
	assert.True(t, p.IsFullyFunded)
}

func TestProject_ExactGoal(t *testing.T) {
	p := Project(10000, 10000)
	assert.Equal(t, 100.0, p.Percent)
	assert.True(t, p.IsFullyFunded)
}

func TestProject_NonPositiveGoal(t *testing.T) {
	assert.Equal(t, Projection{}, Project(500, 0))
	assert.Equal(t, Projection{}, Project(0, -10))
}

func TestProject_Unrounded(t *testing.T) {
	assert.InDelta(t, 100.0/3, Project(1, 3).Percent, 1e-9)

	p := Project(9999.999, 10000)
	assert.Less(t, p.Percent, 100.0)
	assert.False(t, p.IsFullyFunded)
}

func TestProject_BoundsAndIdempotence(t *testing.T) {
	goals := []float64{0, 0.01, 1, 3, 999.99, 10000}
	currents := []float64{0, 0.005, 1, 2.5, 10000, 1e9}
	for _, g := range goals {
		for _, c := range currents {
			a := Project(c, g)
			b := Project(c, g)
			assert.Equal(t, a, b)
			assert.GreaterOrEqual(t, a.Percent, 0.0)
			assert.LessOrEqual(t, a.Percent, 100.0)
			if a.IsFullyFunded {
				assert.Equal(t, 100.0, a.Percent, "current=%v goal=%v", c, g)
			}
		}
	}
}

func TestView_EmbedsProjection(t *testing.T) {
	v := View(domain.Project{Title: "Solar farm", CurrentFunding: 2500, FundingGoal: 10000})
	assert.Equal(t, "Solar farm", v.Title)
	assert.Equal(t, 25.0, v.Percent)
	assert.Len(t, Views([]domain.Project{{}, {}}), 2)
}

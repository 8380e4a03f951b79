package reconcile

import (
	"context"
	"encoding/json"
	"testing"

	"greenpulse-backend/internal/application/donations"
	"greenpulse-backend/internal/application/projects"
	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type allAdmins struct{}

func (allAdmins) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) { return true, nil }

func setupReconcileTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func seedProject(t *testing.T, db *gorm.DB, current float64) domain.Project {
	p := domain.Project{Title: "Microgrid", Status: domain.StatusPublished, FundingGoal: 1000, CurrentFunding: current, OwnerID: uuid.New()}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestCheck_ConsistentAfterDonationsAndCorrection(t *testing.T) {
	svc, db := setupReconcileTest(t)
	ctx := context.Background()
	p := seedProject(t, db, 0)

	rec := &donations.Service{DB: db}
	_, err := rec.RecordDonation(ctx, p.ID, uuid.New(), 120.50)
	require.NoError(t, err)
	_, err = rec.RecordDonation(ctx, p.ID, uuid.New(), 79.50)
	require.NoError(t, err)

	admin := &projects.Service{DB: db, Admins: allAdmins{}}
	require.NoError(t, admin.CorrectFunding(ctx, p.ID, 150, uuid.New(), "chargeback"))

	r, err := svc.Check(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, r.CurrentFunding)
	assert.Equal(t, 200.0, r.DonationTotal)
	assert.Equal(t, int64(2), r.DonationCount)
	assert.Equal(t, -50.0, r.CorrectionTotal)
	assert.Equal(t, 0.0, r.Drift)
	assert.True(t, r.Consistent)
}

func TestCheck_DetectsDrift(t *testing.T) {
	svc, db := setupReconcileTest(t)
	p := seedProject(t, db, 300)

	r, err := svc.Check(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, r.Drift)
	assert.False(t, r.Consistent)
}

func TestCheck_UnreadableCorrectionIsInconsistent(t *testing.T) {
	svc, db := setupReconcileTest(t)
	p := seedProject(t, db, 0)
	require.NoError(t, database.AppendEvent(db, p.ID, domain.EventFundingCorrected, nil, map[string]interface{}{"delta": "lots"}))
	require.NoError(t, database.AppendEvent(db, p.ID, domain.EventFundingCorrected, nil, map[string]interface{}{"reason": "no delta"}))

	r, err := svc.Check(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Drift)
	assert.Equal(t, 2, r.UnreadableEvents)
	assert.False(t, r.Consistent)
}

func TestCheck_CorrectionBetweenDonationsStaysExplained(t *testing.T) {
	svc, db := setupReconcileTest(t)
	ctx := context.Background()
	p := seedProject(t, db, 0)
	rec := &donations.Service{DB: db}
	admin := &projects.Service{DB: db, Admins: allAdmins{}}

	_, err := rec.RecordDonation(ctx, p.ID, uuid.New(), 100)
	require.NoError(t, err)
	require.NoError(t, admin.CorrectFunding(ctx, p.ID, 50, uuid.New(), "duplicate charge"))
	_, err = rec.RecordDonation(ctx, p.ID, uuid.New(), 10)
	require.NoError(t, err)
	require.NoError(t, admin.CorrectFunding(ctx, p.ID, 70, uuid.New(), "offline cheque"))

	var events []domain.ProjectEvent
	require.NoError(t, db.Where("project_id = ? AND event_type = ?", p.ID, domain.EventFundingCorrected).
		Order("created_at ASC").Find(&events).Error)
	require.Len(t, events, 2)
	type correction struct {
		From  float64 `json:"from"`
		To    float64 `json:"to"`
		Delta float64 `json:"delta"`
	}
	var first, second correction
	require.NoError(t, json.Unmarshal(events[0].EventData, &first))
	require.NoError(t, json.Unmarshal(events[1].EventData, &second))
	assert.Equal(t, correction{From: 100, To: 50, Delta: -50}, first)
	assert.Equal(t, correction{From: 60, To: 70, Delta: 10}, second)

	r, err := svc.Check(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, r.CurrentFunding)
	assert.Equal(t, 110.0, r.DonationTotal)
	assert.Equal(t, -40.0, r.CorrectionTotal)
	assert.True(t, r.Consistent)
}

func TestCheck_NotFound(t *testing.T) {
	svc, _ := setupReconcileTest(t)
	_, err := svc.Check(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestCheckAll(t *testing.T) {
	svc, db := setupReconcileTest(t)
	seedProject(t, db, 0)
	seedProject(t, db, 42)

	reports, err := svc.CheckAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	var drifting int
	for _, r := range reports {
		if !r.Consistent {
			drifting++
		}
	}
	assert.Equal(t, 1, drifting)
}

package projects

import (
	"context"
	"errors"
	"testing"

	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubAdmins struct {
	admins map[uuid.UUID]bool
	err    error
}

func (s stubAdmins) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.admins[userID], nil
}

func setupProjectsTest(t *testing.T) (*Service, *gorm.DB, uuid.UUID) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	adminID := uuid.New()
	return &Service{DB: db, Admins: stubAdmins{admins: map[uuid.UUID]bool{adminID: true}}}, db, adminID
}

func seedProject(t *testing.T, db *gorm.DB, status domain.ProjectStatus, goal, current float64) domain.Project {
	p := domain.Project{
		Title:          "River turbine",
		EnergyCategory: domain.CategoryHydro,
		Status:         status,
		FundingGoal:    goal,
		CurrentFunding: current,
		OwnerID:        uuid.New(),
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func eventTypes(t *testing.T, db *gorm.DB, projectID uuid.UUID) []string {
	var events []domain.ProjectEvent
	require.NoError(t, db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&events).Error)
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventType
	}
	return out
}

func TestSetFundingGoal_BelowCurrentKeepsStatus(t *testing.T) {
	svc, db, adminID := setupProjectsTest(t)
	p := seedProject(t, db, domain.StatusApproved, 10000, 7500)

	require.NoError(t, svc.SetFundingGoal(context.Background(), p.ID, 5000, adminID))

	got, err := svc.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, got.FundingGoal)
	assert.Equal(t, 7500.0, got.CurrentFunding)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, []string{domain.EventGoalChanged}, eventTypes(t, db, p.ID))
}

func TestSetFundingGoal_Errors(t *testing.T) {
	svc, db, adminID := setupProjectsTest(t)
	p := seedProject(t, db, domain.StatusApproved, 10000, 0)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetFundingGoal(ctx, p.ID, 0, adminID), domain.ErrInvalidGoal)
	assert.ErrorIs(t, svc.SetFundingGoal(ctx, p.ID, -10, adminID), domain.ErrInvalidGoal)
	assert.ErrorIs(t, svc.SetFundingGoal(ctx, p.ID, 500, uuid.New()), domain.ErrUnauthorized)
	assert.ErrorIs(t, svc.SetFundingGoal(ctx, uuid.New(), 500, adminID), domain.ErrProjectNotFound)

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, got.FundingGoal)
}

func TestSetStatus_AnyToAny(t *testing.T) {
	svc, db, adminID := setupProjectsTest(t)
	p := seedProject(t, db, domain.StatusFunded, 100, 100)
	ctx := context.Background()

	// Reopening a funded project is allowed.
	require.NoError(t, svc.SetStatus(ctx, p.ID, domain.StatusPublished, adminID))
	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)
	assert.Equal(t, 100.0, got.CurrentFunding)

	for _, st := range domain.ProjectStatuses {
		require.NoError(t, svc.SetStatus(ctx, p.ID, st, adminID), st)
		got, err := svc.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}
}

func TestSetStatus_Errors(t *testing.T) {
	svc, db, adminID := setupProjectsTest(t)
	p := seedProject(t, db, domain.StatusPending, 100, 0)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetStatus(ctx, p.ID, domain.StatusApproved, uuid.New()), domain.ErrUnauthorized)
	assert.ErrorIs(t, svc.SetStatus(ctx, p.ID, domain.StatusApproved, uuid.Nil), domain.ErrUnauthorized)
	assert.ErrorIs(t, svc.SetStatus(ctx, p.ID, domain.ProjectStatus("Archived"), adminID), domain.ErrInvalidStatus)
	assert.ErrorIs(t, svc.SetStatus(ctx, uuid.New(), domain.StatusApproved, adminID), domain.ErrProjectNotFound)

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Empty(t, eventTypes(t, db, p.ID))
}

func TestSetStatus_CheckerFailureIsPersistence(t *testing.T) {
	svc, db, adminID := setupProjectsTest(t)
	p := seedProject(t, db, domain.StatusPending, 100, 0)
	svc.Admins = stubAdmins{err: errors.New("connection refused")}

	err := svc.SetStatus(context.Background(), p.ID, domain.StatusApproved, adminID)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
}

func TestCorrectFunding_RecordsDelta(t *testing.T) {
	svc, db, adminID := setupProjectsTest(t)
	p := seedProject(t, db, domain.StatusPublished, 1000, 400)
	ctx := context.Background()

	require.NoError(t, svc.CorrectFunding(ctx, p.ID, 250, adminID, "refund"))
	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.CurrentFunding)
	assert.Equal(t, domain.StatusPublished, got.Status)

	events, err := svc.ListProjectEvents(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventFundingCorrected, events[0].EventType)
	assert.Contains(t, string(events[0].EventData), `"delta":-150`)

	assert.ErrorIs(t, svc.CorrectFunding(ctx, p.ID, -1, adminID, ""), domain.ErrInvalidFunding)
	assert.ErrorIs(t, svc.CorrectFunding(ctx, p.ID, 10, uuid.New(), ""), domain.ErrUnauthorized)
}

func TestCreateProject(t *testing.T) {
	svc, _, _ := setupProjectsTest(t)
	ownerID := uuid.New()
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, ownerID, CreateProjectInput{
		Title:          "  Rooftop solar  ",
		EnergyCategory: "solar",
		Location:       "Lisbon",
		FundingGoal:    12000,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rooftop solar", p.Title)
	assert.Equal(t, domain.CategorySolar, p.EnergyCategory)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.Equal(t, 0.0, p.CurrentFunding)
	assert.Equal(t, ownerID, p.OwnerID)

	mine, err := svc.ListOwnerProjects(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)

	_, err = svc.CreateProject(ctx, ownerID, CreateProjectInput{Title: "", FundingGoal: 10})
	assert.ErrorIs(t, err, domain.ErrMissingTitle)
	_, err = svc.CreateProject(ctx, ownerID, CreateProjectInput{Title: "x", FundingGoal: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidGoal)
	_, err = svc.CreateProject(ctx, ownerID, CreateProjectInput{Title: "x", EnergyCategory: "coal", FundingGoal: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestUpdateProject_OwnerWhilePending(t *testing.T) {
	svc, _, adminID := setupProjectsTest(t)
	ownerID := uuid.New()
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, ownerID, CreateProjectInput{Title: "Wind farm", FundingGoal: 5000})
	require.NoError(t, err)

	title := "Coastal wind farm"
	got, err := svc.UpdateProject(ctx, ownerID, p.ID, UpdateProjectInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)

	_, err = svc.UpdateProject(ctx, uuid.New(), p.ID, UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotProjectOwner)

	require.NoError(t, svc.SetStatus(ctx, p.ID, domain.StatusApproved, adminID))
	_, err = svc.UpdateProject(ctx, ownerID, p.ID, UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrProjectLocked)

	_, err = svc.UpdateProject(ctx, ownerID, uuid.New(), UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestListProjects_StatusFilter(t *testing.T) {
	svc, db, _ := setupProjectsTest(t)
	seedProject(t, db, domain.StatusPending, 100, 0)
	seedProject(t, db, domain.StatusPublished, 100, 0)
	seedProject(t, db, domain.StatusApproved, 100, 0)

	all, err := svc.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	open, err := svc.ListProjects(context.Background(), domain.DonatableStatuses...)
	require.NoError(t, err)
	assert.Len(t, open, 2)
	for _, p := range open {
		assert.True(t, p.Status.AcceptsDonations())
	}
}

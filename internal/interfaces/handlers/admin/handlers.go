package admin

import (
	"greenpulse-backend/internal/application/funding"
	projectsvc "greenpulse-backend/internal/application/projects"
	"greenpulse-backend/internal/application/reconcile"
	"greenpulse-backend/internal/domain"
	projecthandlers "greenpulse-backend/internal/interfaces/handlers/projects"
	"greenpulse-backend/internal/middleware"
	"greenpulse-backend/internal/pkg/response"
	"greenpulse-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves the administrator overrides and the ledger audit.
// The route requires manage_projects; the services re-check the role in the DB.
type Handlers struct {
	Projects  *projectsvc.Service
	Reconcile *reconcile.Service
}

type statusBody struct {
	Status string `json:"status"`
}

type goalBody struct {
	FundingGoal *float64 `json:"funding_goal"`
}

type correctionBody struct {
	CurrentFunding *float64 `json:"current_funding"`
	Reason         string   `json:"reason"`
}

// target reads the acting admin and the :id project. When ok is false the
// error response has already been written and its send error is returned.
func target(c *fiber.Ctx) (adminID, projectID uuid.UUID, ok bool, err error) {
	adminID, ok = middleware.SessionUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false, response.Unauthorized(c, "Unauthorized")
	}
	projectID, ok = validation.ParseUUIDParam(c.Params("id"))
	if !ok {
		return uuid.Nil, uuid.Nil, false, response.Error(c, "Invalid project id", fiber.StatusBadRequest, nil)
	}
	return adminID, projectID, true, nil
}

func (h *Handlers) respondProject(c *fiber.Ctx, projectID uuid.UUID, msg string) error {
	p, err := h.Projects.GetProject(c.UserContext(), projectID)
	if err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	return response.Success(c, msg, funding.View(*p), nil)
}

// SetStatus PATCH /api/v1/admin/projects/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	adminID, projectID, ok, err := target(c)
	if !ok {
		return err
	}
	var body statusBody
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", fiber.StatusBadRequest, nil)
	}
	status, err := domain.ParseProjectStatus(body.Status)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Projects.SetStatus(c.UserContext(), projectID, status, adminID); err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	return h.respondProject(c, projectID, "Project status updated")
}

// SetFundingGoal PATCH /api/v1/admin/projects/:id/funding-goal
func (h *Handlers) SetFundingGoal(c *fiber.Ctx) error {
	adminID, projectID, ok, err := target(c)
	if !ok {
		return err
	}
	var body goalBody
	if err := c.BodyParser(&body); err != nil || body.FundingGoal == nil {
		return response.Error(c, "funding_goal is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Projects.SetFundingGoal(c.UserContext(), projectID, *body.FundingGoal, adminID); err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	return h.respondProject(c, projectID, "Funding goal updated")
}

// CorrectFunding PATCH /api/v1/admin/projects/:id/funding-correction
func (h *Handlers) CorrectFunding(c *fiber.Ctx) error {
	adminID, projectID, ok, err := target(c)
	if !ok {
		return err
	}
	var body correctionBody
	if err := c.BodyParser(&body); err != nil || body.CurrentFunding == nil {
		return response.Error(c, "current_funding is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Projects.CorrectFunding(c.UserContext(), projectID, *body.CurrentFunding, adminID, body.Reason); err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	return h.respondProject(c, projectID, "Funding corrected")
}

// ReconcileAll GET /api/v1/admin/reconcile
func (h *Handlers) ReconcileAll(c *fiber.Ctx) error {
	reports, err := h.Reconcile.CheckAll(c.UserContext())
	if err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	drifting := 0
	for _, r := range reports {
		if !r.Consistent {
			drifting++
		}
	}
	return response.Success(c, "Ledger reconciled", reports, fiber.Map{
		"count":    len(reports),
		"drifting": drifting,
	})
}

// ReconcileOne GET /api/v1/admin/reconcile/:id
func (h *Handlers) ReconcileOne(c *fiber.Ctx) error {
	id, ok := validation.ParseUUIDParam(c.Params("id"))
	if !ok {
		return response.Error(c, "Invalid project id", fiber.StatusBadRequest, nil)
	}
	r, err := h.Reconcile.Check(c.UserContext(), id)
	if err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	return response.Success(c, "Project reconciled", r, nil)
}

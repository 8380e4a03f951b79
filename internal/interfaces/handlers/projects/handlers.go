package projects

import (
	"strings"

	"greenpulse-backend/internal/application/funding"
	projectsvc "greenpulse-backend/internal/application/projects"
	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/middleware"
	"greenpulse-backend/internal/pkg/constants"
	"greenpulse-backend/internal/pkg/response"
	"greenpulse-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *projectsvc.Service
}

// ErrorCodes maps ledger errors to HTTP statuses for every project-facing handler.
var ErrorCodes = map[error]int{
	domain.ErrInvalidAmount:       fiber.StatusBadRequest,
	domain.ErrInvalidGoal:         fiber.StatusBadRequest,
	domain.ErrInvalidFunding:      fiber.StatusBadRequest,
	domain.ErrInvalidStatus:       fiber.StatusBadRequest,
	domain.ErrInvalidCategory:     fiber.StatusBadRequest,
	domain.ErrMissingTitle:        fiber.StatusBadRequest,
	domain.ErrUnauthorized:        fiber.StatusForbidden,
	domain.ErrNotProjectOwner:     fiber.StatusForbidden,
	domain.ErrProjectNotFound:     fiber.StatusNotFound,
	domain.ErrInvalidProjectState: fiber.StatusConflict,
	domain.ErrProjectLocked:       fiber.StatusConflict,
	domain.ErrPersistenceFailure:  fiber.StatusServiceUnavailable,
}

// publicStatuses are visible to every signed-in user; Pending and Rejected
// requests are visible only to their owner and administrators.
var publicStatuses = []domain.ProjectStatus{
	domain.StatusApproved, domain.StatusPublished, domain.StatusFunded, domain.StatusImplemented,
}

func isPublic(s domain.ProjectStatus) bool {
	for _, st := range publicStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ListProjects GET /api/v1/projects?status=Published,Funded
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	isAdmin := middleware.SessionRole(c) == constants.Admin

	var statuses []domain.ProjectStatus
	if q := strings.TrimSpace(c.Query("status")); q != "" {
		for _, part := range strings.Split(q, ",") {
			st, err := domain.ParseProjectStatus(strings.TrimSpace(part))
			if err != nil {
				return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{"status": part})
			}
			if isAdmin || isPublic(st) {
				statuses = append(statuses, st)
			}
		}
		if len(statuses) == 0 {
			return response.Success(c, "Projects fetched successfully", []funding.ProjectView{}, fiber.Map{"count": 0})
		}
	} else if !isAdmin {
		statuses = publicStatuses
	}

	list, err := h.Service.ListProjects(c.UserContext(), statuses...)
	if err != nil {
		return response.ErrorFrom(c, err, ErrorCodes)
	}
	return response.Success(c, "Projects fetched successfully", funding.Views(list), fiber.Map{"count": len(list)})
}

// GetProject GET /api/v1/projects/:id
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	id, ok := validation.ParseUUIDParam(c.Params("id"))
	if !ok {
		return response.Error(c, "Invalid project id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.GetProject(c.UserContext(), id)
	if err != nil {
		return response.ErrorFrom(c, err, ErrorCodes)
	}
	if !CanView(c, p) {
		return response.Error(c, domain.ErrProjectNotFound.Error(), fiber.StatusNotFound, nil)
	}
	return response.Success(c, "Project fetched successfully", funding.View(*p), nil)
}

// MyProjects GET /api/v1/projects/mine lists the session user's requests in every status.
func (h *Handlers) MyProjects(c *fiber.Ctx) error {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListOwnerProjects(c.UserContext(), userID)
	if err != nil {
		return response.ErrorFrom(c, err, ErrorCodes)
	}
	return response.Success(c, "Projects fetched successfully", funding.Views(list), fiber.Map{"count": len(list)})
}

// RequestProjectBody is the body of POST /projects/request-project.
type RequestProjectBody struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	EnergyCategory string  `json:"energy_category"`
	Location       string  `json:"location"`
	FundingGoal    float64 `json:"funding_goal"`
}

// RequestProject POST /api/v1/projects/request-project creates a Pending project owned by the session user.
func (h *Handlers) RequestProject(c *fiber.Ctx) error {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body RequestProjectBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.CreateProject(c.UserContext(), userID, projectsvc.CreateProjectInput{
		Title:          body.Title,
		Description:    body.Description,
		EnergyCategory: body.EnergyCategory,
		Location:       body.Location,
		FundingGoal:    body.FundingGoal,
	})
	if err != nil {
		return response.ErrorFrom(c, err, ErrorCodes)
	}
	return response.SuccessCreated(c, "Project request submitted", funding.View(*p), nil)
}

// UpdateProjectBody holds optional fields; omitted keys stay unchanged.
type UpdateProjectBody struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	EnergyCategory *string `json:"energy_category"`
	Location       *string `json:"location"`
}

// UpdateProject PUT /api/v1/projects/:id
func (h *Handlers) UpdateProject(c *fiber.Ctx) error {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := validation.ParseUUIDParam(c.Params("id"))
	if !ok {
		return response.Error(c, "Invalid project id", fiber.StatusBadRequest, nil)
	}
	var body UpdateProjectBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.UpdateProject(c.UserContext(), userID, id, projectsvc.UpdateProjectInput{
		Title:          body.Title,
		Description:    body.Description,
		EnergyCategory: body.EnergyCategory,
		Location:       body.Location,
	})
	if err != nil {
		return response.ErrorFrom(c, err, ErrorCodes)
	}
	return response.Success(c, "Project updated successfully", funding.View(*p), nil)
}

// ProjectEvents GET /api/v1/projects/:id/events returns the audit trail to the owner or an administrator.
func (h *Handlers) ProjectEvents(c *fiber.Ctx) error {
	id, ok := validation.ParseUUIDParam(c.Params("id"))
	if !ok {
		return response.Error(c, "Invalid project id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.GetProject(c.UserContext(), id)
	if err != nil {
		return response.ErrorFrom(c, err, ErrorCodes)
	}
	if !isOwnerOrAdmin(c, p) {
		return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
	}
	events, err := h.Service.ListProjectEvents(c.UserContext(), id)
	if err != nil {
		return response.ErrorFrom(c, err, ErrorCodes)
	}
	return response.Success(c, "Project events fetched successfully", events, fiber.Map{"count": len(events)})
}

// CanView reports whether the session user may see p. Hidden projects answer
// 404 rather than 403.
func CanView(c *fiber.Ctx, p *domain.Project) bool {
	return isPublic(p.Status) || isOwnerOrAdmin(c, p)
}

func isOwnerOrAdmin(c *fiber.Ctx, p *domain.Project) bool {
	if middleware.SessionRole(c) == constants.Admin {
		return true
	}
	userID, ok := middleware.SessionUserID(c)
	return ok && userID != uuid.Nil && userID == p.OwnerID
}

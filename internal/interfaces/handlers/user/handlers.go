package user

import (
	"errors"

	usersvc "greenpulse-backend/internal/application/user"
	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/middleware"
	"greenpulse-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds the user service and session config for create-user (session + cookie).
type Handlers struct {
	Service *usersvc.Service
	Config  middleware.SessionConfig
}

// CreateUserRequest body.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

var createErrors = map[error]int{
	usersvc.ErrInvalidEmail:    fiber.StatusBadRequest,
	usersvc.ErrInvalidPassword: fiber.StatusBadRequest,
	usersvc.ErrMissingFullname: fiber.StatusBadRequest,
	usersvc.ErrInvalidFullname: fiber.StatusBadRequest,
	usersvc.ErrEmailRegistered: fiber.StatusConflict,
}

// CreateUser POST /api/v1/users/create-user registers a donor, starts their session and sets the cookie.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Missing required fields", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" || req.Fullname == "" {
		return response.Error(c, "Missing required fields", fiber.StatusBadRequest, nil)
	}

	u, err := h.Service.CreateUser(c.UserContext(), usersvc.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Fullname: req.Fullname,
	})
	if err != nil {
		return response.ErrorFrom(c, err, createErrors)
	}

	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   u.UserID.String(),
		Fullname: u.Fullname,
		Email:    u.Email,
		Role:     u.Role,
	})
	usersvc.TrackSession(c.UserContext(), h.Service.Rdb, u.UserID.String(), sid)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sid
	c.Cookie(&cookie)

	return response.SuccessCreated(c, "User created successfully", fiber.Map{"user": safeUser(u)}, nil)
}

// ViewUser GET /api/v1/users/view-user returns the session user.
func (h *Handlers) ViewUser(c *fiber.Ctx) error {
	id, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.ViewUser(c.UserContext(), id.String())
	if err != nil {
		return response.ErrorFrom(c, err, map[error]int{usersvc.ErrUserNotFound: fiber.StatusNotFound})
	}
	return response.Success(c, "User found", fiber.Map{"user": safeUser(u)}, nil)
}

// UpdateRoleRequest body.
type UpdateRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// UpdateRole PATCH /api/v1/users/update-role promotes or demotes a user (admin only, enforced on the route).
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" || req.Role == "" {
		return response.Error(c, "user_id and role are required", fiber.StatusBadRequest, nil)
	}
	actor, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	u, err := h.Service.UpdateUserRole(c.UserContext(), actor.String(), req.UserID, req.Role)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserNotFound) {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.ErrorFrom(c, err, map[error]int{
			usersvc.ErrInvalidRole:      fiber.StatusBadRequest,
			usersvc.ErrInvalidUserID:    fiber.StatusBadRequest,
			usersvc.ErrCannotChangeSelf: fiber.StatusBadRequest,
		})
	}
	return response.Success(c, "User role updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

func safeUser(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":   u.UserID.String(),
		"fullname":  u.Fullname,
		"email":     u.Email,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

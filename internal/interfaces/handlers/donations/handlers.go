package donations

import (
	"errors"
	"math"
	"strconv"

	donationsvc "greenpulse-backend/internal/application/donations"
	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/interfaces/handlers/payments"
	projecthandlers "greenpulse-backend/internal/interfaces/handlers/projects"
	"greenpulse-backend/internal/middleware"
	"greenpulse-backend/internal/pkg/response"
	"greenpulse-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service  *donationsvc.Service
	Stripe   payments.StripePaymentIntentCreator
	Currency string
}

// DonateBody is the body of both donate and create-intent.
type DonateBody struct {
	ProjectID string  `json:"project_id"`
	Amount    float64 `json:"amount"`
}

func (b DonateBody) projectID() (uuid.UUID, bool) {
	return validation.ParseUUIDParam(b.ProjectID)
}

// Donate POST /api/v1/donations/donate records a donation directly and
// returns the new total and status.
func (h *Handlers) Donate(c *fiber.Ctx) error {
	donorID, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body DonateBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "project_id and amount are required", fiber.StatusBadRequest, nil)
	}
	projectID, ok := body.projectID()
	if !ok {
		return response.Error(c, "Invalid project_id", fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.RecordDonation(c.UserContext(), projectID, donorID, body.Amount)
	if err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	return response.SuccessCreated(c, "Donation recorded", res, nil)
}

// CreateIntent POST /api/v1/donations/create-intent opens a Stripe
// PaymentIntent; the donation is recorded when the webhook confirms payment.
func (h *Handlers) CreateIntent(c *fiber.Ctx) error {
	donorID, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body DonateBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "project_id and amount are required", fiber.StatusBadRequest, nil)
	}
	projectID, ok := body.projectID()
	if !ok {
		return response.Error(c, "Invalid project_id", fiber.StatusBadRequest, nil)
	}
	if h.Stripe == nil {
		return response.Error(c, "Stripe not configured", fiber.StatusNotImplemented, nil)
	}

	amount, err := h.Service.CheckDonatable(c.UserContext(), projectID, body.Amount)
	if err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}

	currency := h.Currency
	if currency == "" {
		currency = "usd"
	}
	intent, err := h.Stripe.Create(int64(math.Round(amount*100)), currency, map[string]string{
		payments.MetaProjectID: projectID.String(),
		payments.MetaDonorID:   donorID.String(),
		payments.MetaAmount:    strconv.FormatFloat(amount, 'f', 2, 64),
	})
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Message, fe.Code, nil)
		}
		log.Error().Err(err).Str("project_id", projectID.String()).Msg("stripe payment intent failed")
		return response.Error(c, "Payment provider unavailable", fiber.StatusBadGateway, nil)
	}
	return response.SuccessCreated(c, "Payment intent created", fiber.Map{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            amount,
		"currency":          currency,
	}, nil)
}

// ProjectDonations GET /api/v1/donations/project/:id
func (h *Handlers) ProjectDonations(c *fiber.Ctx) error {
	id, ok := validation.ParseUUIDParam(c.Params("id"))
	if !ok {
		return response.Error(c, "Invalid project id", fiber.StatusBadRequest, nil)
	}
	p, list, err := h.Service.ListProjectDonations(c.UserContext(), id)
	if err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	if !projecthandlers.CanView(c, p) {
		return response.Error(c, domain.ErrProjectNotFound.Error(), fiber.StatusNotFound, nil)
	}
	return response.Success(c, "Donations fetched successfully", list, fiber.Map{"count": len(list)})
}

// MyDonations GET /api/v1/donations/mine
func (h *Handlers) MyDonations(c *fiber.Ctx) error {
	donorID, ok := middleware.SessionUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListDonorDonations(c.UserContext(), donorID)
	if err != nil {
		return response.ErrorFrom(c, err, projecthandlers.ErrorCodes)
	}
	total := 0.0
	for _, d := range list {
		total += d.Amount
	}
	return response.Success(c, "Donations fetched successfully", list, fiber.Map{
		"count": len(list),
		"total": math.Round(total*100) / 100,
	})
}

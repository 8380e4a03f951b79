package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	donationsvc "greenpulse-backend/internal/application/donations"
	"greenpulse-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Metadata keys set on donation PaymentIntents by the create-intent handler.
const (
	MetaProjectID = "project_id"
	MetaDonorID   = "donor_id"
	MetaAmount    = "amount"
)

// PaidDonationRecorder is the part of the donation service the webhook needs.
type PaidDonationRecorder interface {
	RecordPaidDonation(ctx context.Context, in donationsvc.PaidDonationInput) (*donationsvc.Result, error)
}

type WebhookHandler struct {
	Donations     PaidDonationRecorder
	WebhookSecret string
	// Tolerance for the signature timestamp; zero means the stripe default.
	Tolerance time.Duration
}

// HandleWebhook POST /api/v1/stripe/webhook verifies the signature on the raw
// body and records payment_intent.succeeded events as donations. Domain
// failures still answer 200 so Stripe does not retry them; a store failure
// answers 500 so the event is redelivered.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: empty body")
	}
	if wh.WebhookSecret == "" || sig == "" {
		log.Warn().Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook missing signature or secret")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: missing signature or secret")
	}

	event, err := webhook.ConstructEventWithOptions(rawBody, sig, wh.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                wh.Tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Stripe webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + err.Error())
	}

	if string(event.Type) != "payment_intent.succeeded" || event.Data == nil {
		return c.Status(fiber.StatusOK).SendString("ok")
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Stripe webhook payment intent parse failed")
		return c.Status(fiber.StatusOK).SendString("ok")
	}
	if err := wh.handlePaymentIntentSucceeded(c.UserContext(), &pi, event.ID, event.Data.Raw); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Str("payment_intent_id", pi.ID).Msg("Stripe donation not recorded")
		if errors.Is(err, domain.ErrPersistenceFailure) {
			return c.Status(fiber.StatusInternalServerError).SendString("Webhook Error: donation not stored")
		}
	}
	return c.Status(fiber.StatusOK).SendString("ok")
}

var errIncompleteMetadata = errors.New("payment intent metadata incomplete")

func (wh *WebhookHandler) handlePaymentIntentSucceeded(ctx context.Context, pi *stripe.PaymentIntent, eventID string, raw []byte) error {
	projectID, err1 := uuid.Parse(pi.Metadata[MetaProjectID])
	donorID, err2 := uuid.Parse(pi.Metadata[MetaDonorID])
	amount, err3 := strconv.ParseFloat(pi.Metadata[MetaAmount], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return errIncompleteMetadata
	}
	if wh.Donations == nil {
		return errors.New("donation service not configured")
	}

	res, err := wh.Donations.RecordPaidDonation(ctx, donationsvc.PaidDonationInput{
		ProjectID:       projectID,
		DonorID:         donorID,
		Amount:          amount,
		PaymentIntentID: pi.ID,
		EventID:         eventID,
		AmountCents:     pi.AmountReceived,
		Currency:        string(pi.Currency),
		Status:          string(pi.Status),
		RawPayload:      raw,
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("payment_intent_id", pi.ID).
		Str("project_id", projectID.String()).
		Float64("new_total", res.NewTotal).
		Bool("replayed", res.Replayed).
		Msg("Stripe donation recorded")
	return nil
}

// Package payment adapts external card processors to the billing domain's
// PaymentGateway port.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeGateway implements billing.PaymentGateway against the Stripe API
type StripeGateway struct {
	cfg    config.StripeConfig
	logger *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway and initializes the client
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe: webhook secret is required")
	}
	stripe.Key = cfg.SecretKey

	return &StripeGateway{cfg: cfg, logger: logger}, nil
}

// CreateIntent registers a charge for the invoice amount with Stripe.
// The invoice ID travels in the intent metadata so the webhook can route
// the confirmation back.
func (g *StripeGateway) CreateIntent(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, description string) (*billing.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toMinorUnits(amount)),
		Currency:    stripe.String(g.cfg.Currency),
		Description: stripe.String(description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Metadata = map[string]string{
		"invoice_id": invoiceID.String(),
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe payment intent",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	g.logger.Info("Created Stripe payment intent",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("intent_id", intent.ID))

	return &billing.PaymentIntent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// VerifyCallback authenticates a webhook payload and extracts the payment
// confirmation. Event types other than payment intent outcomes yield
// nil/nil and are acknowledged without action.
func (g *StripeGateway) VerifyCallback(ctx context.Context, payload []byte, signature string) (*billing.PaymentConfirmation, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.cfg.WebhookSecret)
	if err != nil {
		g.logger.Error("Failed to verify webhook signature", zap.Error(err))
		return nil, fmt.Errorf("stripe: webhook signature verification failed: %w", err)
	}

	var succeeded bool
	switch event.Type {
	case "payment_intent.succeeded":
		succeeded = true
	case "payment_intent.payment_failed":
		succeeded = false
	default:
		g.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		return nil, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("stripe: failed to unmarshal payment intent: %w", err)
	}

	invoiceID, err := uuid.Parse(intent.Metadata["invoice_id"])
	if err != nil {
		// Intent created outside this system; acknowledge and skip.
		g.logger.Warn("Payment intent carries no invoice reference",
			zap.String("intent_id", intent.ID))
		return nil, nil
	}

	method := ""
	if intent.PaymentMethod != nil {
		method = string(intent.PaymentMethod.Type)
	}

	return &billing.PaymentConfirmation{
		InvoiceID:     invoiceID,
		IntentID:      intent.ID,
		PaymentMethod: method,
		Succeeded:     succeeded,
	}, nil
}

// toMinorUnits converts a decimal amount to the processor's integer minor
// units (cents).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var _ billing.PaymentGateway = (*StripeGateway)(nil)

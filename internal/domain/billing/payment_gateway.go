package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentIntent is the processor-side handle for a card charge. The client
// secret is handed to the homeowner's browser; the intent ID is what the
// processor echoes back on confirmation.
type PaymentIntent struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

// PaymentConfirmation is the processor's verified callback payload
type PaymentConfirmation struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	IntentID      string    `json:"intent_id"`
	PaymentMethod string    `json:"payment_method"`
	Succeeded     bool      `json:"succeeded"`
}

// PaymentGateway abstracts the external card processor. The core never
// talks to the card network; it only creates intents and consumes verified
// confirmations.
type PaymentGateway interface {
	// CreateIntent registers a charge for the invoice amount with the
	// processor and returns the client-usable handle
	CreateIntent(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, description string) (*PaymentIntent, error)
	// VerifyCallback authenticates a raw webhook payload and extracts the
	// confirmation it carries. A nil confirmation with nil error means the
	// event type is not payment-related and should be ignored.
	VerifyCallback(ctx context.Context, payload []byte, signature string) (*PaymentConfirmation, error)
}

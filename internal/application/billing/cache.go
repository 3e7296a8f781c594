package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
)

// SummaryCache is the optional read-through cache in front of the payment
// summary aggregation. Implementations must treat every operation as best
// effort; a cache failure never fails the request.
type SummaryCache interface {
	// Get returns the cached summary for a project, or false on miss
	Get(ctx context.Context, projectID uuid.UUID) (*billing.PaymentSummary, bool)
	// Set stores the summary for a project
	Set(ctx context.Context, projectID uuid.UUID, summary billing.PaymentSummary)
	// Invalidate drops the cached summary for a project
	Invalidate(ctx context.Context, projectID uuid.UUID)
}

package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestInvoice(t *testing.T) *Invoice {
	project := createTestProjectWithMilestones(t, 50)
	m := &project.Milestones[0]
	require.NoError(t, m.Start())
	require.NoError(t, m.Complete(time.Now()))

	inv, err := NewInvoiceForMilestone(project, m, "INV-TEST-001-000001")
	require.NoError(t, err)
	return inv
}

func createTestInvoiceWithStatus(t *testing.T, status InvoiceStatus) *Invoice {
	inv := createTestInvoice(t)
	inv.Status = status
	return inv
}

// ============================================
// InvoiceStatus Tests
// ============================================

func TestInvoiceStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  InvoiceStatus
		isValid bool
	}{
		{InvoiceStatusDraft, true},
		{InvoiceStatusSent, true},
		{InvoiceStatusViewed, true},
		{InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, true},
		{InvoiceStatusCancelled, true},
		{InvoiceStatus("REFUNDED"), false},
		{InvoiceStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestInvoiceStatus_IsTerminal(t *testing.T) {
	assert.True(t, InvoiceStatusPaid.IsTerminal())
	assert.True(t, InvoiceStatusCancelled.IsTerminal())
	assert.False(t, InvoiceStatusDraft.IsTerminal())
	assert.False(t, InvoiceStatusSent.IsTerminal())
	assert.False(t, InvoiceStatusViewed.IsTerminal())
	assert.False(t, InvoiceStatusOverdue.IsTerminal())
}

func TestInvoiceStatus_IsOutstanding(t *testing.T) {
	assert.True(t, InvoiceStatusSent.IsOutstanding())
	assert.True(t, InvoiceStatusOverdue.IsOutstanding())
	assert.False(t, InvoiceStatusDraft.IsOutstanding())
	assert.False(t, InvoiceStatusViewed.IsOutstanding())
	assert.False(t, InvoiceStatusPaid.IsOutstanding())
	assert.False(t, InvoiceStatusCancelled.IsOutstanding())
}

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		// Forward moves
		{InvoiceStatusDraft, InvoiceStatusSent, true},
		{InvoiceStatusDraft, InvoiceStatusViewed, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, true},
		{InvoiceStatusSent, InvoiceStatusViewed, true},
		{InvoiceStatusSent, InvoiceStatusPaid, true},
		{InvoiceStatusViewed, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusViewed, true},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},

		// SENT/OVERDUE correction pair flips both ways
		{InvoiceStatusSent, InvoiceStatusOverdue, true},
		{InvoiceStatusOverdue, InvoiceStatusSent, true},

		// Backward moves are rejected
		{InvoiceStatusSent, InvoiceStatusDraft, false},
		{InvoiceStatusViewed, InvoiceStatusSent, false},
		{InvoiceStatusViewed, InvoiceStatusOverdue, false},
		{InvoiceStatusViewed, InvoiceStatusDraft, false},

		// Same-status moves are rejected
		{InvoiceStatusDraft, InvoiceStatusDraft, false},
		{InvoiceStatusSent, InvoiceStatusSent, false},
		{InvoiceStatusViewed, InvoiceStatusViewed, false},

		// Cancellation from any non-terminal state
		{InvoiceStatusDraft, InvoiceStatusCancelled, true},
		{InvoiceStatusSent, InvoiceStatusCancelled, true},
		{InvoiceStatusViewed, InvoiceStatusCancelled, true},
		{InvoiceStatusOverdue, InvoiceStatusCancelled, true},

		// Terminal states allow nothing
		{InvoiceStatusPaid, InvoiceStatusSent, false},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusCancelled, InvoiceStatusSent, false},
		{InvoiceStatusCancelled, InvoiceStatusPaid, false},

		// Unknown target
		{InvoiceStatusSent, InvoiceStatus("REFUNDED"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// Invoice Creation Tests
// ============================================

func TestNewInvoiceForMilestone(t *testing.T) {
	project := createTestProjectWithMilestones(t, 50)
	m := &project.Milestones[0]
	require.NoError(t, m.Start())
	require.NoError(t, m.Complete(time.Now()))

	inv, err := NewInvoiceForMilestone(project, m, "INV-TEST-001-000001")
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusSent, inv.Status, "invoices are issued directly as SENT")
	assert.Equal(t, project.ID, inv.ProjectID)
	assert.Equal(t, m.ID, inv.MilestoneID)
	assert.Equal(t, project.HomeownerID, inv.HomeownerID)
	assert.Equal(t, project.ContractorID, inv.ContractorID)
	assert.True(t, inv.Amount.Equal(m.AmountDue))
	assert.Equal(t, 50, inv.Percentage)
	assert.Nil(t, inv.PaidAt)

	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoiceIssued, inv.GetDomainEvents()[0].EventType())
}

func TestNewInvoiceForMilestone_RequiresCompletedMilestone(t *testing.T) {
	project := createTestProjectWithMilestones(t, 50)
	m := &project.Milestones[0]

	_, err := NewInvoiceForMilestone(project, m, "INV-TEST-001-000001")
	assert.Error(t, err)

	require.NoError(t, m.Start())
	_, err = NewInvoiceForMilestone(project, m, "INV-TEST-001-000001")
	assert.Error(t, err)
}

func TestNewInvoiceForMilestone_RejectsForeignMilestone(t *testing.T) {
	project := createTestProjectWithMilestones(t, 50)
	other := createTestProjectWithMilestones(t, 50)
	m := &other.Milestones[0]
	require.NoError(t, m.Start())
	require.NoError(t, m.Complete(time.Now()))

	_, err := NewInvoiceForMilestone(project, m, "INV-TEST-001-000001")
	assert.Error(t, err)
}

func TestNewInvoiceForMilestone_EmptyNumber(t *testing.T) {
	project := createTestProjectWithMilestones(t, 50)
	m := &project.Milestones[0]
	require.NoError(t, m.Start())
	require.NoError(t, m.Complete(time.Now()))

	_, err := NewInvoiceForMilestone(project, m, "")
	assert.Error(t, err)
}

// ============================================
// Invoice Lifecycle Tests
// ============================================

func TestInvoice_MarkPaid(t *testing.T) {
	inv := createTestInvoice(t)
	inv.ClearDomainEvents()

	meta := PaymentMetadata{PaymentIntentID: "pi_123", PaymentMethod: "card"}
	require.NoError(t, inv.MarkPaid(meta))

	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, "pi_123", inv.PaymentIntentID)
	assert.Equal(t, "card", inv.PaymentMethod)

	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoicePaid, inv.GetDomainEvents()[0].EventType())

	// Paying twice is rejected
	assert.Error(t, inv.MarkPaid(meta))
}

func TestInvoice_MarkPaid_FromCancelled(t *testing.T) {
	inv := createTestInvoiceWithStatus(t, InvoiceStatusCancelled)
	assert.Error(t, inv.MarkPaid(PaymentMetadata{}))
}

func TestInvoice_TransitionTo(t *testing.T) {
	inv := createTestInvoice(t)

	require.NoError(t, inv.TransitionTo(InvoiceStatusViewed, nil))
	assert.Equal(t, InvoiceStatusViewed, inv.Status)

	// VIEWED cannot fall back to SENT
	assert.Error(t, inv.TransitionTo(InvoiceStatusSent, nil))
}

func TestInvoice_TransitionTo_PaidDelegatesToMarkPaid(t *testing.T) {
	inv := createTestInvoice(t)
	meta := &PaymentMetadata{PaymentIntentID: "pi_456", PaymentMethod: "us_bank_account"}

	require.NoError(t, inv.TransitionTo(InvoiceStatusPaid, meta))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.NotNil(t, inv.PaidAt)
	assert.Equal(t, "pi_456", inv.PaymentIntentID)
}

func TestInvoice_TransitionTo_PaidWithoutMetadata(t *testing.T) {
	inv := createTestInvoice(t)

	require.NoError(t, inv.TransitionTo(InvoiceStatusPaid, nil))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.NotNil(t, inv.PaidAt)
	assert.Empty(t, inv.PaymentIntentID)
}

func TestInvoice_TransitionTo_Cancel(t *testing.T) {
	inv := createTestInvoice(t)
	inv.ClearDomainEvents()

	require.NoError(t, inv.TransitionTo(InvoiceStatusCancelled, nil))
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)

	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoiceCancelled, inv.GetDomainEvents()[0].EventType())
}

func TestInvoice_TransitionTo_OverdueAndBack(t *testing.T) {
	inv := createTestInvoice(t)

	require.NoError(t, inv.TransitionTo(InvoiceStatusOverdue, nil))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	require.NoError(t, inv.TransitionTo(InvoiceStatusSent, nil))
	assert.Equal(t, InvoiceStatusSent, inv.Status)
}

// ============================================
// Overdue Detection Tests
// ============================================

func TestInvoice_IsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	inv := createTestInvoice(t)
	assert.False(t, inv.IsOverdue(now), "no due date means never overdue")

	inv.DueDate = &future
	assert.False(t, inv.IsOverdue(now))

	inv.DueDate = &past
	assert.True(t, inv.IsOverdue(now))

	// Terminal and pre-delivery states are never overdue
	inv.Status = InvoiceStatusPaid
	assert.False(t, inv.IsOverdue(now))
	inv.Status = InvoiceStatusDraft
	assert.False(t, inv.IsOverdue(now))
	inv.Status = InvoiceStatusViewed
	assert.False(t, inv.IsOverdue(now))

	inv.Status = InvoiceStatusOverdue
	assert.True(t, inv.IsOverdue(now))
}

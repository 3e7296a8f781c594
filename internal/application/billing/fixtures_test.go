package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/infrastructure/persistence/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against in-memory repositories
type testEnv struct {
	projectRepo *memory.ProjectRepository
	invoiceRepo *memory.InvoiceRepository
	projectSvc  *ProjectService
	invoiceSvc  *InvoiceService
	progressSvc *ProgressService
	paymentSvc  *PaymentService
	summarySvc  *SummaryService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, nil, nil)
}

func newTestEnvWith(t *testing.T, gateway billing.PaymentGateway, cache SummaryCache) *testEnv {
	t.Helper()
	projectRepo := memory.NewProjectRepository()
	invoiceRepo := memory.NewInvoiceRepository()

	invoiceSvc := NewInvoiceService(InvoiceServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceRepo: invoiceRepo,
		Cache:       cache,
	})
	return &testEnv{
		projectRepo: projectRepo,
		invoiceRepo: invoiceRepo,
		projectSvc: NewProjectService(ProjectServiceConfig{
			ProjectRepo: projectRepo,
		}),
		invoiceSvc: invoiceSvc,
		progressSvc: NewProgressService(ProgressServiceConfig{
			ProjectRepo: projectRepo,
			InvoiceSvc:  invoiceSvc,
		}),
		paymentSvc: NewPaymentService(PaymentServiceConfig{
			ProjectRepo: projectRepo,
			InvoiceRepo: invoiceRepo,
			Gateway:     gateway,
			Cache:       cache,
		}),
		summarySvc: NewSummaryService(SummaryServiceConfig{
			ProjectRepo: projectRepo,
			InvoiceRepo: invoiceRepo,
			Cache:       cache,
		}),
	}
}

// createProjectWithSchedule sets up a 100k project with milestones at the
// given percentage thresholds, amounts derived from the budget share.
// Every milestone is marked started so progress reports can complete it.
func (e *testEnv) createProjectWithSchedule(t *testing.T, percentages ...int) *billing.Project {
	t.Helper()
	project := e.createProjectWithPendingSchedule(t, percentages...)
	for i := range project.Milestones {
		_, err := e.progressSvc.StartMilestone(context.Background(), project.ID, project.Milestones[i].ID)
		require.NoError(t, err)
	}
	stored, err := e.projectRepo.FindByID(context.Background(), project.ID)
	require.NoError(t, err)
	return stored
}

// createProjectWithPendingSchedule is createProjectWithSchedule without the
// milestone starts, for tests that exercise never-started work.
func (e *testEnv) createProjectWithPendingSchedule(t *testing.T, percentages ...int) *billing.Project {
	t.Helper()
	inputs := make([]MilestoneInput, 0, len(percentages))
	for _, pct := range percentages {
		inputs = append(inputs, MilestoneInput{Percentage: pct, Description: "Phase"})
	}
	project, err := e.projectSvc.CreateProject(context.Background(),
		"Bathroom Remodel", "7 Pine Ave", uuid.New(), uuid.New(),
		decimal.NewFromInt(100000), inputs)
	require.NoError(t, err)
	return project
}

// fakeGateway is a scriptable billing.PaymentGateway
type fakeGateway struct {
	mu           sync.Mutex
	intents      []string
	confirmation *billing.PaymentConfirmation
	verifyErr    error
}

func (g *fakeGateway) CreateIntent(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, description string) (*billing.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "pi_fake_" + invoiceID.String()[:8]
	g.intents = append(g.intents, id)
	return &billing.PaymentIntent{IntentID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) VerifyCallback(ctx context.Context, payload []byte, signature string) (*billing.PaymentConfirmation, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.confirmation, nil
}

// fakeCache is an in-memory SummaryCache that records its calls
type fakeCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]billing.PaymentSummary
	hits        int
	misses      int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID]billing.PaymentSummary)}
}

func (c *fakeCache) Get(ctx context.Context, projectID uuid.UUID) (*billing.PaymentSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[projectID]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return &s, true
}

func (c *fakeCache) Set(ctx context.Context, projectID uuid.UUID, summary billing.PaymentSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[projectID] = summary
}

func (c *fakeCache) Invalidate(ctx context.Context, projectID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, projectID)
	c.invalidated++
}

// completeMilestoneAt drives a project to the given progress so the milestone
// at that threshold gets invoiced, and returns the generated invoice.
func (e *testEnv) invoiceAtProgress(t *testing.T, projectID uuid.UUID, progress int) *billing.Invoice {
	t.Helper()
	result, err := e.progressSvc.ProcessProgressUpdate(context.Background(), projectID, progress)
	require.NoError(t, err)
	require.NotEmpty(t, result.NewInvoices)
	return &result.NewInvoices[len(result.NewInvoices)-1]
}

func dueIn(days int) *time.Time {
	d := time.Now().AddDate(0, 0, days)
	return &d
}

package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/renovate/backend/internal/application/billing"
	"github.com/renovate/backend/internal/infrastructure/persistence/memory"
	"github.com/renovate/backend/internal/interfaces/http/dto"
	"github.com/renovate/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBillingServer wires the billing API against in-memory repositories
func setupBillingServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, dto.RegisterValidations())

	projectRepo := memory.NewProjectRepository()
	invoiceRepo := memory.NewInvoiceRepository()

	projectSvc := billingapp.NewProjectService(billingapp.ProjectServiceConfig{ProjectRepo: projectRepo})
	invoiceSvc := billingapp.NewInvoiceService(billingapp.InvoiceServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceRepo: invoiceRepo,
	})
	progressSvc := billingapp.NewProgressService(billingapp.ProgressServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceSvc:  invoiceSvc,
	})
	paymentSvc := billingapp.NewPaymentService(billingapp.PaymentServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceRepo: invoiceRepo,
	})
	summarySvc := billingapp.NewSummaryService(billingapp.SummaryServiceConfig{
		ProjectRepo: projectRepo,
		InvoiceRepo: invoiceRepo,
	})

	engine := gin.New()
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(NewBillingHandler(projectSvc, progressSvc, invoiceSvc, paymentSvc, summarySvc))
	r.Setup()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func createProjectViaAPI(t *testing.T, engine *gin.Engine, percentages ...int) string {
	t.Helper()
	milestones := make([]map[string]any, 0, len(percentages))
	for _, pct := range percentages {
		milestones = append(milestones, map[string]any{"percentage": pct, "description": "Phase"})
	}
	w := doJSON(t, engine, http.MethodPost, "/api/v1/billing/projects", map[string]any{
		"name":          "Garage Conversion",
		"address":       "19 Birch Rd",
		"homeowner_id":  uuid.NewString(),
		"contractor_id": uuid.NewString(),
		"total_budget":  "100000",
		"milestones":    milestones,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	return data["id"].(string)
}

// startMilestonesViaAPI marks every milestone of the project started so a
// progress report can complete it
func startMilestonesViaAPI(t *testing.T, engine *gin.Engine, projectID string) {
	t.Helper()
	w := doJSON(t, engine, http.MethodGet, "/api/v1/billing/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	for _, m := range data["milestones"].([]any) {
		milestoneID := m.(map[string]any)["id"].(string)
		w := doJSON(t, engine, http.MethodPost,
			fmt.Sprintf("/api/v1/billing/projects/%s/milestones/%s/start", projectID, milestoneID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
}

// ============================================
// Project Endpoint Tests
// ============================================

func TestCreateProjectEndpoint(t *testing.T) {
	engine := setupBillingServer(t)

	projectID := createProjectViaAPI(t, engine, 50, 100)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/billing/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "Garage Conversion", data["name"])
	assert.Len(t, data["milestones"], 2)
}

func TestCreateProjectEndpoint_ValidationFailure(t *testing.T) {
	engine := setupBillingServer(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/billing/projects", map[string]any{
		"address": "no name or parties",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, false, envelope["success"])
}

func TestGetProjectEndpoint_NotFound(t *testing.T) {
	engine := setupBillingServer(t)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/billing/projects/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProjectEndpoint_BadUUID(t *testing.T) {
	engine := setupBillingServer(t)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/billing/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListContractorProjectsEndpoint(t *testing.T) {
	engine := setupBillingServer(t)
	contractorID := uuid.NewString()

	for i := 0; i < 2; i++ {
		w := doJSON(t, engine, http.MethodPost, "/api/v1/billing/projects", map[string]any{
			"name":          "Garage Conversion",
			"address":       "19 Birch Rd",
			"homeowner_id":  uuid.NewString(),
			"contractor_id": contractorID,
			"total_budget":  "100000",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	createProjectViaAPI(t, engine, 50)

	w := doJSON(t, engine, http.MethodGet,
		fmt.Sprintf("/api/v1/billing/contractors/%s/projects", contractorID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.Len(t, envelope["data"], 2)

	// An unknown homeowner has an empty dashboard, not an error
	w = doJSON(t, engine, http.MethodGet,
		fmt.Sprintf("/api/v1/billing/homeowners/%s/projects", uuid.NewString()), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeEnvelope(t, w)["data"], 0)
}

// ============================================
// Progress Endpoint Tests
// ============================================

func TestUpdateProgressEndpoint(t *testing.T) {
	engine := setupBillingServer(t)
	projectID := createProjectViaAPI(t, engine, 25, 50, 75)
	startMilestonesViaAPI(t, engine, projectID)

	w := doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/billing/projects/%s/progress", projectID),
		map[string]any{"progress": 60})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Len(t, data["new_invoices"], 2)
	assert.Equal(t, float64(0), data["previous_progress"])
}

func TestUpdateProgressEndpoint_SkipsNeverStartedMilestones(t *testing.T) {
	engine := setupBillingServer(t)
	projectID := createProjectViaAPI(t, engine, 50)

	w := doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/billing/projects/%s/progress", projectID),
		map[string]any{"progress": 60})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Len(t, data["new_invoices"], 0)

	milestones := data["project"].(map[string]any)["milestones"].([]any)
	assert.Equal(t, "PENDING", milestones[0].(map[string]any)["status"])
}

func TestUpdateProgressEndpoint_RejectsOutOfRange(t *testing.T) {
	engine := setupBillingServer(t)
	projectID := createProjectViaAPI(t, engine, 50)

	w := doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/billing/projects/%s/progress", projectID),
		map[string]any{"progress": 150})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================
// Invoice Endpoint Tests
// ============================================

func TestInvoiceLifecycleOverAPI(t *testing.T) {
	engine := setupBillingServer(t)
	projectID := createProjectViaAPI(t, engine, 50)
	startMilestonesViaAPI(t, engine, projectID)

	w := doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/billing/projects/%s/progress", projectID),
		map[string]any{"progress": 50})
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	invoices := envelope["data"].(map[string]any)["new_invoices"].([]any)
	require.Len(t, invoices, 1)
	invoiceID := invoices[0].(map[string]any)["id"].(string)
	assert.Equal(t, "SENT", invoices[0].(map[string]any)["status"])

	// Homeowner opens the invoice
	w = doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/billing/invoices/%s/status", invoiceID),
		map[string]any{"status": "VIEWED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Payment settles it
	w = doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/billing/invoices/%s/status", invoiceID),
		map[string]any{"status": "PAID", "payment_intent_id": "pi_123", "payment_method": "card"})
	require.Equal(t, http.StatusOK, w.Code)

	envelope = decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "PAID", data["status"])
	assert.Equal(t, "pi_123", data["payment_intent_id"])

	// Backward move after settlement is a 422
	w = doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/billing/invoices/%s/status", invoiceID),
		map[string]any{"status": "SENT"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateInvoiceStatusEndpoint_UnknownInvoice(t *testing.T) {
	engine := setupBillingServer(t)

	w := doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/billing/invoices/%s/status", uuid.NewString()),
		map[string]any{"status": "VIEWED"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateInvoiceStatusEndpoint_UnknownStatus(t *testing.T) {
	engine := setupBillingServer(t)

	w := doJSON(t, engine, http.MethodPut,
		fmt.Sprintf("/api/v1/billing/invoices/%s/status", uuid.NewString()),
		map[string]any{"status": "REFUNDED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePaymentIntentEndpoint_PaymentsDisabled(t *testing.T) {
	engine := setupBillingServer(t)
	projectID := createProjectViaAPI(t, engine, 50)
	startMilestonesViaAPI(t, engine, projectID)

	w := doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/billing/projects/%s/progress", projectID),
		map[string]any{"progress": 50})
	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	invoices := envelope["data"].(map[string]any)["new_invoices"].([]any)
	require.NotEmpty(t, invoices)
	invoiceID := invoices[0].(map[string]any)["id"].(string)

	// No gateway is configured in this harness
	w = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/billing/invoices/%s/payment-intent", invoiceID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ============================================
// Summary Endpoint Tests
// ============================================

func TestPaymentSummaryEndpoint(t *testing.T) {
	engine := setupBillingServer(t)
	projectID := createProjectViaAPI(t, engine, 50)
	startMilestonesViaAPI(t, engine, projectID)

	w := doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/billing/projects/%s/progress", projectID),
		map[string]any{"progress": 50})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet,
		fmt.Sprintf("/api/v1/billing/projects/%s/payment-summary", projectID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "50000", data["total_pending"])
	assert.Equal(t, "0", data["total_paid"])
	assert.Equal(t, float64(1), data["pending_invoice_count"])
}

func TestPaymentSummaryEndpoint_UnknownProjectYieldsZeroes(t *testing.T) {
	engine := setupBillingServer(t)

	w := doJSON(t, engine, http.MethodGet,
		fmt.Sprintf("/api/v1/billing/projects/%s/payment-summary", uuid.NewString()), nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "0", data["total_invoiced"])
	assert.Len(t, data["invoices"], 0)
}

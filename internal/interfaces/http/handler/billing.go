package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/renovate/backend/internal/application/billing"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/interfaces/http/dto"
)

// BillingHandler exposes the project, progress and invoicing endpoints
type BillingHandler struct {
	BaseHandler
	projectSvc  *billingapp.ProjectService
	progressSvc *billingapp.ProgressService
	invoiceSvc  *billingapp.InvoiceService
	paymentSvc  *billingapp.PaymentService
	summarySvc  *billingapp.SummaryService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(
	projectSvc *billingapp.ProjectService,
	progressSvc *billingapp.ProgressService,
	invoiceSvc *billingapp.InvoiceService,
	paymentSvc *billingapp.PaymentService,
	summarySvc *billingapp.SummaryService,
) *BillingHandler {
	return &BillingHandler{
		projectSvc:  projectSvc,
		progressSvc: progressSvc,
		invoiceSvc:  invoiceSvc,
		paymentSvc:  paymentSvc,
		summarySvc:  summarySvc,
	}
}

// RegisterRoutes registers all billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/billing/projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("/:id", h.GetProject)
		projects.POST("/:id/progress", h.UpdateProgress)
		projects.POST("/:id/milestones/:milestoneId/start", h.StartMilestone)
		projects.GET("/:id/invoices", h.ListInvoices)
		projects.GET("/:id/payment-summary", h.GetPaymentSummary)
	}
	invoices := rg.Group("/billing/invoices")
	{
		invoices.PUT("/:id/status", h.UpdateInvoiceStatus)
		invoices.POST("/:id/payment-intent", h.CreatePaymentIntent)
	}
	rg.GET("/billing/contractors/:id/projects", h.ListContractorProjects)
	rg.GET("/billing/homeowners/:id/projects", h.ListHomeownerProjects)
}

// CreateProject sets up a new renovation project with its milestone schedule
func (h *BillingHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	homeownerID, err := uuid.Parse(req.HomeownerID)
	if err != nil {
		h.BadRequest(c, "invalid homeowner_id")
		return
	}
	contractorID, err := uuid.Parse(req.ContractorID)
	if err != nil {
		h.BadRequest(c, "invalid contractor_id")
		return
	}

	milestones := make([]billingapp.MilestoneInput, len(req.Milestones))
	for i, m := range req.Milestones {
		milestones[i] = billingapp.MilestoneInput{
			Percentage:  m.Percentage,
			Description: m.Description,
			AmountDue:   m.AmountDue,
			DueInDays:   m.DueInDays,
		}
	}

	project, err := h.projectSvc.CreateProject(c.Request.Context(), req.Name, req.Address, homeownerID, contractorID, req.TotalBudget, milestones)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToProjectResponse(project))
}

// GetProject returns a project with its milestone schedule
func (h *BillingHandler) GetProject(c *gin.Context) {
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectSvc.GetProject(c.Request.Context(), projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToProjectResponse(project))
}

// UpdateProgress records a contractor progress report and returns any
// invoices generated for newly crossed milestones
func (h *BillingHandler) UpdateProgress(c *gin.Context) {
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.progressSvc.ProcessProgressUpdate(c.Request.Context(), projectID, req.Progress)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ProgressUpdateResponse{
		Project:          dto.ToProjectResponse(result.Project),
		PreviousProgress: result.PreviousProgress,
		NewInvoices:      dto.ToInvoiceResponses(result.NewInvoices),
	})
}

// StartMilestone moves a pending milestone into IN_PROGRESS
func (h *BillingHandler) StartMilestone(c *gin.Context) {
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := h.pathUUID(c, "milestoneId")
	if !ok {
		return
	}

	m, err := h.progressSvc.StartMilestone(c.Request.Context(), projectID, milestoneID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToMilestoneResponse(m))
}

// ListContractorProjects lists the projects a contractor is working on
func (h *BillingHandler) ListContractorProjects(c *gin.Context) {
	contractorID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	projects, err := h.projectSvc.ListByContractor(c.Request.Context(), contractorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToProjectResponses(projects))
}

// ListHomeownerProjects lists the projects a homeowner has commissioned
func (h *BillingHandler) ListHomeownerProjects(c *gin.Context) {
	homeownerID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	projects, err := h.projectSvc.ListByHomeowner(c.Request.Context(), homeownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToProjectResponses(projects))
}

// ListInvoices lists a project's invoices in issue order
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	invoices, err := h.invoiceSvc.GetProjectInvoices(c.Request.Context(), projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToInvoiceResponses(invoices))
}

// GetPaymentSummary returns the aggregated payment view for a project
func (h *BillingHandler) GetPaymentSummary(c *gin.Context) {
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	summary, err := h.summarySvc.GetPaymentSummary(c.Request.Context(), projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToPaymentSummaryResponse(&summary))
}

// UpdateInvoiceStatus transitions an invoice to a new lifecycle status
func (h *BillingHandler) UpdateInvoiceStatus(c *gin.Context) {
	invoiceID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var meta *billing.PaymentMetadata
	if req.PaymentIntentID != "" || req.PaymentMethod != "" {
		meta = &billing.PaymentMetadata{
			PaymentIntentID: req.PaymentIntentID,
			PaymentMethod:   req.PaymentMethod,
		}
	}

	inv, err := h.paymentSvc.UpdateInvoiceStatus(c.Request.Context(), invoiceID, billing.InvoiceStatus(req.Status), meta)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToInvoiceResponse(inv))
}

// CreatePaymentIntent registers a charge for an invoice with the card
// processor
func (h *BillingHandler) CreatePaymentIntent(c *gin.Context) {
	invoiceID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	intent, err := h.paymentSvc.CreatePaymentIntent(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.PaymentIntentResponse{
		IntentID:     intent.IntentID,
		ClientSecret: intent.ClientSecret,
	})
}

func (h *BillingHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "invalid "+name+" path parameter")
		return uuid.Nil, false
	}
	return id, true
}

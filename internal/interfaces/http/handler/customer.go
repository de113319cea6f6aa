package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/supportdesk/backend/internal/application/resolution"
	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/infrastructure/telemetry"
	"github.com/supportdesk/backend/internal/interfaces/http/middleware"
)

// CustomerHandler handles customer resolution HTTP requests
type CustomerHandler struct {
	BaseHandler
	resolver      *resolution.Resolver
	importService *resolution.ImportService
	metrics       *telemetry.ResolutionMetrics
}

// NewCustomerHandler creates a new customer handler. Metrics may be nil.
func NewCustomerHandler(resolver *resolution.Resolver, importService *resolution.ImportService, metrics *telemetry.ResolutionMetrics) *CustomerHandler {
	return &CustomerHandler{
		resolver:      resolver,
		importService: importService,
		metrics:       metrics,
	}
}

// SignalRequest is one identity signal in a resolve or import request
type SignalRequest struct {
	Email      string            `json:"email" binding:"omitempty,max=255"`
	Phone      string            `json:"phone" binding:"omitempty,max=50"`
	Provider   string            `json:"provider" binding:"omitempty,max=100"`
	ExternalID string            `json:"external_id" binding:"omitempty,max=255"`
	FirstName  string            `json:"first_name" binding:"omitempty,max=100"`
	LastName   string            `json:"last_name" binding:"omitempty,max=100"`
	Company    string            `json:"company" binding:"omitempty,max=200"`
	Metadata   map[string]string `json:"metadata"`
	Source     string            `json:"source" binding:"omitempty,oneof=ticket email quote_form phone import"`
}

func (r SignalRequest) toSignal() crm.Signal {
	return crm.Signal{
		Email:      r.Email,
		Phone:      r.Phone,
		Provider:   r.Provider,
		ExternalID: r.ExternalID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Company:    r.Company,
		Metadata:   r.Metadata,
		Source:     crm.SignalSource(r.Source),
	}
}

// ImportRequest is the batch import payload
type ImportRequest struct {
	Records []SignalRequest `json:"records" binding:"required,min=1,max=1000,dive"`
	DryRun  bool            `json:"dry_run"`
}

// Resolve resolves a single identity signal synchronously and returns the
// canonical customer it converged on.
func (h *CustomerHandler) Resolve(c *gin.Context) {
	var req SignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	res, err := h.resolver.ResolveOne(c.Request.Context(), req.toSignal())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, res)
}

// Import resolves a bounded batch of records in one call. With dry_run set,
// no writes are performed and the report carries predicted actions.
func (h *CustomerHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	signals := make([]crm.Signal, len(req.Records))
	for i, rec := range req.Records {
		sig := rec.toSignal()
		if sig.Source == "" {
			sig.Source = crm.SignalSourceImport
		}
		signals[i] = sig
	}

	report, err := h.importService.ImportBatch(c.Request.Context(), signals, req.DryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.BatchObserved(c.Request.Context(), report.Total, report.DryRun)
	}
	h.Success(c, report)
}

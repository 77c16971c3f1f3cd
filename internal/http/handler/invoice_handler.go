package handler

import (
	"net/http"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/export"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService *service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// List godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param paymentStatus query string false "Filter by payment status" Enums(Unpaid, Paid, Overdue)
// @Param clientId query string false "Filter by saved client"
// @Param search query string false "Search invoice number or client name"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.InvoiceDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.InvoiceFilters{
		Search: r.URL.Query().Get("search"),
	}
	if status := r.URL.Query().Get("paymentStatus"); status != "" {
		s := domain.PaymentStatus(status)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid paymentStatus: must be one of Unpaid, Paid, Overdue")
			return
		}
		filters.PaymentStatus = &s
	}
	clientID, ok := parseUUIDQuery(w, r, "clientId")
	if !ok {
		return
	}
	filters.ClientID = clientID

	result, err := h.invoiceService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		handleServiceError(w, h.logger, err, "list invoices")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get invoice")
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// Update godoc
// @Summary Update invoice
// @Description Changes discount, bank details, notes or due date. Moving the due date of an overdue invoice past today makes it Unpaid again.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body domain.UpdateInvoiceRequest true "Fields to change"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateInvoiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update invoice")
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// Delete godoc
// @Summary Delete invoice
// @Description Deletes the invoice and returns its quotation to Accepted so it can be invoiced again
// @Tags Invoices
// @Param id path string true "Invoice ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete invoice")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkPaid godoc
// @Summary Mark invoice paid
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body domain.MarkInvoicePaidRequest false "Payment date (defaults to now)"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Already paid"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.MarkInvoicePaidRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(r.Context(), id, req.PaidAt)
	if err != nil {
		handleServiceError(w, h.logger, err, "mark invoice paid")
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// GetTotals godoc
// @Summary Get invoice totals
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} domain.Totals
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/totals [get]
func (h *InvoiceHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	totals, err := h.invoiceService.GetTotals(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get invoice totals")
		return
	}

	respondJSON(w, http.StatusOK, totals)
}

// Export godoc
// @Summary Export invoice
// @Tags Invoices
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Invoice ID"
// @Param format query string false "File format" Enums(csv, xlsx) default(csv)
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/export [get]
func (h *InvoiceHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	invoice, settings, err := h.invoiceService.GetModel(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "export invoice")
		return
	}

	respondExport(w, r, h.logger, export.FromInvoice(invoice, settings))
}

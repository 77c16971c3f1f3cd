package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// List godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param from query string false "Earliest date (YYYY-MM-DD)"
// @Param to query string false "Latest date (YYYY-MM-DD), inclusive"
// @Param category query string false "Filter by category"
// @Param quotationId query string false "Filter by job"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ExpenseDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses [get]
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.ExpenseFilters{
		Category: r.URL.Query().Get("category"),
	}
	from, ok := parseDateQuery(w, r, "from")
	if !ok {
		return
	}
	filters.From = from
	to, ok := parseDateQuery(w, r, "to")
	if !ok {
		return
	}
	if to != nil {
		// the repository bound is exclusive
		next := to.AddDate(0, 0, 1)
		filters.To = &next
	}
	quotationID, ok := parseUUIDQuery(w, r, "quotationId")
	if !ok {
		return
	}
	filters.QuotationID = quotationID

	result, err := h.expenseService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		handleServiceError(w, h.logger, err, "list expenses")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Record expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body domain.CreateExpenseRequest true "Expense data"
// @Success 201 {object} domain.ExpenseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Quotation not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses [post]
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	expense, err := h.expenseService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create expense")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/expenses/%s", expense.ID))
	respondJSON(w, http.StatusCreated, expense)
}

// GetByID godoc
// @Summary Get expense
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} domain.ExpenseDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	expense, err := h.expenseService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get expense")
		return
	}

	respondJSON(w, http.StatusOK, expense)
}

// Update godoc
// @Summary Update expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param request body domain.UpdateExpenseRequest true "Expense data"
// @Success 200 {object} domain.ExpenseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	expense, err := h.expenseService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update expense")
		return
	}

	respondJSON(w, http.StatusOK, expense)
}

// Delete godoc
// @Summary Delete expense
// @Tags Expenses
// @Param id path string true "Expense ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.expenseService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete expense")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter
func parseDateQuery(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s: must be a date in YYYY-MM-DD format", name))
		return nil, false
	}
	return &d, true
}

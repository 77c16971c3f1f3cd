package handler

import (
	"net/http"

	"github.com/tilequote/quote-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Get dashboard metrics
// @Description Business overview computed with the current settings.
// @Description
// @Description - `pipelineValue`: grand total of Pending quotations
// @Description - `acceptedValue`: grand total of Accepted and Invoiced quotations
// @Description - `invoicedTotal`, `paidRevenue`, `outstanding`, `overdueTotal`: invoice grand totals by payment status
// @Description - `netProfit`: paid revenue minus all expenses
// @Description - `conversionRate`: accepted share of decided quotations, in percent
// @Description - `monthlySeries`: paid revenue and expenses for the last six months
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboardService.GetMetrics(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get dashboard metrics")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

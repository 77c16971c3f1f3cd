package handler

import (
	"net/http"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/service"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// Get godoc
// @Summary Get settings
// @Description Returns the business settings. Missing values are filled with defaults.
// @Tags Settings
// @Produce json
// @Success 200 {object} domain.Settings
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings [get]
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// Update godoc
// @Summary Update settings
// @Description Replaces the settings. Totals of existing quotations and invoices are recomputed with the new values when next read.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body domain.UpdateSettingsRequest true "Settings"
// @Success 200 {object} domain.Settings
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings [put]
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	settings, err := h.settingsService.Update(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/service"
	"go.uber.org/zap"
)

type BackupHandler struct {
	backupService *service.BackupService
	logger        *zap.Logger
}

func NewBackupHandler(backupService *service.BackupService, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		logger:        logger,
	}
}

// Export godoc
// @Summary Download backup
// @Description Returns every quotation, invoice, client, expense and the settings as one JSON document
// @Tags Backup
// @Produce json
// @Success 200 {object} domain.Backup
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /backup [get]
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	backup, err := h.backupService.Export(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "export backup")
		return
	}

	filename := fmt.Sprintf("tilequote-backup-%s.json", backup.ExportedAt.UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(backup); err != nil {
		h.logger.Error("failed to write backup", zap.Error(err))
	}
}

// Import godoc
// @Summary Restore backup
// @Description Imports a backup. Records are matched by id and overwritten; older backups are back-filled with defaults.
// @Description The import runs in one transaction and writes nothing when it fails.
// @Tags Backup
// @Accept json
// @Produce json
// @Param request body domain.Backup true "Backup document"
// @Success 200 {object} domain.BackupImportResult
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /backup [post]
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	var backup domain.Backup
	if !decodeAndValidate(w, r, &backup) {
		return
	}

	start := time.Now()
	result, err := h.backupService.Import(r.Context(), &backup)
	if err != nil {
		handleServiceError(w, h.logger, err, "import backup")
		return
	}

	h.logger.Info("backup restored",
		zap.Int("quotations", result.Quotations),
		zap.Int("invoices", result.Invoices),
		zap.Duration("duration", time.Since(start)))
	respondJSON(w, http.StatusOK, result)
}

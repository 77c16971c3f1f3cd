package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/export"
	"github.com/tilequote/quote-api/internal/repository"
	"github.com/tilequote/quote-api/internal/service"
	"github.com/tilequote/quote-api/internal/storage"
	"go.uber.org/zap"
)

type QuotationHandler struct {
	quotationService  *service.QuotationService
	invoiceService    *service.InvoiceService
	clientService     *service.ClientService
	extractionService *service.ExtractionService
	photos            storage.Storage
	maxUploadMB       int64
	logger            *zap.Logger
}

func NewQuotationHandler(
	quotationService *service.QuotationService,
	invoiceService *service.InvoiceService,
	clientService *service.ClientService,
	extractionService *service.ExtractionService,
	photos storage.Storage,
	maxUploadMB int64,
	logger *zap.Logger,
) *QuotationHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &QuotationHandler{
		quotationService:  quotationService,
		invoiceService:    invoiceService,
		clientService:     clientService,
		extractionService: extractionService,
		photos:            photos,
		maxUploadMB:       maxUploadMB,
		logger:            logger,
	}
}

// List godoc
// @Summary List quotations
// @Description Get paginated list of quotations with their computed totals
// @Tags Quotations
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(Pending, Accepted, Rejected, Invoiced)
// @Param clientId query string false "Filter by saved client"
// @Param search query string false "Search client or project name"
// @Param sortBy query string false "Sort option" Enums(created_desc, created_asc, client_asc, client_desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.QuotationDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations [get]
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.QuotationFilters{
		Search: r.URL.Query().Get("search"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.QuotationStatus(status)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status: must be one of Pending, Accepted, Rejected, Invoiced")
			return
		}
		filters.Status = &s
	}
	clientID, ok := parseUUIDQuery(w, r, "clientId")
	if !ok {
		return
	}
	filters.ClientID = clientID

	sortBy := repository.QuotationSortByCreatedDesc
	if s := r.URL.Query().Get("sortBy"); s != "" {
		sortBy = repository.QuotationSortOption(s)
	}

	result, err := h.quotationService.List(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		handleServiceError(w, h.logger, err, "list quotations")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create quotation
// @Description Create a Pending quotation from manually entered line items
// @Tags Quotations
// @Accept json
// @Produce json
// @Param request body domain.CreateQuotationRequest true "Quotation data"
// @Success 201 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Client not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations [post]
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quotation, err := h.quotationService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create quotation")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/quotations/%s", quotation.ID))
	respondJSON(w, http.StatusCreated, quotation)
}

// Extract godoc
// @Summary Create quotation from notes
// @Description Sends free-text site notes to the AI extraction service and saves the draft as a Pending quotation.
// @Description Nothing is saved when extraction fails.
// @Tags Quotations
// @Accept json
// @Produce json
// @Param request body domain.ExtractQuotationRequest true "Site notes"
// @Success 201 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Extraction failed"
// @Failure 503 {object} domain.APIError "Extraction not configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/extract [post]
func (h *QuotationHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req domain.ExtractQuotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quotation, err := h.extractionService.FromNotes(r.Context(), req.Notes)
	if err != nil {
		handleServiceError(w, h.logger, err, "extract quotation")
		return
	}

	h.logger.Info("quotation extracted from notes", zap.String("quotation_id", quotation.ID.String()))
	respondJSON(w, http.StatusCreated, quotation)
}

// ExtractImage godoc
// @Summary Create quotation from a photo
// @Description Uploads a photo of handwritten notes (JPEG, PNG or WebP). The photo is stored and sent to the extraction service.
// @Tags Quotations
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Photo of the notes"
// @Success 201 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Extraction failed"
// @Failure 503 {object} domain.APIError "Extraction not configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/extract/image [post]
func (h *QuotationHandler) ExtractImage(w http.ResponseWriter, r *http.Request) {
	limit := h.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: image field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read uploaded image")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !isImage(contentType) {
		respondWithError(w, http.StatusUnsupportedMediaType, "Unsupported file type: upload a JPEG, PNG or WebP photo")
		return
	}

	quotation, err := h.extractionService.FromImage(r.Context(), data, contentType)
	if err != nil {
		handleServiceError(w, h.logger, err, "extract quotation from image")
		return
	}

	h.logger.Info("quotation extracted from photo",
		zap.String("quotation_id", quotation.ID.String()),
		zap.String("filename", header.Filename),
		zap.Int("size", len(data)))
	respondJSON(w, http.StatusCreated, quotation)
}

// GetByID godoc
// @Summary Get quotation
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.QuotationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id} [get]
func (h *QuotationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	quotation, err := h.quotationService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Update godoc
// @Summary Update quotation
// @Description Replaces the fields present in the body. Status is changed through the status endpoint.
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body domain.UpdateQuotationRequest true "Fields to change"
// @Success 200 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id} [put]
func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateQuotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quotation, err := h.quotationService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Delete godoc
// @Summary Delete quotation
// @Description Deletes the quotation. Invoices and expenses created from it are kept and unlinked.
// @Tags Quotations
// @Param id path string true "Quotation ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id} [delete]
func (h *QuotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.quotationService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete quotation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTotals godoc
// @Summary Get quotation totals
// @Description Runs the cost aggregator over the quotation with the current settings
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.Totals
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/totals [get]
func (h *QuotationHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	totals, err := h.quotationService.GetTotals(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get quotation totals")
		return
	}

	respondJSON(w, http.StatusOK, totals)
}

// Export godoc
// @Summary Export quotation
// @Tags Quotations
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Quotation ID"
// @Param format query string false "File format" Enums(csv, xlsx) default(csv)
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/export [get]
func (h *QuotationHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	quotation, settings, err := h.quotationService.GetModel(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "export quotation")
		return
	}

	respondExport(w, r, h.logger, export.FromQuotation(quotation, settings))
}

// Photo godoc
// @Summary Download source photo
// @Description Returns the photo a quotation was extracted from
// @Tags Quotations
// @Produce image/jpeg
// @Produce image/png
// @Param id path string true "Quotation ID"
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/photo [get]
func (h *QuotationHandler) Photo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	quotation, err := h.quotationService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get quotation photo")
		return
	}
	if quotation.SourceImagePath == "" || h.photos == nil {
		respondWithError(w, http.StatusNotFound, "Quotation has no source photo")
		return
	}

	reader, err := h.photos.Download(r.Context(), quotation.SourceImagePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			respondWithError(w, http.StatusNotFound, "Source photo no longer exists")
			return
		}
		h.logger.Error("failed to download photo",
			zap.String("key", quotation.SourceImagePath),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to download photo")
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(quotation.SourceImagePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(quotation.SourceImagePath)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream photo", zap.Error(err))
	}
}

// UpdateStatus godoc
// @Summary Change quotation status
// @Description Pending quotations can be Accepted or Rejected. Invoiced is only reached by conversion.
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body domain.UpdateQuotationStatusRequest true "New status"
// @Success 200 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Transition not allowed"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/status [post]
func (h *QuotationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateQuotationStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quotation, err := h.quotationService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, h.logger, err, "update quotation status")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Duplicate godoc
// @Summary Duplicate quotation
// @Description Copies the line items into a new Pending quotation with the checklist reset
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 201 {object} domain.QuotationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/duplicate [post]
func (h *QuotationHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	quotation, err := h.quotationService.Duplicate(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "duplicate quotation")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/quotations/%s", quotation.ID))
	respondJSON(w, http.StatusCreated, quotation)
}

// ToggleChecklistItem godoc
// @Summary Toggle checklist item
// @Description Flips the done flag of the item at index, or sets it when done is given
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param index path int true "Zero-based checklist index"
// @Param request body domain.ToggleChecklistRequest false "Explicit state"
// @Success 200 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/checklist/{index} [patch]
func (h *QuotationHandler) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid index: must be an integer")
		return
	}

	var req domain.ToggleChecklistRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	quotation, err := h.quotationService.ToggleChecklistItem(r.Context(), id, index, req.Done)
	if err != nil {
		handleServiceError(w, h.logger, err, "toggle checklist item")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// ConvertToInvoice godoc
// @Summary Convert quotation to invoice
// @Description Copies an Accepted quotation into a new invoice with the next invoice number and marks the quotation Invoiced.
// @Description A quotation can be converted once.
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param request body domain.ConvertToInvoiceRequest false "Discount, bank details and due date"
// @Success 201 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Not accepted or already invoiced"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/invoice [post]
func (h *QuotationHandler) ConvertToInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.ConvertToInvoiceRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.ConvertFromQuotation(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "convert quotation to invoice")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/invoices/%s", invoice.ID))
	respondJSON(w, http.StatusCreated, invoice)
}

// SaveClient godoc
// @Summary Save quotation client
// @Description Saves the quotation's client details as a client record, reusing an existing client with the same name and phone, and links it
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError "Quotation has no client name"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotations/{id}/client [post]
func (h *QuotationHandler) SaveClient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	client, err := h.clientService.CreateFromQuotation(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "save quotation client")
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// isImage reports whether the content type is one the extraction accepts
func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

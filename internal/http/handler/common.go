package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/export"
	"github.com/tilequote/quote-api/internal/extraction"
	"github.com/tilequote/quote-api/internal/service"
	"go.uber.org/zap"
)

var validate = validator.New()

// maxJSONBody caps request bodies; backups are the largest payload
const maxJSONBody = 32 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.NewValidationError(fields))
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusBadGateway:
		return domain.ErrorTypeBadGateway
	default:
		return domain.ErrorTypeInternal
	}
}

// decodeAndValidate reads a JSON body into dst and runs the validator over it.
// It writes the error response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// decodeOptional is decodeAndValidate for endpoints whose body may be omitted
func decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		if err := validate.Struct(dst); err != nil {
			respondValidationError(w, err)
			return false
		}
		return true
	}
	return decodeAndValidate(w, r, dst)
}

// parseID reads the {id} path parameter
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID: must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads page and pageSize with the usual defaults
func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

// parseUUIDQuery reads an optional UUID query parameter
func parseUUIDQuery(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s: must be a valid UUID", name))
		return nil, false
	}
	return &id, true
}

// serviceErrorStatus maps service errors onto HTTP status codes
var serviceErrorStatus = []struct {
	err    error
	status int
}{
	{service.ErrQuotationNotFound, http.StatusNotFound},
	{service.ErrInvoiceNotFound, http.StatusNotFound},
	{service.ErrClientNotFound, http.StatusNotFound},
	{service.ErrExpenseNotFound, http.StatusNotFound},
	{service.ErrChecklistIndexOutOfRange, http.StatusNotFound},
	{service.ErrInvalidStatusTransition, http.StatusConflict},
	{service.ErrQuotationNotAccepted, http.StatusConflict},
	{service.ErrQuotationAlreadyInvoiced, http.StatusConflict},
	{service.ErrInvoiceAlreadyPaid, http.StatusConflict},
	{service.ErrInvalidDueDate, http.StatusBadRequest},
	{service.ErrNegativeAmount, http.StatusBadRequest},
	{service.ErrInvalidBackup, http.StatusBadRequest},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrExtractionDisabled, http.StatusServiceUnavailable},
	{extraction.ErrExtractionFailed, http.StatusBadGateway},
}

// handleServiceError writes the response for a service error. Unknown errors are
// logged and reported as 500 without leaking their text.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	for _, m := range serviceErrorStatus {
		if errors.Is(err, m.err) {
			if m.status == http.StatusBadGateway {
				logger.Warn(action+" failed", zap.Error(err))
				respondWithError(w, m.status, "The extraction service could not read the notes. Please try again.")
				return
			}
			respondWithError(w, m.status, err.Error())
			return
		}
	}

	logger.Error(action+" failed", zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
		Error:   "Internal Server Error",
		Message: "Failed to " + action,
	})
}

// respondExport renders doc in the format named by the ?format query parameter
// and sends it as an attachment
func respondExport(w http.ResponseWriter, r *http.Request, logger *zap.Logger, doc export.Document) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid format: must be csv or xlsx")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, doc, format); err != nil {
		logger.Error("failed to render export",
			zap.String("reference", doc.Reference),
			zap.String("format", string(format)),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to render export")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename(format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

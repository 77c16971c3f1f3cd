package handler

import (
	"fmt"
	"net/http"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService *service.ClientService
	logger        *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name, phone or email"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ClientDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.clientService.List(r.Context(), page, pageSize, r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(w, h.logger, err, "list clients")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.CreateClientRequest true "Client data"
// @Success 201 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create client")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/clients/%s", client.ID))
	respondJSON(w, http.StatusCreated, client)
}

// GetByID godoc
// @Summary Get client
// @Description Returns the client with quotation count and accepted, invoiced and paid values
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} domain.ClientDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get client")
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Update godoc
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body domain.UpdateClientRequest true "Client data"
// @Success 200 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update client")
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Delete godoc
// @Summary Delete client
// @Description Deletes the client record. Quotations and invoices keep their copied client details.
// @Tags Clients
// @Param id path string true "Client ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.clientService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete client")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/mapper"
	"github.com/tilequote/quote-api/internal/pricing"
	"github.com/tilequote/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClientService struct {
	clientRepo    *repository.ClientRepository
	quotationRepo *repository.QuotationRepository
	invoiceRepo   *repository.InvoiceRepository
	settings      *SettingsService
	logger        *zap.Logger
}

func NewClientService(
	clientRepo *repository.ClientRepository,
	quotationRepo *repository.QuotationRepository,
	invoiceRepo *repository.InvoiceRepository,
	settings *SettingsService,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo:    clientRepo,
		quotationRepo: quotationRepo,
		invoiceRepo:   invoiceRepo,
		settings:      settings,
		logger:        logger,
	}
}

func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	client := &domain.Client{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: req.Address,
		Notes:   req.Notes,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created", zap.String("clientID", client.ID.String()))

	dto := mapper.ToClientDTO(client, &domain.ClientStatsDTO{})
	return &dto, nil
}

// CreateFromQuotation saves the client block of a quotation as a client record and links it.
// An existing client with the same name and phone is reused.
func (s *ClientService) CreateFromQuotation(ctx context.Context, quotationID uuid.UUID) (*domain.ClientDTO, error) {
	q, err := s.quotationRepo.GetByID(ctx, quotationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}

	name := strings.TrimSpace(q.Client.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: quotation has no client name", ErrInvalidInput)
	}

	client, err := s.clientRepo.FindByNameAndPhone(ctx, name, strings.TrimSpace(q.Client.Phone))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up client: %w", err)
		}
		client = &domain.Client{
			Name:    name,
			Phone:   strings.TrimSpace(q.Client.Phone),
			Address: q.Client.Address,
		}
		if err := s.clientRepo.Create(ctx, client); err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		s.logger.Info("client created from quotation",
			zap.String("clientID", client.ID.String()),
			zap.String("quotationID", q.ID.String()))
	}

	if err := s.quotationRepo.UpdateFields(ctx, q.ID, map[string]interface{}{"client_id": client.ID}); err != nil {
		return nil, fmt.Errorf("failed to link client: %w", err)
	}

	return s.GetByID(ctx, client.ID)
}

// GetByID returns a client with its job statistics
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := s.stats(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToClientDTO(client, stats)
	return &dto, nil
}

func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = strings.TrimSpace(req.Name)
	client.Phone = strings.TrimSpace(req.Phone)
	client.Email = strings.TrimSpace(req.Email)
	client.Address = req.Address
	client.Notes = req.Notes

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	return s.GetByID(ctx, client.ID)
}

func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	s.logger.Info("client deleted", zap.String("clientID", id.String()))
	return nil
}

func (s *ClientService) List(ctx context.Context, page, pageSize int, search string) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	clients, total, err := s.clientRepo.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i], nil)
	}

	return paginated(dtos, total, page, pageSize), nil
}

func (s *ClientService) stats(ctx context.Context, clientID uuid.UUID) (*domain.ClientStatsDTO, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	quotations, err := s.quotationRepo.ListAll(ctx, &repository.QuotationFilters{ClientID: &clientID})
	if err != nil {
		return nil, fmt.Errorf("failed to load client quotations: %w", err)
	}
	invoices, err := s.invoiceRepo.ListAll(ctx, &repository.InvoiceFilters{ClientID: &clientID})
	if err != nil {
		return nil, fmt.Errorf("failed to load client invoices: %w", err)
	}

	stats := &domain.ClientStatsDTO{QuotationCount: len(quotations)}
	for i := range quotations {
		if quotations[i].Status == domain.QuotationStatusAccepted || quotations[i].Status == domain.QuotationStatusInvoiced {
			stats.AcceptedValue += pricing.ForQuotation(&quotations[i], settings).GrandTotal
		}
	}
	for i := range invoices {
		total := pricing.ForInvoice(&invoices[i], settings).GrandTotal
		stats.InvoicedValue += total
		if invoices[i].PaymentStatus == domain.PaymentStatusPaid {
			stats.PaidValue += total
		}
	}
	return stats, nil
}

func (s *ClientService) get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

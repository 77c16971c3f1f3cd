package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/service"
	"github.com/tilequote/quote-api/internal/testutil"
)

func TestClientService_CreateFromQuotation(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	first := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusPending)
	second := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusPending)

	client, err := svc.clients.CreateFromQuotation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Okafor", client.Name)
	assert.Equal(t, "+2348012345678", client.Phone)

	reused, err := svc.clients.CreateFromQuotation(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, reused.ID)
	require.NotNil(t, reused.Stats)
	assert.Equal(t, 2, reused.Stats.QuotationCount)

	linked, err := svc.quotations.GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.ClientID)
	assert.Equal(t, client.ID, *linked.ClientID)
}

func TestClientService_CreateFromQuotationWithoutName(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	q, err := svc.quotations.Create(ctx, &domain.CreateQuotationRequest{})
	require.NoError(t, err)

	_, err = svc.clients.CreateFromQuotation(ctx, q.ID)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.clients.CreateFromQuotation(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrQuotationNotFound)
}

func TestClientService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	accepted := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusAccepted)
	client, err := svc.clients.CreateFromQuotation(ctx, accepted.ID)
	require.NoError(t, err)

	pending := testutil.CreateTestQuotation(t, svc.db, domain.QuotationStatusPending)
	_, err = svc.quotations.Update(ctx, pending.ID, &domain.UpdateQuotationRequest{ClientID: &client.ID})
	require.NoError(t, err)

	inv, err := svc.invoices.ConvertFromQuotation(ctx, accepted.ID, &domain.ConvertToInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, client.ID, *inv.ClientID)

	got, err := svc.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stats.QuotationCount)
	assert.Equal(t, 131500.0, got.Stats.AcceptedValue)
	assert.Equal(t, 131500.0, got.Stats.InvoicedValue)
	assert.Equal(t, 0.0, got.Stats.PaidValue)

	_, err = svc.invoices.MarkPaid(ctx, inv.ID, nil)
	require.NoError(t, err)

	got, err = svc.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 131500.0, got.Stats.PaidValue)
}

func TestClientService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)

	created, err := svc.clients.Create(ctx, &domain.CreateClientRequest{Name: "  Chidi Eze ", Phone: "0803 000 0000"})
	require.NoError(t, err)
	assert.Equal(t, "Chidi Eze", created.Name)

	updated, err := svc.clients.Update(ctx, created.ID, &domain.UpdateClientRequest{Name: "Chidi Eze", Email: "chidi@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "chidi@example.com", updated.Email)
	assert.Empty(t, updated.Phone)

	list, err := svc.clients.List(ctx, 1, 10, "chidi")
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	require.NoError(t, svc.clients.Delete(ctx, created.ID))
	_, err = svc.clients.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrClientNotFound)
	assert.ErrorIs(t, svc.clients.Delete(ctx, created.ID), service.ErrClientNotFound)
}

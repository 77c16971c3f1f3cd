package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/testutil"
)

func createTestInvoice(t *testing.T, th *testHandlers) *domain.InvoiceDTO {
	t.Helper()

	th.invoices.SetClock(func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) })
	q := testutil.CreateTestQuotation(t, th.db, domain.QuotationStatusAccepted)
	inv, err := th.invoices.ConvertFromQuotation(context.Background(), q.ID, &domain.ConvertToInvoiceRequest{})
	require.NoError(t, err)
	return inv
}

func TestInvoiceHandler_GetAndList(t *testing.T) {
	th := setupHandlers(t)
	inv := createTestInvoice(t, th)

	t.Run("get", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.invoice.GetByID(rr, newRequest(t, http.MethodGet, "/invoices/x", nil, map[string]string{"id": inv.ID.String()}))

		require.Equal(t, http.StatusOK, rr.Code)
		var result domain.InvoiceDTO
		decodeBody(t, rr, &result)
		assert.Equal(t, "INV-2026-001", result.InvoiceNumber)
		assert.Equal(t, domain.PaymentStatusUnpaid, result.PaymentStatus)
	})

	t.Run("list by payment status", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.invoice.List(rr, newRequest(t, http.MethodGet, "/invoices?paymentStatus=Unpaid", nil, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var result domain.PaginatedResponse
		decodeBody(t, rr, &result)
		assert.Equal(t, int64(1), result.Total)

		rr = httptest.NewRecorder()
		th.invoice.List(rr, newRequest(t, http.MethodGet, "/invoices?paymentStatus=Paid", nil, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		decodeBody(t, rr, &result)
		assert.Equal(t, int64(0), result.Total)
	})

	t.Run("unknown payment status", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.invoice.List(rr, newRequest(t, http.MethodGet, "/invoices?paymentStatus=Partial", nil, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInvoiceHandler_Update(t *testing.T) {
	th := setupHandlers(t)
	inv := createTestInvoice(t, th)
	params := map[string]string{"id": inv.ID.String()}

	t.Run("percentage discount", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.invoice.Update(rr, newRequest(t, http.MethodPut, "/invoices/x", map[string]interface{}{
			"discountType":  "percentage",
			"discountValue": 10,
		}, params))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var result domain.InvoiceDTO
		decodeBody(t, rr, &result)
		assert.Equal(t, domain.DiscountTypePercentage, result.DiscountType)
		assert.Equal(t, 13150.0, result.Totals.DiscountAmount)
		assert.Equal(t, 118350.0, result.Totals.GrandTotal)
	})

	t.Run("unknown discount type", func(t *testing.T) {
		rr := httptest.NewRecorder()
		th.invoice.Update(rr, newRequest(t, http.MethodPut, "/invoices/x", map[string]interface{}{
			"discountType": "coupon",
		}, params))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInvoiceHandler_MarkPaid(t *testing.T) {
	th := setupHandlers(t)
	inv := createTestInvoice(t, th)
	params := map[string]string{"id": inv.ID.String()}

	rr := httptest.NewRecorder()
	th.invoice.MarkPaid(rr, newRequest(t, http.MethodPost, "/invoices/x/pay", map[string]string{"paidAt": "2026-03-20T10:00:00Z"}, params))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var result domain.InvoiceDTO
	decodeBody(t, rr, &result)
	assert.Equal(t, domain.PaymentStatusPaid, result.PaymentStatus)
	require.NotNil(t, result.PaidAt)

	rr = httptest.NewRecorder()
	th.invoice.MarkPaid(rr, newRequest(t, http.MethodPost, "/invoices/x/pay", nil, params))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestInvoiceHandler_Export(t *testing.T) {
	th := setupHandlers(t)
	inv := createTestInvoice(t, th)

	rr := httptest.NewRecorder()
	th.invoice.Export(rr, newRequest(t, http.MethodGet, "/invoices/x/export?format=csv", nil, map[string]string{"id": inv.ID.String()}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="invoice-INV-2026-001.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Body.String(), "INV-2026-001")
	assert.NotEmpty(t, rr.Header().Get("Content-Length"))
}

func TestInvoiceHandler_Delete(t *testing.T) {
	th := setupHandlers(t)
	inv := createTestInvoice(t, th)

	rr := httptest.NewRecorder()
	th.invoice.Delete(rr, newRequest(t, http.MethodDelete, "/invoices/x", nil, map[string]string{"id": inv.ID.String()}))
	require.Equal(t, http.StatusNoContent, rr.Code)

	// the source quotation can be invoiced again
	rr = httptest.NewRecorder()
	th.quotation.GetByID(rr, newRequest(t, http.MethodGet, "/quotations/x", nil, map[string]string{"id": inv.QuotationID.String()}))
	require.Equal(t, http.StatusOK, rr.Code)
	var q domain.QuotationDTO
	decodeBody(t, rr, &q)
	assert.Equal(t, domain.QuotationStatusAccepted, q.Status)
	assert.Nil(t, q.InvoiceID)
}

package mapper

import (
	"time"

	"github.com/tilequote/quote-api/internal/domain"
	"github.com/tilequote/quote-api/internal/pricing"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

// ToQuotationDTO converts a Quotation to its DTO with totals computed under the given settings
func ToQuotationDTO(q *domain.Quotation, settings *domain.Settings) domain.QuotationDTO {
	return domain.QuotationDTO{
		ID:               q.ID,
		Status:           q.Status,
		ClientDetails:    q.Client,
		ClientID:         q.ClientID,
		Tiles:            nonNilTiles(q.Tiles),
		Materials:        nonNilMaterials(q.Materials),
		WorkmanshipRate:  q.WorkmanshipRate.Float(),
		Maintenance:      q.Maintenance.Float(),
		ProfitPercentage: numberPtrToFloat(q.ProfitPercentage),
		Checklist:        nonNilChecklist(q.Checklist),
		Terms:            q.Terms,
		InvoiceID:        q.InvoiceID,
		SourceNotes:      q.SourceNotes,
		SourceImagePath:  q.SourceImagePath,
		CreatedAt:        q.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:        q.UpdatedAt.UTC().Format(timestampLayout),
		Totals:           pricing.ForQuotation(q, settings),
	}
}

// ToInvoiceDTO converts an Invoice to its DTO with totals computed under the given settings
func ToInvoiceDTO(inv *domain.Invoice, settings *domain.Settings) domain.InvoiceDTO {
	dto := domain.InvoiceDTO{
		ID:               inv.ID,
		QuotationID:      inv.QuotationID,
		InvoiceNumber:    inv.InvoiceNumber,
		IssueDate:        inv.IssueDate.UTC().Format(dateLayout),
		DueDate:          inv.DueDate.UTC().Format(dateLayout),
		PaymentStatus:    inv.PaymentStatus,
		ClientDetails:    inv.Client,
		ClientID:         inv.ClientID,
		Tiles:            nonNilTiles(inv.Tiles),
		Materials:        nonNilMaterials(inv.Materials),
		WorkmanshipRate:  inv.WorkmanshipRate.Float(),
		Maintenance:      inv.Maintenance.Float(),
		ProfitPercentage: numberPtrToFloat(inv.ProfitPercentage),
		DiscountType:     inv.DiscountType,
		DiscountValue:    inv.DiscountValue.Float(),
		BankDetails:      inv.BankDetails,
		Notes:            inv.Notes,
		CreatedAt:        inv.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:        inv.UpdatedAt.UTC().Format(timestampLayout),
		Totals:           pricing.ForInvoice(inv, settings),
	}
	if inv.PaidAt != nil {
		paidAt := inv.PaidAt.UTC().Format(timestampLayout)
		dto.PaidAt = &paidAt
	}
	return dto
}

// ToClientDTO converts a Client to its DTO. Stats may be nil.
func ToClientDTO(client *domain.Client, stats *domain.ClientStatsDTO) domain.ClientDTO {
	return domain.ClientDTO{
		ID:        client.ID,
		Name:      client.Name,
		Phone:     client.Phone,
		Email:     client.Email,
		Address:   client.Address,
		Notes:     client.Notes,
		CreatedAt: client.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt: client.UpdatedAt.UTC().Format(timestampLayout),
		Stats:     stats,
	}
}

// ToExpenseDTO converts an Expense to its DTO
func ToExpenseDTO(expense *domain.Expense) domain.ExpenseDTO {
	return domain.ExpenseDTO{
		ID:          expense.ID,
		Date:        expense.Date.UTC().Format(dateLayout),
		Category:    expense.Category,
		Description: expense.Description,
		Amount:      expense.Amount,
		QuotationID: expense.QuotationID,
		CreatedAt:   expense.CreatedAt.UTC().Format(timestampLayout),
	}
}

// FormatDate renders a date the way DTOs do
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func numberPtrToFloat(n *domain.Number) *float64 {
	if n == nil {
		return nil
	}
	f := n.Float()
	return &f
}

func nonNilTiles(items []domain.TileItem) []domain.TileItem {
	if items == nil {
		return []domain.TileItem{}
	}
	return items
}

func nonNilMaterials(items []domain.MaterialItem) []domain.MaterialItem {
	if items == nil {
		return []domain.MaterialItem{}
	}
	return items
}

func nonNilChecklist(items []domain.ChecklistItem) []domain.ChecklistItem {
	if items == nil {
		return []domain.ChecklistItem{}
	}
	return items
}

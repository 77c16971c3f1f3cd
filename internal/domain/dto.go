package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Totals carries every derived amount of a quotation or invoice
type Totals struct {
	TotalSqm                  float64 `json:"totalSqm"`
	TotalTileCost             float64 `json:"totalTileCost"`
	TotalMaterialCost         float64 `json:"totalMaterialCost"`
	WorkmanshipCost           float64 `json:"workmanshipCost"`
	WorkmanshipAndMaintenance float64 `json:"workmanshipAndMaintenance"`
	PreProfitTotal            float64 `json:"preProfitTotal"`
	ProfitAmount              float64 `json:"profitAmount"`
	Subtotal                  float64 `json:"subtotal"`
	DiscountAmount            float64 `json:"discountAmount"`
	PostDiscountSubtotal      float64 `json:"postDiscountSubtotal"`
	TaxAmount                 float64 `json:"taxAmount"`
	GrandTotal                float64 `json:"grandTotal"`
}

type QuotationDTO struct {
	ID               uuid.UUID       `json:"id"`
	Status           QuotationStatus `json:"status"`
	ClientDetails    ClientDetails   `json:"clientDetails"`
	ClientID         *uuid.UUID      `json:"clientId,omitempty"`
	Tiles            []TileItem      `json:"tiles"`
	Materials        []MaterialItem  `json:"materials"`
	WorkmanshipRate  float64         `json:"workmanshipRate"`
	Maintenance      float64         `json:"maintenance"`
	ProfitPercentage *float64        `json:"profitPercentage"`
	Checklist        []ChecklistItem `json:"checklist"`
	Terms            string          `json:"terms,omitempty"`
	InvoiceID        *uuid.UUID      `json:"invoiceId,omitempty"`
	SourceNotes      string          `json:"sourceNotes,omitempty"`
	SourceImagePath  string          `json:"sourceImagePath,omitempty"`
	CreatedAt        string          `json:"createdAt"` // ISO 8601
	UpdatedAt        string          `json:"updatedAt"` // ISO 8601
	Totals           Totals          `json:"totals"`
}

type InvoiceDTO struct {
	ID               uuid.UUID      `json:"id"`
	QuotationID      *uuid.UUID     `json:"quotationId,omitempty"`
	InvoiceNumber    string         `json:"invoiceNumber"`
	IssueDate        string         `json:"issueDate"`
	DueDate          string         `json:"dueDate"`
	PaymentStatus    PaymentStatus  `json:"paymentStatus"`
	ClientDetails    ClientDetails  `json:"clientDetails"`
	ClientID         *uuid.UUID     `json:"clientId,omitempty"`
	Tiles            []TileItem     `json:"tiles"`
	Materials        []MaterialItem `json:"materials"`
	WorkmanshipRate  float64        `json:"workmanshipRate"`
	Maintenance      float64        `json:"maintenance"`
	ProfitPercentage *float64       `json:"profitPercentage"`
	DiscountType     DiscountType   `json:"discountType"`
	DiscountValue    float64        `json:"discountValue"`
	BankDetails      string         `json:"bankDetails,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	PaidAt           *string        `json:"paidAt,omitempty"`
	CreatedAt        string         `json:"createdAt"`
	UpdatedAt        string         `json:"updatedAt"`
	Totals           Totals         `json:"totals"`
}

type ClientDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Address   string          `json:"address,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Stats     *ClientStatsDTO `json:"stats,omitempty"`
}

// ClientStatsDTO holds aggregated job figures for a client
type ClientStatsDTO struct {
	QuotationCount int     `json:"quotationCount"`
	AcceptedValue  float64 `json:"acceptedValue"`
	InvoicedValue  float64 `json:"invoicedValue"`
	PaidValue      float64 `json:"paidValue"`
}

type ExpenseDTO struct {
	ID          uuid.UUID       `json:"id"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	QuotationID *uuid.UUID      `json:"quotationId,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

// MonthlyFigure is one point of a monthly time series
type MonthlyFigure struct {
	Month    string  `json:"month"` // YYYY-MM
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
}

// DashboardDTO is the business overview
type DashboardDTO struct {
	QuotationCounts  map[QuotationStatus]int `json:"quotationCounts"`
	InvoiceCounts    map[PaymentStatus]int   `json:"invoiceCounts"`
	PipelineValue    float64                 `json:"pipelineValue"`
	AcceptedValue    float64                 `json:"acceptedValue"`
	InvoicedTotal    float64                 `json:"invoicedTotal"`
	PaidRevenue      float64                 `json:"paidRevenue"`
	Outstanding      float64                 `json:"outstanding"`
	OverdueTotal     float64                 `json:"overdueTotal"`
	TotalExpenses    float64                 `json:"totalExpenses"`
	NetProfit        float64                 `json:"netProfit"`
	ConversionRate   float64                 `json:"conversionRate"` // percent of decided quotations that were accepted
	MonthlySeries    []MonthlyFigure         `json:"monthlySeries"`
	RecentQuotations []QuotationDTO          `json:"recentQuotations"`
}

// QuotationDraft is the structured result of AI extraction before it is saved
type QuotationDraft struct {
	ClientDetails    ClientDetails   `json:"clientDetails"`
	Tiles            []TileItem      `json:"tiles"`
	Materials        []MaterialItem  `json:"materials"`
	WorkmanshipRate  Number          `json:"workmanshipRate"`
	Maintenance      Number          `json:"maintenance"`
	ProfitPercentage *Number         `json:"profitPercentage"`
	Checklist        []ChecklistItem `json:"checklist"`
	Terms            string          `json:"terms"`
}

// Backup is the full persisted state of the application
type Backup struct {
	Version    int         `json:"version"`
	ExportedAt time.Time   `json:"exportedAt"`
	Quotations []Quotation `json:"quotations"`
	Invoices   []Invoice   `json:"invoices"`
	Clients    []Client    `json:"clients"`
	Expenses   []Expense   `json:"expenses"`
	Settings   *Settings   `json:"settings"`
}

// BackupImportResult reports how many records were written per collection
type BackupImportResult struct {
	Quotations int  `json:"quotations"`
	Invoices   int  `json:"invoices"`
	Clients    int  `json:"clients"`
	Expenses   int  `json:"expenses"`
	Settings   bool `json:"settings"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type CreateQuotationRequest struct {
	ClientDetails    ClientDetails   `json:"clientDetails"`
	ClientID         *uuid.UUID      `json:"clientId,omitempty"`
	Tiles            []TileItem      `json:"tiles" validate:"dive"`
	Materials        []MaterialItem  `json:"materials" validate:"dive"`
	WorkmanshipRate  Number          `json:"workmanshipRate" validate:"gte=0"`
	Maintenance      Number          `json:"maintenance" validate:"gte=0"`
	ProfitPercentage *Number         `json:"profitPercentage,omitempty" validate:"omitempty,gte=0"`
	Checklist        []ChecklistItem `json:"checklist" validate:"dive"`
	Terms            string          `json:"terms,omitempty" validate:"max=10000"`
	SourceNotes      string          `json:"sourceNotes,omitempty" validate:"max=20000"`
}

// UpdateQuotationRequest replaces only the fields that are present
type UpdateQuotationRequest struct {
	ClientDetails    *ClientDetails  `json:"clientDetails,omitempty"`
	ClientID         *uuid.UUID      `json:"clientId,omitempty"`
	Tiles            []TileItem      `json:"tiles,omitempty" validate:"omitempty,dive"`
	Materials        []MaterialItem  `json:"materials,omitempty" validate:"omitempty,dive"`
	WorkmanshipRate  *Number         `json:"workmanshipRate,omitempty" validate:"omitempty,gte=0"`
	Maintenance      *Number         `json:"maintenance,omitempty" validate:"omitempty,gte=0"`
	ProfitPercentage *Number         `json:"profitPercentage,omitempty" validate:"omitempty,gte=0"`
	ClearProfit      bool            `json:"clearProfit,omitempty"`
	Checklist        []ChecklistItem `json:"checklist,omitempty" validate:"omitempty,dive"`
	Terms            *string         `json:"terms,omitempty" validate:"omitempty,max=10000"`
}

type UpdateQuotationStatusRequest struct {
	Status QuotationStatus `json:"status" validate:"required,oneof=Pending Accepted Rejected"`
}

type ToggleChecklistRequest struct {
	Done *bool `json:"done,omitempty"`
}

type ExtractQuotationRequest struct {
	Notes string `json:"notes" validate:"required,max=20000"`
}

type ConvertToInvoiceRequest struct {
	DiscountType  DiscountType `json:"discountType,omitempty" validate:"omitempty,oneof=none percentage amount"`
	DiscountValue Number       `json:"discountValue,omitempty" validate:"gte=0"`
	BankDetails   *string      `json:"bankDetails,omitempty" validate:"omitempty,max=2000"`
	Notes         string       `json:"notes,omitempty" validate:"max=5000"`
	DueDate       *time.Time   `json:"dueDate,omitempty"`
}

type UpdateInvoiceRequest struct {
	DiscountType  *DiscountType `json:"discountType,omitempty" validate:"omitempty,oneof=none percentage amount"`
	DiscountValue *Number       `json:"discountValue,omitempty" validate:"omitempty,gte=0"`
	BankDetails   *string       `json:"bankDetails,omitempty" validate:"omitempty,max=2000"`
	Notes         *string       `json:"notes,omitempty" validate:"omitempty,max=5000"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
}

type MarkInvoicePaidRequest struct {
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

type CreateClientRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone,omitempty" validate:"max=50"`
	Email   string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Address string `json:"address,omitempty" validate:"max=500"`
	Notes   string `json:"notes,omitempty" validate:"max=5000"`
}

type UpdateClientRequest = CreateClientRequest

type CreateExpenseRequest struct {
	Date        time.Time       `json:"date" validate:"required"`
	Category    string          `json:"category" validate:"required,max=100"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	QuotationID *uuid.UUID      `json:"quotationId,omitempty"`
}

type UpdateExpenseRequest = CreateExpenseRequest

type UpdateSettingsRequest struct {
	BusinessName     string   `json:"businessName" validate:"max=200"`
	Currency         string   `json:"currency" validate:"max=10"`
	Wall             TileRate `json:"wall"`
	Floor            TileRate `json:"floor"`
	ExternalWall     TileRate `json:"externalWall"`
	Step             TileRate `json:"step"`
	WastageFactor    Number   `json:"wastageFactor" validate:"gte=0"`
	CementPrice      Number   `json:"cementPrice" validate:"gte=0"`
	WhiteCementPrice Number   `json:"whiteCementPrice" validate:"gte=0"`
	SandPrice        Number   `json:"sandPrice" validate:"gte=0"`
	WorkmanshipRate  Number   `json:"workmanshipRate" validate:"gte=0"`
	TaxPercentage    Number   `json:"taxPercentage" validate:"gte=0,lte=100"`
	ShowTax          bool     `json:"showTax"`
	ShowUnitPrice    bool     `json:"showUnitPrice"`
	ShowSubtotal     bool     `json:"showSubtotal"`
	ShowTileSize     bool     `json:"showTileSize"`
	ShowMaintenance  bool     `json:"showMaintenance"`
	ShowTerms        bool     `json:"showTerms"`
	DefaultTerms     string   `json:"defaultTerms" validate:"max=10000"`
	BankDetails      string   `json:"bankDetails" validate:"max=2000"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// QuotationStatus represents where a quotation is in its lifecycle
type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "Pending"
	QuotationStatusAccepted QuotationStatus = "Accepted"
	QuotationStatusRejected QuotationStatus = "Rejected"
	QuotationStatusInvoiced QuotationStatus = "Invoiced"
)

// IsValid checks if the status is a known value
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusPending, QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusInvoiced:
		return true
	}
	return false
}

// PaymentStatus represents the payment state of an invoice
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "Unpaid"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusOverdue PaymentStatus = "Overdue"
)

// IsValid checks if the payment status is a known value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// DiscountType selects how an invoice discount value is interpreted
type DiscountType string

const (
	DiscountTypeNone       DiscountType = "none"
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeAmount     DiscountType = "amount"
)

// TileClassification determines the default pricing and coverage of a tile line
type TileClassification string

const (
	TileWall         TileClassification = "Wall"
	TileFloor        TileClassification = "Floor"
	TileExternalWall TileClassification = "External Wall"
	TileStep         TileClassification = "Step"
	TileUnknown      TileClassification = "Unknown"
)

// ParseTileClassification maps free text to a classification. Matching ignores
// case, spaces, hyphens and underscores. Anything unrecognised is Unknown.
func ParseTileClassification(s string) TileClassification {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	switch key {
	case "wall":
		return TileWall
	case "floor":
		return TileFloor
	case "externalwall", "exteriorwall", "external":
		return TileExternalWall
	case "step", "steps", "stair", "stairs":
		return TileStep
	}
	return TileUnknown
}

// TileItem is one tile line of a quotation or invoice.
// Sqm and Cartons are stored values and are never re-derived when pricing.
type TileItem struct {
	Category       string             `json:"category" validate:"max=200"`
	Sqm            Number             `json:"sqm" validate:"gte=0"`
	Cartons        Number             `json:"cartons" validate:"gte=0"`
	Classification TileClassification `json:"classification"`
	UnitPrice      Number             `json:"unitPrice" validate:"gte=0"`
	Size           string             `json:"size,omitempty" validate:"max=50"`
}

// MaterialItem is one non-tile material line
type MaterialItem struct {
	Name      string `json:"name" validate:"max=200"`
	Quantity  Number `json:"quantity" validate:"gte=0"`
	Unit      string `json:"unit" validate:"max=50"`
	UnitPrice Number `json:"unitPrice" validate:"gte=0"`
}

// ChecklistItem is a job checklist entry
type ChecklistItem struct {
	Label string `json:"label" validate:"max=200"`
	Done  bool   `json:"done"`
}

// ClientDetails is the client block printed on a document. Each field has its own visibility toggle.
type ClientDetails struct {
	Name            string `gorm:"type:varchar(200)" json:"name" validate:"max=200"`
	Address         string `gorm:"type:varchar(500)" json:"address" validate:"max=500"`
	Phone           string `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	ProjectName     string `gorm:"type:varchar(200)" json:"projectName" validate:"max=200"`
	ShowName        bool   `json:"showName"`
	ShowAddress     bool   `json:"showAddress"`
	ShowPhone       bool   `json:"showPhone"`
	ShowProjectName bool   `json:"showProjectName"`
}

// Quotation is a priced proposal for a tiling job
type Quotation struct {
	BaseModel
	Status           QuotationStatus                    `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	Client           ClientDetails                      `gorm:"embedded;embeddedPrefix:client_" json:"clientDetails"`
	ClientID         *uuid.UUID                         `gorm:"type:uuid;index" json:"clientId,omitempty"`
	Tiles            datatypes.JSONSlice[TileItem]      `json:"tiles"`
	Materials        datatypes.JSONSlice[MaterialItem]  `json:"materials"`
	WorkmanshipRate  Number                             `gorm:"not null;default:0" json:"workmanshipRate"`
	Maintenance      Number                             `gorm:"not null;default:0" json:"maintenance"`
	ProfitPercentage *Number                            `json:"profitPercentage"`
	Checklist        datatypes.JSONSlice[ChecklistItem] `json:"checklist"`
	Terms            string                             `gorm:"type:text" json:"terms,omitempty"`
	InvoiceID        *uuid.UUID                         `gorm:"type:uuid;index" json:"invoiceId,omitempty"`
	SourceNotes      string                             `gorm:"type:text" json:"sourceNotes,omitempty"`
	SourceImagePath  string                             `gorm:"type:varchar(500)" json:"sourceImagePath,omitempty"`
}

// Invoice is a value-frozen copy of an accepted quotation
type Invoice struct {
	BaseModel
	QuotationID      *uuid.UUID                        `gorm:"type:uuid;uniqueIndex" json:"quotationId,omitempty"`
	InvoiceNumber    string                            `gorm:"type:varchar(50);not null;uniqueIndex" json:"invoiceNumber"`
	IssueDate        time.Time                         `gorm:"not null" json:"issueDate"`
	DueDate          time.Time                         `gorm:"not null;index" json:"dueDate"`
	PaymentStatus    PaymentStatus                     `gorm:"type:varchar(20);not null;default:'Unpaid';index" json:"paymentStatus"`
	Client           ClientDetails                     `gorm:"embedded;embeddedPrefix:client_" json:"clientDetails"`
	ClientID         *uuid.UUID                        `gorm:"type:uuid;index" json:"clientId,omitempty"`
	Tiles            datatypes.JSONSlice[TileItem]     `json:"tiles"`
	Materials        datatypes.JSONSlice[MaterialItem] `json:"materials"`
	WorkmanshipRate  Number                            `gorm:"not null;default:0" json:"workmanshipRate"`
	Maintenance      Number                            `gorm:"not null;default:0" json:"maintenance"`
	ProfitPercentage *Number                           `json:"profitPercentage"`
	DiscountType     DiscountType                      `gorm:"type:varchar(20);not null;default:'none'" json:"discountType"`
	DiscountValue    Number                            `gorm:"not null;default:0" json:"discountValue"`
	BankDetails      string                            `gorm:"type:text" json:"bankDetails,omitempty"`
	Notes            string                            `gorm:"type:text" json:"notes,omitempty"`
	PaidAt           *time.Time                        `json:"paidAt,omitempty"`
	LastReminderAt   *time.Time                        `json:"lastReminderAt,omitempty"`
}

// Client is a saved customer record
type Client struct {
	BaseModel
	Name    string `gorm:"type:varchar(200);not null;index" json:"name"`
	Phone   string `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Email   string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address string `gorm:"type:varchar(500)" json:"address,omitempty"`
	Notes   string `gorm:"type:text" json:"notes,omitempty"`
}

// Expense is a business cost, optionally tied to a job
type Expense struct {
	BaseModel
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Description string          `gorm:"type:varchar(500)" json:"description,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	QuotationID *uuid.UUID      `gorm:"type:uuid;index" json:"quotationId,omitempty"`
}

// TileRate holds the defaults for one tile classification
type TileRate struct {
	PricePerCarton Number `gorm:"not null;default:0" json:"pricePerCarton" validate:"gte=0"`
	SqmPerCarton   Number `gorm:"not null;default:0" json:"sqmPerCarton" validate:"gte=0"`
}

// SettingsSingletonID is the primary key of the only settings row
const SettingsSingletonID = 1

// SettingsRevision is stamped on settings saved by this version. Zero rates on an
// older row mean "never set"; on a current row they were chosen by the owner.
const SettingsRevision = 1

// Settings holds the business-wide pricing defaults and display toggles
type Settings struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	BusinessName     string    `gorm:"type:varchar(200)" json:"businessName"`
	Currency         string    `gorm:"type:varchar(10)" json:"currency"`
	Wall             TileRate  `gorm:"embedded;embeddedPrefix:wall_" json:"wall"`
	Floor            TileRate  `gorm:"embedded;embeddedPrefix:floor_" json:"floor"`
	ExternalWall     TileRate  `gorm:"embedded;embeddedPrefix:external_wall_" json:"externalWall"`
	Step             TileRate  `gorm:"embedded;embeddedPrefix:step_" json:"step"`
	WastageFactor    Number    `gorm:"not null;default:0" json:"wastageFactor"`
	CementPrice      Number    `gorm:"not null;default:0" json:"cementPrice"`
	WhiteCementPrice Number    `gorm:"not null;default:0" json:"whiteCementPrice"`
	SandPrice        Number    `gorm:"not null;default:0" json:"sandPrice"`
	WorkmanshipRate  Number    `gorm:"not null;default:0" json:"workmanshipRate"`
	TaxPercentage    Number    `gorm:"not null;default:0" json:"taxPercentage"`
	ShowTax          bool      `json:"showTax"`
	ShowUnitPrice    bool      `json:"showUnitPrice"`
	ShowSubtotal     bool      `json:"showSubtotal"`
	ShowTileSize     bool      `json:"showTileSize"`
	ShowMaintenance  bool      `json:"showMaintenance"`
	ShowTerms        bool      `json:"showTerms"`
	DefaultTerms     string    `gorm:"type:text" json:"defaultTerms"`
	BankDetails      string    `gorm:"type:text" json:"bankDetails"`
	Revision         int       `gorm:"not null;default:0" json:"revision"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// RateFor returns the defaults for a classification. Unknown tiles use floor coverage and price.
func (s *Settings) RateFor(c TileClassification) TileRate {
	switch c {
	case TileWall:
		return s.Wall
	case TileExternalWall:
		return s.ExternalWall
	case TileStep:
		return s.Step
	default:
		return s.Floor
	}
}

// DefaultSettings returns the settings used on first start and to back-fill missing values.
func DefaultSettings() Settings {
	return Settings{
		ID:               SettingsSingletonID,
		BusinessName:     "",
		Currency:         "NGN",
		Wall:             TileRate{PricePerCarton: 4500, SqmPerCarton: 1.5},
		Floor:            TileRate{PricePerCarton: 5600, SqmPerCarton: 1.44},
		ExternalWall:     TileRate{PricePerCarton: 5000, SqmPerCarton: 1},
		Step:             TileRate{PricePerCarton: 6000, SqmPerCarton: 1.2},
		WastageFactor:    1.10,
		CementPrice:      9500,
		WhiteCementPrice: 6000,
		SandPrice:        30000,
		WorkmanshipRate:  1700,
		TaxPercentage:    7.5,
		ShowTax:          false,
		ShowUnitPrice:    true,
		ShowSubtotal:     true,
		ShowTileSize:     true,
		ShowMaintenance:  true,
		ShowTerms:        true,
		DefaultTerms:     "70% deposit before commencement. Balance on completion.",
		Revision:         SettingsRevision,
	}
}

// NumberSequence tracks the last number issued per prefix and year
type NumberSequence struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Prefix       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_number_sequence_prefix_year"`
	Year         int       `gorm:"not null;uniqueIndex:idx_number_sequence_prefix_year"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NumberSequence) TableName() string {
	return "number_sequences"
}

package service

import "errors"

// Common service errors
var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrQuotationNotFound is returned when a quotation does not exist
	ErrQuotationNotFound = errors.New("quotation not found")

	// ErrInvalidStatusTransition is returned when a quotation status change is not allowed
	ErrInvalidStatusTransition = errors.New("invalid quotation status transition")

	// ErrQuotationNotAccepted is returned when converting a quotation that is not Accepted
	ErrQuotationNotAccepted = errors.New("quotation must be accepted before it can be invoiced")

	// ErrQuotationAlreadyInvoiced is returned when a quotation already has an invoice
	ErrQuotationAlreadyInvoiced = errors.New("quotation has already been invoiced")

	// ErrChecklistIndexOutOfRange is returned when toggling a checklist item that does not exist
	ErrChecklistIndexOutOfRange = errors.New("checklist item does not exist")

	// ErrInvoiceNotFound is returned when an invoice does not exist
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvoiceAlreadyPaid is returned when paying an invoice twice
	ErrInvoiceAlreadyPaid = errors.New("invoice is already paid")

	// ErrInvalidDueDate is returned when a due date precedes the issue date
	ErrInvalidDueDate = errors.New("due date must not be before the issue date")

	// ErrClientNotFound is returned when a client does not exist
	ErrClientNotFound = errors.New("client not found")

	// ErrExpenseNotFound is returned when an expense does not exist
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrNegativeAmount is returned when an expense amount is below zero
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrInvalidBackup is returned when an imported backup cannot be used
	ErrInvalidBackup = errors.New("invalid backup")

	// ErrExtractionDisabled is returned when AI extraction is not configured
	ErrExtractionDisabled = errors.New("extraction is not configured")
)

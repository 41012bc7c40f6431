package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of a sales invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// Invoice is a sales invoice owed to the taxpayer (a debtor).
type Invoice struct {
	ID           uuid.UUID       `json:"id" validate:"required"`
	CustomerName string          `json:"customer_name"`
	FileName     string          `json:"file_name"`
	InvoiceDate  *time.Time      `json:"invoice_date,omitempty"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Status       InvoiceStatus   `json:"status" validate:"omitempty,oneof=draft sent overdue paid"`
}

// IsPaid returns true once the invoice is settled
func (i Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// DisplayName is the customer name, file name, or "Unknown".
func (i Invoice) DisplayName() string {
	if i.CustomerName != "" {
		return i.CustomerName
	}
	if i.FileName != "" {
		return i.FileName
	}
	return "Unknown"
}

// AgeingDate is the date overdue days count from: due date, then invoice date, then now.
func (i Invoice) AgeingDate(now time.Time) time.Time {
	if i.DueDate != nil {
		return *i.DueDate
	}
	if i.InvoiceDate != nil {
		return *i.InvoiceDate
	}
	return now
}

// Validate checks required fields and rejects negative amounts
func (i Invoice) Validate() error {
	if i.Amount.IsNegative() {
		return shared.NewNegativeAmountError(fmt.Sprintf("invoice %s", i.ID), i.Amount)
	}
	return validateStruct(i)
}

// Bill is a recurring supplier bill owed by the taxpayer (a creditor).
type Bill struct {
	ID        uuid.UUID       `json:"id" validate:"required"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency" validate:"omitempty,oneof=weekly monthly quarterly annually"`
	IsActive  bool            `json:"is_active"`
}

// DisplayName is the bill name or "Unknown".
func (b Bill) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return "Unknown"
}

// EffectiveFrequency defaults to monthly.
func (b Bill) EffectiveFrequency() string {
	if b.Frequency == "" {
		return "monthly"
	}
	return b.Frequency
}

// Validate checks required fields and rejects negative amounts
func (b Bill) Validate() error {
	if b.Amount.IsNegative() {
		return shared.NewNegativeAmountError(fmt.Sprintf("bill %s", b.ID), b.Amount)
	}
	return validateStruct(b)
}

// Package ledger holds the read-only inputs of the tax engine: bank
// transactions, categories, the taxpayer profile, invoices and bills.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Direction carries the sign of a transaction; amounts are always magnitudes.
type Direction string

const (
	Credit Direction = "credit" // money in
	Debit  Direction = "debit"  // money out
)

// IsValid checks if the direction is credit or debit
func (d Direction) IsValid() bool {
	return d == Credit || d == Debit
}

// String returns the string representation
func (d Direction) String() string {
	return string(d)
}

// Transaction is a categorized bank transaction. The engine never mutates it.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	EntityID    uuid.UUID       `json:"entity_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // magnitude, never negative
	Direction   Direction       `json:"direction"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	// AppliedDeductibilityPercent overrides the category default when set (0-100).
	AppliedDeductibilityPercent *decimal.Decimal `json:"applied_deductibility_percent,omitempty"`
	IsApproved                  bool             `json:"is_approved"`
}

// IsCredit returns true for money in
func (t Transaction) IsCredit() bool {
	return t.Direction == Credit
}

// IsDebit returns true for money out
func (t Transaction) IsDebit() bool {
	return t.Direction == Debit
}

// IsCategorized returns true when the transaction references a category
func (t Transaction) IsCategorized() bool {
	return t.CategoryID != nil
}

// Validate rejects negative amounts and unknown directions.
func (t Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return shared.NewNegativeAmountError(fmt.Sprintf("transaction %s", t.ID), t.Amount)
	}
	if !t.Direction.IsValid() {
		return shared.NewInvalidInputError("transaction %s has invalid direction %q", t.ID, t.Direction)
	}
	return nil
}

// ValidateTransactions validates every transaction, failing on the first error.
func ValidateTransactions(txs []Transaction) error {
	for i := range txs {
		if err := txs[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SortedByDate returns a copy sorted ascending by date. Equal dates keep input order.
func SortedByDate(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SortedByDateDesc returns a copy sorted newest first, the default listing order.
func SortedByDateDesc(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

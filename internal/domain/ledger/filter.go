package ledger

import (
	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/period"
)

// Filter selects transactions for a report. Zero-valued optional fields match everything.
type Filter struct {
	Range     period.Range
	AccountID *uuid.UUID
	EntityID  *uuid.UUID
	Direction *Direction
}

// ForRange returns a filter on the date range only
func ForRange(r period.Range) Filter {
	return Filter{Range: r}
}

// Matches reports whether tx passes every set predicate.
func (f Filter) Matches(tx Transaction) bool {
	if !f.Range.Contains(tx.Date) {
		return false
	}
	if f.AccountID != nil && tx.AccountID != *f.AccountID {
		return false
	}
	if f.EntityID != nil && tx.EntityID != *f.EntityID {
		return false
	}
	if f.Direction != nil && tx.Direction != *f.Direction {
		return false
	}
	return true
}

// Apply validates the input and returns the matching transactions in input order.
// The input slice is not modified.
func (f Filter) Apply(txs []Transaction) ([]Transaction, error) {
	if err := ValidateTransactions(txs); err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

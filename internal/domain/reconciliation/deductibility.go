// Package reconciliation contrasts bank cash flow with the HMRC-allowable
// subset of it ("dual reality") and derives business income and expense totals.
package reconciliation

import (
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// PercentSource records where an effective deductibility percent came from.
type PercentSource string

const (
	SourceOverride PercentSource = "override" // transaction's applied percent
	SourceCategory PercentSource = "category" // category default
	SourceNone     PercentSource = "none"     // uncategorised, no override
)

// Deductibility is the resolved deductible share of one transaction.
type Deductibility struct {
	Percent decimal.Decimal `json:"percent"`
	Source  PercentSource   `json:"source"`
}

// EffectivePercent resolves the transaction override, then the category
// default, then 0, clamped to [0, 100].
func EffectivePercent(tx ledger.Transaction, cat *ledger.Category) Deductibility {
	switch {
	case tx.AppliedDeductibilityPercent != nil:
		return Deductibility{Percent: clampPercent(*tx.AppliedDeductibilityPercent), Source: SourceOverride}
	case cat != nil:
		return Deductibility{Percent: clampPercent(cat.DefaultDeductibilityPercent), Source: SourceCategory}
	default:
		return Deductibility{Percent: zero, Source: SourceNone}
	}
}

// AllowableAmount is amount × percent / 100 for debits. Credits have no
// deductible share and return zero.
func AllowableAmount(tx ledger.Transaction, cat *ledger.Category) decimal.Decimal {
	if !tx.IsDebit() {
		return zero
	}
	return tx.Amount.Mul(EffectivePercent(tx, cat).Percent).Div(hundred)
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

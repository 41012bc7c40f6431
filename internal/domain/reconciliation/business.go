package reconciliation

import (
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// BusinessTotals splits a transaction set by category type. Credits on
// expense categories (refunds) and debits on income categories (chargebacks)
// stay out of Income and Expenses and are reported on their own lines.
type BusinessTotals struct {
	Income               decimal.Decimal `json:"income"`   // credits on income categories
	Expenses             decimal.Decimal `json:"expenses"` // debits on expense categories
	NetProfit            decimal.Decimal `json:"net_profit"`
	Refunds              decimal.Decimal `json:"refunds"`
	Chargebacks          decimal.Decimal `json:"chargebacks"`
	UncategorisedCredits decimal.Decimal `json:"uncategorised_credits"`
	UncategorisedDebits  decimal.Decimal `json:"uncategorised_debits"`
	UncategorisedCount   int             `json:"uncategorised_count"`
	TotalCredits         decimal.Decimal `json:"total_credits"`
	TotalDebits          decimal.Decimal `json:"total_debits"`
	BankNetProfit        decimal.Decimal `json:"bank_net_profit"` // total credits - total debits
	TransactionCount     int             `json:"transaction_count"`
}

// UncategorisedShare is the uncategorised fraction of all transactions in [0, 1].
func (b BusinessTotals) UncategorisedShare() decimal.Decimal {
	if b.TransactionCount == 0 {
		return zero
	}
	return decimal.NewFromInt(int64(b.UncategorisedCount)).Div(decimal.NewFromInt(int64(b.TransactionCount)))
}

// Totals computes business totals over the resolved transactions.
func Totals(txs []ledger.Transaction, idx *ledger.CategoryIndex) (*BusinessTotals, error) {
	resolved, err := ledger.Resolve(txs, idx)
	if err != nil {
		return nil, err
	}
	t := &BusinessTotals{
		Income:               zero,
		Expenses:             zero,
		Refunds:              zero,
		Chargebacks:          zero,
		UncategorisedCredits: zero,
		UncategorisedDebits:  zero,
		TotalCredits:         zero,
		TotalDebits:          zero,
		TransactionCount:     len(resolved),
	}
	for _, r := range resolved {
		tx, cat := r.Transaction, r.Category
		if tx.IsCredit() {
			t.TotalCredits = t.TotalCredits.Add(tx.Amount)
		} else {
			t.TotalDebits = t.TotalDebits.Add(tx.Amount)
		}

		switch {
		case cat == nil:
			t.UncategorisedCount++
			if tx.IsCredit() {
				t.UncategorisedCredits = t.UncategorisedCredits.Add(tx.Amount)
			} else {
				t.UncategorisedDebits = t.UncategorisedDebits.Add(tx.Amount)
			}
		case cat.IsIncome() && tx.IsCredit():
			t.Income = t.Income.Add(tx.Amount)
		case cat.IsIncome():
			t.Chargebacks = t.Chargebacks.Add(tx.Amount)
		case tx.IsDebit():
			t.Expenses = t.Expenses.Add(tx.Amount)
		default:
			t.Refunds = t.Refunds.Add(tx.Amount)
		}
	}
	t.NetProfit = t.Income.Sub(t.Expenses)
	t.BankNetProfit = t.TotalCredits.Sub(t.TotalDebits)
	return t, nil
}

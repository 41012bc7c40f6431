// Package report builds the derived accounting views of a transaction set:
// trial balance, general ledger, debtor and creditor ageing, and the monthly
// income and expense series.
package report

import (
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the largest debit/credit difference still reported as balanced.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// TrialBalanceStatus represents the result status of a trial balance check
type TrialBalanceStatus string

const (
	TrialBalanceStatusBalanced   TrialBalanceStatus = "BALANCED"   // Debit equals Credit
	TrialBalanceStatusUnbalanced TrialBalanceStatus = "UNBALANCED" // Debit does not equal Credit
)

// IsValid checks if the status is a valid TrialBalanceStatus
func (s TrialBalanceStatus) IsValid() bool {
	return s == TrialBalanceStatusBalanced || s == TrialBalanceStatusUnbalanced
}

// String returns the string representation
func (s TrialBalanceStatus) String() string {
	return string(s)
}

// IsBalanced returns true if the trial balance is balanced
func (s TrialBalanceStatus) IsBalanced() bool {
	return s == TrialBalanceStatusBalanced
}

// TrialBalanceRow is one account of the trial balance.
type TrialBalanceRow struct {
	Name             string              `json:"name"`
	Type             ledger.CategoryType `json:"type"`
	DebitTotal       decimal.Decimal     `json:"debit_total"`
	CreditTotal      decimal.Decimal     `json:"credit_total"`
	Net              decimal.Decimal     `json:"net"` // credits - debits
	TransactionCount int                 `json:"transaction_count"`
}

// TrialBalance lists debit and credit totals per category account.
//
// This is a presentation-level trial balance over single-sided bank
// transactions, not a double-entry ledger: there are no contra accounts, so
// the totals only balance when money in equals money out for the period.
type TrialBalance struct {
	Rows         []TrialBalanceRow  `json:"rows"`
	TotalDebits  decimal.Decimal    `json:"total_debits"`
	TotalCredits decimal.Decimal    `json:"total_credits"`
	Difference   decimal.Decimal    `json:"difference"` // |debits - credits|
	Status       TrialBalanceStatus `json:"status"`
}

// IsBalanced reports |debits - credits| < 0.01
func (tb *TrialBalance) IsBalanced() bool {
	return tb.Status.IsBalanced()
}

// accountGroup accumulates one account while grouping.
type accountGroup struct {
	name    string
	typ     ledger.CategoryType
	debits  decimal.Decimal
	credits decimal.Decimal
	txs     []ledger.Transaction
}

// groupByAccount resolves categories and groups transactions by account
// name, uncategorised ones under ledger.UncategorisedName. Groups are in
// type-then-name order; transactions keep input order.
func groupByAccount(txs []ledger.Transaction, idx *ledger.CategoryIndex) ([]*accountGroup, error) {
	resolved, err := ledger.Resolve(txs, idx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*accountGroup)
	groups := make([]*accountGroup, 0)
	for _, r := range resolved {
		name := ledger.AccountName(r.Category)
		g, ok := byName[name]
		if !ok {
			g = &accountGroup{
				name:    name,
				typ:     ledger.AccountType(r.Category),
				debits:  decimal.Zero,
				credits: decimal.Zero,
			}
			byName[name] = g
			groups = append(groups, g)
		}
		if r.Transaction.IsDebit() {
			g.debits = g.debits.Add(r.Transaction.Amount)
		} else {
			g.credits = g.credits.Add(r.Transaction.Amount)
		}
		g.txs = append(g.txs, r.Transaction)
	}
	ledger.SortAccounts(groups, func(g *accountGroup) (ledger.CategoryType, string) {
		return g.typ, g.name
	})
	return groups, nil
}

// BuildTrialBalance groups the transactions by category account.
func BuildTrialBalance(txs []ledger.Transaction, idx *ledger.CategoryIndex) (*TrialBalance, error) {
	groups, err := groupByAccount(txs, idx)
	if err != nil {
		return nil, err
	}
	tb := &TrialBalance{
		Rows:         make([]TrialBalanceRow, 0, len(groups)),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, g := range groups {
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			Name:             g.name,
			Type:             g.typ,
			DebitTotal:       g.debits,
			CreditTotal:      g.credits,
			Net:              g.credits.Sub(g.debits),
			TransactionCount: len(g.txs),
		})
		tb.TotalDebits = tb.TotalDebits.Add(g.debits)
		tb.TotalCredits = tb.TotalCredits.Add(g.credits)
	}
	tb.Difference = tb.TotalDebits.Sub(tb.TotalCredits).Abs()
	tb.Status = TrialBalanceStatusUnbalanced
	if tb.Difference.LessThan(BalanceTolerance) {
		tb.Status = TrialBalanceStatusBalanced
	}
	return tb, nil
}

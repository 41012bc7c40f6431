package reconciliation

import (
	"sort"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// TopNonDeductibleLimit caps the non-deductible category list.
const TopNonDeductibleLimit = 5

// Result is the dual-reality reconciliation of a filtered transaction set.
// Amounts are exact; only PercentAllowable is rounded.
type Result struct {
	BankIncome        decimal.Decimal `json:"bank_income"`
	BankOutflow       decimal.Decimal `json:"bank_outflow"`
	NetPosition       decimal.Decimal `json:"net_position"` // bank income - bank outflow
	AllowableExpenses decimal.Decimal `json:"allowable_expenses"`
	NonDeductible     decimal.Decimal `json:"non_deductible"`
	TaxableProfit     decimal.Decimal `json:"taxable_profit"` // bank income - allowable expenses
	PercentAllowable  int64           `json:"percent_allowable"`
	TransactionCount  int             `json:"transaction_count"`

	Categories       []CategoryLine     `json:"categories"`
	TopNonDeductible []NonDeductibleRow `json:"top_non_deductible"`
}

// CategoryLine is the debit-side breakdown for one category.
type CategoryLine struct {
	CategoryID       *uuid.UUID          `json:"category_id,omitempty"`
	Name             string              `json:"name"`
	Type             ledger.CategoryType `json:"type"`
	BankAmount       decimal.Decimal     `json:"bank_amount"`
	AllowableAmount  decimal.Decimal     `json:"allowable_amount"`
	NonDeductible    decimal.Decimal     `json:"non_deductible"`
	EffectivePercent decimal.Decimal     `json:"effective_percent"` // allowable / bank × 100, 2dp
	TransactionCount int                 `json:"transaction_count"`
}

// NonDeductibleRow is an expense category with a disallowed remainder.
type NonDeductibleRow struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Reconcile aggregates bank reality against tax reality. Every transaction is
// validated and every category reference must resolve.
func Reconcile(txs []ledger.Transaction, idx *ledger.CategoryIndex) (*Result, error) {
	resolved, err := ledger.Resolve(txs, idx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		BankIncome:        zero,
		BankOutflow:       zero,
		AllowableExpenses: zero,
		TransactionCount:  len(txs),
	}
	lines := make(map[string]*CategoryLine)
	var order []string

	for _, r := range resolved {
		tx := r.Transaction
		if tx.IsCredit() {
			res.BankIncome = res.BankIncome.Add(tx.Amount)
			continue
		}
		allowable := AllowableAmount(tx, r.Category)
		res.BankOutflow = res.BankOutflow.Add(tx.Amount)
		res.AllowableExpenses = res.AllowableExpenses.Add(allowable)

		key := lineKey(r.Category)
		line, ok := lines[key]
		if !ok {
			line = &CategoryLine{
				Name:            ledger.AccountName(r.Category),
				Type:            ledger.AccountType(r.Category),
				BankAmount:      zero,
				AllowableAmount: zero,
			}
			if r.Category != nil {
				id := r.Category.ID
				line.CategoryID = &id
			}
			lines[key] = line
			order = append(order, key)
		}
		line.BankAmount = line.BankAmount.Add(tx.Amount)
		line.AllowableAmount = line.AllowableAmount.Add(allowable)
		line.TransactionCount++
	}

	res.NonDeductible = res.BankOutflow.Sub(res.AllowableExpenses)
	res.TaxableProfit = res.BankIncome.Sub(res.AllowableExpenses)
	res.NetPosition = res.BankIncome.Sub(res.BankOutflow)
	if res.BankOutflow.IsPositive() {
		res.PercentAllowable = res.AllowableExpenses.Div(res.BankOutflow).Mul(hundred).Round(0).IntPart()
	}

	res.Categories = make([]CategoryLine, 0, len(order))
	for _, key := range order {
		line := lines[key]
		line.NonDeductible = line.BankAmount.Sub(line.AllowableAmount)
		line.EffectivePercent = zero
		if line.BankAmount.IsPositive() {
			line.EffectivePercent = line.AllowableAmount.Div(line.BankAmount).Mul(hundred).Round(2)
		}
		res.Categories = append(res.Categories, *line)
	}
	sort.SliceStable(res.Categories, func(i, j int) bool {
		a, b := res.Categories[i], res.Categories[j]
		if !a.BankAmount.Equal(b.BankAmount) {
			return a.BankAmount.GreaterThan(b.BankAmount)
		}
		return a.Name < b.Name
	})

	res.TopNonDeductible = topNonDeductible(res.Categories)
	return res, nil
}

// GoldenRuleHolds checks income - allowable expenses == taxable profit exactly.
func (r *Result) GoldenRuleHolds() bool {
	return r.BankIncome.Sub(r.AllowableExpenses).Equal(r.TaxableProfit)
}

func topNonDeductible(lines []CategoryLine) []NonDeductibleRow {
	rows := make([]NonDeductibleRow, 0)
	for _, l := range lines {
		if l.Type != ledger.CategoryExpense || !l.NonDeductible.IsPositive() {
			continue
		}
		rows = append(rows, NonDeductibleRow{Name: l.Name, Amount: l.NonDeductible})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Amount.Equal(rows[j].Amount) {
			return rows[i].Amount.GreaterThan(rows[j].Amount)
		}
		return rows[i].Name < rows[j].Name
	})
	if len(rows) > TopNonDeductibleLimit {
		rows = rows[:TopNonDeductibleLimit]
	}
	return rows
}

func lineKey(c *ledger.Category) string {
	if c == nil {
		return ""
	}
	return c.ID.String()
}

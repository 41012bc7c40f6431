package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// MonthlyPoint is one calendar month of the income and expense series.
type MonthlyPoint struct {
	Period   string          `json:"period"` // "2024-05"
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Income   decimal.Decimal `json:"income"`   // credits
	Expenses decimal.Decimal `json:"expenses"` // debits
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"count"`
}

// MonthlySeries groups transactions by calendar month in loc (UTC when nil),
// ascending by period. Months without transactions are absent.
func MonthlySeries(txs []ledger.Transaction, loc *time.Location) ([]MonthlyPoint, error) {
	if err := ledger.ValidateTransactions(txs); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	byKey := make(map[string]*MonthlyPoint)
	for _, tx := range txs {
		d := tx.Date.In(loc)
		key := fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
		p, ok := byKey[key]
		if !ok {
			p = &MonthlyPoint{
				Period:   key,
				Year:     d.Year(),
				Month:    d.Month(),
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			}
			byKey[key] = p
		}
		if tx.IsCredit() {
			p.Income = p.Income.Add(tx.Amount)
		} else {
			p.Expenses = p.Expenses.Add(tx.Amount)
		}
		p.Count++
	}

	out := make([]MonthlyPoint, 0, len(byKey))
	for _, p := range byKey {
		p.Net = p.Income.Sub(p.Expenses)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period < out[j].Period
	})
	return out, nil
}

// Package forecast projects a full tax year from the months observed so far.
package forecast

import (
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/homeledger/taxengine/internal/domain/report"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/internal/domain/tax"
	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// Trend describes the direction of monthly net cash flow
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// String returns the string representation
func (t Trend) String() string {
	return string(t)
}

// Forecast is the annualised projection of a partial year.
type Forecast struct {
	Regime                  ledger.Regime   `json:"regime"`
	MonthsObserved          int             `json:"months_observed"`
	AvgMonthlyIncome        decimal.Decimal `json:"avg_monthly_income"`
	AvgMonthlyExpenses      decimal.Decimal `json:"avg_monthly_expenses"`
	ProjectedAnnualIncome   decimal.Decimal `json:"projected_annual_income"`
	ProjectedAnnualExpenses decimal.Decimal `json:"projected_annual_expenses"`
	ProjectedProfit         decimal.Decimal `json:"projected_profit"`
	ProjectedTax            decimal.Decimal `json:"projected_tax"`
	EffectiveRate           decimal.Decimal `json:"effective_rate"` // percent, 1dp
	Trend                   Trend           `json:"trend"`
	TrendPerMonth           decimal.Decimal `json:"trend_per_month"`
}

// Forecaster projects tax with the simplified paths of one rate table.
type Forecaster struct {
	table *tax.RateTable
}

// NewForecaster validates the table and returns a forecaster bound to it.
func NewForecaster(table *tax.RateTable) (*Forecaster, error) {
	if table == nil {
		return nil, shared.NewInvalidInputError("rate table is required")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Forecaster{table: table}, nil
}

// Forecast annualises an ascending monthly series. Averages divide by the
// months present; projections are total × 12 / months. Companies use the
// flat corporation tax path, everyone else income tax plus Class 4.
func (f *Forecaster) Forecast(series []report.MonthlyPoint, regime ledger.Regime) (*Forecast, error) {
	if len(series) == 0 {
		return nil, shared.ErrEmptyInputForForecast
	}
	if !regime.IsValid() {
		regime = ledger.RegimeSelfAssessment
	}

	income, expenses := decimal.Zero, decimal.Zero
	for _, p := range series {
		income = income.Add(p.Income)
		expenses = expenses.Add(p.Expenses)
	}
	months := decimal.NewFromInt(int64(len(series)))

	out := &Forecast{
		Regime:                  regime,
		MonthsObserved:          len(series),
		AvgMonthlyIncome:        income.Div(months),
		AvgMonthlyExpenses:      expenses.Div(months),
		ProjectedAnnualIncome:   income.Mul(monthsPerYear).Div(months),
		ProjectedAnnualExpenses: expenses.Mul(monthsPerYear).Div(months),
	}
	out.ProjectedProfit = out.ProjectedAnnualIncome.Sub(out.ProjectedAnnualExpenses)

	if regime.IsCompany() {
		out.ProjectedTax = tax.SimplifiedCompanyTax(out.ProjectedProfit, f.table)
	} else {
		out.ProjectedTax = tax.SimplifiedPersonalTax(out.ProjectedProfit, f.table)
	}
	out.EffectiveRate = tax.EffectiveRate(out.ProjectedTax, out.ProjectedProfit)
	out.TrendPerMonth, out.Trend = trend(series)
	return out, nil
}

// trend is (last net - first net) / months.
func trend(series []report.MonthlyPoint) (decimal.Decimal, Trend) {
	first, last := series[0].Net, series[len(series)-1].Net
	slope := last.Sub(first).Div(decimal.NewFromInt(int64(len(series))))
	switch slope.Sign() {
	case 1:
		return slope, TrendImproving
	case -1:
		return slope, TrendDeclining
	default:
		return slope, TrendStable
	}
}

// Package tax computes UK income tax, National Insurance, student loan,
// dividend, corporation tax and VAT figures from an explicit per-year rate table.
package tax

import (
	"fmt"
	"sort"

	"github.com/homeledger/taxengine/internal/domain/period"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Band is a slice of taxable income taxed at one rate. Upper is the top of the
// band measured in taxable income (after the personal allowance); nil means unbounded.
type Band struct {
	Name  string           `yaml:"name" json:"name"`
	Rate  decimal.Decimal  `yaml:"rate" json:"rate"` // percent
	Upper *decimal.Decimal `yaml:"upper,omitempty" json:"upper,omitempty"`
}

// Class2 is the flat-rate self-employed contribution.
type Class2 struct {
	WeeklyRate            decimal.Decimal `yaml:"weekly_rate" json:"weekly_rate"`
	SmallProfitsThreshold decimal.Decimal `yaml:"small_profits_threshold" json:"small_profits_threshold"`
}

// Class4 is the profit-related self-employed contribution.
type Class4 struct {
	LowerProfitsLimit decimal.Decimal `yaml:"lower_profits_limit" json:"lower_profits_limit"`
	UpperProfitsLimit decimal.Decimal `yaml:"upper_profits_limit" json:"upper_profits_limit"`
	MainRate          decimal.Decimal `yaml:"main_rate" json:"main_rate"`             // percent
	AdditionalRate    decimal.Decimal `yaml:"additional_rate" json:"additional_rate"` // percent
}

// LoanPlan is a student-loan repayment plan.
type LoanPlan struct {
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"` // percent
}

// Dividends holds the dividend allowance and the rates stacked on the income-tax bands.
type Dividends struct {
	Allowance      decimal.Decimal `yaml:"allowance" json:"allowance"`
	BasicRate      decimal.Decimal `yaml:"basic_rate" json:"basic_rate"`
	HigherRate     decimal.Decimal `yaml:"higher_rate" json:"higher_rate"`
	AdditionalRate decimal.Decimal `yaml:"additional_rate" json:"additional_rate"`
}

// CorporationTax holds the CT600 rates and marginal relief limits.
type CorporationTax struct {
	SmallProfitsRate       decimal.Decimal `yaml:"small_profits_rate" json:"small_profits_rate"` // percent
	MainRate               decimal.Decimal `yaml:"main_rate" json:"main_rate"`                   // percent
	LowerLimit             decimal.Decimal `yaml:"lower_limit" json:"lower_limit"`
	UpperLimit             decimal.Decimal `yaml:"upper_limit" json:"upper_limit"`
	MarginalReliefFraction decimal.Decimal `yaml:"marginal_relief_fraction" json:"marginal_relief_fraction"`
	// ForecastMarginalRate is the flat rate the forecast applies between the limits.
	ForecastMarginalRate decimal.Decimal `yaml:"forecast_marginal_rate" json:"forecast_marginal_rate"`
}

// VAT holds the registration threshold and the standard rate.
type VAT struct {
	RegistrationThreshold decimal.Decimal `yaml:"registration_threshold" json:"registration_threshold"`
	StandardRate          decimal.Decimal `yaml:"standard_rate" json:"standard_rate"` // percent
}

// RateTable is the immutable set of rates and thresholds for one tax year.
type RateTable struct {
	TaxYear           string              `yaml:"tax_year" json:"tax_year"`
	Version           string              `yaml:"version" json:"version"`
	PersonalAllowance decimal.Decimal     `yaml:"personal_allowance" json:"personal_allowance"`
	TaperThreshold    decimal.Decimal     `yaml:"taper_threshold" json:"taper_threshold"`
	IncomeTaxBands    []Band              `yaml:"income_tax_bands" json:"income_tax_bands"`
	Class2            Class2              `yaml:"class2" json:"class2"`
	Class4            Class4              `yaml:"class4" json:"class4"`
	StudentLoans      map[string]LoanPlan `yaml:"student_loans" json:"student_loans"`
	Dividends         Dividends           `yaml:"dividends" json:"dividends"`
	CorporationTax    CorporationTax      `yaml:"corporation_tax" json:"corporation_tax"`
	VAT               VAT                 `yaml:"vat" json:"vat"`
}

// TaperLimit is the profit at which the personal allowance is fully withdrawn.
func (t *RateTable) TaperLimit() decimal.Decimal {
	return t.TaperThreshold.Add(t.PersonalAllowance.Mul(decimal.NewFromInt(2)))
}

// LoanPlans returns the plan names in sorted order.
func (t *RateTable) LoanPlans() []string {
	names := make([]string, 0, len(t.StudentLoans))
	for name := range t.StudentLoans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks internal consistency. Failures are INVALID_INPUT.
func (t *RateTable) Validate() error {
	if _, err := period.NewCalendar(nil).Parse(t.TaxYear); err != nil {
		return shared.NewInvalidInputError("rate table: %v", err)
	}
	invalid := func(format string, args ...any) error {
		return shared.NewInvalidInputError("rate table %s: %s", t.TaxYear, fmt.Sprintf(format, args...))
	}

	if t.PersonalAllowance.IsNegative() || t.TaperThreshold.IsNegative() {
		return invalid("personal allowance and taper threshold must not be negative")
	}
	if len(t.IncomeTaxBands) == 0 {
		return invalid("no income tax bands")
	}
	prev := decimal.Zero
	for i, b := range t.IncomeTaxBands {
		if err := checkPercent(b.Rate); err != nil {
			return invalid("band %q: %v", b.Name, err)
		}
		last := i == len(t.IncomeTaxBands)-1
		switch {
		case last && b.Upper != nil:
			return invalid("last band %q must be unbounded", b.Name)
		case !last && b.Upper == nil:
			return invalid("band %q must have an upper limit", b.Name)
		case !last && !b.Upper.GreaterThan(prev):
			return invalid("band %q upper limit %s is not above %s", b.Name, b.Upper, prev)
		}
		if b.Upper != nil {
			prev = *b.Upper
		}
	}

	if t.Class2.WeeklyRate.IsNegative() || t.Class2.SmallProfitsThreshold.IsNegative() {
		return invalid("class 2 values must not be negative")
	}
	if !t.Class4.UpperProfitsLimit.GreaterThan(t.Class4.LowerProfitsLimit) {
		return invalid("class 4 upper profits limit must exceed the lower limit")
	}
	for _, r := range []decimal.Decimal{t.Class4.MainRate, t.Class4.AdditionalRate} {
		if err := checkPercent(r); err != nil {
			return invalid("class 4: %v", err)
		}
	}

	for _, name := range t.LoanPlans() {
		p := t.StudentLoans[name]
		if p.Threshold.IsNegative() {
			return invalid("student loan %s threshold must not be negative", name)
		}
		if err := checkPercent(p.Rate); err != nil {
			return invalid("student loan %s: %v", name, err)
		}
	}

	if t.Dividends.Allowance.IsNegative() {
		return invalid("dividend allowance must not be negative")
	}
	for _, r := range []decimal.Decimal{t.Dividends.BasicRate, t.Dividends.HigherRate, t.Dividends.AdditionalRate} {
		if err := checkPercent(r); err != nil {
			return invalid("dividends: %v", err)
		}
	}

	ct := t.CorporationTax
	if !ct.UpperLimit.GreaterThan(ct.LowerLimit) {
		return invalid("corporation tax upper limit must exceed the lower limit")
	}
	for _, r := range []decimal.Decimal{ct.SmallProfitsRate, ct.MainRate, ct.ForecastMarginalRate} {
		if err := checkPercent(r); err != nil {
			return invalid("corporation tax: %v", err)
		}
	}
	if ct.MarginalReliefFraction.IsNegative() || ct.MarginalReliefFraction.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return invalid("marginal relief fraction must be in [0, 1)")
	}

	if t.VAT.RegistrationThreshold.IsNegative() {
		return invalid("VAT threshold must not be negative")
	}
	if err := checkPercent(t.VAT.StandardRate); err != nil {
		return invalid("VAT: %v", err)
	}
	return nil
}

func checkPercent(r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(hundred) {
		return fmt.Errorf("rate %s is outside 0-100", r)
	}
	return nil
}

package tax

import (
	"strings"

	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LoanPlanNone means no student loan deduction.
const LoanPlanNone = ""

// Student-loan plan names as they appear in rate tables.
const (
	LoanPlan1            = "plan1"
	LoanPlan2            = "plan2"
	LoanPlan4            = "plan4"
	LoanPlan5            = "plan5"
	LoanPlanPostgraduate = "postgraduate"
)

// TaperMarginalRate is the effective marginal rate inside the allowance taper zone.
var TaperMarginalRate = decimal.NewFromInt(60)

// Options tunes a personal tax computation.
type Options struct {
	StudentLoanPlan string `json:"student_loan_plan,omitempty"`
	IncludeClass2   bool   `json:"include_class2"`
}

// BandLine is one row of the income-tax breakdown.
type BandLine struct {
	Band    string          `json:"band"`
	Rate    string          `json:"rate"`
	Taxable decimal.Decimal `json:"taxable"`
	Amount  decimal.Decimal `json:"amount"`
}

// NILine is one row of the National Insurance breakdown.
type NILine struct {
	Band   string          `json:"band"`
	Rate   string          `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Result is a full personal tax computation. Amounts are exact; only
// EffectiveRate is rounded.
type Result struct {
	TaxYear               string          `json:"tax_year"`
	Profit                decimal.Decimal `json:"profit"`
	TaxableIncome         decimal.Decimal `json:"taxable_income"`
	PersonalAllowanceUsed decimal.Decimal `json:"personal_allowance_used"`
	IncomeTax             decimal.Decimal `json:"income_tax"`
	Class2NIC             decimal.Decimal `json:"class2_nic"`
	Class4NIC             decimal.Decimal `json:"class4_nic"`
	NationalInsurance     decimal.Decimal `json:"national_insurance"`
	StudentLoan           decimal.Decimal `json:"student_loan"`
	StudentLoanPlan       string          `json:"student_loan_plan,omitempty"`
	Total                 decimal.Decimal `json:"total"`
	EffectiveRate         decimal.Decimal `json:"effective_rate"` // percent, 1dp
	MarginalRate          decimal.Decimal `json:"marginal_rate"`  // percent
	Breakdown             []BandLine      `json:"breakdown"`
	NIBreakdown           []NILine        `json:"ni_breakdown"`
}

// Calculator computes UK self-employed tax for one rate table.
type Calculator struct {
	table *RateTable
}

// NewCalculator validates the table and returns a calculator bound to it.
func NewCalculator(table *RateTable) (*Calculator, error) {
	if table == nil {
		return nil, shared.NewInvalidInputError("rate table is required")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{table: table}, nil
}

// Table returns the rate table in use
func (c *Calculator) Table() *RateTable {
	return c.table
}

// Compute runs the band algorithm on taxable profit. A negative profit is a
// trading loss: it is reported as-is and attracts no tax.
func (c *Calculator) Compute(profit decimal.Decimal, opts Options) (*Result, error) {
	t := c.table
	var plan *LoanPlan
	if opts.StudentLoanPlan != LoanPlanNone {
		p, ok := t.StudentLoans[opts.StudentLoanPlan]
		if !ok {
			return nil, shared.NewInvalidInputError("student loan plan %q is not in rate table %s (valid: %s)",
				opts.StudentLoanPlan, t.TaxYear, strings.Join(t.LoanPlans(), ", "))
		}
		plan = &p
	}

	p := decimal.Max(profit, decimal.Zero)
	res := &Result{
		TaxYear:         t.TaxYear,
		Profit:          profit,
		StudentLoanPlan: opts.StudentLoanPlan,
		Class2NIC:       decimal.Zero,
		Class4NIC:       decimal.Zero,
		StudentLoan:     decimal.Zero,
		NIBreakdown:     make([]NILine, 0),
	}

	allowance := taperedAllowance(p, t)
	res.PersonalAllowanceUsed = allowance
	res.TaxableIncome = decimal.Max(decimal.Zero, p.Sub(allowance))

	paBand := "Personal Allowance (tapered to £0)"
	if allowance.IsPositive() {
		paBand = "Personal Allowance (£0 - " + pounds(allowance) + ")"
	}
	res.Breakdown = []BandLine{{
		Band:    paBand,
		Rate:    "0%",
		Taxable: decimal.Min(p, allowance),
		Amount:  decimal.Zero,
	}}
	slices := splitBands(res.TaxableIncome, t.IncomeTaxBands)
	for _, s := range slices {
		res.Breakdown = append(res.Breakdown, BandLine{
			Band:    bandLabel(s, allowance, p),
			Rate:    rateLabel(s.band.Rate),
			Taxable: s.amount,
			Amount:  s.tax,
		})
	}
	res.IncomeTax = sumTax(slices)

	if opts.IncludeClass2 && p.GreaterThanOrEqual(t.Class2.SmallProfitsThreshold) && p.IsPositive() {
		res.Class2NIC = t.Class2.WeeklyRate.Mul(weeks)
		res.NIBreakdown = append(res.NIBreakdown, NILine{
			Band:   "Class 2 NIC (flat rate, 52 weeks)",
			Rate:   penceLabel(t.Class2.WeeklyRate) + "/week",
			Amount: res.Class2NIC,
		})
	}

	main, additional := class4Slices(p, t.Class4)
	if main.IsPositive() {
		amount := percentOf(main, t.Class4.MainRate)
		res.Class4NIC = res.Class4NIC.Add(amount)
		res.NIBreakdown = append(res.NIBreakdown, NILine{
			Band:   "Class 4 NIC (" + pounds(t.Class4.LowerProfitsLimit) + " - " + pounds(decimal.Min(p, t.Class4.UpperProfitsLimit)) + ")",
			Rate:   rateLabel(t.Class4.MainRate),
			Amount: amount,
		})
	}
	if additional.IsPositive() {
		amount := percentOf(additional, t.Class4.AdditionalRate)
		res.Class4NIC = res.Class4NIC.Add(amount)
		res.NIBreakdown = append(res.NIBreakdown, NILine{
			Band:   "Class 4 NIC (above " + pounds(t.Class4.UpperProfitsLimit) + ")",
			Rate:   rateLabel(t.Class4.AdditionalRate),
			Amount: amount,
		})
	}
	res.NationalInsurance = res.Class2NIC.Add(res.Class4NIC)

	if plan != nil && p.GreaterThan(plan.Threshold) {
		res.StudentLoan = percentOf(p.Sub(plan.Threshold), plan.Rate)
	}

	res.Total = res.IncomeTax.Add(res.NationalInsurance).Add(res.StudentLoan)
	res.EffectiveRate = EffectiveRate(res.Total, p)
	res.MarginalRate = c.MarginalRate(p)
	return res, nil
}

// MarginalRate is the income tax plus Class 4 rate on the next pound of
// profit. Inside the allowance taper zone it is fixed at 60%.
func (c *Calculator) MarginalRate(profit decimal.Decimal) decimal.Decimal {
	t := c.table
	if profit.GreaterThan(t.TaperThreshold) && profit.LessThanOrEqual(t.TaperLimit()) {
		return TaperMarginalRate
	}
	rate := decimal.Zero
	taxable := profit.Sub(taperedAllowance(profit, t))
	if i := bandIndexAt(taxable, t.IncomeTaxBands); i >= 0 {
		rate = t.IncomeTaxBands[i].Rate
	}
	return rate.Add(class4Rate(profit, t.Class4))
}

// EffectiveRate is total / profit × 100 to one decimal place, 0 when profit is not positive.
func EffectiveRate(total, profit decimal.Decimal) decimal.Decimal {
	if !profit.IsPositive() {
		return decimal.Zero
	}
	return total.Div(profit).Mul(hundred).Round(1)
}

func bandLabel(s bandSlice, allowance, profit decimal.Decimal) string {
	from := pounds(allowance.Add(s.lower).Add(decimal.NewFromInt(1)))
	if s.band.Upper == nil {
		return s.band.Name + " (" + from + "+)"
	}
	to := decimal.Min(profit, allowance.Add(*s.band.Upper))
	return s.band.Name + " (" + from + " - " + pounds(to) + ")"
}

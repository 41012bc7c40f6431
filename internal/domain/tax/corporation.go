package tax

import "github.com/shopspring/decimal"

// CTBand names the corporation tax regime a profit falls into.
type CTBand string

const (
	CTSmallProfits   CTBand = "small_profits"
	CTMarginalRelief CTBand = "marginal_relief"
	CTMain           CTBand = "main"
)

// CorporationTaxResult is a CT600-style computation.
type CorporationTaxResult struct {
	TaxYear        string          `json:"tax_year"`
	Profit         decimal.Decimal `json:"profit"`
	Band           CTBand          `json:"band"`
	Rate           decimal.Decimal `json:"rate"` // headline rate applied before relief
	GrossTax       decimal.Decimal `json:"gross_tax"`
	MarginalRelief decimal.Decimal `json:"marginal_relief"`
	Tax            decimal.Decimal `json:"tax"`
	EffectiveRate  decimal.Decimal `json:"effective_rate"`
}

// ComputeCorporationTax computes corporation tax with statutory marginal relief:
// the small profits rate up to the lower limit, the main rate from the upper
// limit, and main rate less (upper - profit) × fraction in between.
func ComputeCorporationTax(profit decimal.Decimal, t *RateTable) CorporationTaxResult {
	ct := t.CorporationTax
	p := decimal.Max(profit, decimal.Zero)
	res := CorporationTaxResult{
		TaxYear:        t.TaxYear,
		Profit:         profit,
		MarginalRelief: decimal.Zero,
	}
	switch {
	case p.LessThanOrEqual(ct.LowerLimit):
		res.Band = CTSmallProfits
		res.Rate = ct.SmallProfitsRate
		res.GrossTax = percentOf(p, ct.SmallProfitsRate)
	case p.GreaterThanOrEqual(ct.UpperLimit):
		res.Band = CTMain
		res.Rate = ct.MainRate
		res.GrossTax = percentOf(p, ct.MainRate)
	default:
		res.Band = CTMarginalRelief
		res.Rate = ct.MainRate
		res.GrossTax = percentOf(p, ct.MainRate)
		res.MarginalRelief = ct.UpperLimit.Sub(p).Mul(ct.MarginalReliefFraction)
	}
	res.Tax = res.GrossTax.Sub(res.MarginalRelief)
	res.EffectiveRate = EffectiveRate(res.Tax, p)
	return res
}

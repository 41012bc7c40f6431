package tax

import "github.com/shopspring/decimal"

// SimplifiedPersonalTax is the forecast path for individuals: income tax on
// profit above the full personal allowance plus Class 4, with no taper,
// Class 2 or student loan. It shares the band and Class 4 helpers with
// Calculator so the thresholds cannot drift apart.
func SimplifiedPersonalTax(profit decimal.Decimal, t *RateTable) decimal.Decimal {
	if !profit.IsPositive() {
		return decimal.Zero
	}
	taxable := decimal.Max(decimal.Zero, profit.Sub(t.PersonalAllowance))
	incomeTax := sumTax(splitBands(taxable, t.IncomeTaxBands))
	main, additional := class4Slices(profit, t.Class4)
	ni := percentOf(main, t.Class4.MainRate).Add(percentOf(additional, t.Class4.AdditionalRate))
	return incomeTax.Add(ni)
}

// SimplifiedCompanyTax is the forecast path for companies: one flat rate on
// the whole profit. Between the limits it uses the table's forecast marginal
// rate as an approximation of marginal relief.
func SimplifiedCompanyTax(profit decimal.Decimal, t *RateTable) decimal.Decimal {
	if !profit.IsPositive() {
		return decimal.Zero
	}
	ct := t.CorporationTax
	rate := ct.ForecastMarginalRate
	switch {
	case profit.LessThanOrEqual(ct.LowerLimit):
		rate = ct.SmallProfitsRate
	case profit.GreaterThan(ct.UpperLimit):
		rate = ct.MainRate
	}
	return percentOf(profit, rate)
}

package tax

import "github.com/shopspring/decimal"

// DividendResult is dividend tax stacked on top of other taxable income.
type DividendResult struct {
	Dividends     decimal.Decimal `json:"dividends"`
	AllowanceUsed decimal.Decimal `json:"allowance_used"`
	Taxable       decimal.Decimal `json:"taxable"`
	Tax           decimal.Decimal `json:"tax"`
	Breakdown     []BandLine      `json:"breakdown"`
}

// DividendTax taxes dividends as the top slice of income. otherIncome is
// total non-dividend income before the personal allowance. Unused personal
// allowance covers dividends first, then the dividend allowance, and the rest
// is taxed at the dividend rate of whichever income-tax band it lands in.
// The dividend allowance still uses up band space.
func DividendTax(otherIncome, dividends decimal.Decimal, t *RateTable) DividendResult {
	res := DividendResult{
		Dividends:     dividends,
		AllowanceUsed: decimal.Zero,
		Taxable:       decimal.Zero,
		Tax:           decimal.Zero,
		Breakdown:     make([]BandLine, 0),
	}
	if !dividends.IsPositive() {
		return res
	}
	other := decimal.Max(otherIncome, decimal.Zero)
	allowance := taperedAllowance(other.Add(dividends), t)

	pos := other.Sub(allowance)
	remaining := dividends
	if pos.IsNegative() {
		remaining = decimal.Max(decimal.Zero, remaining.Add(pos))
		pos = decimal.Zero
	}
	res.Taxable = remaining

	rates := []decimal.Decimal{t.Dividends.BasicRate, t.Dividends.HigherRate, t.Dividends.AdditionalRate}
	covered := decimal.Min(remaining, t.Dividends.Allowance)
	res.AllowanceUsed = covered

	for i, b := range t.IncomeTaxBands {
		if !remaining.IsPositive() {
			break
		}
		if b.Upper != nil && !b.Upper.GreaterThan(pos) {
			continue
		}
		room := remaining
		if b.Upper != nil {
			room = decimal.Min(remaining, b.Upper.Sub(pos))
		}
		free := decimal.Min(room, covered)
		covered = covered.Sub(free)
		taxed := room.Sub(free)

		rate := rates[min(i, len(rates)-1)]
		if taxed.IsPositive() {
			amount := percentOf(taxed, rate)
			res.Tax = res.Tax.Add(amount)
			res.Breakdown = append(res.Breakdown, BandLine{
				Band:    "Dividends: " + b.Name,
				Rate:    rateLabel(rate),
				Taxable: taxed,
				Amount:  amount,
			})
		}
		remaining = remaining.Sub(room)
		pos = pos.Add(room)
	}
	return res
}

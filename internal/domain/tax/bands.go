package tax

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
	weeks   = decimal.NewFromInt(52)
)

// bandSlice is the part of an amount that falls in one band.
type bandSlice struct {
	band   Band
	lower  decimal.Decimal
	amount decimal.Decimal
	tax    decimal.Decimal
}

// splitBands walks the bands in ascending order, taking min(remaining, width)
// from each until nothing remains. Only bands that receive income are returned.
func splitBands(taxable decimal.Decimal, bands []Band) []bandSlice {
	var out []bandSlice
	remaining := taxable
	lower := decimal.Zero
	for _, b := range bands {
		if !remaining.IsPositive() {
			break
		}
		amount := remaining
		if b.Upper != nil {
			amount = decimal.Min(remaining, b.Upper.Sub(lower))
		}
		if amount.IsPositive() {
			out = append(out, bandSlice{band: b, lower: lower, amount: amount, tax: percentOf(amount, b.Rate)})
		}
		remaining = remaining.Sub(amount)
		if b.Upper != nil {
			lower = *b.Upper
		}
	}
	return out
}

// sumTax totals the tax over band slices.
func sumTax(slices []bandSlice) decimal.Decimal {
	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(s.tax)
	}
	return total
}

// bandIndexAt returns the index of the band holding taxable income x, using
// lower < x <= upper. It returns -1 when x is not positive.
func bandIndexAt(x decimal.Decimal, bands []Band) int {
	if !x.IsPositive() {
		return -1
	}
	for i, b := range bands {
		if b.Upper == nil || x.LessThanOrEqual(*b.Upper) {
			return i
		}
	}
	return len(bands) - 1
}

// taperedAllowance withdraws £1 of allowance for every £2 of profit over the
// taper threshold, never below zero.
func taperedAllowance(profit decimal.Decimal, t *RateTable) decimal.Decimal {
	if !profit.GreaterThan(t.TaperThreshold) {
		return t.PersonalAllowance
	}
	reduction := profit.Sub(t.TaperThreshold).Div(two).Floor()
	return decimal.Max(decimal.Zero, t.PersonalAllowance.Sub(reduction))
}

// class4Slices splits profit across the Class 4 main and additional tiers.
func class4Slices(profit decimal.Decimal, c Class4) (main, additional decimal.Decimal) {
	main, additional = decimal.Zero, decimal.Zero
	if !profit.GreaterThan(c.LowerProfitsLimit) {
		return
	}
	main = decimal.Min(profit, c.UpperProfitsLimit).Sub(c.LowerProfitsLimit)
	if profit.GreaterThan(c.UpperProfitsLimit) {
		additional = profit.Sub(c.UpperProfitsLimit)
	}
	return
}

// class4Rate is the Class 4 rate on the next pound of profit.
func class4Rate(profit decimal.Decimal, c Class4) decimal.Decimal {
	switch {
	case profit.GreaterThan(c.UpperProfitsLimit):
		return c.AdditionalRate
	case profit.GreaterThan(c.LowerProfitsLimit):
		return c.MainRate
	default:
		return decimal.Zero
	}
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// pounds formats whole pounds with thousands separators, e.g. "£12,570".
func pounds(d decimal.Decimal) string {
	return message.NewPrinter(language.BritishEnglish).Sprintf("£%d", d.Floor().IntPart())
}

// penceLabel formats pounds and pence, e.g. "£3.50".
func penceLabel(d decimal.Decimal) string {
	return "£" + d.StringFixed(2)
}

// rateLabel formats a percent rate, e.g. "20%".
func rateLabel(r decimal.Decimal) string {
	return r.String() + "%"
}

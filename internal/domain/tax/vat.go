package tax

import "github.com/shopspring/decimal"

// VATReturn holds the nine VAT100 boxes.
type VATReturn struct {
	Box1 decimal.Decimal `json:"box1"` // VAT due on sales
	Box2 decimal.Decimal `json:"box2"` // VAT due on EU acquisitions
	Box3 decimal.Decimal `json:"box3"` // total VAT due
	Box4 decimal.Decimal `json:"box4"` // VAT reclaimed on purchases
	Box5 decimal.Decimal `json:"box5"` // net VAT to pay (negative is a repayment)
	Box6 decimal.Decimal `json:"box6"` // total sales excluding VAT
	Box7 decimal.Decimal `json:"box7"` // total purchases excluding VAT
	Box8 decimal.Decimal `json:"box8"` // EU supplies
	Box9 decimal.Decimal `json:"box9"` // EU acquisitions
}

// IsRepayment reports whether HMRC owes the business.
func (v VATReturn) IsRepayment() bool {
	return v.Box5.IsNegative()
}

// VATReturnFor builds a VAT100 at the standard rate from net sales and net
// allowable purchases. EU boxes are always zero.
func VATReturnFor(sales, purchases decimal.Decimal, t *RateTable) VATReturn {
	rate := t.VAT.StandardRate
	v := VATReturn{
		Box1: percentOf(sales, rate),
		Box2: decimal.Zero,
		Box4: percentOf(purchases, rate),
		Box6: sales,
		Box7: purchases,
		Box8: decimal.Zero,
		Box9: decimal.Zero,
	}
	v.Box3 = v.Box1.Add(v.Box2)
	v.Box5 = v.Box3.Sub(v.Box4)
	return v
}

// ExceedsVATThreshold reports whether turnover is above the registration threshold.
func ExceedsVATThreshold(turnover decimal.Decimal, t *RateTable) bool {
	return turnover.GreaterThan(t.VAT.RegistrationThreshold)
}

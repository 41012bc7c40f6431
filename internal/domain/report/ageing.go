package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Bucket is an ageing bucket label.
type Bucket string

const (
	BucketCurrent Bucket = "current"
	Bucket30      Bucket = "0-30"
	Bucket60      Bucket = "31-60"
	Bucket90      Bucket = "61-90"
	BucketOver90  Bucket = "90+"
)

// BucketFor places a days-overdue count: 0 is current, then 1-30, 31-60,
// 61-90 and over 90.
func BucketFor(daysOverdue int) Bucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket30
	case daysOverdue <= 60:
		return Bucket60
	case daysOverdue <= 90:
		return Bucket90
	default:
		return BucketOver90
	}
}

// AgeingBuckets sums amounts per bucket.
type AgeingBuckets struct {
	Current decimal.Decimal `json:"current"`
	Days30  decimal.Decimal `json:"days_30"`
	Days60  decimal.Decimal `json:"days_60"`
	Days90  decimal.Decimal `json:"days_90"`
	Over90  decimal.Decimal `json:"over_90"`
	Total   decimal.Decimal `json:"total"`
}

func newBuckets() AgeingBuckets {
	return AgeingBuckets{
		Current: decimal.Zero,
		Days30:  decimal.Zero,
		Days60:  decimal.Zero,
		Days90:  decimal.Zero,
		Over90:  decimal.Zero,
		Total:   decimal.Zero,
	}
}

func (b *AgeingBuckets) add(bucket Bucket, amount decimal.Decimal) {
	switch bucket {
	case BucketCurrent:
		b.Current = b.Current.Add(amount)
	case Bucket30:
		b.Days30 = b.Days30.Add(amount)
	case Bucket60:
		b.Days60 = b.Days60.Add(amount)
	case Bucket90:
		b.Days90 = b.Days90.Add(amount)
	default:
		b.Over90 = b.Over90.Add(amount)
	}
	b.Total = b.Total.Add(amount)
}

// Sum adds the five buckets; it always equals Total.
func (b AgeingBuckets) Sum() decimal.Decimal {
	return b.Current.Add(b.Days30).Add(b.Days60).Add(b.Days90).Add(b.Over90)
}

// DebtorItem is one unpaid invoice with its age.
type DebtorItem struct {
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"` // date the age is measured from
	DaysOverdue int             `json:"days_overdue"`
	Bucket      Bucket          `json:"bucket"`
}

// DebtorAgeing is the aged debtors report.
type DebtorAgeing struct {
	AgeingBuckets
	Items []DebtorItem `json:"items"`
}

// DaysOverdue is max(0, whole days from the invoice's ageing date to now).
func DaysOverdue(inv ledger.Invoice, now time.Time) int {
	days := int(now.Sub(inv.AgeingDate(now)) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// AgeDebtors buckets unpaid invoices by days overdue. Paid invoices are
// skipped. Items are ordered most overdue first.
func AgeDebtors(invoices []ledger.Invoice, now time.Time) (*DebtorAgeing, error) {
	out := &DebtorAgeing{AgeingBuckets: newBuckets(), Items: make([]DebtorItem, 0)}
	for _, inv := range invoices {
		if err := inv.Validate(); err != nil {
			return nil, err
		}
		if inv.IsPaid() {
			continue
		}
		days := DaysOverdue(inv, now)
		bucket := BucketFor(days)
		out.add(bucket, inv.Amount)
		out.Items = append(out.Items, DebtorItem{
			InvoiceID:   inv.ID,
			Name:        inv.DisplayName(),
			Amount:      inv.Amount,
			Date:        inv.AgeingDate(now),
			DaysOverdue: days,
			Bucket:      bucket,
		})
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].DaysOverdue > out.Items[j].DaysOverdue
	})
	return out, nil
}

// CreditorItem is one active bill.
type CreditorItem struct {
	BillID    uuid.UUID       `json:"bill_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency"`
}

// CreditorAgeing is the aged creditors report. Bills carry no due dates, so
// everything is current; it is not symmetric with DebtorAgeing.
type CreditorAgeing struct {
	AgeingBuckets
	Items []CreditorItem `json:"items"`
}

// AgeCreditors totals active bills as current. Items are ordered largest first.
func AgeCreditors(bills []ledger.Bill) (*CreditorAgeing, error) {
	out := &CreditorAgeing{AgeingBuckets: newBuckets(), Items: make([]CreditorItem, 0)}
	for _, b := range bills {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if !b.IsActive {
			continue
		}
		out.add(BucketCurrent, b.Amount)
		out.Items = append(out.Items, CreditorItem{
			BillID:    b.ID,
			Name:      b.DisplayName(),
			Amount:    b.Amount,
			Frequency: b.EffectiveFrequency(),
		})
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].Amount.GreaterThan(out.Items[j].Amount)
	})
	return out, nil
}

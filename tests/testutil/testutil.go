// Package testutil provides common test utilities for the tax engine.
// It contains deterministic identifiers, date helpers and a seeded
// generator of transaction snapshots for property tests.
package testutil

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// NewTestUUID generates a deterministic UUID for testing.
// Uses the provided seed string to create a reproducible UUID.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestEntityID returns a standard entity ID for tests.
func TestEntityID() uuid.UUID {
	return NewTestUUID("test-entity")
}

// TestAccountID returns a standard bank account ID for tests.
func TestAccountID() uuid.UUID {
	return NewTestUUID("test-account")
}

// Date returns midday UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// Money parses a decimal literal and panics on error.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Category builds a category with a deterministic ID derived from its name.
func Category(name string, typ ledger.CategoryType, deductiblePercent int64) ledger.Category {
	return ledger.Category{
		ID:                          NewTestUUID("category-" + name),
		Name:                        name,
		Type:                        typ,
		DefaultDeductibilityPercent: decimal.NewFromInt(deductiblePercent),
	}
}

// Tx builds an approved transaction on the standard account.
func Tx(date time.Time, amount string, dir ledger.Direction, cat *ledger.Category) ledger.Transaction {
	tx := ledger.Transaction{
		ID:          uuid.New(),
		AccountID:   TestAccountID(),
		EntityID:    TestEntityID(),
		Date:        date,
		Description: "test transaction",
		Amount:      Money(amount),
		Direction:   dir,
		IsApproved:  true,
	}
	if cat != nil {
		id := cat.ID
		tx.CategoryID = &id
	}
	return tx
}

// WithOverride returns tx with a deductibility override.
func WithOverride(tx ledger.Transaction, percent string) ledger.Transaction {
	p := Money(percent)
	tx.AppliedDeductibilityPercent = &p
	return tx
}

// Snapshot is a generated set of categories and transactions.
type Snapshot struct {
	Categories   []ledger.Category
	Transactions []ledger.Transaction
}

// Generator produces reproducible random snapshots from a fixed seed.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a generator seeded for reproducible runs.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Amount returns a random pence-precision amount in [min, max].
func (g *Generator) Amount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Price(min, max)).Round(2)
}

// Int returns a random integer in [min, max].
func (g *Generator) Int(min, max int) int {
	return g.faker.Number(min, max)
}

// Snapshot generates up to n transactions inside [start, end] spread over a
// handful of income and expense categories, some uncategorised and some
// carrying a deductibility override.
func (g *Generator) Snapshot(n int, start, end time.Time) Snapshot {
	f := g.faker
	cats := []ledger.Category{
		Category("Sales", ledger.CategoryIncome, 0),
		Category("Interest", ledger.CategoryIncome, 0),
		Category("Travel", ledger.CategoryExpense, int64(f.Number(0, 100))),
		Category("Office Software", ledger.CategoryExpense, 100),
		Category("Entertainment", ledger.CategoryExpense, 0),
		Category("Rent", ledger.CategoryExpense, int64(f.Number(0, 100))),
	}
	txs := make([]ledger.Transaction, 0, n)
	for i := 0; i < n; i++ {
		dir := ledger.Debit
		if f.Bool() {
			dir = ledger.Credit
		}
		var cat *ledger.Category
		if f.Number(1, 10) > 1 {
			c := cats[f.Number(0, len(cats)-1)]
			cat = &c
		}
		tx := ledger.Transaction{
			ID:          uuid.New(),
			AccountID:   TestAccountID(),
			EntityID:    TestEntityID(),
			Date:        f.DateRange(start, end),
			Description: f.Company(),
			Amount:      g.Amount(0, 5000),
			Direction:   dir,
			IsApproved:  f.Bool(),
		}
		if cat != nil {
			id := cat.ID
			tx.CategoryID = &id
		}
		if f.Number(1, 5) == 1 {
			p := decimal.NewFromInt(int64(f.Number(0, 100)))
			tx.AppliedDeductibilityPercent = &p
		}
		txs = append(txs, tx)
	}
	return Snapshot{Categories: cats, Transactions: txs}
}

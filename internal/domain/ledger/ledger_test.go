package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/period"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newTx(date time.Time, amount string, dir Direction) Transaction {
	return Transaction{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		EntityID:  uuid.New(),
		Date:      date,
		Amount:    decimal.RequireFromString(amount),
		Direction: dir,
	}
}

func TestDirection(t *testing.T) {
	t.Run("IsValid accepts credit and debit", func(t *testing.T) {
		assert.True(t, Credit.IsValid())
		assert.True(t, Debit.IsValid())
		assert.False(t, Direction("refund").IsValid())
	})

	t.Run("String returns the raw value", func(t *testing.T) {
		assert.Equal(t, "credit", Credit.String())
		assert.Equal(t, "debit", Debit.String())
	})
}

func TestTransaction_Validate(t *testing.T) {
	t.Run("accepts a zero amount", func(t *testing.T) {
		tx := newTx(day(2024, 5, 1), "0", Debit)
		assert.NoError(t, tx.Validate())
	})

	t.Run("rejects a negative amount", func(t *testing.T) {
		tx := newTx(day(2024, 5, 1), "-10.50", Debit)
		err := tx.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNegativeAmount))
		assert.Contains(t, err.Error(), "-10.5")
	})

	t.Run("rejects an unknown direction", func(t *testing.T) {
		tx := newTx(day(2024, 5, 1), "10", Direction("sideways"))
		err := tx.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("ValidateTransactions stops at the first failure", func(t *testing.T) {
		txs := []Transaction{
			newTx(day(2024, 5, 1), "10", Credit),
			newTx(day(2024, 5, 2), "-1", Debit),
			newTx(day(2024, 5, 3), "10", Direction("x")),
		}
		err := ValidateTransactions(txs)
		assert.True(t, errors.Is(err, shared.ErrNegativeAmount))
	})
}

func TestSortedByDate(t *testing.T) {
	a := newTx(day(2024, 6, 1), "1", Credit)
	b := newTx(day(2024, 4, 10), "2", Debit)
	c := newTx(day(2024, 6, 1), "3", Debit)
	input := []Transaction{a, b, c}

	t.Run("ascending is stable for equal dates", func(t *testing.T) {
		got := SortedByDate(input)
		require.Len(t, got, 3)
		assert.Equal(t, b.ID, got[0].ID)
		assert.Equal(t, a.ID, got[1].ID)
		assert.Equal(t, c.ID, got[2].ID)
	})

	t.Run("descending puts the newest first", func(t *testing.T) {
		got := SortedByDateDesc(input)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, c.ID, got[1].ID)
		assert.Equal(t, b.ID, got[2].ID)
	})

	t.Run("input order is untouched", func(t *testing.T) {
		_ = SortedByDate(input)
		assert.Equal(t, a.ID, input[0].ID)
		assert.Equal(t, b.ID, input[1].ID)
	})
}

func TestCategory_Validate(t *testing.T) {
	valid := Category{ID: uuid.New(), Name: "Travel", Type: CategoryExpense}

	t.Run("valid category passes", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
		assert.True(t, valid.IsExpense())
		assert.False(t, valid.IsIncome())
	})

	tests := []struct {
		name   string
		mutate func(c *Category)
		field  string
	}{
		{"missing id", func(c *Category) { c.ID = uuid.Nil }, "id"},
		{"missing name", func(c *Category) { c.Name = "" }, "name"},
		{"bad type", func(c *Category) { c.Type = "asset" }, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestCategoryIndex(t *testing.T) {
	travel := Category{ID: uuid.New(), Name: "Travel", Type: CategoryExpense}
	sales := Category{ID: uuid.New(), Name: "Sales", Type: CategoryIncome}

	t.Run("indexes categories in input order", func(t *testing.T) {
		idx, err := NewCategoryIndex([]Category{travel, sales})
		require.NoError(t, err)
		assert.Equal(t, 2, idx.Len())
		cats := idx.Categories()
		assert.Equal(t, "Travel", cats[0].Name)
		assert.Equal(t, "Sales", cats[1].Name)

		got, ok := idx.Get(sales.ID)
		assert.True(t, ok)
		assert.Equal(t, sales, got)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := NewCategoryIndex([]Category{travel, travel})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("Lookup resolves, passes uncategorised and rejects unknown ids", func(t *testing.T) {
		idx, err := NewCategoryIndex([]Category{travel})
		require.NoError(t, err)

		tx := newTx(day(2024, 5, 1), "10", Debit)
		c, err := idx.Lookup(tx)
		require.NoError(t, err)
		assert.Nil(t, c)

		tx.CategoryID = &travel.ID
		c, err = idx.Lookup(tx)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "Travel", c.Name)

		unknown := uuid.New()
		tx.CategoryID = &unknown
		_, err = idx.Lookup(tx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrMissingReferenceData))
		assert.Contains(t, err.Error(), unknown.String())
	})

	t.Run("nil index holds no categories", func(t *testing.T) {
		var idx *CategoryIndex
		assert.Equal(t, 0, idx.Len())
		assert.Empty(t, idx.Categories())
		_, ok := idx.Get(travel.ID)
		assert.False(t, ok)

		tx := newTx(day(2024, 5, 1), "10", Debit)
		c, err := idx.Lookup(tx)
		require.NoError(t, err)
		assert.Nil(t, c)

		tx.CategoryID = &travel.ID
		assert.NotPanics(t, func() { _, err = idx.Lookup(tx) })
		assert.True(t, errors.Is(err, shared.ErrMissingReferenceData))
	})

	t.Run("Resolve fails on a missing reference", func(t *testing.T) {
		idx, err := NewCategoryIndex(nil)
		require.NoError(t, err)
		tx := newTx(day(2024, 5, 1), "10", Debit)
		id := uuid.New()
		tx.CategoryID = &id
		_, err = Resolve([]Transaction{tx}, idx)
		assert.True(t, errors.Is(err, shared.ErrMissingReferenceData))
	})

	t.Run("AccountName and AccountType fall back for uncategorised", func(t *testing.T) {
		assert.Equal(t, UncategorisedName, AccountName(nil))
		assert.Equal(t, CategoryExpense, AccountType(nil))
		assert.Equal(t, "Sales", AccountName(&sales))
		assert.Equal(t, CategoryIncome, AccountType(&sales))
	})
}

func TestSortAccounts(t *testing.T) {
	type row struct {
		typ  CategoryType
		name string
	}
	rows := []row{
		{CategoryIncome, "Sales"},
		{CategoryExpense, "Travel"},
		{CategoryIncome, "Interest"},
		{CategoryExpense, "Rent"},
	}
	SortAccounts(rows, func(r row) (CategoryType, string) { return r.typ, r.name })

	assert.Equal(t, []row{
		{CategoryExpense, "Rent"},
		{CategoryExpense, "Travel"},
		{CategoryIncome, "Interest"},
		{CategoryIncome, "Sales"},
	}, rows)
}

func TestFilter(t *testing.T) {
	account := uuid.New()
	entity := uuid.New()
	cal := period.NewCalendar(time.UTC)
	year, err := cal.Parse("2024-2025")
	require.NoError(t, err)

	inside := newTx(time.Date(2024, 4, 6, 0, 0, 0, 0, time.UTC), "10", Credit)
	inside.AccountID = account
	inside.EntityID = entity
	lastSecond := newTx(time.Date(2025, 4, 5, 23, 59, 59, 0, time.UTC), "20", Debit)
	lastSecond.AccountID = account
	before := newTx(time.Date(2024, 4, 5, 23, 59, 59, 0, time.UTC), "30", Debit)
	after := newTx(time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC), "40", Credit)
	input := []Transaction{after, lastSecond, before, inside}

	t.Run("range bounds are inclusive and order is preserved", func(t *testing.T) {
		got, err := ForRange(year.Range()).Apply(input)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, lastSecond.ID, got[0].ID)
		assert.Equal(t, inside.ID, got[1].ID)
	})

	t.Run("optional predicates narrow the result", func(t *testing.T) {
		debit := Debit
		f := Filter{Range: year.Range(), AccountID: &account, Direction: &debit}
		got, err := f.Apply(input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, lastSecond.ID, got[0].ID)

		f = Filter{EntityID: &entity}
		got, err = f.Apply(input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, inside.ID, got[0].ID)
	})

	t.Run("unbounded filter keeps everything", func(t *testing.T) {
		got, err := Filter{}.Apply(input)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		bad := newTx(day(2024, 5, 1), "-1", Debit)
		_, err := Filter{}.Apply([]Transaction{bad})
		assert.True(t, errors.Is(err, shared.ErrNegativeAmount))
	})
}

func TestTaxpayerProfile_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		profile TaxpayerProfile
		want    []ProfileField
	}{
		{
			name:    "complete individual",
			profile: TaxpayerProfile{Regime: RegimeSelfAssessment, UTR: "1234567890", NationalInsuranceNumber: "QQ123456C"},
			want:    nil,
		},
		{
			name:    "individual missing both",
			profile: TaxpayerProfile{Regime: RegimeSelfAssessment},
			want:    []ProfileField{FieldUTR, FieldNationalInsuranceNumber},
		},
		{
			name:    "unset regime is treated as individual",
			profile: TaxpayerProfile{UTR: "1234567890"},
			want:    []ProfileField{FieldNationalInsuranceNumber},
		},
		{
			name:    "company ignores personal fields",
			profile: TaxpayerProfile{Regime: RegimeCompany, CompanyRegistrationNumber: "01234567"},
			want:    []ProfileField{FieldCompanyUTR},
		},
		{
			name: "complete company",
			profile: TaxpayerProfile{
				Regime:                    RegimeCompany,
				CompanyRegistrationNumber: "01234567",
				CompanyUTR:                "9876543210",
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.MissingFields())
		})
	}
}

func TestInvoice(t *testing.T) {
	now := day(2025, 1, 31)
	issued := day(2024, 12, 1)
	due := day(2024, 12, 31)

	t.Run("AgeingDate prefers due date then invoice date then now", func(t *testing.T) {
		inv := Invoice{ID: uuid.New(), InvoiceDate: &issued, DueDate: &due}
		assert.Equal(t, due, inv.AgeingDate(now))
		inv.DueDate = nil
		assert.Equal(t, issued, inv.AgeingDate(now))
		inv.InvoiceDate = nil
		assert.Equal(t, now, inv.AgeingDate(now))
	})

	t.Run("DisplayName falls back to file name and Unknown", func(t *testing.T) {
		assert.Equal(t, "Acme", Invoice{CustomerName: "Acme", FileName: "a.pdf"}.DisplayName())
		assert.Equal(t, "a.pdf", Invoice{FileName: "a.pdf"}.DisplayName())
		assert.Equal(t, "Unknown", Invoice{}.DisplayName())
	})

	t.Run("Validate rejects negative amounts and bad status", func(t *testing.T) {
		inv := Invoice{ID: uuid.New(), Amount: decimal.NewFromInt(-5)}
		assert.True(t, errors.Is(inv.Validate(), shared.ErrNegativeAmount))

		inv = Invoice{ID: uuid.New(), Amount: decimal.NewFromInt(5), Status: "lost"}
		assert.True(t, errors.Is(inv.Validate(), shared.ErrInvalidInput))

		inv.Status = InvoiceStatusPaid
		assert.NoError(t, inv.Validate())
		assert.True(t, inv.IsPaid())
	})
}

func TestBill(t *testing.T) {
	b := Bill{ID: uuid.New(), Amount: decimal.NewFromInt(40), IsActive: true}
	assert.NoError(t, b.Validate())
	assert.Equal(t, "monthly", b.EffectiveFrequency())
	assert.Equal(t, "Unknown", b.DisplayName())

	b.Amount = decimal.NewFromInt(-1)
	assert.True(t, errors.Is(b.Validate(), shared.ErrNegativeAmount))
}

package testutil

import (
	"testing"
	"time"

	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.Equal(t, NewTestUUID("test-entity"), TestEntityID())
}

func TestGenerator_Snapshot(t *testing.T) {
	start := Date(2024, time.April, 6)
	end := Date(2025, time.April, 5)

	snap := NewGenerator(42).Snapshot(200, start, end)
	require.Len(t, snap.Transactions, 200)

	idx, err := ledger.NewCategoryIndex(snap.Categories)
	require.NoError(t, err)

	for _, tx := range snap.Transactions {
		assert.NoError(t, tx.Validate())
		assert.False(t, tx.Date.Before(start))
		assert.False(t, tx.Date.After(end))
		assert.True(t, tx.Amount.Equal(tx.Amount.Round(2)))
		_, err := idx.Lookup(tx)
		assert.NoError(t, err)
	}
}

func TestGenerator_IsReproducible(t *testing.T) {
	start := Date(2024, time.April, 6)
	end := Date(2025, time.April, 5)

	a := NewGenerator(7).Snapshot(20, start, end)
	b := NewGenerator(7).Snapshot(20, start, end)
	for i := range a.Transactions {
		assert.True(t, a.Transactions[i].Amount.Equal(b.Transactions[i].Amount))
		assert.Equal(t, a.Transactions[i].Direction, b.Transactions[i].Direction)
		assert.Equal(t, a.Transactions[i].Date, b.Transactions[i].Date)
	}
}

func TestTx(t *testing.T) {
	travel := Category("Travel", ledger.CategoryExpense, 50)
	tx := WithOverride(Tx(Date(2024, time.May, 1), "12.34", ledger.Debit, &travel), "25")

	require.NotNil(t, tx.CategoryID)
	assert.Equal(t, travel.ID, *tx.CategoryID)
	assert.Equal(t, "12.34", tx.Amount.StringFixed(2))
	assert.Equal(t, "25", tx.AppliedDeductibilityPercent.String())
}

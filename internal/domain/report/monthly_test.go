package report

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlySeries(t *testing.T) {
	txs, _ := fixture(t)

	series, err := MonthlySeries(txs, nil)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, "2024-05", series[0].Period)
	assert.Equal(t, time.May, series[0].Month)
	assert.Equal(t, 2024, series[0].Year)
	assert.Equal(t, "1000", series[0].Income.String())
	assert.Equal(t, "800", series[0].Expenses.String())
	assert.Equal(t, "200", series[0].Net.String())
	assert.Equal(t, 3, series[0].Count)

	assert.Equal(t, "2024-06", series[1].Period)
	assert.Equal(t, "-175", series[1].Net.String())

	assert.Equal(t, "2024-07", series[2].Period)
	assert.Equal(t, 1, series[2].Count)
}

func TestMonthlySeries_Location(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	// 23:30 UTC on 31 May is 00:30 BST on 1 June.
	tx := testutil.Tx(time.Date(2024, time.May, 31, 23, 30, 0, 0, time.UTC), "10", ledger.Credit, nil)

	utc, err := MonthlySeries([]ledger.Transaction{tx}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-05", utc[0].Period)

	uk, err := MonthlySeries([]ledger.Transaction{tx}, london)
	require.NoError(t, err)
	assert.Equal(t, "2024-06", uk[0].Period)
}

func TestMonthlySeries_Totals(t *testing.T) {
	start := testutil.Date(2024, time.April, 6)
	end := testutil.Date(2025, time.April, 5)
	gen := testutil.NewGenerator(11)
	snap := gen.Snapshot(300, start, end)

	series, err := MonthlySeries(snap.Transactions, time.UTC)
	require.NoError(t, err)

	count := 0
	net := decimal.Zero
	for i, p := range series {
		count += p.Count
		net = net.Add(p.Net)
		if i > 0 {
			assert.Less(t, series[i-1].Period, p.Period)
		}
	}
	assert.Equal(t, len(snap.Transactions), count)

	want := decimal.Zero
	for _, tx := range snap.Transactions {
		if tx.IsCredit() {
			want = want.Add(tx.Amount)
		} else {
			want = want.Sub(tx.Amount)
		}
	}
	assert.True(t, want.Equal(net))
}

func TestMonthlySeries_Empty(t *testing.T) {
	series, err := MonthlySeries(nil, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, series)

	_, err = MonthlySeries([]ledger.Transaction{
		testutil.Tx(testutil.Date(2024, time.May, 1), "-1", ledger.Debit, nil),
	}, time.UTC)
	assert.True(t, errors.Is(err, shared.ErrNegativeAmount))
}

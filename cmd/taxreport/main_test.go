package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	reportapp "github.com/homeledger/taxengine/internal/application/report"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/internal/infrastructure/ratetable"
	"github.com/homeledger/taxengine/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	content := `
[log]
level = "error"
output = "stderr"

[engine]
timezone = "Europe/London"
years_back = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	sales := testutil.Category("Sales", ledger.CategoryIncome, 0)
	rent := testutil.Category("Rent", ledger.CategoryExpense, 100)
	snap := reportapp.Snapshot{
		Categories: []ledger.Category{sales, rent},
		Transactions: []ledger.Transaction{
			testutil.Tx(testutil.Date(2024, time.May, 1), "30000", ledger.Credit, &sales),
			testutil.Tx(testutil.Date(2024, time.June, 1), "6000", ledger.Debit, &rent),
		},
		Profile: ledger.TaxpayerProfile{
			Regime:                  ledger.RegimeSelfAssessment,
			UTR:                     "1234567890",
			NationalInsuranceNumber: "QQ123456C",
		},
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	path := filepath.Join(dir, "snapshot.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_FilingPack(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		configFile: writeConfig(t, dir),
		taxYear:    "2024-2025",
		input:      writeSnapshot(t, dir),
		metricsOut: filepath.Join(dir, "metrics.prom"),
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))

	var pack map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &pack))
	assert.Equal(t, "2024-2025", pack["tax_year"])
	assert.Equal(t, "hmrc", pack["regime"])

	recon := pack["reconciliation"].(map[string]any)
	assert.Equal(t, "24000", recon["taxable_profit"])
	assert.Contains(t, pack, "personal_tax")
	assert.NotContains(t, pack, "corporation_tax")

	metricsText, err := os.ReadFile(opts.metricsOut)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), `taxengine_filing_packs_total{outcome="success",regime="hmrc"} 1`)
	assert.Contains(t, string(metricsText), "taxengine_transactions_processed_total 2")
}

func TestLoanPlanUsage(t *testing.T) {
	reg, err := ratetable.LoadDefault("")
	require.NoError(t, err)

	usage := loanPlanUsage()
	for _, key := range reg.Keys() {
		table, err := reg.Table(key)
		require.NoError(t, err)
		for _, plan := range table.LoanPlans() {
			assert.Contains(t, usage, plan, "rate table %s", key)
		}
	}
	assert.NotContains(t, usage, "plan_")
}

func TestRun_StudentLoanPlan(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	snapshot := writeSnapshot(t, dir)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{
		configFile: cfg,
		taxYear:    "2024-2025",
		input:      snapshot,
		loanPlan:   "plan2",
	}, &out))
	var pack map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &pack))
	personal := pack["personal_tax"].(map[string]any)
	assert.Equal(t, "plan2", personal["student_loan_plan"])

	err := run(context.Background(), options{
		configFile: cfg,
		taxYear:    "2024-2025",
		input:      snapshot,
		loanPlan:   "plan_2",
	}, &bytes.Buffer{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRun_TracesUnderOneRoot(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	dir := t.TempDir()
	require.NoError(t, run(context.Background(), options{
		configFile: writeConfig(t, dir),
		taxYear:    "2024-2025",
		input:      writeSnapshot(t, dir),
	}, &bytes.Buffer{}))

	spans := sr.Ended()
	require.NotEmpty(t, spans)
	var root sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "taxreport.run" {
			root = s
		}
	}
	require.NotNil(t, root)
	for _, s := range spans {
		assert.Equal(t, root.SpanContext().TraceID(), s.SpanContext().TraceID(), s.Name())
	}
}

func TestRun_ListYears(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{
		configFile: writeConfig(t, dir),
		listYears:  true,
	}, &out))

	var years []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &years))
	require.Len(t, years, 3)
	assert.Equal(t, true, years[0]["current"])
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	t.Run("unknown tax year", func(t *testing.T) {
		err := run(context.Background(), options{
			configFile: cfg,
			taxYear:    "2040-2041",
			input:      writeSnapshot(t, dir),
		}, &bytes.Buffer{})
		assert.ErrorIs(t, err, shared.ErrUnknownRateTable)
	})

	t.Run("malformed snapshot", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"transactions": [`), 0o600))
		err := run(context.Background(), options{configFile: cfg, input: path}, &bytes.Buffer{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("bad dividends", func(t *testing.T) {
		_, err := buildRequest(options{dividends: "lots"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("missing config file", func(t *testing.T) {
		err := run(context.Background(), options{configFile: filepath.Join(dir, "absent.toml")}, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "load configuration"))
	})
}

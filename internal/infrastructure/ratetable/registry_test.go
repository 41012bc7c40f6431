package ratetable

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoadEmbedded(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadEmbedded())

	assert.Equal(t, []string{"2023-2024", "2024-2025", "2025-2026"}, r.Keys())

	table, err := r.Table("2025-2026")
	require.NoError(t, err)
	assert.Equal(t, "12570", table.PersonalAllowance.String())
	assert.Equal(t, "100000", table.TaperThreshold.String())
	require.Len(t, table.IncomeTaxBands, 3)
	assert.Equal(t, "37700", table.IncomeTaxBands[0].Upper.String())
	assert.Nil(t, table.IncomeTaxBands[2].Upper)
	assert.Equal(t, "6", table.Class4.MainRate.String())
	assert.Equal(t, "3.5", table.Class2.WeeklyRate.String())
	assert.Equal(t, "0.015", table.CorporationTax.MarginalReliefFraction.String())
	assert.Equal(t, "26.5", table.CorporationTax.ForecastMarginalRate.String())
	assert.Equal(t, []string{"plan1", "plan2", "plan4", "plan5", "postgraduate"}, table.LoanPlans())
	assert.Equal(t, "6", table.StudentLoans["postgraduate"].Rate.String())

	older, err := r.Table("2023-2024")
	require.NoError(t, err)
	assert.Equal(t, "9", older.Class4.MainRate.String())
	assert.Equal(t, "85000", older.VAT.RegistrationThreshold.String())
	assert.Equal(t, "1000", older.Dividends.Allowance.String())
}

func TestRegistry_UnknownYear(t *testing.T) {
	r, err := LoadDefault("")
	require.NoError(t, err)

	_, err = r.Table("1999-2000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnknownRateTable))
	assert.Contains(t, err.Error(), "1999-2000")

	latest, err := r.Latest()
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", latest.TaxYear)

	_, err = NewRegistry().Latest()
	assert.True(t, errors.Is(err, shared.ErrUnknownRateTable))
}

func TestLoadDir_Overrides(t *testing.T) {
	data, err := embedded.ReadFile("tables/2025-2026.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	next := []byte(replaceAll(string(data), map[string]string{
		`tax_year: "2025-2026"`: `tax_year: "2026-2027"`,
		`version: "2025.1"`:     `version: "2026.1"`,
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-2027.yaml"), next, 0o644))

	core, logs := observer.New(zapcore.DebugLevel)
	r, err := LoadDefault(dir, WithLogger(zap.New(core)))
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-2024", "2024-2025", "2025-2026", "2026-2027"}, r.Keys())
	table, err := r.Table("2026-2027")
	require.NoError(t, err)
	assert.Equal(t, "2026.1", table.Version)

	loaded := logs.FilterMessage("Loaded rate table").All()
	assert.Len(t, loaded, 4)
	assert.Equal(t, dir, loaded[3].ContextMap()["source"])
}

func TestLoadDir_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		err := NewRegistry().LoadDir(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("invalid table is rejected", func(t *testing.T) {
		dir := t.TempDir()
		bad := "tax_year: \"2026-2027\"\npersonal_allowance: 12570\nincome_tax_bands: []\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644))
		err := NewRegistry().LoadDir(dir)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Contains(t, err.Error(), "bad.yaml")
	})
}

func TestParse(t *testing.T) {
	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := Parse([]byte("tax_year: \"2025-2026\"\npersonal_alowance: 1\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("bad tax year key", func(t *testing.T) {
		data, err := embedded.ReadFile("tables/2024-2025.yaml")
		require.NoError(t, err)
		_, err = Parse([]byte(replaceAll(string(data), map[string]string{
			`tax_year: "2024-2025"`: `tax_year: "2024-2026"`,
		})))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("bad decimal", func(t *testing.T) {
		_, err := Parse([]byte("tax_year: \"2025-2026\"\npersonal_allowance: lots\n"))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func replaceAll(s string, pairs map[string]string) string {
	for from, to := range pairs {
		s = strings.ReplaceAll(s, from, to)
	}
	return s
}

package compliance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/homeledger/taxengine/internal/domain/compliance"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/homeledger/taxengine/internal/domain/reconciliation"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/internal/domain/tax"
	"github.com/homeledger/taxengine/internal/infrastructure/ratetable"
	"github.com/homeledger/taxengine/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	summer = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	autumn = time.Date(2025, time.November, 2, 12, 0, 0, 0, time.UTC)
)

func table(t *testing.T) *tax.RateTable {
	t.Helper()
	reg, err := ratetable.LoadDefault("")
	require.NoError(t, err)
	tbl, err := reg.Table("2025-2026")
	require.NoError(t, err)
	return tbl
}

func auditor(t *testing.T, opts ...compliance.Option) *compliance.Auditor {
	t.Helper()
	a, err := compliance.NewAuditor(table(t), opts...)
	require.NoError(t, err)
	return a
}

func completeIndividual() ledger.TaxpayerProfile {
	return ledger.TaxpayerProfile{
		Regime:                  ledger.RegimeSelfAssessment,
		FullName:                "Sam Taylor",
		UTR:                     "1234567890",
		NationalInsuranceNumber: "QQ123456C",
	}
}

func totals(count, uncategorised int, income string) reconciliation.BusinessTotals {
	return reconciliation.BusinessTotals{
		Income:             testutil.Money(income),
		TransactionCount:   count,
		UncategorisedCount: uncategorised,
	}
}

func rules(alerts []compliance.Alert) []compliance.Rule {
	out := make([]compliance.Rule, len(alerts))
	for i, a := range alerts {
		out[i] = a.Rule
	}
	return out
}

func TestSeverity(t *testing.T) {
	assert.True(t, compliance.SeverityError.IsValid())
	assert.True(t, compliance.SeverityInfo.IsValid())
	assert.False(t, compliance.Severity("fatal").IsValid())
	assert.Equal(t, "warning", compliance.SeverityWarning.String())
}

func TestAudit_Clean(t *testing.T) {
	alerts := auditor(t).Audit(compliance.Input{
		Totals:  totals(40, 0, "30000"),
		Profile: completeIndividual(),
		Now:     summer,
	})
	assert.Empty(t, alerts)
}

func TestAudit_Uncategorised(t *testing.T) {
	t.Run("minority uncategorised", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals:  totals(8, 1, "0"),
			Profile: completeIndividual(),
			Now:     summer,
		})
		require.Len(t, alerts, 1)
		assert.Equal(t, compliance.RuleUncategorised, alerts[0].Rule)
		assert.Equal(t, compliance.SeverityError, alerts[0].Severity)
		assert.Equal(t, "1 uncategorised transactions (13% of total)", alerts[0].Message)
	})

	t.Run("majority uncategorised raises both rules", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals:  totals(10, 6, "0"),
			Profile: completeIndividual(),
			Now:     summer,
		})
		assert.Equal(t, []compliance.Rule{compliance.RuleUncategorised, compliance.RuleLowCategorisation}, rules(alerts))
		assert.Contains(t, alerts[0].Message, "(60% of total)")
	})

	t.Run("exactly half is not low categorisation", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals:  totals(10, 5, "0"),
			Profile: completeIndividual(),
			Now:     summer,
		})
		assert.Equal(t, []compliance.Rule{compliance.RuleUncategorised}, rules(alerts))
	})
}

func TestAudit_MissingProfile(t *testing.T) {
	t.Run("individual", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals:  totals(1, 0, "0"),
			Profile: ledger.TaxpayerProfile{FullName: "Sam Taylor"},
			Now:     summer,
		})
		require.Len(t, alerts, 1)
		assert.Equal(t, compliance.SeverityWarning, alerts[0].Severity)
		assert.Equal(t, "Profile incomplete: UTR (required for Self Assessment), National Insurance Number not set", alerts[0].Message)
	})

	t.Run("company only checks company fields", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals: totals(1, 0, "0"),
			Profile: ledger.TaxpayerProfile{
				Regime:                    ledger.RegimeCompany,
				CompanyRegistrationNumber: "01234567",
			},
			Now: autumn,
		})
		require.Len(t, alerts, 1)
		assert.Equal(t, "Profile incomplete: Company UTR (required for CT600) not set", alerts[0].Message)
	})
}

func TestAudit_VATThreshold(t *testing.T) {
	t.Run("above threshold and unregistered", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals:  totals(5, 0, "90000.01"),
			Profile: completeIndividual(),
			Now:     summer,
		})
		require.Len(t, alerts, 1)
		assert.Equal(t, compliance.RuleVATThreshold, alerts[0].Rule)
		assert.Equal(t, "Turnover exceeds the £90,000 VAT threshold; you may need to register for VAT", alerts[0].Message)
	})

	t.Run("at threshold", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals:  totals(5, 0, "90000"),
			Profile: completeIndividual(),
			Now:     summer,
		})
		assert.Empty(t, alerts)
	})

	t.Run("registered gets the quarterly reminder instead", func(t *testing.T) {
		profile := completeIndividual()
		profile.IsVATRegistered = true
		alerts := auditor(t).Audit(compliance.Input{
			Totals:  totals(5, 0, "150000"),
			Profile: profile,
			Now:     summer,
		})
		assert.Equal(t, []compliance.Rule{compliance.RuleVATReturnReminder}, rules(alerts))
		assert.Equal(t, compliance.SeverityInfo, alerts[0].Severity)
	})

	t.Run("override", func(t *testing.T) {
		a := auditor(t, compliance.WithVATThreshold(testutil.Money("85000")))
		assert.Equal(t, "85000", a.VATThreshold().String())
		alerts := a.Audit(compliance.Input{
			Totals:  totals(5, 0, "86000"),
			Profile: completeIndividual(),
			Now:     summer,
		})
		require.Len(t, alerts, 1)
		assert.Contains(t, alerts[0].Message, "£85,000")
	})
}

func TestAudit_NoTransactions(t *testing.T) {
	alerts := auditor(t).Audit(compliance.Input{
		Totals:  totals(0, 0, "0"),
		Profile: completeIndividual(),
		Now:     summer,
	})
	assert.Equal(t, []compliance.Rule{compliance.RuleNoTransactions}, rules(alerts))
}

func TestAudit_SelfAssessmentWindow(t *testing.T) {
	tests := []struct {
		month time.Month
		want  bool
	}{
		{time.September, false},
		{time.October, true},
		{time.November, true},
		{time.December, true},
		{time.January, false},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			alerts := auditor(t).Audit(compliance.Input{
				Totals:  totals(3, 0, "0"),
				Profile: completeIndividual(),
				Now:     time.Date(2025, tt.month, 10, 12, 0, 0, 0, time.UTC),
			})
			if tt.want {
				assert.Equal(t, []compliance.Rule{compliance.RuleSelfAssessmentDue}, rules(alerts))
			} else {
				assert.Empty(t, alerts)
			}
		})
	}

	t.Run("companies are not reminded", func(t *testing.T) {
		alerts := auditor(t).Audit(compliance.Input{
			Totals: totals(3, 0, "0"),
			Profile: ledger.TaxpayerProfile{
				Regime:                    ledger.RegimeCompany,
				CompanyRegistrationNumber: "01234567",
				CompanyUTR:                "9876543210",
			},
			Now: autumn,
		})
		assert.Empty(t, alerts)
	})

	t.Run("month is read in the configured zone", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		lastOfSeptember := time.Date(2025, time.September, 30, 23, 0, 0, 0, time.UTC)
		alerts := auditor(t, compliance.WithLocation(loc)).Audit(compliance.Input{
			Totals:  totals(3, 0, "0"),
			Profile: completeIndividual(),
			Now:     lastOfSeptember,
		})
		assert.Equal(t, []compliance.Rule{compliance.RuleSelfAssessmentDue}, rules(alerts))
	})
}

func TestAudit_AllRulesInOrder(t *testing.T) {
	profile := ledger.TaxpayerProfile{IsVATRegistered: true}
	alerts := auditor(t, compliance.WithVATThreshold(testutil.Money("0"))).Audit(compliance.Input{
		Totals:  totals(4, 3, "100"),
		Profile: profile,
		Now:     autumn,
	})
	assert.Equal(t, []compliance.Rule{
		compliance.RuleUncategorised,
		compliance.RuleMissingProfile,
		compliance.RuleLowCategorisation,
		compliance.RuleSelfAssessmentDue,
		compliance.RuleVATReturnReminder,
	}, rules(alerts))

	again := auditor(t, compliance.WithVATThreshold(testutil.Money("0"))).Audit(compliance.Input{
		Totals:  totals(4, 3, "100"),
		Profile: profile,
		Now:     autumn,
	})
	assert.Equal(t, alerts, again)
}

func TestNewAuditor_Errors(t *testing.T) {
	_, err := compliance.NewAuditor(nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = compliance.NewAuditor(table(t), compliance.WithVATThreshold(testutil.Money("-1")))
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

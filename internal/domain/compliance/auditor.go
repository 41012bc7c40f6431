// Package compliance checks a tax year's data for filing readiness.
package compliance

import (
	"strings"
	"time"

	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/homeledger/taxengine/internal/domain/reconciliation"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/internal/domain/tax"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Severity ranks an alert for display
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IsValid checks if the severity is known
func (s Severity) IsValid() bool {
	return s == SeverityError || s == SeverityWarning || s == SeverityInfo
}

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// Rule identifies the check that raised an alert.
type Rule string

const (
	RuleUncategorised     Rule = "uncategorised_transactions"
	RuleMissingProfile    Rule = "missing_profile_fields"
	RuleVATThreshold      Rule = "vat_threshold"
	RuleLowCategorisation Rule = "low_categorisation"
	RuleNoTransactions    Rule = "no_transactions"
	RuleSelfAssessmentDue Rule = "self_assessment_deadline"
	RuleVATReturnReminder Rule = "vat_return_reminder"
)

// Alert is one compliance finding.
type Alert struct {
	Rule       Rule     `json:"rule"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	ActionHint string   `json:"action_hint,omitempty"`
}

// Input is the snapshot a single audit runs over.
type Input struct {
	Totals  reconciliation.BusinessTotals
	Profile ledger.TaxpayerProfile
	Now     time.Time
}

var (
	lowCategorisationShare = decimal.NewFromFloat(0.5)
	hundred                = decimal.NewFromInt(100)
)

var profileFieldLabels = map[ledger.ProfileField]string{
	ledger.FieldUTR:                       "UTR (required for Self Assessment)",
	ledger.FieldNationalInsuranceNumber:   "National Insurance Number",
	ledger.FieldCompanyRegistrationNumber: "Company Registration Number (CRN)",
	ledger.FieldCompanyUTR:                "Company UTR (required for CT600)",
}

// Auditor evaluates the compliance rules in a fixed order.
type Auditor struct {
	vatThreshold decimal.Decimal
	location     *time.Location
}

// Option configures an Auditor
type Option func(*Auditor)

// WithVATThreshold replaces the rate table's VAT registration threshold.
func WithVATThreshold(threshold decimal.Decimal) Option {
	return func(a *Auditor) {
		a.vatThreshold = threshold
	}
}

// WithLocation sets the zone the filing calendar is read in.
func WithLocation(loc *time.Location) Option {
	return func(a *Auditor) {
		if loc != nil {
			a.location = loc
		}
	}
}

// NewAuditor creates an auditor using the table's VAT threshold.
func NewAuditor(table *tax.RateTable, opts ...Option) (*Auditor, error) {
	if table == nil {
		return nil, shared.NewInvalidInputError("rate table is required")
	}
	a := &Auditor{
		vatThreshold: table.VAT.RegistrationThreshold,
		location:     time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.vatThreshold.IsNegative() {
		return nil, shared.NewInvalidInputError("vat threshold must not be negative")
	}
	return a, nil
}

// VATThreshold returns the threshold rule 3 compares against.
func (a *Auditor) VATThreshold() decimal.Decimal {
	return a.vatThreshold
}

// Audit runs every rule. Rules are independent; the slice order is display priority.
func (a *Auditor) Audit(in Input) []Alert {
	alerts := make([]Alert, 0)
	for _, rule := range []func(Input) *Alert{
		a.uncategorised,
		a.missingProfile,
		a.vatThresholdExceeded,
		a.lowCategorisation,
		a.noTransactions,
		a.selfAssessmentDeadline,
		a.vatReturnReminder,
	} {
		if alert := rule(in); alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

func (a *Auditor) uncategorised(in Input) *Alert {
	t := in.Totals
	if t.UncategorisedCount == 0 {
		return nil
	}
	pct := t.UncategorisedShare().Mul(hundred).Round(0)
	return &Alert{
		Rule:       RuleUncategorised,
		Severity:   SeverityError,
		Message:    printer().Sprintf("%d uncategorised transactions (%s%% of total)", t.UncategorisedCount, pct.String()),
		ActionHint: "Categorise the remaining transactions",
	}
}

func (a *Auditor) missingProfile(in Input) *Alert {
	missing := in.Profile.MissingFields()
	if len(missing) == 0 {
		return nil
	}
	labels := make([]string, len(missing))
	for i, f := range missing {
		labels[i] = profileFieldLabels[f]
	}
	return &Alert{
		Rule:       RuleMissingProfile,
		Severity:   SeverityWarning,
		Message:    "Profile incomplete: " + strings.Join(labels, ", ") + " not set",
		ActionHint: "Complete the taxpayer profile",
	}
}

func (a *Auditor) vatThresholdExceeded(in Input) *Alert {
	if in.Profile.IsVATRegistered || !in.Totals.Income.GreaterThan(a.vatThreshold) {
		return nil
	}
	return &Alert{
		Rule:       RuleVATThreshold,
		Severity:   SeverityError,
		Message:    printer().Sprintf("Turnover exceeds the £%d VAT threshold; you may need to register for VAT", a.vatThreshold.Floor().IntPart()),
		ActionHint: "Check whether VAT registration is required",
	}
}

func (a *Auditor) lowCategorisation(in Input) *Alert {
	if in.Totals.TransactionCount == 0 || !in.Totals.UncategorisedShare().GreaterThan(lowCategorisationShare) {
		return nil
	}
	return &Alert{
		Rule:     RuleLowCategorisation,
		Severity: SeverityError,
		Message:  "Over 50% of transactions are uncategorised; tax calculations are unreliable",
	}
}

func (a *Auditor) noTransactions(in Input) *Alert {
	if in.Totals.TransactionCount > 0 {
		return nil
	}
	return &Alert{
		Rule:       RuleNoTransactions,
		Severity:   SeverityInfo,
		Message:    "No transactions found for this tax year",
		ActionHint: "Import bank statements to get started",
	}
}

// selfAssessmentDeadline fires for individuals from October to December.
func (a *Auditor) selfAssessmentDeadline(in Input) *Alert {
	if in.Profile.EffectiveRegime().IsCompany() {
		return nil
	}
	switch in.Now.In(a.location).Month() {
	case time.October, time.November, time.December:
	default:
		return nil
	}
	return &Alert{
		Rule:     RuleSelfAssessmentDue,
		Severity: SeverityInfo,
		Message:  "Self Assessment deadline: 31 January. Make sure all data is ready",
	}
}

func (a *Auditor) vatReturnReminder(in Input) *Alert {
	if !in.Profile.IsVATRegistered {
		return nil
	}
	return &Alert{
		Rule:       RuleVATReturnReminder,
		Severity:   SeverityInfo,
		Message:    "VAT Return due quarterly",
		ActionHint: "Check the VAT return for the current period",
	}
}

func printer() *message.Printer {
	return message.NewPrinter(language.BritishEnglish)
}

package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/compliance"
	"github.com/homeledger/taxengine/internal/domain/forecast"
	"github.com/homeledger/taxengine/internal/domain/hmrc"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/homeledger/taxengine/internal/domain/period"
	"github.com/homeledger/taxengine/internal/domain/reconciliation"
	"github.com/homeledger/taxengine/internal/domain/report"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/internal/domain/tax"
	"github.com/homeledger/taxengine/internal/infrastructure/logger"
	"github.com/homeledger/taxengine/internal/infrastructure/metrics"
	"github.com/homeledger/taxengine/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const spanService = "filing_pack"

// RateTableSource supplies the rate table for a tax-year key.
type RateTableSource interface {
	Table(taxYear string) (*tax.RateTable, error)
}

// Snapshot is one consistent read of everything a filing pack is built from.
type Snapshot struct {
	Transactions []ledger.Transaction   `json:"transactions"`
	Categories   []ledger.Category      `json:"categories"`
	Profile      ledger.TaxpayerProfile `json:"profile"`
	Invoices     []ledger.Invoice       `json:"invoices"`
	Bills        []ledger.Bill          `json:"bills"`
}

// PackRequest selects the period and options for a filing pack.
type PackRequest struct {
	TaxYear     string     // "2024-2025"; empty means the tax year containing Now
	CustomStart *time.Time // optional; narrows the transaction window, rates still follow TaxYear
	CustomEnd   *time.Time
	AccountID   *uuid.UUID
	EntityID    *uuid.UUID
	Now         time.Time // zero means the service clock
	TaxOptions  tax.Options
	Dividends   decimal.Decimal // dividends received in the year, self assessment only
}

// FilingPack holds every report for one period, all derived from the same snapshot.
type FilingPack struct {
	TaxYear          string        `json:"tax_year"`
	RateTableVersion string        `json:"rate_table_version"`
	Regime           ledger.Regime `json:"regime"`
	Period           period.Range  `json:"period"`
	GeneratedAt      time.Time     `json:"generated_at"`

	Reconciliation *reconciliation.Result         `json:"reconciliation"`
	Business       *reconciliation.BusinessTotals `json:"business"`
	HMRC           *hmrc.Breakdown                `json:"hmrc"`
	PersonalTax    *tax.Result                    `json:"personal_tax,omitempty"`
	CorporationTax *tax.CorporationTaxResult      `json:"corporation_tax,omitempty"`
	DividendTax    *tax.DividendResult            `json:"dividend_tax,omitempty"`
	VATReturn      *tax.VATReturn                 `json:"vat_return,omitempty"`

	TrialBalance  *report.TrialBalance   `json:"trial_balance"`
	GeneralLedger []report.LedgerAccount `json:"general_ledger"`
	Debtors       *report.DebtorAgeing   `json:"debtors"`
	Creditors     *report.CreditorAgeing `json:"creditors"`
	Monthly       []report.MonthlyPoint  `json:"monthly"`
	Forecast      *forecast.Forecast     `json:"forecast,omitempty"` // nil without any monthly data

	Alerts []compliance.Alert `json:"alerts"`
}

// ReportService builds filing packs.
type ReportService struct {
	rates        RateTableSource
	logger       *zap.Logger
	metrics      *metrics.EngineMetrics
	calendar     *period.Calendar
	vatThreshold *decimal.Decimal
	clock        func() time.Time
}

// Option configures a ReportService
type Option func(*ReportService)

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *ReportService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records pack outcomes on m
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(s *ReportService) {
		s.metrics = m
	}
}

// WithLocation sets the zone for tax-year bounds and month grouping
func WithLocation(loc *time.Location) Option {
	return func(s *ReportService) {
		s.calendar = period.NewCalendar(loc)
	}
}

// WithVATThreshold overrides the rate table's VAT registration threshold in compliance checks
func WithVATThreshold(threshold decimal.Decimal) Option {
	return func(s *ReportService) {
		s.vatThreshold = &threshold
	}
}

// WithClock sets the clock used when a request carries no Now
func WithClock(clock func() time.Time) Option {
	return func(s *ReportService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewReportService creates a new ReportService
func NewReportService(rates RateTableSource, opts ...Option) *ReportService {
	s := &ReportService{
		rates:    rates,
		logger:   zap.NewNop(),
		calendar: period.NewCalendar(time.UTC),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TaxYears lists the current tax year and the n-1 before it.
func (s *ReportService) TaxYears(now time.Time, n int) []period.TaxYear {
	return s.calendar.Recent(now, n)
}

// BuildFilingPack runs every report over one snapshot in a single pass. Any
// validation failure aborts the whole pack.
func (s *ReportService) BuildFilingPack(ctx context.Context, snap Snapshot, req PackRequest) (*FilingPack, error) {
	started := time.Now()
	now := req.Now
	if now.IsZero() {
		now = s.clock()
	}
	regime := snap.Profile.EffectiveRegime()

	taxYear := req.TaxYear
	if taxYear == "" {
		taxYear = s.calendar.Current(now).Key
	}

	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "build")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTaxYear, taxYear,
		telemetry.SpanAttrRegime, string(regime),
		telemetry.SpanAttrTransactionCount, len(snap.Transactions),
		telemetry.SpanAttrCategoryCount, len(snap.Categories),
	)

	ctx, log := logger.WithTaxYear(ctx, s.logger, taxYear)
	if req.EntityID != nil {
		ctx, _ = logger.WithEntityID(ctx, log, req.EntityID.String())
		telemetry.SetAttributes(span, telemetry.SpanAttrEntityID, req.EntityID.String())
	}
	cl := logger.L(ctx)

	pack, err := s.build(ctx, snap, req, taxYear, regime, now)
	s.metrics.ObservePack(string(regime), outcome(err), time.Since(started))
	if err != nil {
		telemetry.RecordError(span, err)
		cl.Warn("Filing pack failed",
			zap.String("code", errorCode(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.AddTransactions(pack.Reconciliation.TransactionCount)
	for _, a := range pack.Alerts {
		s.metrics.IncAlert(a.Severity.String())
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRateTableVersion, pack.RateTableVersion,
		telemetry.SpanAttrTaxableProfit, pack.Reconciliation.TaxableProfit,
		telemetry.SpanAttrAlertCount, len(pack.Alerts),
	)
	telemetry.SetOK(span)

	cl.Info("Filing pack built",
		zap.String("regime", string(regime)),
		zap.String("rate_table_version", pack.RateTableVersion),
		zap.Int("transactions", pack.Reconciliation.TransactionCount),
		zap.String("taxable_profit", pack.Reconciliation.TaxableProfit.String()),
		zap.Int("alerts", len(pack.Alerts)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return pack, nil
}

func (s *ReportService) build(ctx context.Context, snap Snapshot, req PackRequest, taxYear string, regime ledger.Regime, now time.Time) (*FilingPack, error) {
	pack := &FilingPack{
		TaxYear:     taxYear,
		Regime:      regime,
		GeneratedAt: now,
	}

	var (
		table *tax.RateTable
		idx   *ledger.CategoryIndex
		txs   []ledger.Transaction
	)

	err := s.stage(ctx, "resolve", func(ctx context.Context) error {
		year, err := s.calendar.Parse(taxYear)
		if err != nil {
			return err
		}
		pack.Period = year.Range()
		if req.CustomStart != nil || req.CustomEnd != nil {
			if pack.Period, err = period.NewRange(req.CustomStart, req.CustomEnd); err != nil {
				return err
			}
		}
		if s.rates == nil {
			return shared.NewUnknownRateTableError(taxYear)
		}
		if table, err = s.rates.Table(taxYear); err != nil {
			return err
		}
		pack.RateTableVersion = table.Version
		if idx, err = ledger.NewCategoryIndex(snap.Categories); err != nil {
			return err
		}
		txs, err = ledger.Filter{
			Range:     pack.Period,
			AccountID: req.AccountID,
			EntityID:  req.EntityID,
		}.Apply(snap.Transactions)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, "reconcile", func(ctx context.Context) error {
		var err error
		if pack.Reconciliation, err = reconciliation.Reconcile(txs, idx); err != nil {
			return err
		}
		if pack.Business, err = reconciliation.Totals(txs, idx); err != nil {
			return err
		}
		pack.HMRC, err = hmrc.Map(txs, idx)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, "tax", func(ctx context.Context) error {
		return s.computeTax(pack, table, req, snap.Profile)
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, "ledger", func(ctx context.Context) error {
		var err error
		if pack.TrialBalance, err = report.BuildTrialBalance(txs, idx); err != nil {
			return err
		}
		if pack.GeneralLedger, err = report.BuildGeneralLedger(txs, idx); err != nil {
			return err
		}
		if pack.Debtors, err = report.AgeDebtors(snap.Invoices, now); err != nil {
			return err
		}
		if pack.Creditors, err = report.AgeCreditors(snap.Bills); err != nil {
			return err
		}
		pack.Monthly, err = report.MonthlySeries(txs, s.calendar.Location())
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, "forecast", func(ctx context.Context) error {
		f, err := forecast.NewForecaster(table)
		if err != nil {
			return err
		}
		pack.Forecast, err = f.Forecast(pack.Monthly, regime)
		if errors.Is(err, shared.ErrEmptyInputForForecast) {
			logger.L(ctx).Debug("No monthly data, forecast skipped")
			telemetry.AddEvent(trace.SpanFromContext(ctx), "forecast.skipped", "reason", "no monthly data")
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, "compliance", func(ctx context.Context) error {
		opts := []compliance.Option{compliance.WithLocation(s.calendar.Location())}
		if s.vatThreshold != nil {
			opts = append(opts, compliance.WithVATThreshold(*s.vatThreshold))
		}
		auditor, err := compliance.NewAuditor(table, opts...)
		if err != nil {
			return err
		}
		pack.Alerts = auditor.Audit(compliance.Input{
			Totals:  *pack.Business,
			Profile: snap.Profile,
			Now:     now,
		})
		span := trace.SpanFromContext(ctx)
		for _, a := range pack.Alerts {
			telemetry.AddEvent(span, "compliance.alert",
				"rule", string(a.Rule),
				"severity", a.Severity.String(),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pack, nil
}

// computeTax applies the regime's tax: income tax and NI for individuals,
// corporation tax for companies. VAT is added for registered taxpayers.
func (s *ReportService) computeTax(pack *FilingPack, table *tax.RateTable, req PackRequest, profile ledger.TaxpayerProfile) error {
	profit := pack.Reconciliation.TaxableProfit
	if pack.Regime.IsCompany() {
		ct := tax.ComputeCorporationTax(profit, table)
		pack.CorporationTax = &ct
	} else {
		calc, err := tax.NewCalculator(table)
		if err != nil {
			return err
		}
		if pack.PersonalTax, err = calc.Compute(profit, req.TaxOptions); err != nil {
			return err
		}
		if req.Dividends.IsNegative() {
			return shared.NewNegativeAmountError("dividends", req.Dividends)
		}
		if req.Dividends.IsPositive() {
			dt := tax.DividendTax(decimal.Max(decimal.Zero, profit), req.Dividends, table)
			pack.DividendTax = &dt
		}
	}
	if profile.IsVATRegistered {
		vat := tax.VATReturnFor(pack.Business.Income, pack.Reconciliation.AllowableExpenses, table)
		pack.VATReturn = &vat
	}
	return nil
}

// stage runs one step of the pack under its own span, tagged with the tax
// year and entity carried by ctx.
func (s *ReportService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	opts := []telemetry.SpanOption{telemetry.WithAttribute(telemetry.SpanAttrTaxYear, logger.GetTaxYear(ctx))}
	if entityID := logger.GetEntityID(ctx); entityID != "" {
		opts = append(opts, telemetry.WithAttribute(telemetry.SpanAttrEntityID, entityID))
	}
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, name, opts...)
	defer span.End()

	if err := fn(ctx); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.L(ctx).With(zap.String("stage", name)).Debug("Stage complete")
	return nil
}

func outcome(err error) string {
	if err != nil {
		return metrics.OutcomeFailure
	}
	return metrics.OutcomeSuccess
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "UNKNOWN"
}

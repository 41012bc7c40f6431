// Command taxreport builds a filing pack from a JSON ledger snapshot and
// prints it as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	reportapp "github.com/homeledger/taxengine/internal/application/report"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/internal/domain/tax"
	"github.com/homeledger/taxengine/internal/infrastructure/config"
	"github.com/homeledger/taxengine/internal/infrastructure/logger"
	"github.com/homeledger/taxengine/internal/infrastructure/metrics"
	"github.com/homeledger/taxengine/internal/infrastructure/ratetable"
	"github.com/homeledger/taxengine/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var version = "dev"

type options struct {
	configFile string
	taxYear    string
	input      string
	listYears  bool
	metricsOut string
	dividends  string
	loanPlan   string
	class2     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "config file (default: config.toml search path)")
	flag.StringVar(&opts.taxYear, "year", "", "tax year key, e.g. 2024-2025 (default: current)")
	flag.StringVar(&opts.input, "input", "-", "ledger snapshot JSON, - for stdin")
	flag.BoolVar(&opts.listYears, "list-years", false, "print the selectable tax years and exit")
	flag.StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics to this file after the run")
	flag.StringVar(&opts.dividends, "dividends", "", "dividends received in the year")
	flag.StringVar(&opts.loanPlan, "student-loan", "", loanPlanUsage())
	flag.BoolVar(&opts.class2, "class2", false, "include voluntary Class 2 NI")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "taxreport:", err)
		var de *shared.DomainError
		if errors.As(err, &de) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	var files []string
	if opts.configFile != "" {
		files = append(files, opts.configFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	ctx, span := telemetry.StartSpan(ctx, "taxreport.run")
	defer span.End()

	loc, err := cfg.Engine.Location()
	if err != nil {
		return err
	}
	svcOpts := []reportapp.Option{
		reportapp.WithLogger(logger.Named(log, "report")),
		reportapp.WithLocation(loc),
	}
	if threshold, ok, err := cfg.Engine.VATThreshold(); err != nil {
		return err
	} else if ok {
		svcOpts = append(svcOpts, reportapp.WithVATThreshold(threshold))
	}

	var engineMetrics *metrics.EngineMetrics
	if cfg.Metrics.Enabled || opts.metricsOut != "" {
		mcfg := metrics.DefaultConfig()
		mcfg.Namespace = cfg.Metrics.Namespace
		engineMetrics = metrics.New(mcfg)
		svcOpts = append(svcOpts, reportapp.WithMetrics(engineMetrics))
	}

	rates, err := ratetable.LoadDefault(cfg.Engine.RateTableDir, ratetable.WithLogger(log))
	if err != nil {
		return fmt.Errorf("load rate tables: %w", err)
	}
	svc := reportapp.NewReportService(rates, svcOpts...)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if opts.listYears {
		return enc.Encode(svc.TaxYears(time.Now(), cfg.Engine.YearsBack))
	}

	snap, err := readSnapshot(opts.input)
	if err != nil {
		return err
	}
	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	pack, err := svc.BuildFilingPack(ctx, *snap, req)
	if werr := writeMetrics(engineMetrics, opts.metricsOut); werr != nil {
		log.Warn("Metrics not written", zap.String("path", opts.metricsOut), zap.Error(werr))
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if traceID := telemetry.GetTraceID(ctx); traceID != "" {
		log.Info("Filing pack traced", zap.String("trace_id", traceID))
	}
	return enc.Encode(pack)
}

// loanPlanUsage lists the plan names the rate tables accept.
func loanPlanUsage() string {
	plans := []string{tax.LoanPlan1, tax.LoanPlan2, tax.LoanPlan4, tax.LoanPlan5, tax.LoanPlanPostgraduate}
	return "student loan plan: " + strings.Join(plans, ", ")
}

func readSnapshot(path string) (*reportapp.Snapshot, error) {
	var r io.Reader = os.Stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}
	var snap reportapp.Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, shared.NewInvalidInputError("decode snapshot: %v", err)
	}
	return &snap, nil
}

func buildRequest(opts options) (reportapp.PackRequest, error) {
	req := reportapp.PackRequest{TaxYear: opts.taxYear}
	req.TaxOptions.StudentLoanPlan = opts.loanPlan
	req.TaxOptions.IncludeClass2 = opts.class2
	if opts.dividends != "" {
		d, err := decimal.NewFromString(opts.dividends)
		if err != nil {
			return req, shared.NewInvalidInputError("dividends %q: %v", opts.dividends, err)
		}
		req.Dividends = d
	}
	return req, nil
}

func writeMetrics(m *metrics.EngineMetrics, path string) error {
	if m == nil || path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteText(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

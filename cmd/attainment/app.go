package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/layout"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/infrastructure/persistence"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/infrastructure/xlsx"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
	distribution "github.com/jacksonlee411/attainment-reports/modules/distribution/services"
	"github.com/jacksonlee411/attainment-reports/pkg/configuration"
	"github.com/jacksonlee411/attainment-reports/pkg/eventbus"
	"github.com/jacksonlee411/attainment-reports/pkg/metrics"
)

// app holds the process wiring of one command invocation.
type app struct {
	cfg     *configuration.Configuration
	log     *logrus.Logger
	bus     eventbus.EventBus
	metrics *metrics.Registry
	ledger  *persistence.Ledger
	layout  layout.Layout
	mail    *distribution.Metrics
}

func newApp(g *globalOptions) (*app, error) {
	cfg, err := configuration.Load(g.envFiles...)
	if err != nil {
		return nil, withCode(exitValidation, err)
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, withCode(exitUsage, err)
		}
	}
	l, err := layout.Load(cfg.LayoutFile)
	if err != nil {
		return nil, withCode(exitValidation, err)
	}

	logger := cfg.Logger()
	a := &app{
		cfg:     cfg,
		log:     logger,
		bus:     eventbus.NewEventPublisher(logger),
		metrics: metrics.NewRegistry(),
		layout:  l,
	}
	services.NewMetrics(a.metrics.Factory()).Subscribe(a.bus)
	a.mail = distribution.NewMetrics(a.metrics.Factory())
	return a, nil
}

// openLedger subscribes the run ledger to the bus. An empty path keeps the
// ledger disabled.
func (a *app) openLedger() error {
	if a.cfg.LedgerPath == "" || a.ledger != nil {
		return nil
	}
	ledger, err := persistence.OpenLedger(a.cfg.LedgerPath, logrus.NewEntry(a.log))
	if err != nil {
		return withCode(exitIO, err)
	}
	ledger.Subscribe(a.bus)
	a.ledger = ledger
	return nil
}

func (a *app) close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.log.WithError(err).Warn("close ledger")
		}
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.log.WithError(err).Warn("write metrics")
	}
	a.cfg.Unload()
}

func (a *app) entry(command string) *logrus.Entry {
	return a.log.WithField("command", command)
}

// loadSource reads the source table and logs the schema columns it lacks.
func (a *app) loadSource(path string, strict bool) (*xlsx.Table, error) {
	if path == "" {
		return nil, withCode(exitUsage, errors.New("--source is required"))
	}
	tbl, err := xlsx.ReadSource(path, xlsx.SourceOptions{
		Sheet:  a.cfg.SourceSheet,
		Schema: a.layout.Columns,
		Strict: strict,
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(tbl.Missing) > 0 {
		a.log.WithField("columns", tbl.Missing).Warn("source lacks report columns, cells render blank")
	}
	return tbl, nil
}

type generateFlags struct {
	source     string
	output     string
	regions    []string
	fiscalYear string
	match      string
	strict     bool
}

func (f *generateFlags) options(a *app) services.GenerateOptions {
	opts := services.GenerateOptions{
		OutputRoot:   a.cfg.OutputDir,
		Regions:      f.regions,
		FiscalYear:   a.cfg.FiscalYear,
		PrefixSuffix: a.cfg.PrefixSuffix,
		Match:        services.MatchMode(a.cfg.MatchMode),
		Source:       f.source,
	}
	if f.output != "" {
		opts.OutputRoot = f.output
	}
	if f.fiscalYear != "" {
		opts.FiscalYear = f.fiscalYear
	}
	if f.match != "" {
		opts.Match = services.MatchMode(f.match)
	}
	return opts
}

// generate loads the source and runs the orchestrator with the ledger
// attached.
func (a *app) generate(ctx context.Context, f *generateFlags, progress services.ProgressFunc) (*services.Result, error) {
	opts := f.options(a)
	match, err := services.ParseMatchMode(string(opts.Match))
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	opts.Match = match
	opts.Progress = progress
	if opts.FiscalYear != "" {
		fy, ok := services.FormatFiscalYear(opts.FiscalYear)
		if !ok {
			return nil, withCode(exitUsage, errors.Errorf("invalid fiscal year %q", opts.FiscalYear))
		}
		opts.FiscalYear = fy
	}

	tbl, err := a.loadSource(f.source, f.strict)
	if err != nil {
		return nil, err
	}
	if err := a.openLedger(); err != nil {
		return nil, err
	}
	gen := services.NewGenerator(xlsx.NewRenderer(a.layout), a.bus, a.entry("generate"))
	res, err := gen.Generate(ctx, tbl.Records, opts)
	if err != nil {
		return res, classify(err)
	}
	return res, nil
}

// records loads the source for commands that only inspect the table.
func (a *app) records(path string) ([]record.Record, error) {
	tbl, err := a.loadSource(path, false)
	if err != nil {
		return nil, err
	}
	return tbl.Records, nil
}

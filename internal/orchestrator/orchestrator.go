// Package orchestrator runs a multi-strategy scan end to end.
// It coordinates: market data → pipeline per strategy → reports → persistence
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/idhash"
	"options-income-lab/internal/marketdata"
	"options-income-lab/internal/observability"
	"options-income-lab/internal/pipeline"
	"options-income-lab/internal/pricing"
	"options-income-lab/internal/reporting"
	"options-income-lab/internal/storage"
)

// ErrNoStrategies is returned when no strategy config is given.
var ErrNoStrategies = errors.New("no strategies configured")

// Output file names.
const (
	ReportFile  = "report.md"
	MetricsFile = "metrics.prom"
)

// OpportunitiesFile returns the CSV file name for a strategy.
func OpportunitiesFile(st domain.StrategyType) string {
	return "opportunities_" + strings.ToLower(st.String()) + ".csv"
}

// Orchestrator coordinates one scan across strategies.
type Orchestrator struct {
	provider marketdata.Provider
	runners  []*pipeline.Runner
	hash     string

	// Stores, nil disables persistence
	scanRunStore     storage.ScanRunStore
	opportunityStore storage.OpportunityStore
	chainStore       storage.ChainSnapshotStore
	stageCountStore  storage.StageCountStore

	outputDir string
	logger    logrus.FieldLogger
	metrics   *observability.Metrics
	now       func() time.Time // Injectable clock for deterministic output
	newRunID  func() string
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Provider marketdata.Provider
	Configs  []pipeline.Config // one per strategy, in report order

	// Optional stores
	ScanRunStore       storage.ScanRunStore
	OpportunityStore   storage.OpportunityStore
	ChainSnapshotStore storage.ChainSnapshotStore
	StageCountStore    storage.StageCountStore

	OutputDir string // empty skips file output
	Logger    logrus.FieldLogger
	Metrics   *observability.Metrics
}

// New validates every strategy config and creates an Orchestrator.
// An invalid capital configuration returns a *capital.ConfigurationError.
func New(opts Options) (*Orchestrator, error) {
	if len(opts.Configs) == 0 {
		return nil, ErrNoStrategies
	}
	if opts.Provider == nil {
		return nil, errors.New("market data provider is required")
	}

	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	o := &Orchestrator{
		provider:         opts.Provider,
		scanRunStore:     opts.ScanRunStore,
		opportunityStore: opts.OpportunityStore,
		chainStore:       opts.ChainSnapshotStore,
		stageCountStore:  opts.StageCountStore,
		outputDir:        opts.OutputDir,
		logger:           logger,
		metrics:          opts.Metrics,
		now:              func() time.Time { return time.Now().UTC() },
		newRunID:         uuid.NewString,
	}

	seen := make(map[domain.StrategyType]struct{})
	for _, cfg := range opts.Configs {
		if _, dup := seen[cfg.Strategy]; dup {
			return nil, fmt.Errorf("strategy %s configured twice", cfg.Strategy)
		}
		seen[cfg.Strategy] = struct{}{}

		r, err := pipeline.NewRunner(cfg)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", cfg.Strategy, err)
		}
		o.runners = append(o.runners, r.WithLogger(logger).WithMetrics(opts.Metrics))
	}

	hash, err := configHash(opts.Configs)
	if err != nil {
		return nil, err
	}
	o.hash = hash

	return o, nil
}

// WithClock sets a custom clock function for deterministic output.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	for _, r := range o.runners {
		r.WithClock(now)
	}
	return o
}

// WithRunID sets the run id generator.
func (o *Orchestrator) WithRunID(newRunID func() string) *Orchestrator {
	o.newRunID = newRunID
	return o
}

// ConfigHash returns the short hash of the effective configuration.
func (o *Orchestrator) ConfigHash() string {
	return o.hash
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Run     *domain.ScanRun
	Results []*pipeline.Result // one per strategy, in report order
	Report  *reporting.Report
	Files   []string // written paths
}

// Run executes the full scan at asOf.
// Phases:
//  1. Load chains and snapshots
//  2. Run every strategy pipeline
//  3. Write CSV, Markdown and metrics files
//  4. Persist run, opportunities, quotes and stage counts
func (o *Orchestrator) Run(ctx context.Context, asOf time.Time) (*RunResult, error) {
	startedAt := o.now()
	run := &domain.ScanRun{
		RunID:         o.newRunID(),
		StartedAt:     startedAt,
		AsOf:          asOf.UTC(),
		ConfigHash:    o.hash,
		MarketSession: marketdata.SessionAt(asOf).String(),
	}
	log := o.logger.WithField("run_id", run.RunID)

	// Phase 1: Load market data
	in, err := o.loadInput(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load market data) failed: %w", err)
	}
	log.WithFields(logrus.Fields{
		"contracts": len(in.Contracts),
		"snapshots": len(in.Snapshots),
		"session":   run.MarketSession,
	}).Info("market data loaded")

	// Phase 2: Pipelines
	result := &RunResult{Run: run}
	report := &reporting.Report{
		GeneratedAt:   startedAt,
		RunID:         run.RunID,
		AsOf:          run.AsOf,
		MarketSession: run.MarketSession,
		ConfigHash:    run.ConfigHash,
	}
	for _, r := range o.runners {
		res, err := r.Run(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("phase 2 (%s pipeline) failed: %w", r.Config().Strategy, err)
		}
		result.Results = append(result.Results, res)
		run.Strategies = append(run.Strategies, res.Strategy)
		run.Opportunities += len(res.Opportunities)
		report.Sections = append(report.Sections, reporting.NewSection(res, r.Config().Thresholds.UseEnhancedProbability))
		log.WithFields(logrus.Fields{
			"strategy":      res.Strategy.String(),
			"opportunities": len(res.Opportunities),
		}).Info("strategy ranked")
	}
	result.Report = report

	// Phase 3: Files
	if o.outputDir != "" {
		files, err := o.writeFiles(result)
		if err != nil {
			return nil, fmt.Errorf("phase 3 (write reports) failed: %w", err)
		}
		result.Files = files
	}

	// Phase 4: Persistence
	if err := o.persist(ctx, in, result); err != nil {
		return nil, fmt.Errorf("phase 4 (persist) failed: %w", err)
	}

	log.WithField("opportunities", run.Opportunities).Info("scan completed")
	return result, nil
}

// loadInput collects every ticker's chain and snapshot.
// A ticker without a snapshot is scored neutral by the pipeline.
func (o *Orchestrator) loadInput(ctx context.Context, asOf time.Time) (pipeline.Input, error) {
	in := pipeline.Input{AsOf: asOf, Snapshots: make(map[string]*domain.StockSnapshot)}

	tickers, err := o.provider.Tickers(ctx)
	if err != nil {
		return in, fmt.Errorf("list tickers: %w", err)
	}

	for _, t := range tickers {
		chain, err := o.provider.Chain(ctx, t)
		if err != nil {
			if errors.Is(err, marketdata.ErrTickerNotFound) {
				o.logger.WithField("ticker", t).Debug("no chain")
				continue
			}
			return in, fmt.Errorf("chain %s: %w", t, err)
		}
		in.Contracts = append(in.Contracts, chain...)

		snap, err := o.provider.Snapshot(ctx, t)
		switch {
		case err == nil:
			in.Snapshots[t] = snap
		case errors.Is(err, marketdata.ErrTickerNotFound):
			o.logger.WithField("ticker", t).Debug("no snapshot")
		default:
			return in, fmt.Errorf("snapshot %s: %w", t, err)
		}
	}

	return in, nil
}

// writeFiles writes one CSV per strategy, the Markdown report and metrics.
func (o *Orchestrator) writeFiles(res *RunResult) ([]string, error) {
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var files []string
	for _, r := range res.Results {
		path := filepath.Join(o.outputDir, OpportunitiesFile(r.Strategy))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		err = reporting.WriteOpportunitiesCSV(f, r.Opportunities)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
	}

	path := filepath.Join(o.outputDir, ReportFile)
	if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(res.Report)), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	files = append(files, path)

	if o.metrics != nil {
		path := filepath.Join(o.outputDir, MetricsFile)
		if err := o.metrics.WriteTextfile(path); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
	}

	return files, nil
}

// persist stores the run and its outputs in every configured store.
func (o *Orchestrator) persist(ctx context.Context, in pipeline.Input, res *RunResult) error {
	run := res.Run

	if o.scanRunStore != nil {
		if err := o.scanRunStore.Insert(ctx, run); err != nil {
			return fmt.Errorf("insert scan run: %w", err)
		}
	}

	if o.opportunityStore != nil {
		var all []*domain.Opportunity
		for _, r := range res.Results {
			all = append(all, r.Opportunities...)
		}
		if err := o.opportunityStore.InsertBulk(ctx, run.RunID, all); err != nil {
			return fmt.Errorf("insert opportunities: %w", err)
		}
	}

	if o.chainStore != nil {
		quotes := make([]*domain.ChainQuote, 0, len(in.Contracts))
		seen := make(map[string]struct{}, len(in.Contracts))
		for i := range in.Contracts {
			c := in.Contracts[i]
			// Providers may repeat a contract; the first quote wins
			if _, dup := seen[c.Key()]; dup {
				continue
			}
			seen[c.Key()] = struct{}{}
			premium, source := pricing.ResolvePremium(&c)
			quotes = append(quotes, &domain.ChainQuote{
				RunID:       run.RunID,
				AsOf:        run.AsOf,
				Contract:    c,
				Premium:     premium,
				PriceSource: source,
			})
		}
		if err := o.chainStore.InsertBulk(ctx, quotes); err != nil {
			return fmt.Errorf("insert chain quotes: %w", err)
		}
	}

	if o.stageCountStore != nil {
		var records []*domain.StageCountRecord
		for _, r := range res.Results {
			records = append(records, StageCountRecords(run.RunID, run.AsOf, r.Diagnostics)...)
		}
		if err := o.stageCountStore.InsertBulk(ctx, records); err != nil {
			return fmt.Errorf("insert stage counts: %w", err)
		}
	}

	return nil
}

// StageCountRecords flattens diagnostics into persisted stage counts.
func StageCountRecords(runID string, asOf time.Time, d *pipeline.Diagnostics) []*domain.StageCountRecord {
	records := make([]*domain.StageCountRecord, len(d.Stages))
	for i, s := range d.Stages {
		excluded := make(map[string]int, len(s.Excluded))
		for reason, n := range s.Excluded {
			excluded[reason] = n
		}
		records[i] = &domain.StageCountRecord{
			RunID:    runID,
			AsOf:     asOf,
			Strategy: d.Strategy,
			Stage:    string(s.Stage),
			Position: i,
			In:       s.In,
			Out:      s.Out,
			Excluded: excluded,
		}
	}
	return records
}

// configHash hashes the YAML form of every strategy config.
func configHash(cfgs []pipeline.Config) (string, error) {
	data, err := yaml.Marshal(cfgs)
	if err != nil {
		return "", fmt.Errorf("marshal config for hash: %w", err)
	}
	return idhash.ComputeConfigHash(data), nil
}

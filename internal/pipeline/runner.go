// Package pipeline runs the staged filter-and-rank scan for one strategy
// over a point-in-time snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"options-income-lab/internal/capital"
	"options-income-lab/internal/domain"
	"options-income-lab/internal/observability"
	"options-income-lab/internal/pricing"
	"options-income-lab/internal/probability"
	"options-income-lab/internal/scoring"
	"options-income-lab/internal/strategy"
)

// Input is one point-in-time snapshot.
type Input struct {
	AsOf      time.Time
	Contracts []domain.ContractRecord
	Snapshots map[string]*domain.StockSnapshot // keyed by ticker
}

// Result is the ranked output of one strategy run.
type Result struct {
	Strategy      domain.StrategyType
	AsOf          time.Time
	Opportunities []*domain.Opportunity // ranked, truncated to TopN
	Diagnostics   *Diagnostics
}

// Runner executes the stages for one strategy.
// A Runner holds no per-scan state and is safe for concurrent Run calls.
type Runner struct {
	cfg       Config
	strat     strategy.Strategy
	engine    *pricing.Engine
	model     *scoring.Model
	adjuster  *probability.Adjuster
	allocator *capital.Allocator
	quality   map[string]struct{}
	logger    logrus.FieldLogger
	metrics   *observability.Metrics
	clock     func() time.Time
}

// NewRunner validates cfg and creates a runner.
// An invalid capital configuration returns a *capital.ConfigurationError.
func NewRunner(cfg Config) (*Runner, error) {
	cfg = cfg.clone()

	allocator, err := capital.NewAllocator(cfg.Capital)
	if err != nil {
		return nil, err
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	model, err := scoring.NewModel(cfg.Weights)
	if err != nil {
		return nil, err
	}
	adjuster, err := probability.NewAdjuster(cfg.MaxAdjustment)
	if err != nil {
		return nil, err
	}
	strat, err := strategy.FromConfig(cfg.Strategy, cfg.StrategyParams)
	if err != nil {
		return nil, err
	}

	quality := make(map[string]struct{}, len(cfg.QualityTickers))
	for _, t := range cfg.QualityTickers {
		quality[t] = struct{}{}
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Runner{
		cfg:       cfg,
		strat:     strat,
		engine:    pricing.NewEngine(cfg.Pricing),
		model:     model,
		adjuster:  adjuster,
		allocator: allocator,
		quality:   quality,
		logger:    discard,
		clock:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithLogger sets the logger.
func (r *Runner) WithLogger(l logrus.FieldLogger) *Runner {
	r.logger = l
	return r
}

// WithMetrics sets the metrics sink.
func (r *Runner) WithMetrics(m *observability.Metrics) *Runner {
	r.metrics = m
	return r
}

// WithClock sets a custom clock function for run timing.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// Config returns a copy of the runner configuration.
func (r *Runner) Config() Config {
	return r.cfg.clone()
}

// Run executes every stage in order. Per-contract failures become
// exclusions; only context cancellation returns an error.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	start := r.clock()
	st := r.strat.ID()
	log := r.logger.WithField("strategy", st.String())

	res, err := r.run(ctx, in)
	elapsed := r.clock().Sub(start).Seconds()
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordScan(st.String(), "error", elapsed, 0, 0)
		}
		return nil, err
	}

	r.report(log, res)
	if r.metrics != nil {
		r.recordMetrics(res, elapsed)
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, in Input) (*Result, error) {
	diag := newDiagnostics(r.strat.ID())
	diag.DeployableCash = r.allocator.Deployable()
	diag.PositionBudget = r.allocator.Budget()

	byTicker := r.restrictUniverse(in.Contracts, diag.Stage(StageUniverse))

	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	workers := r.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]*tickerResult, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			tr, err := r.processTicker(gctx, ticker, byTicker[ticker], in.Snapshots[ticker], in.AsOf)
			if err != nil {
				return fmt.Errorf("ticker %s: %w", ticker, err)
			}
			results[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var survivors []*domain.Opportunity
	for _, tr := range results {
		diag.merge(tr.diag)
		survivors = append(survivors, tr.opportunities...)
	}

	ranked := r.rank(survivors, diag.Stage(StageRank))

	return &Result{
		Strategy:      r.strat.ID(),
		AsOf:          in.AsOf,
		Opportunities: ranked,
		Diagnostics:   diag,
	}, nil
}

// restrictUniverse applies the option-type and quality allow-list checks and
// groups survivors by ticker, preserving input order.
func (r *Runner) restrictUniverse(contracts []domain.ContractRecord, count *StageCount) map[string][]*domain.ContractRecord {
	out := make(map[string][]*domain.ContractRecord)
	seen := make(map[string]struct{}, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		count.In++
		if c.OptionType != r.strat.OptionType() {
			count.exclude(ReasonOptionType)
			continue
		}
		if r.cfg.QualityOnly {
			if _, ok := r.quality[c.Ticker]; !ok {
				count.exclude(ReasonNotQuality)
				continue
			}
		}
		// First quote for a contract wins.
		key := c.Key()
		if _, dup := seen[key]; dup {
			count.exclude(ReasonDuplicate)
			continue
		}
		seen[key] = struct{}{}
		count.Out++
		out[c.Ticker] = append(out[c.Ticker], c)
	}
	return out
}

// probability returns the probability OTM used for filtering and ranking.
func (r *Runner) probability(o *domain.Opportunity) float64 {
	if r.cfg.Thresholds.UseEnhancedProbability {
		return o.EnhancedProbability
	}
	return o.Greeks.ProbabilityOTM
}

func (r *Runner) report(log logrus.FieldLogger, res *Result) {
	d := res.Diagnostics
	for _, sc := range d.Stages {
		log.WithFields(logrus.Fields{
			"stage": string(sc.Stage),
			"in":    sc.In,
			"out":   sc.Out,
		}).Debug("stage complete")
	}
	if n := d.StaleQuotes(); n > 0 {
		log.WithField("contracts", n).Warn("premium resolved from last trade or half ask; quotes may be stale")
	}
	if len(d.MissingSnapshots) > 0 {
		log.WithField("tickers", d.MissingSnapshots).Warn("no stock snapshot; factor scores neutral")
	}
	log.WithFields(logrus.Fields{
		"opportunities": len(res.Opportunities),
		"contracts":     d.Stage(StageUniverse).In,
	}).Info("scan complete")
}

func (r *Runner) recordMetrics(res *Result, elapsed float64) {
	st := res.Strategy.String()
	d := res.Diagnostics
	for _, sc := range d.Stages {
		r.metrics.RecordStage(st, string(sc.Stage), sc.In, sc.Out, sc.Excluded)
	}
	sources := make(map[string]int, len(d.PriceSources))
	for s, n := range d.PriceSources {
		sources[s.String()] = n
	}
	r.metrics.RecordDataQuality(sources, d.IVSubstituted, d.LowConfidence)
	r.metrics.RecordScan(st, "success", elapsed, len(res.Opportunities), r.clock().Unix())
}

// IsConfigurationError reports whether err should abort a scan.
func IsConfigurationError(err error) bool {
	return errors.Is(err, capital.ErrConfiguration) ||
		errors.Is(err, ErrInvalidThresholds) ||
		errors.Is(err, scoring.ErrInvalidWeights) ||
		errors.Is(err, probability.ErrInvalidCap)
}

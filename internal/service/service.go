package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-analytics-engine/internal/analytics"
	"github.com/trogers1052/stock-analytics-engine/internal/cache"
	"github.com/trogers1052/stock-analytics-engine/internal/loader"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidRequest is returned for requests the engine cannot run
var ErrInvalidRequest = errors.New("invalid request")

const defaultParallelism = 8

// Request names one instrument, optional inclusive date bounds and the SMA
// window set. Empty Windows means the configured defaults.
type Request struct {
	Symbol  string
	Start   *time.Time
	End     *time.Time
	Windows []int
}

// ChartData is the chart rendering of one analysis
type ChartData struct {
	Symbol   string              `json:"symbol"`
	Points   []models.ChartPoint `json:"points"`
	Warnings []models.Warning    `json:"warnings"`
}

// Analyzer loads history, runs the engine and caches the results
type Analyzer struct {
	source      loader.BarSource
	cfg         analytics.Config
	cache       *cache.Cache
	metrics     *Metrics
	parallelism int
}

// New creates an Analyzer. A nil cache gets an unbounded in-process cache;
// nil metrics are created unregistered.
func New(source loader.BarSource, cfg analytics.Config, c *cache.Cache, m *Metrics) *Analyzer {
	if c == nil {
		c = cache.New(cache.Options{})
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Analyzer{
		source:      source,
		cfg:         cfg,
		cache:       c,
		metrics:     m,
		parallelism: defaultParallelism,
	}
}

// SetParallelism bounds concurrent instrument loads in Correlation and Warm
func (a *Analyzer) SetParallelism(n int) {
	if n > 0 {
		a.parallelism = n
	}
}

// Analyze returns the full result for req, from cache when possible
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*models.AnalysisResult, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if req.Start != nil && req.End != nil && req.Start.After(*req.End) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidRequest,
			req.Start.Format(models.DateLayout), req.End.Format(models.DateLayout))
	}
	cfg := a.cfg.WithWindows(req.Windows)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	key := cache.Key{Symbol: req.Symbol, Start: req.Start, End: req.End, Windows: cfg.SMAWindows}
	res, src, err := a.cache.Get(ctx, key, func(ctx context.Context) (*models.AnalysisResult, error) {
		return a.compute(ctx, req, cfg)
	})
	if err != nil {
		return nil, err
	}
	a.metrics.CacheLookups.WithLabelValues(string(src)).Inc()
	log.Debug().
		Str("symbol", req.Symbol).
		Str("cache", string(src)).
		Msg("analysis served")
	return res, nil
}

func (a *Analyzer) compute(ctx context.Context, req Request, cfg analytics.Config) (*models.AnalysisResult, error) {
	started := time.Now()
	defer func() {
		a.metrics.ComputeDuration.Observe(time.Since(started).Seconds())
	}()

	bars, err := a.source.LoadBars(ctx, req.Symbol)
	if err != nil {
		a.metrics.Computations.WithLabelValues("load_error").Inc()
		return nil, fmt.Errorf("failed to load %s: %w", req.Symbol, err)
	}

	series, err := analytics.NewBarSeries(bars, req.Start, req.End)
	if err != nil {
		a.metrics.Computations.WithLabelValues("invalid_data").Inc()
		return nil, fmt.Errorf("failed to build series for %s: %w", req.Symbol, err)
	}

	report := analytics.NewEngine(cfg).Analyze(req.Symbol, series)
	a.metrics.Computations.WithLabelValues("ok").Inc()

	log.Info().
		Str("symbol", req.Symbol).
		Str("start", dateField(req.Start)).
		Str("end", dateField(req.End)).
		Ints("windows", cfg.SMAWindows).
		Int("bars", series.Len()).
		Int("warnings", len(report.Warnings)).
		Dur("took", time.Since(started)).
		Msg("computed analysis")

	return &models.AnalysisResult{
		Symbol:     req.Symbol,
		Metrics:    report.Metrics,
		Points:     report.ChartPoints(),
		Runs:       report.Runs,
		MaxProfit:  report.MaxProfit,
		Returns:    report.Returns(),
		Warnings:   report.Warnings,
		ComputedAt: time.Now().UTC(),
	}, nil
}

// Metrics returns the per-instrument summary
func (a *Analyzer) Metrics(ctx context.Context, req Request) (models.Metrics, error) {
	res, err := a.Analyze(ctx, req)
	if err != nil {
		return models.Metrics{}, err
	}
	return res.Metrics, nil
}

// ChartData returns the enriched rows rendered for charting
func (a *Analyzer) ChartData(ctx context.Context, req Request) (*ChartData, error) {
	res, err := a.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []models.Warning{}
	}
	return &ChartData{Symbol: res.Symbol, Points: res.Points, Warnings: warnings}, nil
}

// Runs returns the up/down day counts and longest streaks
func (a *Analyzer) Runs(ctx context.Context, req Request) (models.RunAnalysis, error) {
	res, err := a.Analyze(ctx, req)
	if err != nil {
		return models.RunAnalysis{}, err
	}
	return res.Runs, nil
}

// Transactions returns the max-profit trade set
func (a *Analyzer) Transactions(ctx context.Context, req Request) (models.MaxProfitResult, error) {
	res, err := a.Analyze(ctx, req)
	if err != nil {
		return models.MaxProfitResult{}, err
	}
	return res.MaxProfit, nil
}

// Symbols lists the instruments the source can load
func (a *Analyzer) Symbols(ctx context.Context) ([]string, error) {
	symbols, err := a.source.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	if symbols == nil {
		symbols = []string{}
	}
	return symbols, nil
}

// Correlation computes the return correlation matrix across symbols over
// the same date range. No symbols means every available instrument.
// Instruments the source does not know are skipped; fewer than two
// loadable instruments yield an empty matrix.
func (a *Analyzer) Correlation(ctx context.Context, symbols []string, start, end *time.Time) (models.CorrelationMatrix, error) {
	if len(symbols) == 0 {
		all, err := a.Symbols(ctx)
		if err != nil {
			return nil, err
		}
		symbols = all
	}
	symbols = dedupe(symbols)

	var mu sync.Mutex
	returns := make(map[string][]models.DatedReturn, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for _, symbol := range symbols {
		g.Go(func() error {
			res, err := a.Analyze(gctx, Request{Symbol: symbol, Start: start, End: end})
			if errors.Is(err, loader.ErrInstrumentNotFound) {
				log.Warn().Str("symbol", symbol).Msg("skipping unknown instrument in correlation")
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			returns[symbol] = res.Returns
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(returns) < 2 {
		return models.CorrelationMatrix{}, nil
	}
	matrix, err := analytics.NewCorrelationEngine(a.cfg.Alignment).Compute(returns)
	if err != nil {
		return nil, fmt.Errorf("failed to correlate %d instruments: %w", len(returns), err)
	}
	return matrix, nil
}

// Warm computes full-range results with the default windows so later
// requests are served from cache. It returns how many instruments were
// warmed and the joined failures.
func (a *Analyzer) Warm(ctx context.Context, symbols []string) (int, error) {
	var (
		mu     sync.Mutex
		warmed int
		errs   []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for _, symbol := range dedupe(symbols) {
		g.Go(func() error {
			_, err := a.Analyze(gctx, Request{Symbol: symbol})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
				return nil
			}
			warmed++
			return nil
		})
	}
	_ = g.Wait()
	return warmed, errors.Join(errs...)
}

// Invalidate drops cached results for symbol
func (a *Analyzer) Invalidate(ctx context.Context, symbol string) error {
	return a.cache.Invalidate(ctx, symbol)
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func dateField(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}

package analytics

import "github.com/trogers1052/stock-analytics-engine/internal/models"

// Report carries every per-instrument output computed from one BarSeries
type Report struct {
	Symbol    string
	Rows      []models.IndicatorRow
	Runs      models.RunAnalysis
	MaxProfit models.MaxProfitResult
	Metrics   models.Metrics
	Warnings  []models.Warning
}

// Engine runs the per-instrument pipeline in dependency order:
// indicators, then runs and max profit, then metrics
type Engine struct {
	cfg        Config
	indicators *IndicatorCalculator
	runs       RunAnalyzer
	profit     MaxProfitSolver
	aggregator *MetricsAggregator
}

// NewEngine creates an engine for cfg
func NewEngine(cfg Config) *Engine {
	cfg.SMAWindows = NormalizeWindows(cfg.SMAWindows)
	return &Engine{
		cfg:        cfg,
		indicators: NewIndicatorCalculator(cfg),
		aggregator: NewMetricsAggregator(cfg),
	}
}

// Config returns the engine's configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze computes the full report for one instrument
func (e *Engine) Analyze(symbol string, s *BarSeries) *Report {
	rows := e.indicators.Calculate(s)
	runs := e.runs.Analyze(rows)
	profit := e.profit.Solve(s.bars)
	return &Report{
		Symbol:    symbol,
		Rows:      rows,
		Runs:      runs,
		MaxProfit: profit,
		Metrics:   e.aggregator.Aggregate(symbol, s, rows, runs, profit),
		Warnings:  e.cfg.HistoryWarnings(s.Len()),
	}
}

// Returns extracts the dated daily returns of the report
func (r *Report) Returns() []models.DatedReturn {
	return Returns(r.Rows)
}

// ChartPoints renders the report rows for chart consumers
func (r *Report) ChartPoints() []models.ChartPoint {
	points := make([]models.ChartPoint, len(r.Rows))
	for i, row := range r.Rows {
		points[i] = models.NewChartPoint(row)
	}
	return points
}

package analytics

import (
	"math"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// MetricsAggregator folds the series and its derived outputs into a single
// per-instrument summary
type MetricsAggregator struct {
	cfg Config
}

// NewMetricsAggregator creates an aggregator using cfg's annualization
// factor and risk-free rate
func NewMetricsAggregator(cfg Config) *MetricsAggregator {
	return &MetricsAggregator{cfg: cfg}
}

// Aggregate builds Metrics. An empty series yields zero-valued metrics with
// the neutral RSI.
func (a *MetricsAggregator) Aggregate(symbol string, s *BarSeries, rows []models.IndicatorRow,
	runs models.RunAnalysis, profit models.MaxProfitResult) models.Metrics {
	m := models.Metrics{
		Symbol:       symbol,
		TotalDays:    s.Len(),
		MaxProfit:    profit.MaxProfit,
		Transactions: profit.Transactions,
		RunAnalysis:  runs,
		RSI:          NeutralRSI,
		Warnings:     a.cfg.HistoryWarnings(s.Len()),
	}
	if m.Transactions == nil {
		m.Transactions = []models.Transaction{}
	}
	n := s.Len()
	if n == 0 {
		return m
	}

	first, last := s.At(0), s.At(n-1)
	m.StartDate = first.Date.Format(models.DateLayout)
	m.EndDate = last.Date.Format(models.DateLayout)
	m.CurrentPrice = last.Close

	m.MaxPrice, m.MinPrice = math.Inf(-1), math.Inf(1)
	var closeSum float64
	for i := 0; i < n; i++ {
		b := s.At(i)
		m.MaxPrice = math.Max(m.MaxPrice, b.Close)
		m.MinPrice = math.Min(m.MinPrice, b.Close)
		closeSum += b.Close
		m.TotalVolume += b.Volume
	}
	m.AvgPrice = closeSum / float64(n)
	m.AvgVolume = m.TotalVolume / float64(n)

	m.TotalReturn = percentChange(first.Close, last.Close)
	if n >= 2 {
		m.PriceChangePercent = percentChange(s.At(n-2).Close, last.Close)
	}

	returns := make([]float64, 0, n)
	for _, r := range rows {
		if r.DailyReturn != nil {
			returns = append(returns, *r.DailyReturn)
		}
	}
	m.Volatility, m.SharpeRatio = a.riskReturn(returns)

	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].RSI != nil {
			m.RSI = *rows[i].RSI
			break
		}
	}
	return m
}

// riskReturn returns annualized volatility in percent and the Sharpe ratio.
// Both are 0 when the deviation is undefined or zero.
func (a *MetricsAggregator) riskReturn(returns []float64) (volatility, sharpe float64) {
	sd := sampleStdDev(returns)
	if sd == 0 {
		return 0, 0
	}
	scale := math.Sqrt(a.cfg.AnnualizationFactor)
	volatility = sd * scale * 100
	excess := mean(returns)*a.cfg.AnnualizationFactor - a.cfg.RiskFreeRate
	sharpe = excess / (sd * scale)
	return volatility, sharpe
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

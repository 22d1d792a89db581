package analytics

import (
	"math"
	"time"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// BarSeries is a validated, strictly date-ascending sequence of bars for one
// instrument. It is never mutated after construction.
type BarSeries struct {
	bars []models.Bar
}

// NewBarSeries validates bars and keeps those inside the inclusive
// [start, end] range. A nil bound is open. Validation covers the whole input
// so a malformed row outside the range still fails the request.
func NewBarSeries(bars []models.Bar, start, end *time.Time) (*BarSeries, error) {
	for i := range bars {
		if err := validateBar(i, bars[i]); err != nil {
			return nil, err
		}
		if i > 0 && !bars[i].Date.After(bars[i-1].Date) {
			return nil, newDataError(i, bars[i].Date, "date not after previous bar %s",
				bars[i-1].Date.Format(models.DateLayout))
		}
	}

	kept := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if start != nil && b.Date.Before(*start) {
			continue
		}
		if end != nil && b.Date.After(*end) {
			continue
		}
		kept = append(kept, b)
	}
	return &BarSeries{bars: kept}, nil
}

// ValidateBar applies the per-bar checks NewBarSeries runs: finite,
// non-negative fields and low <= min(open, close) <= max(open, close) <= high.
func ValidateBar(b models.Bar) error {
	return validateBar(-1, b)
}

func validateBar(i int, b models.Bar) error {
	fields := [...]struct {
		name  string
		value float64
	}{
		{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return newDataError(i, b.Date, "%s is not finite", f.name)
		}
		if f.value < 0 {
			return newDataError(i, b.Date, "%s is negative (%v)", f.name, f.value)
		}
	}
	if b.High < b.Low {
		return newDataError(i, b.Date, "high %v below low %v", b.High, b.Low)
	}
	if b.High < math.Max(b.Open, b.Close) {
		return newDataError(i, b.Date, "high %v below open/close", b.High)
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return newDataError(i, b.Date, "low %v above open/close", b.Low)
	}
	return nil
}

// Len returns the number of bars
func (s *BarSeries) Len() int {
	return len(s.bars)
}

// At returns the i-th bar
func (s *BarSeries) At(i int) models.Bar {
	return s.bars[i]
}

// Bars returns a copy of the bars
func (s *BarSeries) Bars() []models.Bar {
	return append([]models.Bar(nil), s.bars...)
}

// Closes returns the close prices in order
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}

package loader

import (
	"context"
	"errors"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// ErrInstrumentNotFound is returned when a source has no history for a symbol
var ErrInstrumentNotFound = errors.New("instrument not found")

// BarSource supplies full daily history per instrument, sorted ascending by date
type BarSource interface {
	LoadBars(ctx context.Context, symbol string) ([]models.Bar, error)
	Symbols(ctx context.Context) ([]string, error)
}

// ToBars converts stored rows to engine bars, preserving order
func ToBars(rows []*models.PriceDataDaily) []models.Bar {
	bars := make([]models.Bar, len(rows))
	for i, r := range rows {
		bars[i] = r.ToBar()
	}
	return bars
}

package database

import (
	"context"
	"fmt"

	"github.com/trogers1052/stock-analytics-engine/internal/loader"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// LoadBars implements loader.BarSource over the price_data_daily table
func (db *DB) LoadBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	rows, err := db.GetPriceHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", loader.ErrInstrumentNotFound, symbol)
	}
	return loader.ToBars(rows), nil
}

// Symbols implements loader.BarSource
func (db *DB) Symbols(ctx context.Context) ([]string, error) {
	return db.GetSymbols(ctx)
}

var _ loader.BarSource = (*DB)(nil)

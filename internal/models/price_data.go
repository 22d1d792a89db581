package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on every external boundary
const DateLayout = "2006-01-02"

// PriceDataDaily represents one stored daily OHLCV row as the loaders and the
// price store see it, before it is handed to the analytics engine
type PriceDataDaily struct {
	ID        int             `json:"id,omitempty"`
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// Bar is one trading day for an instrument in the engine's numeric form
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// ToBar converts a stored row to an engine bar. The date is truncated to the
// calendar day in UTC.
func (p *PriceDataDaily) ToBar() Bar {
	y, m, d := p.Date.Date()
	return Bar{
		Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Open:   p.Open.InexactFloat64(),
		High:   p.High.InexactFloat64(),
		Low:    p.Low.InexactFloat64(),
		Close:  p.Close.InexactFloat64(),
		Volume: p.Volume.InexactFloat64(),
	}
}

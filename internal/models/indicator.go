package models

import "time"

// Direction classifies a bar's daily return
type Direction int

const (
	DirectionFlat Direction = iota
	DirectionUp
	DirectionDown
)

// String returns the lowercase direction name
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "flat"
	}
}

// IndicatorRow is one bar enriched with derived indicators.
// Nil pointers mean the value is undefined for that bar.
type IndicatorRow struct {
	Bar
	DailyReturn *float64         `json:"dailyReturn"`
	SMA         map[int]*float64 `json:"sma"`
	RSI         *float64         `json:"rsi"`
	IsUpward    bool             `json:"isUpward"`
	IsDownward  bool             `json:"isDownward"`
	RunLength   int              `json:"runLength"`
}

// Direction returns the classified direction of the row
func (r *IndicatorRow) Direction() Direction {
	switch {
	case r.IsUpward:
		return DirectionUp
	case r.IsDownward:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// ChartPoint is the chart-data rendering of an IndicatorRow.
// DailyReturn is expressed in percent.
type ChartPoint struct {
	Date        string           `json:"date"`
	Open        float64          `json:"open"`
	High        float64          `json:"high"`
	Low         float64          `json:"low"`
	Close       float64          `json:"close"`
	Volume      float64          `json:"volume"`
	SMA         map[int]*float64 `json:"sma"`
	RSI         *float64         `json:"rsi"`
	DailyReturn *float64         `json:"dailyReturn"`
	IsUpward    bool             `json:"isUpward"`
	IsDownward  bool             `json:"isDownward"`
	RunLength   int              `json:"runLength"`
	UpwardRun   int              `json:"upwardRun"`
	DownwardRun int              `json:"downwardRun"`
}

// NewChartPoint renders a row for chart consumers
func NewChartPoint(r IndicatorRow) ChartPoint {
	p := ChartPoint{
		Date:       r.Date.Format(DateLayout),
		Open:       r.Open,
		High:       r.High,
		Low:        r.Low,
		Close:      r.Close,
		Volume:     r.Volume,
		SMA:        r.SMA,
		RSI:        r.RSI,
		IsUpward:   r.IsUpward,
		IsDownward: r.IsDownward,
		RunLength:  r.RunLength,
	}
	if r.DailyReturn != nil {
		pct := *r.DailyReturn * 100
		p.DailyReturn = &pct
	}
	switch r.Direction() {
	case DirectionUp:
		p.UpwardRun = r.RunLength
	case DirectionDown:
		p.DownwardRun = r.RunLength
	}
	return p
}

// DatedReturn is one defined daily return keyed by its calendar date
type DatedReturn struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

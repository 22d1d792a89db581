package analytics

import (
	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// IndicatorCalculator derives per-bar returns, moving averages, RSI and
// up/down run lengths
type IndicatorCalculator struct {
	windows   []int
	rsiPeriod int
}

// NewIndicatorCalculator creates a calculator for the configured windows and RSI period
func NewIndicatorCalculator(cfg Config) *IndicatorCalculator {
	return &IndicatorCalculator{
		windows:   NormalizeWindows(cfg.SMAWindows),
		rsiPeriod: cfg.RSIPeriod,
	}
}

// Calculate enriches every bar of the series. Fields whose window has not
// filled yet are left nil.
func (c *IndicatorCalculator) Calculate(s *BarSeries) []models.IndicatorRow {
	n := s.Len()
	rows := make([]models.IndicatorRow, n)
	for i := 0; i < n; i++ {
		rows[i].Bar = s.At(i)
		rows[i].SMA = make(map[int]*float64, len(c.windows))
		for _, w := range c.windows {
			rows[i].SMA[w] = nil
		}
	}

	closes := s.Closes()
	c.dailyReturns(closes, rows)
	for _, w := range c.windows {
		c.movingAverage(closes, w, rows)
	}
	c.relativeStrength(closes, rows)
	classifyRuns(rows)
	return rows
}

// dailyReturns fills the fractional change vs the previous close. A zero
// previous close leaves the return undefined.
func (c *IndicatorCalculator) dailyReturns(closes []float64, rows []models.IndicatorRow) {
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		r := (closes[i] - closes[i-1]) / closes[i-1]
		rows[i].DailyReturn = &r
	}
}

// movingAverage fills SMA for window w using a sliding sum
func (c *IndicatorCalculator) movingAverage(closes []float64, w int, rows []models.IndicatorRow) {
	var sum float64
	for i, v := range closes {
		sum += v
		if i >= w {
			sum -= closes[i-w]
		}
		if i >= w-1 {
			avg := sum / float64(w)
			rows[i].SMA[w] = &avg
		}
	}
}

// relativeStrength fills RSI from the simple average gain and loss over the
// trailing period changes. Counts of non-zero gains and losses in the window
// keep the degenerate cases exact despite floating drift in the sums.
func (c *IndicatorCalculator) relativeStrength(closes []float64, rows []models.IndicatorRow) {
	p := c.rsiPeriod
	if p <= 0 || len(closes) < p+1 {
		return
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var gainSum, lossSum float64
	var gainCount, lossCount int
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if gains[i] > 0 {
			gainCount++
		}
		if losses[i] > 0 {
			lossCount++
		}
		if i > p {
			gainSum -= gains[i-p]
			lossSum -= losses[i-p]
			if gains[i-p] > 0 {
				gainCount--
			}
			if losses[i-p] > 0 {
				lossCount--
			}
		}
		if i < p {
			continue
		}

		var rsi float64
		switch {
		case lossCount == 0:
			rsi = 100
		case gainCount == 0:
			rsi = 0
		default:
			avgGain := max(gainSum, 0) / float64(p)
			avgLoss := max(lossSum, 0) / float64(p)
			rsi = 100 - 100/(1+avgGain/avgLoss)
		}
		rows[i].RSI = &rsi
	}
}

type runState struct {
	dir   models.Direction
	count int
}

// step advances the run state by one classified bar. A flat bar breaks the
// streak without starting a new one.
func (s runState) step(dir models.Direction) runState {
	switch {
	case dir == models.DirectionFlat:
		return runState{dir: models.DirectionFlat}
	case dir == s.dir:
		return runState{dir: dir, count: s.count + 1}
	default:
		return runState{dir: dir, count: 1}
	}
}

// classifyRuns sets the direction flags and folds the run state over the rows
func classifyRuns(rows []models.IndicatorRow) {
	var state runState
	for i := range rows {
		r := rows[i].DailyReturn
		rows[i].IsUpward = r != nil && *r > 0
		rows[i].IsDownward = r != nil && *r < 0
		state = state.step(rows[i].Direction())
		rows[i].RunLength = state.count
	}
}

// Returns extracts the defined daily returns keyed by date
func Returns(rows []models.IndicatorRow) []models.DatedReturn {
	out := make([]models.DatedReturn, 0, len(rows))
	for _, r := range rows {
		if r.DailyReturn != nil {
			out = append(out, models.DatedReturn{Date: r.Date, Return: *r.DailyReturn})
		}
	}
	return out
}

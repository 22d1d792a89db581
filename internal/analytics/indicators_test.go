package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

func calc(windows []int, rsiPeriod int, closes ...float64) []models.IndicatorRow {
	cfg := DefaultConfig()
	cfg.SMAWindows = windows
	cfg.RSIPeriod = rsiPeriod
	return NewIndicatorCalculator(cfg).Calculate(seriesFromCloses(closes...))
}

func TestDailyReturn(t *testing.T) {
	rows := calc([]int{5}, 14, 100, 102, 101)

	assert.Nil(t, rows[0].DailyReturn)
	require.NotNil(t, rows[1].DailyReturn)
	assert.InDelta(t, 0.02, *rows[1].DailyReturn, 1e-12)
	require.NotNil(t, rows[2].DailyReturn)
	assert.InDelta(t, -0.00980392, *rows[2].DailyReturn, 1e-8)
}

func TestDailyReturnZeroPreviousClose(t *testing.T) {
	rows := calc([]int{5}, 14, 0, 5)
	assert.Nil(t, rows[1].DailyReturn)
	assert.False(t, rows[1].IsUpward)
}

func TestSimpleMovingAverage(t *testing.T) {
	closes := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	windows := []int{1, 3, 5}
	rows := calc(windows, 14, closes...)

	for _, w := range windows {
		for i := range closes {
			v := rows[i].SMA[w]
			if i < w-1 {
				assert.Nil(t, v, "sma_%d at %d should be undefined", w, i)
				continue
			}
			require.NotNil(t, v, "sma_%d at %d should be defined", w, i)
			var sum float64
			for _, c := range closes[i-w+1 : i+1] {
				sum += c
			}
			assert.InDelta(t, sum/float64(w), *v, 1e-9, "sma_%d at %d", w, i)
		}
	}
}

func TestSMAWindowLongerThanSeries(t *testing.T) {
	rows := calc([]int{50}, 14, 1, 2, 3)
	for _, r := range rows {
		assert.Contains(t, r.SMA, 50)
		assert.Nil(t, r.SMA[50])
	}
}

func TestRSI(t *testing.T) {
	t.Run("undefined until period changes exist", func(t *testing.T) {
		rows := calc([]int{5}, 3, 1, 2, 3, 4, 5)
		assert.Nil(t, rows[0].RSI)
		assert.Nil(t, rows[2].RSI)
		assert.NotNil(t, rows[3].RSI)
		assert.NotNil(t, rows[4].RSI)
	})

	t.Run("rising series reaches 100", func(t *testing.T) {
		rows := calc([]int{5}, 3, 10, 9, 8, 9.1, 10.3, 11.7)
		require.NotNil(t, rows[5].RSI)
		assert.Equal(t, 100.0, *rows[5].RSI)
	})

	t.Run("falling series reaches 0", func(t *testing.T) {
		rows := calc([]int{5}, 3, 10, 11.3, 12.1, 11.2, 10.1, 9.7)
		require.NotNil(t, rows[5].RSI)
		assert.Equal(t, 0.0, *rows[5].RSI)
	})

	t.Run("simple averages over trailing window", func(t *testing.T) {
		// changes in window: +2, -1, +1 -> avgGain 1, avgLoss 1/3
		rows := calc([]int{5}, 3, 10, 12, 11, 12)
		require.NotNil(t, rows[3].RSI)
		assert.InDelta(t, 75.0, *rows[3].RSI, 1e-9)
	})

	t.Run("always within bounds", func(t *testing.T) {
		closes := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1,
			45.9, 46.2, 45.6, 46.2, 46.3, 46.3, 46, 46.4, 46.2, 45.6, 46.2, 46.1, 45.7}
		rows := calc([]int{5}, 14, closes...)
		defined := 0
		for _, r := range rows {
			if r.RSI == nil {
				continue
			}
			defined++
			assert.GreaterOrEqual(t, *r.RSI, 0.0)
			assert.LessOrEqual(t, *r.RSI, 100.0)
		}
		assert.Equal(t, len(closes)-14, defined)
	})
}

func TestRunLength(t *testing.T) {
	rows := calc([]int{5}, 14, 10, 11, 12, 12, 11, 10, 11)

	var runs []int
	var dirs []models.Direction
	for _, r := range rows {
		runs = append(runs, r.RunLength)
		dirs = append(dirs, r.Direction())
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 1}, runs)
	assert.Equal(t, []models.Direction{
		models.DirectionFlat, models.DirectionUp, models.DirectionUp, models.DirectionFlat,
		models.DirectionDown, models.DirectionDown, models.DirectionUp,
	}, dirs)

	for _, r := range rows {
		assert.False(t, r.IsUpward && r.IsDownward)
	}
}

func TestReturns(t *testing.T) {
	rows := calc([]int{5}, 14, 100, 110, 99)
	returns := Returns(rows)
	require.Len(t, returns, 2)
	assert.Equal(t, day(1), returns[0].Date)
	assert.InDelta(t, 0.1, returns[0].Return, 1e-12)
	assert.InDelta(t, -0.1, returns[1].Return, 1e-12)
}

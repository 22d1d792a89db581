package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-analytics-engine/internal/analytics"
	"github.com/trogers1052/stock-analytics-engine/internal/loader"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// MockSource is a testify mock of loader.BarSource
type MockSource struct {
	mock.Mock
}

func (m *MockSource) LoadBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	args := m.Called(ctx, symbol)
	bars, _ := args.Get(0).([]models.Bar)
	return bars, args.Error(1)
}

func (m *MockSource) Symbols(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	symbols, _ := args.Get(0).([]string)
	return symbols, args.Error(1)
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func bars(closes ...float64) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Date: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func newAnalyzer(src *MockSource) (*Analyzer, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	return New(src, analytics.DefaultConfig(), nil, m), m
}

func TestAnalyzerMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("computes once and serves from cache", func(t *testing.T) {
		src := new(MockSource)
		src.On("LoadBars", mock.Anything, "AAPL").Return(bars(1, 5, 3, 8, 2, 9), nil).Once()
		a, m := newAnalyzer(src)

		got, err := a.Metrics(ctx, Request{Symbol: "AAPL"})
		require.NoError(t, err)
		assert.Equal(t, 16.0, got.MaxProfit)
		assert.Equal(t, 9.0, got.MaxPrice)
		assert.Equal(t, 6, got.TotalDays)

		runs, err := a.Runs(ctx, Request{Symbol: "AAPL"})
		require.NoError(t, err)
		assert.Equal(t, 3, runs.TotalUpwardDays)
		assert.Equal(t, 2, runs.TotalDownwardDays)

		src.AssertExpectations(t)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Computations.WithLabelValues("ok")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("computed")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("local")))
	})

	t.Run("date range filters before computing", func(t *testing.T) {
		src := new(MockSource)
		src.On("LoadBars", mock.Anything, "AAPL").Return(bars(1, 5, 3, 8, 2, 9), nil)
		a, _ := newAnalyzer(src)

		start := base.AddDate(0, 0, 2)
		end := base.AddDate(0, 0, 4)
		got, err := a.Transactions(ctx, Request{Symbol: "AAPL", Start: &start, End: &end})
		require.NoError(t, err)
		assert.Equal(t, 5.0, got.MaxProfit)
		require.Len(t, got.Transactions, 1)
		assert.Equal(t, start, got.Transactions[0].BuyDate)
	})

	t.Run("empty range is not an error", func(t *testing.T) {
		src := new(MockSource)
		src.On("LoadBars", mock.Anything, "AAPL").Return(bars(1, 2, 3), nil)
		a, _ := newAnalyzer(src)

		start := base.AddDate(1, 0, 0)
		got, err := a.Metrics(ctx, Request{Symbol: "AAPL", Start: &start})
		require.NoError(t, err)
		assert.Equal(t, 0, got.TotalDays)
		assert.Equal(t, analytics.NeutralRSI, got.RSI)
		assert.NotNil(t, got.Transactions)
	})

	t.Run("unknown instrument surfaces loader error", func(t *testing.T) {
		src := new(MockSource)
		src.On("LoadBars", mock.Anything, "NOPE").
			Return(nil, fmt.Errorf("%w: NOPE", loader.ErrInstrumentNotFound))
		a, m := newAnalyzer(src)

		_, err := a.Metrics(ctx, Request{Symbol: "NOPE"})
		assert.ErrorIs(t, err, loader.ErrInstrumentNotFound)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Computations.WithLabelValues("load_error")))
	})

	t.Run("invalid bars surface a data error", func(t *testing.T) {
		src := new(MockSource)
		bad := bars(1, 2, 3)
		bad[2].Date = bad[0].Date
		src.On("LoadBars", mock.Anything, "BAD").Return(bad, nil)
		a, _ := newAnalyzer(src)

		_, err := a.Metrics(ctx, Request{Symbol: "BAD"})
		assert.ErrorIs(t, err, analytics.ErrInvalidData)
	})

	t.Run("rejects inverted range and bad windows", func(t *testing.T) {
		src := new(MockSource)
		a, _ := newAnalyzer(src)

		start := base.AddDate(0, 0, 5)
		end := base
		_, err := a.Metrics(ctx, Request{Symbol: "AAPL", Start: &start, End: &end})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = a.Metrics(ctx, Request{Symbol: "AAPL", Windows: []int{0}})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		src.AssertNotCalled(t, "LoadBars", mock.Anything, mock.Anything)
	})
}

func TestAnalyzerChartData(t *testing.T) {
	src := new(MockSource)
	src.On("LoadBars", mock.Anything, "AAPL").Return(bars(10, 11, 12), nil)
	a, _ := newAnalyzer(src)

	data, err := a.ChartData(context.Background(), Request{Symbol: "AAPL", Windows: []int{2}})
	require.NoError(t, err)
	require.Len(t, data.Points, 3)
	assert.Nil(t, data.Points[0].SMA[2])
	require.NotNil(t, data.Points[1].SMA[2])
	assert.InDelta(t, 10.5, *data.Points[1].SMA[2], 1e-9)
	require.NotNil(t, data.Points[1].DailyReturn)
	assert.InDelta(t, 10.0, *data.Points[1].DailyReturn, 1e-9)
	assert.Equal(t, 2, data.Points[2].UpwardRun)

	// three bars cannot define RSI(14)
	fields := make([]string, 0, len(data.Warnings))
	for _, w := range data.Warnings {
		assert.Equal(t, models.WarningInsufficientHistory, w.Code)
		fields = append(fields, w.Field)
	}
	assert.Contains(t, fields, "rsi")
	assert.NotContains(t, fields, "sma_2")
}

func TestAnalyzerInvalidate(t *testing.T) {
	ctx := context.Background()
	src := new(MockSource)
	src.On("LoadBars", mock.Anything, "AAPL").Return(bars(1, 2), nil).Once()
	src.On("LoadBars", mock.Anything, "AAPL").Return(bars(1, 2, 4), nil).Once()
	a, _ := newAnalyzer(src)

	first, err := a.Metrics(ctx, Request{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalDays)

	require.NoError(t, a.Invalidate(ctx, "AAPL"))

	second, err := a.Metrics(ctx, Request{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 3, second.TotalDays)
	src.AssertExpectations(t)
}

func TestAnalyzerCorrelation(t *testing.T) {
	ctx := context.Background()

	t.Run("all symbols by default", func(t *testing.T) {
		src := new(MockSource)
		src.On("Symbols", mock.Anything).Return([]string{"B", "A"}, nil)
		src.On("LoadBars", mock.Anything, "A").Return(bars(10, 11, 10.5, 12, 11), nil)
		src.On("LoadBars", mock.Anything, "B").Return(bars(20, 22, 21, 24, 22), nil)
		a, _ := newAnalyzer(src)

		matrix, err := a.Correlation(ctx, nil, nil, nil)
		require.NoError(t, err)
		require.Len(t, matrix, 2)
		assert.Equal(t, 1.0, matrix["A"]["A"])
		assert.InDelta(t, 1.0, matrix["A"]["B"], 1e-9)
		assert.Equal(t, matrix["A"]["B"], matrix["B"]["A"])
	})

	t.Run("unknown instruments are skipped", func(t *testing.T) {
		src := new(MockSource)
		src.On("LoadBars", mock.Anything, "A").Return(bars(10, 11, 12), nil)
		src.On("LoadBars", mock.Anything, "GONE").
			Return(nil, fmt.Errorf("%w: GONE", loader.ErrInstrumentNotFound))
		a, _ := newAnalyzer(src)

		matrix, err := a.Correlation(ctx, []string{"A", "GONE"}, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, matrix)
	})

	t.Run("strict alignment rejects differing calendars", func(t *testing.T) {
		src := new(MockSource)
		shifted := bars(20, 21, 22, 23)
		for i := range shifted {
			shifted[i].Date = shifted[i].Date.AddDate(0, 0, 1)
		}
		src.On("LoadBars", mock.Anything, "A").Return(bars(10, 11, 12, 13), nil)
		src.On("LoadBars", mock.Anything, "B").Return(shifted, nil)

		cfg := analytics.DefaultConfig()
		cfg.Alignment = analytics.AlignStrict
		a := New(src, cfg, nil, nil)

		_, err := a.Correlation(ctx, []string{"A", "B"}, nil, nil)
		assert.ErrorIs(t, err, analytics.ErrInvalidData)
	})
}

func TestAnalyzerWarm(t *testing.T) {
	ctx := context.Background()
	src := new(MockSource)
	src.On("LoadBars", mock.Anything, "A").Return(bars(1, 2, 3), nil).Once()
	src.On("LoadBars", mock.Anything, "B").
		Return(nil, fmt.Errorf("%w: B", loader.ErrInstrumentNotFound))
	a, m := newAnalyzer(src)

	warmed, err := a.Warm(ctx, []string{"A", "B", "A"})
	assert.Equal(t, 1, warmed)
	assert.ErrorIs(t, err, loader.ErrInstrumentNotFound)

	_, err = a.Metrics(ctx, Request{Symbol: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("local")))
}

package analytics

import (
	"time"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

var baseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time {
	return baseDate.AddDate(0, 0, i)
}

// barsFromCloses builds consecutive daily bars whose OHLC all equal the close
func barsFromCloses(closes ...float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Date: day(i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func seriesFromCloses(closes ...float64) *BarSeries {
	s, err := NewBarSeries(barsFromCloses(closes...), nil, nil)
	if err != nil {
		panic(err)
	}
	return s
}

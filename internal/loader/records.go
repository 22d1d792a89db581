package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

type columns struct {
	date, open, high, low, close, volume int
}

func findColumns(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch name {
		case "date":
			cols.date = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		case "volume":
			cols.volume = i
		}
	}

	var missing []string
	for name, idx := range map[string]int{
		"Date": cols.date, "Open": cols.open, "High": cols.high,
		"Low": cols.low, "Close": cols.close, "Volume": cols.volume,
	} {
		if idx == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return cols, fmt.Errorf("required columns not found: %v", missing)
	}
	return cols, nil
}

// parseRecords turns a header row plus data rows into price rows sorted by
// date. Rows with an unparseable date or non-numeric price field are dropped.
func parseRecords(symbol string, records [][]string) ([]*models.PriceDataDaily, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row for %s", symbol)
	}
	cols, err := findColumns(records[0])
	if err != nil {
		return nil, fmt.Errorf("invalid header for %s: %w", symbol, err)
	}

	rows := make([]*models.PriceDataDaily, 0, len(records)-1)
	dropped := 0
	for _, rec := range records[1:] {
		row, ok := parseRow(symbol, cols, rec)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	if dropped > 0 {
		log.Debug().Str("symbol", symbol).Int("dropped", dropped).Msg("Skipped unparseable price rows")
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func parseRow(symbol string, cols columns, rec []string) (*models.PriceDataDaily, bool) {
	cell := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}

	date, ok := ParseDate(cell(cols.date))
	if !ok {
		return nil, false
	}
	values := make([]decimal.Decimal, 0, 5)
	for _, idx := range []int{cols.open, cols.high, cols.low, cols.close, cols.volume} {
		raw := strings.ReplaceAll(strings.TrimSpace(cell(idx)), ",", "")
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}

	return &models.PriceDataDaily{
		Symbol: symbol,
		Date:   date,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, true
}

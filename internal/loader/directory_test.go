package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirSource(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadBars parses and sorts CSV", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "AAPL.csv", "Date,Open,High,Low,Close,Volume\n"+
			"2024-01-03,11,12,10,11.5,2000\n"+
			"2024-01-02,10,11,9,10.5,1000\n")

		bars, err := NewDirSource(dir).LoadBars(ctx, "AAPL")
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, "2024-01-02", bars[0].Date.Format("2006-01-02"))
		assert.Equal(t, 10.5, bars[0].Close)
		assert.Equal(t, 2000.0, bars[1].Volume)
	})

	t.Run("drops unparseable rows", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "MSFT_Stocks.csv", "\ufeffDate,Open,High,Low,Close,Volume\n"+
			"1/2/2024,10,11,9,10.5,1000\n"+
			"not-a-date,10,11,9,10.5,1000\n"+
			"1/4/2024,10,11,9,n/a,1000\n"+
			"03/01/2024 00:00:00,10,11,9,10.7,\"1,500\"\n")

		rows, err := NewDirSource(dir).LoadPriceData(ctx, "MSFT")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "MSFT", rows[0].Symbol)
		assert.True(t, decimal.NewFromFloat(10.7).Equal(rows[1].Close))
		assert.True(t, decimal.NewFromInt(1500).Equal(rows[1].Volume))
	})

	t.Run("missing columns is an error", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "BAD.csv", "Date,Close\n2024-01-02,10\n")

		_, err := NewDirSource(dir).LoadBars(ctx, "BAD")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required columns not found")
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := NewDirSource(t.TempDir()).LoadBars(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrInstrumentNotFound)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		_, err := NewDirSource(t.TempDir()).LoadBars(ctx, "../etc/passwd")
		assert.ErrorIs(t, err, ErrInstrumentNotFound)
	})

	t.Run("reads XLSX workbooks", func(t *testing.T) {
		dir := t.TempDir()
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Open", "High", "Low", "Close", "Volume"}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2024-01-02", 10, 11, 9, 10.5, 1000}))
		require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"45294", 10.5, 12, 10, 11.75, 1200}))
		require.NoError(t, f.SaveAs(filepath.Join(dir, "GOOG.xlsx")))
		require.NoError(t, f.Close())

		bars, err := NewDirSource(dir).LoadBars(ctx, "GOOG")
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, "2024-01-02", bars[0].Date.Format("2006-01-02"))
		assert.Equal(t, "2024-01-03", bars[1].Date.Format("2006-01-02"))
		assert.Equal(t, 11.75, bars[1].Close)
	})

	t.Run("Symbols strips suffixes", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "AAPL.csv", "")
		writeFile(t, dir, "MSFT_Stocks.csv", "")
		writeFile(t, dir, "GOOG.xlsx", "")
		writeFile(t, dir, "notes.txt", "")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

		symbols, err := NewDirSource(dir).Symbols(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "GOOG", "MSFT"}, symbols)
	})

	t.Run("Symbols skips names that are not valid symbols", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "AAPL.csv", "")
		writeFile(t, dir, "Apple Inc.csv", "")
		writeFile(t, dir, ".csv", "")
		writeFile(t, dir, "BRK.B.csv", "")

		symbols, err := NewDirSource(dir).Symbols(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "BRK.B"}, symbols)
		for _, s := range symbols {
			assert.True(t, models.ValidSymbol(s), s)
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewDirSource(t.TempDir()).LoadBars(cctx, "AAPL")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
	"github.com/xuri/excelize/v2"
)

// file name suffixes tried in order for a symbol
var fileSuffixes = []string{".csv", "_Stocks.csv", ".xlsx", "_Stocks.xlsx"}

// DirSource loads daily history from per-instrument CSV or XLSX files in one
// directory
type DirSource struct {
	dir string
}

// NewDirSource creates a source reading files under dir
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// LoadBars reads the symbol's file and returns its bars in date order
func (s *DirSource) LoadBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	rows, err := s.LoadPriceData(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return ToBars(rows), nil
}

// LoadPriceData reads the symbol's file as decimal price rows
func (s *DirSource) LoadPriceData(ctx context.Context, symbol string) ([]*models.PriceDataDaily, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(symbol)
	if err != nil {
		return nil, err
	}

	var records [][]string
	if strings.HasSuffix(path, ".xlsx") {
		records, err = readXLSX(path)
	} else {
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	rows, err := parseRecords(symbol, records)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("symbol", symbol).Str("file", filepath.Base(path)).Int("rows", len(rows)).Msg("Loaded price history")
	return rows, nil
}

// Symbols lists every instrument with a recognised file, sorted. Files whose
// base name is not a valid symbol are skipped.
func (s *DirSource) Symbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for i := len(fileSuffixes) - 1; i >= 0; i-- {
			suffix := fileSuffixes[i]
			if !strings.HasSuffix(name, suffix) {
				continue
			}
			symbol := strings.TrimSuffix(name, suffix)
			if !models.ValidSymbol(symbol) {
				log.Warn().Str("file", name).Msg("skipping data file whose name is not a valid symbol")
				break
			}
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
			break
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *DirSource) resolve(symbol string) (string, error) {
	if symbol == "" || strings.ContainsAny(symbol, `/\`) || strings.Contains(symbol, "..") {
		return "", fmt.Errorf("%w: %q", ErrInstrumentNotFound, symbol)
	}
	for _, suffix := range fileSuffixes {
		path := filepath.Join(s.dir, symbol+suffix)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInstrumentNotFound, symbol)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// readXLSX returns the rows of the workbook's first sheet
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

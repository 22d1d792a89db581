package analytics

import (
	"fmt"
	"sort"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// AlignmentPolicy controls how the correlation engine treats instruments
// whose date calendars differ
type AlignmentPolicy string

const (
	// AlignInnerJoin drops dates missing from any instrument
	AlignInnerJoin AlignmentPolicy = "inner_join"
	// AlignStrict rejects instruments whose calendars are not identical
	AlignStrict AlignmentPolicy = "strict"
)

// Engine defaults
const (
	DefaultRSIPeriod           = 14
	DefaultAnnualizationFactor = 252.0
	NeutralRSI                 = 50.0
)

// DefaultSMAWindows is the moving-average window set used when a request names none
var DefaultSMAWindows = []int{5, 10, 20, 50}

// Config fixes every numeric policy of the engine. Two runs with equal
// Config over the same BarSeries produce identical output.
type Config struct {
	SMAWindows []int `yaml:"sma_windows"`
	RSIPeriod  int   `yaml:"rsi_period"`
	// AnnualizationFactor is the number of trading periods per year used to
	// scale volatility and Sharpe ratio
	AnnualizationFactor float64         `yaml:"annualization_factor"`
	RiskFreeRate        float64         `yaml:"risk_free_rate"`
	Alignment           AlignmentPolicy `yaml:"alignment"`
}

// DefaultConfig returns the engine configuration used when nothing overrides it
func DefaultConfig() Config {
	return Config{
		SMAWindows:          append([]int(nil), DefaultSMAWindows...),
		RSIPeriod:           DefaultRSIPeriod,
		AnnualizationFactor: DefaultAnnualizationFactor,
		RiskFreeRate:        0,
		Alignment:           AlignInnerJoin,
	}
}

// Validate checks that every policy value is usable
func (c Config) Validate() error {
	if len(c.SMAWindows) == 0 {
		return fmt.Errorf("at least one SMA window is required")
	}
	for _, w := range c.SMAWindows {
		if w <= 0 {
			return fmt.Errorf("SMA window must be positive, got %d", w)
		}
	}
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("RSI period must be positive, got %d", c.RSIPeriod)
	}
	if c.AnnualizationFactor <= 0 {
		return fmt.Errorf("annualization factor must be positive, got %v", c.AnnualizationFactor)
	}
	switch c.Alignment {
	case AlignInnerJoin, AlignStrict:
	default:
		return fmt.Errorf("unknown alignment policy: %q", c.Alignment)
	}
	return nil
}

// WithWindows returns a copy of c using the given window set, sorted and
// de-duplicated. An empty set keeps the configured windows.
func (c Config) WithWindows(windows []int) Config {
	if len(windows) > 0 {
		c.SMAWindows = windows
	}
	c.SMAWindows = NormalizeWindows(c.SMAWindows)
	return c
}

// NormalizeWindows returns a sorted copy of windows without duplicates
func NormalizeWindows(windows []int) []int {
	out := append([]int(nil), windows...)
	sort.Ints(out)
	n := 0
	for i, w := range out {
		if i > 0 && w == out[n-1] {
			continue
		}
		out[n] = w
		n++
	}
	return out[:n]
}

// HistoryWarnings lists the derived fields a series of n bars is too short
// to define. An empty series yields none.
func (c Config) HistoryWarnings(n int) []models.Warning {
	if n == 0 {
		return nil
	}
	var warnings []models.Warning
	for _, w := range c.SMAWindows {
		if n < w {
			warnings = append(warnings, insufficient(fmt.Sprintf("sma_%d", w), w, n))
		}
	}
	if n < c.RSIPeriod+1 {
		warnings = append(warnings, insufficient("rsi", c.RSIPeriod+1, n))
	}
	// sample deviation needs two returns, i.e. three bars
	if n < 3 {
		warnings = append(warnings, insufficient("volatility", 3, n))
		warnings = append(warnings, insufficient("sharpeRatio", 3, n))
	}
	return warnings
}

func insufficient(field string, need, have int) models.Warning {
	return models.Warning{
		Code:  models.WarningInsufficientHistory,
		Field: field,
		Need:  need,
		Have:  have,
	}
}

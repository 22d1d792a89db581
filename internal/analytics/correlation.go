package analytics

import (
	"sort"
	"time"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// CorrelationEngine computes pairwise Pearson correlation of daily returns
type CorrelationEngine struct {
	policy AlignmentPolicy
}

// NewCorrelationEngine creates an engine using the given alignment policy
func NewCorrelationEngine(policy AlignmentPolicy) *CorrelationEngine {
	if policy == "" {
		policy = AlignInnerJoin
	}
	return &CorrelationEngine{policy: policy}
}

// Compute aligns every instrument on the dates they all share and returns
// the symmetric matrix. The diagonal is always exactly 1.
func (e *CorrelationEngine) Compute(returns map[string][]models.DatedReturn) (models.CorrelationMatrix, error) {
	symbols := make([]string, 0, len(returns))
	for s := range returns {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	aligned, err := e.align(symbols, returns)
	if err != nil {
		return nil, err
	}

	matrix := make(models.CorrelationMatrix, len(symbols))
	for _, s := range symbols {
		matrix[s] = make(map[string]float64, len(symbols))
		matrix[s][s] = 1.0
	}
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			r := pearson(aligned[symbols[i]], aligned[symbols[j]])
			matrix[symbols[i]][symbols[j]] = r
			matrix[symbols[j]][symbols[i]] = r
		}
	}
	return matrix, nil
}

// align returns each instrument's returns restricted to the common dates,
// in ascending date order
func (e *CorrelationEngine) align(symbols []string, returns map[string][]models.DatedReturn) (map[string][]float64, error) {
	byDate := make(map[string]map[time.Time]float64, len(symbols))
	counts := make(map[time.Time]int)
	for _, s := range symbols {
		m := make(map[time.Time]float64, len(returns[s]))
		for i, r := range returns[s] {
			if _, dup := m[r.Date]; dup {
				return nil, newDataError(i, r.Date, "duplicate return date for %s", s)
			}
			m[r.Date] = r.Return
			counts[r.Date]++
		}
		byDate[s] = m
	}

	common := make([]time.Time, 0, len(counts))
	for d, c := range counts {
		if c == len(symbols) {
			common = append(common, d)
			continue
		}
		if e.policy == AlignStrict {
			return nil, newDataError(-1, d, "date not present for every instrument")
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	aligned := make(map[string][]float64, len(symbols))
	for _, s := range symbols {
		v := make([]float64, len(common))
		for i, d := range common {
			v[i] = byDate[s][d]
		}
		aligned[s] = v
	}
	return aligned, nil
}

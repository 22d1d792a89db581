package analytics

import "github.com/trogers1052/stock-analytics-engine/internal/models"

// RunAnalyzer aggregates direction classification into day counts and
// longest streaks
type RunAnalyzer struct{}

// Analyze makes a single pass over rows
func (RunAnalyzer) Analyze(rows []models.IndicatorRow) models.RunAnalysis {
	var ra models.RunAnalysis
	for _, r := range rows {
		switch r.Direction() {
		case models.DirectionUp:
			ra.TotalUpwardDays++
			ra.LongestUpwardRun = max(ra.LongestUpwardRun, r.RunLength)
		case models.DirectionDown:
			ra.TotalDownwardDays++
			ra.LongestDownwardRun = max(ra.LongestDownwardRun, r.RunLength)
		}
	}
	return ra
}

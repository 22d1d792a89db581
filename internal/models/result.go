package models

import "time"

// AnalysisResult is the cacheable outcome of analyzing one instrument over
// one date range and window set
type AnalysisResult struct {
	Symbol    string          `json:"symbol"`
	Metrics   Metrics         `json:"metrics"`
	Points    []ChartPoint    `json:"points"`
	Runs      RunAnalysis     `json:"runs"`
	MaxProfit MaxProfitResult `json:"maxProfit"`
	Returns   []DatedReturn   `json:"returns"`
	Warnings  []Warning       `json:"warnings,omitempty"`
	// ComputedAt is when the engine produced this result
	ComputedAt time.Time `json:"computedAt"`
}

package models

import "time"

// Transaction is one profitable buy/sell pair
type Transaction struct {
	BuyDate   time.Time `json:"buyDate"`
	SellDate  time.Time `json:"sellDate"`
	BuyPrice  float64   `json:"buyPrice"`
	SellPrice float64   `json:"sellPrice"`
	Profit    float64   `json:"profit"`
}

// MaxProfitResult holds the optimal total and the transactions achieving it
type MaxProfitResult struct {
	MaxProfit    float64       `json:"maxProfit"`
	Transactions []Transaction `json:"transactions"`
}

// RunAnalysis summarizes up/down day counts and streaks
type RunAnalysis struct {
	TotalUpwardDays    int `json:"totalUpwardDays"`
	TotalDownwardDays  int `json:"totalDownwardDays"`
	LongestUpwardRun   int `json:"longestUpwardRun"`
	LongestDownwardRun int `json:"longestDownwardRun"`
}

// Warning codes
const (
	WarningInsufficientHistory = "INSUFFICIENT_HISTORY"
)

// Warning reports a derived field left undefined because the series was too short
type Warning struct {
	Code  string `json:"code"`
	Field string `json:"field"`
	Need  int    `json:"need"`
	Have  int    `json:"have"`
}

// Metrics is the per-instrument summary. Percent fields are plain numbers
// (3.25 means 3.25%).
type Metrics struct {
	Symbol             string        `json:"symbol"`
	TotalDays          int           `json:"totalDays"`
	StartDate          string        `json:"startDate,omitempty"`
	EndDate            string        `json:"endDate,omitempty"`
	MaxPrice           float64       `json:"maxPrice"`
	MinPrice           float64       `json:"minPrice"`
	AvgPrice           float64       `json:"avgPrice"`
	TotalVolume        float64       `json:"totalVolume"`
	AvgVolume          float64       `json:"avgVolume"`
	MaxProfit          float64       `json:"maxProfit"`
	Transactions       []Transaction `json:"transactions"`
	RunAnalysis        RunAnalysis   `json:"runAnalysis"`
	TotalReturn        float64       `json:"totalReturn"`
	Volatility         float64       `json:"volatility"`
	SharpeRatio        float64       `json:"sharpeRatio"`
	CurrentPrice       float64       `json:"currentPrice"`
	PriceChangePercent float64       `json:"priceChangePercent"`
	RSI                float64       `json:"rsi"`
	Warnings           []Warning     `json:"warnings,omitempty"`
}

// CorrelationMatrix maps instrument x instrument to a Pearson coefficient
type CorrelationMatrix map[string]map[string]float64

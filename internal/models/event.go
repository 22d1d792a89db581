package models

import "time"

// Price event type constants
const (
	EventTypePriceBar      = "PRICE_BAR"
	EventTypePriceBarBatch = "PRICE_BAR_BATCH"
)

// PriceBarEvent represents a Kafka event carrying one daily bar in Data, or
// a backfill of many in Bars for PRICE_BAR_BATCH
type PriceBarEvent struct {
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Data      PriceBarData   `json:"data"`
	Bars      []PriceBarData `json:"bars,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// PriceBarData holds the bar fields as decimal strings
type PriceBarData struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

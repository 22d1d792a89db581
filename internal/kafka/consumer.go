package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-analytics-engine/internal/analytics"
	"github.com/trogers1052/stock-analytics-engine/internal/loader"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// PriceRepository defines the store writes the consumer needs
type PriceRepository interface {
	CreatePriceDataBatch(ctx context.Context, prices []*models.PriceDataDaily) error
}

// Invalidator drops cached analysis for a symbol
type Invalidator interface {
	Invalidate(ctx context.Context, symbol string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer ingests price bar events from Kafka into the price store and
// invalidates cached results for every symbol it writes
type Consumer struct {
	reader      messageReader
	repo        PriceRepository
	invalidator Invalidator
}

// NewConsumer creates a new Kafka consumer for price bar events
func NewConsumer(brokers []string, topic, groupID string, repo PriceRepository, invalidator Invalidator) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:      reader,
		repo:        repo,
		invalidator: invalidator,
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().Str("topic", c.reader.Config().Topic).Msg("starting kafka consumer")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				log.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Error().Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("error processing message")
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	log.Debug().
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("key", string(msg.Key)).
		Msg("received message")

	var event models.PriceBarEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal price bar event: %w", err)
	}

	var raw []models.PriceBarData
	switch event.EventType {
	case models.EventTypePriceBar:
		raw = []models.PriceBarData{event.Data}
	case models.EventTypePriceBarBatch:
		raw = event.Bars
	default:
		log.Debug().Str("event_type", event.EventType).Msg("ignoring event type")
		return nil
	}

	prices := make([]*models.PriceDataDaily, 0, len(raw))
	var rejected []error
	for i, data := range raw {
		p, err := convertEventToPriceData(data)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("bar %d: %w", i, err))
			continue
		}
		prices = append(prices, p)
	}
	if len(prices) == 0 {
		return errors.Join(rejected...)
	}

	if err := c.repo.CreatePriceDataBatch(ctx, prices); err != nil {
		return fmt.Errorf("failed to save %d price bars: %w", len(prices), err)
	}

	if c.invalidator != nil {
		for _, symbol := range distinctSymbols(prices) {
			if err := c.invalidator.Invalidate(ctx, symbol); err != nil {
				rejected = append(rejected, fmt.Errorf("failed to invalidate %s: %w", symbol, err))
			}
		}
	}

	log.Info().
		Str("source", event.Source).
		Int("bars", len(prices)).
		Int("rejected", len(raw)-len(prices)).
		Msg("ingested price bars")

	return errors.Join(rejected...)
}

// convertEventToPriceData maps event fields to a stored row
func convertEventToPriceData(data models.PriceBarData) (*models.PriceDataDaily, error) {
	symbol := strings.TrimSpace(data.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	date, ok := loader.ParseDate(data.Date)
	if !ok {
		return nil, fmt.Errorf("invalid date %q for %s", data.Date, symbol)
	}

	fields := []struct {
		name string
		raw  string
	}{
		{"open", data.Open},
		{"high", data.High},
		{"low", data.Low},
		{"close", data.Close},
		{"volume", data.Volume},
	}
	values := make([]decimal.Decimal, len(fields))
	for i, f := range fields {
		v, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q for %s: %w", f.name, f.raw, symbol, err)
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("negative %s for %s", f.name, symbol)
		}
		values[i] = v
	}

	p := &models.PriceDataDaily{
		Symbol: symbol,
		Date:   date,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}
	if err := analytics.ValidateBar(p.ToBar()); err != nil {
		return nil, fmt.Errorf("rejected bar for %s: %w", symbol, err)
	}
	return p, nil
}

func distinctSymbols(prices []*models.PriceDataDaily) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range prices {
		if _, ok := seen[p.Symbol]; ok {
			continue
		}
		seen[p.Symbol] = struct{}{}
		out = append(out, p.Symbol)
	}
	return out
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

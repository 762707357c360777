// Package kafkafeed shares aggregated hazard activity with partner
// early-warning systems. Each ready snapshot becomes one summary message on
// the alert topic; partners consume counts, never raw reports.
package kafkafeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// AlertSummary is the message body published to the alert topic.
type AlertSummary struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	TotalReports     int            `json:"total_reports"`
	VerifiedReports  int            `json:"verified_reports"`
	Categories       map[string]int `json:"categories"`
	DominantCategory string         `json:"dominant_category,omitempty"`
}

// Summarize aggregates a point set into an alert summary.
func Summarize(points []domain.GeoPoint, at time.Time) AlertSummary {
	summary := AlertSummary{
		GeneratedAt:  at,
		TotalReports: len(points),
		Categories:   make(map[string]int, len(domain.Categories())),
	}

	for _, p := range points {
		if p.Verified {
			summary.VerifiedReports++
		}
	}

	counts := domain.CountByCategory(points)
	dominant := 0
	for _, cat := range domain.Categories() {
		n := counts[cat]
		summary.Categories[cat.String()] = n
		if n > dominant {
			dominant = n
			summary.DominantCategory = cat.String()
		}
	}
	return summary
}

// Publisher produces alert summaries to a Kafka topic.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// Publish serializes and sends one summary.
func (p *Publisher) Publish(ctx context.Context, summary AlertSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.AlertPublishErrors.Inc()
		return fmt.Errorf("publish alert summary: %w", err)
	}
	p.metrics.AlertsPublished.Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a summary into a Kafka message. Messages are
// keyed by generation time so partition ordering follows the feed.
func serializeToMessage(summary AlertSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.GeneratedAt.UTC().Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "dominant_category", Value: []byte(summary.DominantCategory)},
			{Key: "generated_at", Value: []byte(summary.GeneratedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

// Package messaging consumes extraction results from the study processing
// pipeline. External extractors (OCR, lab interfaces) publish structured data
// points to RabbitMQ; this consumer persists and classifies them.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/occumed/occumed/internal/domain/study"
)

const ExtractionQueue = "occumed.extraction.results"

// Config carries broker connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
}

func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.Username, c.Password, c.Host, c.Port)
}

// Connect dials the broker.
func Connect(cfg Config) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	return conn, nil
}

// extractionMessage is the wire shape published by extractors. Any severity
// the extractor sends is ignored; classification happens at ingest.
type extractionMessage struct {
	StudyID      uuid.UUID `json:"study_id"`
	Field        string    `json:"field"`
	RawValue     string    `json:"raw_value"`
	NumericValue *float64  `json:"numeric_value,omitempty"`
	Unit         *string   `json:"unit,omitempty"`
	RefMin       *float64  `json:"ref_min,omitempty"`
	RefMax       *float64  `json:"ref_max,omitempty"`
}

// DataPointIngester is the slice of the study service the consumer needs.
type DataPointIngester interface {
	IngestDataPoint(ctx context.Context, p *study.ExtractedDataPoint) error
}

// ExtractionConsumer reads extraction results off the queue and feeds them
// through classification into storage.
type ExtractionConsumer struct {
	conn     *amqp091.Connection
	ingester DataPointIngester
	logger   zerolog.Logger
}

func NewExtractionConsumer(conn *amqp091.Connection, ingester DataPointIngester, logger zerolog.Logger) *ExtractionConsumer {
	return &ExtractionConsumer{conn: conn, ingester: ingester, logger: logger}
}

// Run declares the queue and consumes until the context is cancelled.
func (c *ExtractionConsumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(ExtractionQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(ExtractionQueue, "occumed-server", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info().Str("queue", ExtractionQueue).Msg("extraction consumer started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *ExtractionConsumer) handle(ctx context.Context, d amqp091.Delivery) {
	point, err := decodeExtraction(d.Body)
	if err != nil {
		// Malformed payloads never succeed on redelivery.
		c.logger.Error().Err(err).Msg("dropping malformed extraction message")
		_ = d.Nack(false, false)
		return
	}

	if err := c.ingester.IngestDataPoint(ctx, point); err != nil {
		c.logger.Error().Err(err).
			Str("study_id", point.StudyID.String()).
			Str("field", point.Field).
			Msg("failed to ingest data point, requeueing")
		_ = d.Nack(false, true)
		return
	}

	c.logger.Debug().
		Str("study_id", point.StudyID.String()).
		Str("field", point.Field).
		Msg("data point ingested")
	_ = d.Ack(false)
}

func decodeExtraction(body []byte) (*study.ExtractedDataPoint, error) {
	var msg extractionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode extraction message: %w", err)
	}
	if msg.StudyID == uuid.Nil {
		return nil, fmt.Errorf("extraction message missing study_id")
	}
	if msg.Field == "" {
		return nil, fmt.Errorf("extraction message missing field")
	}
	return &study.ExtractedDataPoint{
		StudyID:      msg.StudyID,
		Field:        msg.Field,
		RawValue:     msg.RawValue,
		NumericValue: msg.NumericValue,
		Unit:         msg.Unit,
		RefMin:       msg.RefMin,
		RefMax:       msg.RefMax,
	}, nil
}

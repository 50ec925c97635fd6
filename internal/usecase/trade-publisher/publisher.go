package tradepublisher

import (
	"context"

	"github.com/segmentio/kafka-go"
	tradepublisherv1 "github.com/sm-nvws/limit-order-book/internal/domain/trade-publisher/v1"
	"github.com/sm-nvws/limit-order-book/pkg/config"
	"github.com/sm-nvws/limit-order-book/pkg/errors"
	"github.com/sm-nvws/limit-order-book/pkg/logger"
)

// Publisher publishes trade events to the trades topic.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Logger
}

// NewPublisher creates a new Kafka publisher for trade events.
func NewPublisher(config config.TradePublisherConfig, logger logger.Logger) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      logger,
	}
}

// PublishTrade publishes a single trade event.
func (p *Publisher) PublishTrade(ctx context.Context, event *tradepublisherv1.TradeEvent) error {
	msg := kafka.Message{
		Value: tradepublisherv1.ToBytes(event),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "tradeEvent", Value: event},
		)
		return errors.NewTracer("failed to publish trade event").Wrap(err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}

package orderreader

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	orderreaderv1 "github.com/sm-nvws/limit-order-book/internal/domain/order-reader/v1"
	"github.com/sm-nvws/limit-order-book/pkg/config"
	"github.com/sm-nvws/limit-order-book/pkg/logger"
)

// Reader consumes order requests from the orders topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Logger
}

// NewReader creates a new Kafka reader for the orders topic.
// It returns an implementation of the OrderReader interface.
func NewReader(config config.KafkaConfig, log logger.Logger) Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the offset for the Kafka reader.
func (r Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads a message from the orders topic and parses it as an OrderRequest.
func (r Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderreaderv1.OrderRequest, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{Offset: 0}, nil, err
	}

	var request orderreaderv1.OrderRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		r.logError(err, "UnmarshalOrderRequest")
		return kafka.Message{Offset: 0}, nil, err
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "action", Value: request.Action},
		logger.Field{Key: "userID", Value: request.UserID},
		logger.Field{Key: "side", Value: request.Side},
		logger.Field{Key: "kind", Value: request.Kind},
		logger.Field{Key: "price", Value: request.Price},
		logger.Field{Key: "qty", Value: request.Qty},
	)

	request.Offset = msg.Offset

	return msg, &request, nil
}

// Close properly closes the Kafka reader.
func (r Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

// CommitMessages commits the messages to Kafka after processing.
func (r Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		r.logError(err, "CommitMessages")
		return err
	}
	return nil
}

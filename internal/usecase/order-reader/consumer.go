package orderreader

import (
	"context"
	"encoding/json"

	orderreaderv1 "github.com/kingbirdogd/matching-sample/internal/domain/order-reader/v1"
	"github.com/kingbirdogd/matching-sample/pkg/config"
	"github.com/kingbirdogd/matching-sample/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Reader consumes order requests from the order topic. It implements the
// OrderReader interface.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      *logger.Logger
}

// NewReader creates a new Kafka reader for the order topic.
func NewReader(cfg config.KafkaConfig, log *logger.Logger) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the offset for the Kafka reader.
func (r *Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads a message from the order topic and parses it as an
// OrderRequest.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderreaderv1.OrderRequest, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{}, nil, err
	}

	var request orderreaderv1.OrderRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		r.logError(err, "UnmarshalOrderRequest")
		return kafka.Message{}, nil, err
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "action", Value: request.Action},
		logger.Field{Key: "symbol", Value: request.Symbol},
		logger.Field{Key: "side", Value: request.Side},
		logger.Field{Key: "price", Value: request.Price},
		logger.Field{Key: "quantity", Value: request.Quantity},
	)

	request.Offset = msg.Offset

	return msg, &request, nil
}

// CommitMessages commits the messages after processing. The reader runs
// without a consumer group so it can seek by explicit offset; progress is
// tracked through the snapshot's order offset instead of Kafka commits.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

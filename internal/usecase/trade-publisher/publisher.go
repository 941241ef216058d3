package tradepublisher

import (
	"context"

	tradepublisherv1 "github.com/kingbirdogd/matching-sample/internal/domain/trade-publisher/v1"
	"github.com/kingbirdogd/matching-sample/pkg/config"
	"github.com/kingbirdogd/matching-sample/pkg/errors"
	"github.com/kingbirdogd/matching-sample/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Publisher publishes trade events to the trade topic. It implements the
// TradePublisher interface.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      *logger.Logger
}

// NewPublisher creates a new Kafka publisher for trade events.
func NewPublisher(cfg config.TradePublisherConfig, log *logger.Logger) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishTradeEvent publishes a trade event to the trade topic.
func (p *Publisher) PublishTradeEvent(ctx context.Context, event *tradepublisherv1.TradeEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.Symbol),
		Value: tradepublisherv1.ToBytes(event),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "tradeID", Value: event.TradeID},
			logger.Field{Key: "symbol", Value: event.Symbol},
		)
		return errors.NewTracer(string(errors.EngineTradePublishError)).Wrap(err)
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}

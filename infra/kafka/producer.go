package kafka

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// WriterPublisher publishes through a kafka-go Writer. Messages are
// partitioned by key hash, so events keep their order per key.
type WriterPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewWriterPublisher(brokers []string, topic string, log *zap.Logger) *WriterPublisher {
	errLog := log.Named("kafka-go").Sugar()
	return &WriterPublisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchSize:              1,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
			ErrorLogger:            kafka.LoggerFunc(errLog.Errorf),
		},
	}
}

func (p *WriterPublisher) Publish(ctx context.Context, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
	return errors.Wrapf(err, "write to %s", p.topic)
}

func (p *WriterPublisher) Close() error {
	return p.writer.Close()
}

// Package kafka publishes engine events to Kafka. Two clients are
// supported: segmentio/kafka-go and IBM/sarama.
package kafka

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Publisher delivers one keyed message synchronously; a nil error means
// the broker acknowledged it.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

const (
	ClientKafkaGo = "kafka-go"
	ClientSarama  = "sarama"
)

// New builds the publisher named by client.
func New(client string, brokers []string, topic string, log *zap.Logger) (Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	switch client {
	case ClientKafkaGo, "":
		return NewWriterPublisher(brokers, topic, log), nil
	case ClientSarama:
		return NewSaramaPublisher(brokers, topic)
	default:
		return nil, errors.Newf("kafka: unknown client %q", client)
	}
}

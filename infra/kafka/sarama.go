package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
)

// SaramaPublisher publishes through a sarama SyncProducer.
type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

func NewSaramaPublisher(brokers []string, topic string) (*SaramaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig())
	if err != nil {
		return nil, errors.Wrap(err, "create sarama producer")
	}
	return NewSaramaPublisherFromProducer(producer, topic), nil
}

// NewSaramaPublisherFromProducer wraps an existing producer, such as
// sarama's mocks in tests.
func NewSaramaPublisherFromProducer(p sarama.SyncProducer, topic string) *SaramaPublisher {
	return &SaramaPublisher{producer: p, topic: topic}
}

// Publish sends one message. sarama's sync producer has no context, so ctx
// is only checked before sending.
func (p *SaramaPublisher) Publish(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return err
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}

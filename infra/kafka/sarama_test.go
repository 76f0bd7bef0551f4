package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaramaPublisherSends(t *testing.T) {
	mp := mocks.NewSyncProducer(t, NewSaramaConfig())
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		require.JSONEq(t, `{"seq":7}`, string(val))
		return nil
	})

	p := NewSaramaPublisherFromProducer(mp, "fellowship.matches")
	require.NoError(t, p.Publish(context.Background(), []byte("run-1"), []byte(`{"seq":7}`)))
	require.NoError(t, p.Close())
}

func TestSaramaPublisherReportsFailure(t *testing.T) {
	mp := mocks.NewSyncProducer(t, NewSaramaConfig())
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewSaramaPublisherFromProducer(mp, "fellowship.matches")
	err := p.Publish(context.Background(), nil, []byte("x"))
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestSaramaPublisherHonoursCancelledContext(t *testing.T) {
	mp := mocks.NewSyncProducer(t, NewSaramaConfig())
	p := NewSaramaPublisherFromProducer(mp, "t")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Publish(ctx, nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(ClientKafkaGo, nil, "t", zap.NewNop())
	require.Error(t, err)

	_, err = New("rabbit", []string{"localhost:9092"}, "t", zap.NewNop())
	require.Error(t, err)

	p, err := New(ClientKafkaGo, []string{"localhost:9092"}, "t", zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &WriterPublisher{}, p)
	require.NoError(t, p.Close())
}

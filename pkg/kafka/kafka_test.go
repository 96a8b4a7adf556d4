package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

func TestProducerConfig(t *testing.T) {
	config := ProducerConfig(5, 500*time.Millisecond)

	assert.True(t, config.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, config.Producer.RequiredAcks)
	assert.Equal(t, 5, config.Producer.Retry.Max)
	assert.Equal(t, 500*time.Millisecond, config.Producer.Retry.Backoff)
	assert.NoError(t, config.Validate())
}

func TestConsumerConfig(t *testing.T) {
	config := ConsumerConfig()

	assert.Equal(t, sarama.OffsetOldest, config.Consumer.Offsets.Initial)
	assert.True(t, config.Consumer.Return.Errors)
	assert.NoError(t, config.Validate())
}

func TestWaitForKafkaHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitForKafka(ctx, []string{"127.0.0.1:1"})
	assert.ErrorIs(t, err, context.Canceled)
}

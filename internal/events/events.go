// Package events publishes profile events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/DimosMssd/dating-app/internal/models"
)

// Publisher delivers profile events
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// NewLikeEvent builds the event emitted after userID liked profile
func NewLikeEvent(userID int64, profile *models.Profile) models.Event {
	return models.Event{
		ID:         uuid.NewString(),
		Type:       models.EventProfileLiked,
		UserID:     userID,
		ProfileID:  profile.ID,
		Likes:      profile.Likes,
		OccurredAt: time.Now().UTC(),
	}
}

// NewCreatedEvent builds the event emitted after a profile was registered
func NewCreatedEvent(profile *models.Profile) models.Event {
	return models.Event{
		ID:         uuid.NewString(),
		Type:       models.EventProfileCreated,
		ProfileID:  profile.ID,
		OccurredAt: time.Now().UTC(),
	}
}

// KafkaPublisher sends events to a topic, keyed by profile id so that one
// profile's events stay in order
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.Event) error {
	const op = "events.Publish"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.ProfileID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.Event) error {
	return nil
}

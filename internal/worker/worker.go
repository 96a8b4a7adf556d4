package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/tidwall/gjson"

	"github.com/DimosMssd/dating-app/internal/lib/logger/sl"
	"github.com/DimosMssd/dating-app/internal/metrics"
	"github.com/DimosMssd/dating-app/internal/models"
)

// ErrMalformed marks messages that can never be processed
var ErrMalformed = errors.New("malformed event")

// Inbox receives like notifications
type Inbox interface {
	Push(ctx context.Context, n models.LikeNotification) error
}

// Worker consumes profile events and fills the likes-received inboxes
type Worker struct {
	topic    string
	inbox    Inbox
	consumer sarama.ConsumerGroup
	logger   *slog.Logger
	ready    chan bool
}

func NewWorker(topic string, inbox Inbox, consumer sarama.ConsumerGroup, logger *slog.Logger) *Worker {
	logger.Info("Initializing new Worker", "topic", topic)
	return &Worker{
		topic:    topic,
		inbox:    inbox,
		consumer: consumer,
		logger:   logger,
		ready:    make(chan bool),
	}
}

// Start consumes until ctx is cancelled
func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.topic}
	w.logger.Info("Starting worker", "topics", topics)

	// Start error logging for consumer errors
	go func() {
		for err := range w.consumer.Errors() {
			w.logger.Error("Kafka consumer error received", sl.Err(err))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				w.logger.Error("Error from consumer.Consume", sl.Err(err))
			}
			if ctx.Err() != nil {
				w.logger.Info("Context cancelled, exiting consumer loop")
				return
			}
			// Reset the ready channel after a new session is created
			w.ready = make(chan bool)
		}
	}()

	select {
	case <-w.ready:
		w.logger.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	<-ctx.Done()
	w.logger.Info("Worker shutting down gracefully")
	<-done
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	w.logger.Debug("Consumer group session setup complete")
	close(w.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	w.logger.Debug("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			err := w.processMessage(session.Context(), message)
			switch {
			case err == nil:
			case errors.Is(err, ErrMalformed):
				w.logger.Error("Dropping malformed event", "offset", message.Offset, "partition", message.Partition, sl.Err(err))
			default:
				// Leave the offset unmarked so the event is redelivered
				w.logger.Error("Failed to process event", "offset", message.Offset, sl.Err(err))
				return err
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (w *Worker) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if !gjson.ValidBytes(msg.Value) {
		return fmt.Errorf("%w: invalid JSON payload", ErrMalformed)
	}

	eventType := gjson.GetBytes(msg.Value, "type")
	if !eventType.Exists() {
		return fmt.Errorf("%w: missing event type", ErrMalformed)
	}
	if eventType.String() != models.EventProfileLiked {
		w.logger.Debug("Skipping event", "type", eventType.String(), "event_id", gjson.GetBytes(msg.Value, "id").String())
		return nil
	}

	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if event.ProfileID == 0 || event.UserID == 0 {
		return fmt.Errorf("%w: like event %s without profile or user", ErrMalformed, event.ID)
	}

	err := w.inbox.Push(ctx, models.LikeNotification{
		FromUserID: event.UserID,
		ProfileID:  event.ProfileID,
		LikedAt:    event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	metrics.NotificationsStored.Inc()
	w.logger.Info("Like notification stored", "event_id", event.ID, "profile_id", event.ProfileID, "from_user_id", event.UserID)
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/notifications"
)

// MockConsumerGroup mocks sarama.ConsumerGroup
type MockConsumerGroup struct {
	mock.Mock
}

func (m *MockConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	args := m.Called(ctx, topics, handler)
	return args.Error(0)
}

func (m *MockConsumerGroup) Errors() <-chan error {
	args := m.Called()
	return args.Get(0).(chan error)
}

func (m *MockConsumerGroup) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockConsumerGroup) Pause(partitions map[string][]int32) {
	m.Called(partitions)
}

func (m *MockConsumerGroup) Resume(partitions map[string][]int32) {
	m.Called(partitions)
}

func (m *MockConsumerGroup) PauseAll() {
	m.Called()
}

func (m *MockConsumerGroup) ResumeAll() {
	m.Called()
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type failingInbox struct{}

func (failingInbox) Push(context.Context, models.LikeNotification) error {
	return errors.New("redis unavailable")
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupTestWorker creates a test worker backed by a miniredis inbox
func setupTestWorker(t *testing.T) (*Worker, *notifications.Inbox, *MockConsumerGroup) {
	miniRedis, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(miniRedis.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	inbox := notifications.NewInbox(redisClient, 10)
	consumer := new(MockConsumerGroup)
	return NewWorker("test-topic", inbox, consumer, discard), inbox, consumer
}

func message(t *testing.T, offset int64, v interface{}) *sarama.ConsumerMessage {
	t.Helper()
	raw, ok := v.(string)
	if !ok {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		raw = string(b)
	}
	return &sarama.ConsumerMessage{Topic: "test-topic", Offset: offset, Value: []byte(raw)}
}

func TestProcessMessage(t *testing.T) {
	likedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		value       interface{}
		expectError error
		expectStore bool
	}{
		{
			name: "like event stored",
			value: models.Event{
				ID: "e1", Type: models.EventProfileLiked, UserID: 2, ProfileID: 1, Likes: 1, OccurredAt: likedAt,
			},
			expectStore: true,
		},
		{
			name:  "created event skipped",
			value: models.Event{ID: "e2", Type: models.EventProfileCreated, ProfileID: 1},
		},
		{
			name:        "invalid json",
			value:       "{not json",
			expectError: ErrMalformed,
		},
		{
			name:        "missing type",
			value:       `{"id":"e4","profile_id":1}`,
			expectError: ErrMalformed,
		},
		{
			name:        "like without user",
			value:       models.Event{ID: "e3", Type: models.EventProfileLiked, ProfileID: 1},
			expectError: ErrMalformed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			worker, inbox, _ := setupTestWorker(t)
			ctx := context.Background()

			err := worker.processMessage(ctx, message(t, 1, tc.value))
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
			} else {
				assert.NoError(t, err)
			}

			got, err := inbox.List(ctx, 1)
			require.NoError(t, err)
			if tc.expectStore {
				require.Len(t, got, 1)
				assert.Equal(t, int64(2), got[0].FromUserID)
				assert.True(t, got[0].LikedAt.Equal(likedAt))
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestConsumeClaimMarksProcessedMessages(t *testing.T) {
	worker, inbox, _ := setupTestWorker(t)
	ctx := context.Background()

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- message(t, 10, models.Event{ID: "a", Type: models.EventProfileLiked, UserID: 5, ProfileID: 1})
	claim.messages <- message(t, 11, "garbage")
	claim.messages <- message(t, 12, models.Event{ID: "b", Type: models.EventProfileLiked, UserID: 6, ProfileID: 1})
	close(claim.messages)

	session := &fakeSession{ctx: ctx}
	require.NoError(t, worker.ConsumeClaim(session, claim))
	assert.Equal(t, []int64{10, 11, 12}, session.marked)

	got, err := inbox.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(6), got[0].FromUserID)
}

func TestConsumeClaimStopsOnInboxFailure(t *testing.T) {
	worker := NewWorker("test-topic", failingInbox{}, new(MockConsumerGroup), discard)

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- message(t, 3, models.Event{ID: "a", Type: models.EventProfileLiked, UserID: 5, ProfileID: 1})
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	assert.Error(t, worker.ConsumeClaim(session, claim))
	assert.Empty(t, session.marked, "failed events stay unmarked for redelivery")
}

func TestStartStopsWithContext(t *testing.T) {
	worker, _, consumer := setupTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())

	consumer.On("Errors").Return(make(chan error))
	consumer.On("Consume", mock.Anything, []string{"test-topic"}, mock.Anything).
		Run(func(args mock.Arguments) {
			handler := args.Get(2).(sarama.ConsumerGroupHandler)
			assert.NoError(t, handler.Setup(nil))
			<-args.Get(0).(context.Context).Done()
			assert.NoError(t, handler.Cleanup(nil))
		}).
		Return(nil)

	done := make(chan error, 1)
	go func() { done <- worker.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	consumer.AssertExpectations(t)
}

// Package notifications stores the likes-received inbox of each profile in
// a capped Redis list.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/DimosMssd/dating-app/internal/models"
)

func inboxKey(profileID int64) string {
	return fmt.Sprintf("notifications:%d", profileID)
}

// Inbox keeps at most max notifications per profile, newest first
type Inbox struct {
	rdb *redis.Client
	max int64
}

func NewInbox(rdb *redis.Client, max int) *Inbox {
	if max <= 0 {
		max = 100
	}
	return &Inbox{rdb: rdb, max: int64(max)}
}

// Push prepends n to the liked profile's inbox and trims it to the cap
func (i *Inbox) Push(ctx context.Context, n models.LikeNotification) error {
	const op = "notifications.Push"

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := inboxKey(n.ProfileID)
	_, err = i.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, i.max-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// List returns the profile's notifications, newest first
func (i *Inbox) List(ctx context.Context, profileID int64) ([]models.LikeNotification, error) {
	const op = "notifications.List"

	raw, err := i.rdb.LRange(ctx, inboxKey(profileID), 0, i.max-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.LikeNotification, 0, len(raw))
	for _, item := range raw {
		var n models.LikeNotification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		out = append(out, n)
	}
	return out, nil
}

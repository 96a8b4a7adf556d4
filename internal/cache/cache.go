// Package cache wraps a storage.Store with a Redis read-through cache for
// profile reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DimosMssd/dating-app/internal/lib/logger/sl"
	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

const listKey = "profiles:all"

func profileKey(id int64) string {
	return fmt.Sprintf("profile:%d", id)
}

// entry is the cached form of a profile. The password is excluded so that
// hashes never land in Redis.
type entry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Bio       *string   `json:"bio"`
	Interests []string  `json:"interests"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

func toEntry(p models.Profile) entry {
	return entry{
		ID:        p.ID,
		Username:  p.Username,
		Name:      p.Name,
		Age:       p.Age,
		Bio:       p.Bio,
		Interests: p.Interests,
		Likes:     p.Likes,
		CreatedAt: p.CreatedAt,
	}
}

func (e entry) toModel() models.Profile {
	return models.Profile{
		ID:        e.ID,
		Username:  e.Username,
		Name:      e.Name,
		Age:       e.Age,
		Bio:       e.Bio,
		Interests: e.Interests,
		Likes:     e.Likes,
		CreatedAt: e.CreatedAt,
	}
}

// Store caches ProfileByID and ListProfiles. Username lookups and like
// queries always reach the wrapped store.
type Store struct {
	storage.Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(next storage.Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		Store:  next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *Store) ProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	key := profileKey(id)

	var cached entry
	if s.get(ctx, key, &cached) {
		p := cached.toModel()
		return &p, nil
	}

	p, err := s.Store.ProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, toEntry(*p))
	return p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var cached []entry
	if s.get(ctx, listKey, &cached) {
		profiles := make([]models.Profile, 0, len(cached))
		for _, e := range cached {
			profiles = append(profiles, e.toModel())
		}
		return profiles, nil
	}

	profiles, err := s.Store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, toEntry(p))
	}
	s.set(ctx, listKey, entries)
	return profiles, nil
}

func (s *Store) InsertProfile(ctx context.Context, np models.NewProfile) (*models.Profile, error) {
	p, err := s.Store.InsertProfile(ctx, np)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, listKey)
	return p, nil
}

func (s *Store) IncrementLikes(ctx context.Context, id int64) (*models.Profile, error) {
	p, err := s.Store.IncrementLikes(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, profileKey(id), listKey)
	return p, nil
}

func (s *Store) LikeOnce(ctx context.Context, userID, profileID int64) (*models.Profile, error) {
	p, err := s.Store.LikeOnce(ctx, userID, profileID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, profileKey(profileID), listKey)
	return p, nil
}

// get reports whether key was found and decoded into dst
func (s *Store) get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Cache read failed", "key", key, sl.Err(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("Cache entry is corrupt", "key", key, sl.Err(err))
		return false
	}
	s.logger.Debug("Cache hit", "key", key)
	return true
}

func (s *Store) set(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("Cache encode failed", "key", key, sl.Err(err))
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("Cache write failed", "key", key, sl.Err(err))
	}
}

func (s *Store) invalidate(ctx context.Context, keys ...string) {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("Cache invalidation failed", "keys", keys, sl.Err(err))
	}
}

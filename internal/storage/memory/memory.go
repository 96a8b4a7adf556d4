// Package memory keeps profiles and likes in process memory. It backs
// STORE_DRIVER=memory for local runs and the workflow tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

// Store implements storage.Store
type Store struct {
	mu            sync.RWMutex
	profiles      map[int64]models.Profile
	likes         []models.LikeRecord // no uniqueness, InsertLike appends
	nextProfileID int64
	nextLikeID    int64
	now           func() time.Time
}

// New creates an empty Store
func New() *Store {
	return &Store{
		profiles: make(map[int64]models.Profile),
		now:      time.Now,
	}
}

// WithClock replaces the clock used to stamp created_at
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, clone(p))
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].ID > profiles[j].ID
		}
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
	return profiles, nil
}

func (s *Store) ProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("memory.ProfileByID: %w", storage.ErrNotFound)
	}
	p = clone(p)
	return &p, nil
}

func (s *Store) ProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.Username == username {
			p = clone(p)
			return &p, nil
		}
	}
	return nil, fmt.Errorf("memory.ProfileByUsername: %w", storage.ErrNotFound)
}

func (s *Store) InsertProfile(ctx context.Context, np models.NewProfile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.Username == np.Username {
			return nil, fmt.Errorf("memory.InsertProfile: username %q: %w", np.Username, storage.ErrConflict)
		}
	}

	s.nextProfileID++
	p := models.Profile{
		ID:        s.nextProfileID,
		Username:  np.Username,
		Password:  np.PasswordHash,
		Name:      np.Name,
		Age:       np.Age,
		Bio:       np.Bio,
		Interests: append([]string(nil), np.Interests...),
		CreatedAt: s.now(),
	}
	s.profiles[p.ID] = p

	p = clone(p)
	return &p, nil
}

// IncrementLikes reads and writes under separate locks, like a remote
// read-then-update would.
func (s *Store) IncrementLikes(ctx context.Context, id int64) (*models.Profile, error) {
	current, err := s.ProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("memory.IncrementLikes: %w", storage.ErrNotFound)
	}
	p.Likes = current.Likes + 1
	s.profiles[id] = p

	p = clone(p)
	return &p, nil
}

func (s *Store) LikeExists(ctx context.Context, userID, profileID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hasLike(userID, profileID), nil
}

// hasLike must be called with s.mu held
func (s *Store) hasLike(userID, profileID int64) bool {
	for _, l := range s.likes {
		if l.UserID == userID && l.ProfileID == profileID {
			return true
		}
	}
	return false
}

func (s *Store) appendLike(userID, profileID int64) {
	s.nextLikeID++
	s.likes = append(s.likes, models.LikeRecord{ID: s.nextLikeID, UserID: userID, ProfileID: profileID})
}

func (s *Store) InsertLike(ctx context.Context, userID, profileID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profileID]; !ok {
		return fmt.Errorf("memory.InsertLike: profile %d: %w", profileID, storage.ErrNotFound)
	}
	s.appendLike(userID, profileID)
	return nil
}

func (s *Store) LikedProfileIDs(ctx context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	seen := make(map[int64]bool)
	for _, l := range s.likes {
		if l.UserID == userID && !seen[l.ProfileID] {
			seen[l.ProfileID] = true
			ids = append(ids, l.ProfileID)
		}
	}
	return ids, nil
}

func (s *Store) LikeOnce(ctx context.Context, userID, profileID int64) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return nil, fmt.Errorf("memory.LikeOnce: profile %d: %w", profileID, storage.ErrNotFound)
	}
	if s.hasLike(userID, profileID) {
		return nil, fmt.Errorf("memory.LikeOnce: %w", storage.ErrConflict)
	}

	s.appendLike(userID, profileID)
	p.Likes++
	s.profiles[profileID] = p

	p = clone(p)
	return &p, nil
}

// LikeCount returns the number of like records, for tests and diagnostics
func (s *Store) LikeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.likes)
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

func clone(p models.Profile) models.Profile {
	if p.Interests != nil {
		p.Interests = append([]string(nil), p.Interests...)
	}
	if p.Bio != nil {
		bio := *p.Bio
		p.Bio = &bio
	}
	return p
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DimosMssd/dating-app/internal/apperr"
	"github.com/DimosMssd/dating-app/internal/events"
	"github.com/DimosMssd/dating-app/internal/lib/logger/sl"
	"github.com/DimosMssd/dating-app/internal/metrics"
	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

// LikeMode selects how a like is written
type LikeMode string

const (
	// LikeModeAtomic records the like and bumps the counter in one store call
	LikeModeAtomic LikeMode = "atomic"
	// LikeModeSequential runs exists, insert and increment as separate calls.
	// Concurrent likes can lose increments or write duplicate records.
	LikeModeSequential LikeMode = "sequential"
)

// Store is what the workflows need from persistence
type Store interface {
	storage.ProfileRepository
	storage.LikeTracker
}

type ProfileService struct {
	store     Store
	hasher    Hasher
	publisher events.Publisher
	mode      LikeMode
	logger    *slog.Logger
}

func NewProfileService(store Store, hasher Hasher, publisher events.Publisher, mode LikeMode, logger *slog.Logger) *ProfileService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if mode == "" {
		mode = LikeModeAtomic
	}
	return &ProfileService{
		store:     store,
		hasher:    hasher,
		publisher: publisher,
		mode:      mode,
		logger:    logger,
	}
}

// ListAll returns every profile, newest first. When currentUserID is set
// each view carries whether that user liked the profile.
func (s *ProfileService) ListAll(ctx context.Context, currentUserID *int64) ([]models.ProfileView, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}

	views := make([]models.ProfileView, 0, len(profiles))
	if currentUserID == nil {
		for _, p := range profiles {
			views = append(views, models.ProfileView{Profile: p})
		}
		return views, nil
	}

	likedIDs, err := s.store.LikedProfileIDs(ctx, *currentUserID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	liked := make(map[int64]struct{}, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = struct{}{}
	}

	for _, p := range profiles {
		_, ok := liked[p.ID]
		isLiked := ok
		views = append(views, models.ProfileView{Profile: p, IsLiked: &isLiked})
	}
	return views, nil
}

func (s *ProfileService) GetByID(ctx context.Context, id int64) (*models.Profile, error) {
	p, err := s.store.ProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("profile %d not found", id))
		}
		return nil, apperr.Store(err)
	}
	return p, nil
}

// Create inserts a profile directly. The username is not pre-checked; the
// store's unique constraint produces the same Conflict.
func (s *ProfileService) Create(ctx context.Context, req models.CreateProfileRequest) (*models.Profile, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Store(err)
	}

	p, err := s.store.InsertProfile(ctx, models.NewProfile{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Age:          req.Age,
		Bio:          req.Bio,
		Interests:    req.Interests,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Conflict("username already taken")
		}
		return nil, apperr.Store(err)
	}

	s.logger.Info("Profile created", "profile_id", p.ID, "username", p.Username)
	s.publish(ctx, events.NewCreatedEvent(p))
	return p, nil
}

// Like records that currentUserID liked profileID and returns the profile
// with its updated counter
func (s *ProfileService) Like(ctx context.Context, profileID, currentUserID int64) (*models.Profile, error) {
	p, err := s.like(ctx, profileID, currentUserID)
	metrics.Likes.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Profile liked", "profile_id", profileID, "user_id", currentUserID, "likes", p.Likes)
	s.publish(ctx, events.NewLikeEvent(currentUserID, p))
	return p, nil
}

func (s *ProfileService) like(ctx context.Context, profileID, currentUserID int64) (*models.Profile, error) {
	if profileID == currentUserID {
		return nil, apperr.Forbidden("cannot like own profile")
	}

	if s.mode == LikeModeAtomic {
		if liker, ok := s.store.(storage.AtomicLiker); ok {
			return s.likeAtomic(ctx, liker, profileID, currentUserID)
		}
		s.logger.Warn("Store has no atomic like, falling back to sequential")
	}
	return s.likeSequential(ctx, profileID, currentUserID)
}

func (s *ProfileService) likeAtomic(ctx context.Context, liker storage.AtomicLiker, profileID, currentUserID int64) (*models.Profile, error) {
	p, err := liker.LikeOnce(ctx, currentUserID, profileID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, storage.ErrConflict):
		return nil, apperr.Conflict("already liked")
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.NotFound(fmt.Sprintf("profile %d not found", profileID))
	default:
		return nil, apperr.Store(err)
	}
}

func (s *ProfileService) likeSequential(ctx context.Context, profileID, currentUserID int64) (*models.Profile, error) {
	exists, err := s.store.LikeExists(ctx, currentUserID, profileID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if exists {
		return nil, apperr.Conflict("already liked")
	}

	if err := s.store.InsertLike(ctx, currentUserID, profileID); err != nil {
		// A concurrent like of the same pair can pass LikeExists and
		// then hit the store's unique constraint
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Conflict("already liked")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("profile %d not found", profileID))
		}
		return nil, apperr.Store(err)
	}

	// No compensation: a failure here leaves the like recorded without
	// the counter bump.
	p, err := s.store.IncrementLikes(ctx, profileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("profile %d not found", profileID))
		}
		return nil, apperr.Store(err)
	}
	return p, nil
}

func (s *ProfileService) publish(ctx context.Context, event models.Event) {
	publish(ctx, s.publisher, s.logger, event)
}

// publish sends event and only logs a failure
func publish(ctx context.Context, publisher events.Publisher, logger *slog.Logger, event models.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish event", "type", event.Type, "profile_id", event.ProfileID, "event_id", event.ID, sl.Err(err))
	}
}

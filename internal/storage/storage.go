package storage

import (
	"context"
	"errors"

	"github.com/DimosMssd/dating-app/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the store rejects a write as a duplicate
	ErrConflict = errors.New("conflict")
)

// ProfileRepository defines the operations on the profiles table
type ProfileRepository interface {
	// ListProfiles returns every profile, most recently created first
	ListProfiles(ctx context.Context) ([]models.Profile, error)

	// ProfileByID returns ErrNotFound if no profile has the id
	ProfileByID(ctx context.Context, id int64) (*models.Profile, error)

	// ProfileByUsername returns ErrNotFound if no profile has the username.
	// The returned profile carries the stored password hash.
	ProfileByUsername(ctx context.Context, username string) (*models.Profile, error)

	// InsertProfile returns ErrConflict when the username is already taken
	InsertProfile(ctx context.Context, p models.NewProfile) (*models.Profile, error)

	// IncrementLikes reads the current counter and writes counter+1.
	// The read and the write are separate store calls.
	IncrementLikes(ctx context.Context, id int64) (*models.Profile, error)
}

// LikeTracker defines the operations on the likes join table
type LikeTracker interface {
	LikeExists(ctx context.Context, userID, profileID int64) (bool, error)

	// InsertLike does not check for an existing pair; call LikeExists first
	InsertLike(ctx context.Context, userID, profileID int64) error

	// LikedProfileIDs returns the ids of every profile userID liked
	LikedProfileIDs(ctx context.Context, userID int64) ([]int64, error)
}

// AtomicLiker records a like and bumps the counter in one store operation.
// It returns ErrConflict if the pair exists and ErrNotFound if the profile
// does not.
type AtomicLiker interface {
	LikeOnce(ctx context.Context, userID, profileID int64) (*models.Profile, error)
}

// Pinger reports whether the backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is implemented by every persistence backend
type Store interface {
	ProfileRepository
	LikeTracker
	AtomicLiker
	Pinger
	Close() error
}

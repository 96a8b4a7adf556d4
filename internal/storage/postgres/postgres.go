// Package postgres implements storage.Store on a plain Postgres database
// through sqlx and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

const profileColumns = "id, username, password, name, age, bio, interests, likes, created_at"

type profileRow struct {
	ID        int64          `db:"id"`
	Username  string         `db:"username"`
	Password  string         `db:"password"`
	Name      string         `db:"name"`
	Age       int            `db:"age"`
	Bio       sql.NullString `db:"bio"`
	Interests pq.StringArray `db:"interests"`
	Likes     int            `db:"likes"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r profileRow) toModel() *models.Profile {
	p := &models.Profile{
		ID:        r.ID,
		Username:  r.Username,
		Password:  r.Password,
		Name:      r.Name,
		Age:       r.Age,
		Interests: []string(r.Interests),
		Likes:     r.Likes,
		CreatedAt: r.CreatedAt,
	}
	if r.Bio.Valid {
		bio := r.Bio.String
		p.Bio = &bio
	}
	return p
}

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	const op = "postgres.ListProfiles"

	var rows []profileRow
	query := "SELECT " + profileColumns + " FROM profiles ORDER BY created_at DESC"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profiles := make([]models.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, *r.toModel())
	}
	return profiles, nil
}

func (s *Store) ProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	const op = "postgres.ProfileByID"

	var row profileRow
	query := "SELECT " + profileColumns + " FROM profiles WHERE id = $1"
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel(), nil
}

func (s *Store) ProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	const op = "postgres.ProfileByUsername"

	var row profileRow
	query := "SELECT " + profileColumns + " FROM profiles WHERE username = $1"
	if err := s.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel(), nil
}

func (s *Store) InsertProfile(ctx context.Context, np models.NewProfile) (*models.Profile, error) {
	const op = "postgres.InsertProfile"

	var row profileRow
	query := `INSERT INTO profiles (username, password, name, age, bio, interests, likes)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING ` + profileColumns
	err := s.db.GetContext(ctx, &row, query,
		np.Username, np.PasswordHash, np.Name, np.Age, np.Bio, pq.Array(np.Interests))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return row.toModel(), nil
}

// IncrementLikes is a read followed by an absolute write, so two concurrent
// calls can lose an increment.
func (s *Store) IncrementLikes(ctx context.Context, id int64) (*models.Profile, error) {
	const op = "postgres.IncrementLikes"

	current, err := s.ProfileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var row profileRow
	query := "UPDATE profiles SET likes = $1 WHERE id = $2 RETURNING " + profileColumns
	if err := s.db.GetContext(ctx, &row, query, current.Likes+1, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel(), nil
}

func (s *Store) LikeExists(ctx context.Context, userID, profileID int64) (bool, error) {
	const op = "postgres.LikeExists"

	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND profile_id = $2)"
	if err := s.db.GetContext(ctx, &exists, query, userID, profileID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (s *Store) InsertLike(ctx context.Context, userID, profileID int64) error {
	const op = "postgres.InsertLike"

	query := "INSERT INTO likes (user_id, profile_id) VALUES ($1, $2)"
	if _, err := s.db.ExecContext(ctx, query, userID, profileID); err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	return nil
}

func (s *Store) LikedProfileIDs(ctx context.Context, userID int64) ([]int64, error) {
	const op = "postgres.LikedProfileIDs"

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, "SELECT profile_id FROM likes WHERE user_id = $1", userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// LikeOnce records the like and bumps the counter in a single transaction
func (s *Store) LikeOnce(ctx context.Context, userID, profileID int64) (*models.Profile, error) {
	const op = "postgres.LikeOnce"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		"INSERT INTO likes (user_id, profile_id) VALUES ($1, $2) ON CONFLICT (user_id, profile_id) DO NOTHING",
		userID, profileID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
	}

	var row profileRow
	query := "UPDATE profiles SET likes = likes + 1 WHERE id = $1 RETURNING " + profileColumns
	if err := tx.GetContext(ctx, &row, query, profileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}
	return row.toModel(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// translate maps constraint violations onto storage sentinels
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return storage.ErrConflict
		case "23503":
			return storage.ErrNotFound
		}
	}
	return err
}

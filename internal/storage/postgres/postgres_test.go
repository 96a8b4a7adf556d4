package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

var columns = []string{"id", "username", "password", "name", "age", "bio", "interests", "likes", "created_at"}

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return New(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestListProfiles(t *testing.T) {
	s, mock := setupStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + profileColumns + " FROM profiles ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(2, "bob", "h2", "Bob", 31, nil, nil, 0, now).
			AddRow(1, "alice", "h1", "Alice", 28, "hi", "{hiking,chess}", 3, now.Add(-time.Hour)))

	profiles, err := s.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, int64(2), profiles[0].ID)
	assert.Nil(t, profiles[0].Bio)
	assert.Equal(t, "hi", *profiles[1].Bio)
	assert.Equal(t, []string{"hiking", "chess"}, profiles[1].Interests)
	assert.Equal(t, 3, profiles[1].Likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileByIDNotFound(t *testing.T) {
	s, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.ProfileByID(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileByUsername(t *testing.T) {
	s, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE username = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "alice", "$2a$10$hash", "Alice", 28, nil, nil, 0, time.Now()))

	p, err := s.ProfileByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", p.Password)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertProfile(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "inserted",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles (username, password, name, age, bio, interests, likes)")).
					WithArgs("alice", "hash", "Alice", 28, nil, sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows(columns).
						AddRow(7, "alice", "hash", "Alice", 28, nil, "{music}", 0, time.Now()))
			},
		},
		{
			name: "username taken",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
					WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
			},
			expectedErr: storage.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupStore(t)
			tt.setupMock(mock)

			p, err := s.InsertProfile(context.Background(), models.NewProfile{
				Username:     "alice",
				PasswordHash: "hash",
				Name:         "Alice",
				Age:          28,
				Interests:    []string{"music"},
			})
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), p.ID)
				assert.Equal(t, 0, p.Likes)
				assert.Equal(t, []string{"music"}, p.Interests)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIncrementLikesWritesReadValuePlusOne(t *testing.T) {
	s, mock := setupStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "alice", "h", "Alice", 28, nil, nil, 4, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET likes = $1 WHERE id = $2")).
		WithArgs(5, int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "alice", "h", "Alice", 28, nil, nil, 5, now))

	p, err := s.IncrementLikes(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeExistsAndInsert(t *testing.T) {
	s, mock := setupStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND profile_id = $2)")).
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO likes (user_id, profile_id) VALUES ($1, $2)")).
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT profile_id FROM likes WHERE user_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"profile_id"}).AddRow(1).AddRow(9))

	exists, err := s.LikeExists(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.InsertLike(ctx, 2, 1))

	ids, err := s.LikedProfileIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 9}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLikeMissingProfile(t *testing.T) {
	s, mock := setupStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO likes")).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := s.InsertLike(context.Background(), 2, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLikeOnce(t *testing.T) {
	insertLike := regexp.QuoteMeta("INSERT INTO likes (user_id, profile_id) VALUES ($1, $2) ON CONFLICT (user_id, profile_id) DO NOTHING")
	bump := regexp.QuoteMeta("UPDATE profiles SET likes = likes + 1 WHERE id = $1")

	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "first like",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertLike).WithArgs(int64(2), int64(1)).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectQuery(bump).WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "alice", "h", "Alice", 28, nil, nil, 1, time.Now()))
				mock.ExpectCommit()
			},
		},
		{
			name: "already liked",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertLike).WithArgs(int64(2), int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectedErr: storage.ErrConflict,
		},
		{
			name: "profile missing",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertLike).WithArgs(int64(2), int64(1)).
					WillReturnError(&pq.Error{Code: "23503"})
				mock.ExpectRollback()
			},
			expectedErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupStore(t)
			tt.setupMock(mock)

			p, err := s.LikeOnce(context.Background(), 2, 1)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, p.Likes)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

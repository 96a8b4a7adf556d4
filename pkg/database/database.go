package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// RedisOptions configures the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewClients connects whichever backends are configured. An empty dbURL or
// Redis address leaves the matching field nil.
func NewClients(ctx context.Context, dbURL string, redisOpts RedisOptions) (*Clients, error) {
	clients := &Clients{}

	if dbURL != "" {
		db, err := NewPostgres(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		clients.DB = db
	}

	if redisOpts.Addr != "" {
		rdb, err := NewRedis(ctx, redisOpts)
		if err != nil {
			clients.Close()
			return nil, err
		}
		clients.Redis = rdb
	}

	return clients, nil
}

// NewPostgres opens a sqlx pool on the lib/pq driver and pings it
func NewPostgres(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// NewRedis creates a Redis client and checks the connection
func NewRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

// Close releases every open connection
func (c *Clients) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			slog.Error("Failed to close Redis", "error", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}
}

// Schema creates the profiles and likes tables and the like_profile function
// used for atomic likes. The same statements are run in the Supabase SQL
// editor when the store is reached through PostgREST.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	name TEXT NOT NULL,
	age INT NOT NULL CHECK (age BETWEEN 18 AND 99),
	bio TEXT,
	interests TEXT[],
	likes INT NOT NULL DEFAULT 0 CHECK (likes >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS likes (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	profile_id BIGINT NOT NULL REFERENCES profiles (id),
	UNIQUE (user_id, profile_id)
);

CREATE INDEX IF NOT EXISTS likes_user_id_idx ON likes (user_id);

CREATE OR REPLACE FUNCTION like_profile(p_user_id BIGINT, p_profile_id BIGINT)
RETURNS profiles
LANGUAGE plpgsql
AS $$
DECLARE
	liked profiles;
BEGIN
	PERFORM 1 FROM profiles WHERE id = p_profile_id;
	IF NOT FOUND THEN
		RAISE EXCEPTION 'profile % not found', p_profile_id USING ERRCODE = 'P0002';
	END IF;

	INSERT INTO likes (user_id, profile_id) VALUES (p_user_id, p_profile_id);

	UPDATE profiles SET likes = likes + 1 WHERE id = p_profile_id
	RETURNING * INTO liked;

	RETURN liked;
END;
$$;
`

// CreateSchema ensures the tables and functions exist
func CreateSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("✅ Profiles schema is ready!")
	return nil
}

package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/supabase-community/postgrest-go"

	"github.com/DimosMssd/dating-app/internal/storage"
)

const (
	profilesTable = "profiles"
	likesTable    = "likes"
	likeFunction  = "like_profile"
)

// Config holds the connection settings for the Supabase project
type Config struct {
	URL    string
	Key    string
	Schema string

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerFailures    uint32
}

// Store implements storage.Store on Supabase tables reached through PostgREST
type Store struct {
	restURL string
	schema  string
	headers map[string]string
	cb      *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	// Remove any protocol prefix
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	// Split by the first dot to get just the project reference
	parts := strings.Split(url, ".")
	return parts[0]
}

// restURL returns the PostgREST endpoint of a project URL
func restURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if strings.HasSuffix(url, "/rest/v1") {
		return url
	}
	return url + "/rest/v1"
}

// New creates a Store for the configured Supabase project
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, errors.New("supabase: URL and key must be set")
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}

	// Truncate key for logging to avoid exposing the full key
	truncatedKey := ""
	if len(cfg.Key) > 10 {
		truncatedKey = cfg.Key[:10] + "..."
	}
	logger.Info("Initializing Supabase store",
		"project_ref", extractProjectRef(cfg.URL),
		"api_key", truncatedKey,
	)

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        "supabase-postgrest",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// Missing rows and duplicates are answers, not outages
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrConflict)
		},
	}

	return &Store{
		restURL: restURL(cfg.URL),
		schema:  cfg.Schema,
		headers: map[string]string{
			"apikey":        cfg.Key,
			"Authorization": "Bearer " + cfg.Key,
		},
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}, nil
}

// client returns a fresh PostgREST client. Client errors are sticky in
// postgrest-go, so clients are never shared between calls.
func (s *Store) client() *postgrest.Client {
	return postgrest.NewClient(s.restURL, s.schema, s.headers)
}

// execute runs fn through the circuit breaker
func (s *Store) execute(ctx context.Context, op string, fn func(c *postgrest.Client) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, fn(s.client())
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// translate maps PostgREST error codes onto storage sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "23505"):
		return fmt.Errorf("%w: %s", storage.ErrConflict, msg)
	case strings.Contains(msg, "23503"), strings.Contains(msg, "P0002"):
		return fmt.Errorf("%w: %s", storage.ErrNotFound, msg)
	}
	return err
}

// Ping selects a single id to check the project is reachable
func (s *Store) Ping(ctx context.Context) error {
	const op = "supabase.Ping"

	return s.execute(ctx, op, func(c *postgrest.Client) error {
		var rows []struct {
			ID int64 `json:"id"`
		}
		_, err := c.From(profilesTable).Select("id", "", false).Limit(1, "").ExecuteTo(&rows)
		return err
	})
}

func (s *Store) Close() error {
	return nil
}

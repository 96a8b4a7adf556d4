// Package services holds the auth and profile workflows. They see identity
// only as a profile id and report failures as apperr values.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DimosMssd/dating-app/internal/apperr"
	"github.com/DimosMssd/dating-app/internal/auth"
	"github.com/DimosMssd/dating-app/internal/events"
	"github.com/DimosMssd/dating-app/internal/metrics"
	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

// Hasher hashes and verifies passwords
type Hasher interface {
	Hash(password string) (string, error)
	Verify(stored, password string) error
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(s *models.Session) (string, error)
}

type AuthService struct {
	profiles  storage.ProfileRepository
	hasher    Hasher
	tokens    TokenIssuer
	publisher events.Publisher
	logger    *slog.Logger
}

// NewAuthService creates the auth workflow. A nil tokens leaves sessions
// without a token.
func NewAuthService(profiles storage.ProfileRepository, hasher Hasher, tokens TokenIssuer, publisher events.Publisher, logger *slog.Logger) *AuthService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &AuthService{
		profiles:  profiles,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
}

// Register creates a profile for a new username and returns its session
func (s *AuthService) Register(ctx context.Context, req models.CreateProfileRequest) (*models.Session, error) {
	session, err := s.register(ctx, req)
	metrics.Registrations.WithLabelValues(metrics.Result(err)).Inc()
	return session, err
}

func (s *AuthService) register(ctx context.Context, req models.CreateProfileRequest) (*models.Session, error) {
	_, err := s.profiles.ProfileByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return nil, apperr.Conflict("username already taken")
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperr.Store(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Store(err)
	}

	p, err := s.profiles.InsertProfile(ctx, models.NewProfile{
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

	s.logger.Info("User registered", "profile_id", p.ID, "username", p.Username)
	publish(ctx, s.publisher, s.logger, events.NewCreatedEvent(p))

	return s.session(p)
}

// Login checks the password of username and returns its session
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	session, err := s.login(ctx, req)
	metrics.Logins.WithLabelValues(metrics.Result(err)).Inc()
	return session, err
}

func (s *AuthService) login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	p, err := s.profiles.ProfileByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Store(err)
	}

	if err := s.hasher.Verify(p.Password, req.Password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			s.logger.Info("Login rejected", "username", req.Username)
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, apperr.Store(err)
	}

	s.logger.Info("User successfully authenticated", "profile_id", p.ID)
	return s.session(p)
}

func (s *AuthService) session(p *models.Profile) (*models.Session, error) {
	session := models.SessionFor(p)
	if s.tokens == nil {
		return session, nil
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, apperr.Store(err)
	}
	session.Token = token
	return session, nil
}

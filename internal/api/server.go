package api

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DimosMssd/dating-app/internal/config"
	"github.com/DimosMssd/dating-app/internal/lib/logger/sl"
	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

// AuthService is the auth workflow as seen by the handlers
type AuthService interface {
	Register(ctx context.Context, req models.CreateProfileRequest) (*models.Session, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
}

// ProfileService is the profile workflow as seen by the handlers
type ProfileService interface {
	ListAll(ctx context.Context, currentUserID *int64) ([]models.ProfileView, error)
	GetByID(ctx context.Context, id int64) (*models.Profile, error)
	Create(ctx context.Context, req models.CreateProfileRequest) (*models.Profile, error)
	Like(ctx context.Context, profileID, currentUserID int64) (*models.Profile, error)
}

// NotificationInbox lists the likes a profile received
type NotificationInbox interface {
	List(ctx context.Context, profileID int64) ([]models.LikeNotification, error)
}

// TokenParser resolves a bearer token to a profile id
type TokenParser interface {
	Parse(token string) (int64, error)
}

// Dependencies are the collaborators of the HTTP layer. Inbox and Tokens
// are optional.
type Dependencies struct {
	Auth     AuthService
	Profiles ProfileService
	Inbox    NotificationInbox
	Store    storage.Pinger
	Tokens   TokenParser
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	logger   *slog.Logger
	validate *validator.Validate
	deps     Dependencies
}

func NewServer(cfg *config.Config, log *slog.Logger, deps Dependencies) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   log,
		validate: newValidator(),
		deps:     deps,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: cfg.IsProduction(),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: localRequestID}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:request_id} ${ip} ${method} ${path} ${status} ${latency}\n",
	}))
	if cfg.Server.MaxRequests > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.Server.MaxRequests,
			Expiration: cfg.Server.RequestTimeout,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == "/metrics"
			},
		}))
	}

	s.app = app
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := s.app.Group("/auth")
	auth.Post("/register", s.handleRegister)
	auth.Post("/login", s.handleLogin)

	profiles := s.app.Group("/profiles")
	profiles.Get("/", s.optionalIdentity(), s.handleListProfiles)
	profiles.Post("/", s.handleCreateProfile)
	profiles.Get("/:id", s.handleGetProfile)
	profiles.Post("/:id/like", s.requireIdentity(), s.handleLikeProfile)

	if s.deps.Inbox != nil {
		s.app.Get("/notifications", s.requireIdentity(), s.handleListNotifications)
	}
}

// App exposes the underlying fiber app, mainly for app.Test in tests
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(c.UserContext()); err != nil {
			s.logger.Error("Health check failed", sl.Err(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

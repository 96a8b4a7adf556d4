package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DimosMssd/dating-app/internal/models"
)

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req models.CreateProfileRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	s.logger.Info("Registration attempt", "username", req.Username)

	session, err := s.deps.Auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	// Log authentication attempt
	s.logger.Info("Authentication attempt", "username", req.Username)

	session, err := s.deps.Auth.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(session)
}

package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/DimosMssd/dating-app/internal/apperr"
	"github.com/DimosMssd/dating-app/internal/models"
)

func profileID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid profile id", map[string]string{"id": "numeric"})
	}
	return id, nil
}

// handleListProfiles lists every profile, flagged with isLiked when the
// caller identified itself
func (s *Server) handleListProfiles(c *fiber.Ctx) error {
	var current *int64
	if id, ok := currentUser(c); ok {
		current = &id
	}

	views, err := s.deps.Profiles.ListAll(c.UserContext(), current)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	id, err := profileID(c)
	if err != nil {
		return err
	}

	profile, err := s.deps.Profiles.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (s *Server) handleCreateProfile(c *fiber.Ctx) error {
	var req models.CreateProfileRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	profile, err := s.deps.Profiles.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (s *Server) handleLikeProfile(c *fiber.Ctx) error {
	id, err := profileID(c)
	if err != nil {
		return err
	}
	userID, _ := currentUser(c)

	profile, err := s.deps.Profiles.Like(c.UserContext(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (s *Server) handleListNotifications(c *fiber.Ctx) error {
	userID, _ := currentUser(c)

	items, err := s.deps.Inbox.List(c.UserContext(), userID)
	if err != nil {
		return apperr.Store(err)
	}
	return c.JSON(items)
}

package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/DimosMssd/dating-app/internal/apperr"
)

const (
	localRequestID = "request_id"
	localUserID    = "user_id"

	headerUserID = "X-User-Id"
)

// identify resolves the acting profile from a bearer token, when tokens are
// enabled, or else from the X-User-Id header. found is false when the
// request carries no identity at all.
func (s *Server) identify(c *fiber.Ctx) (userID int64, found bool, err error) {
	if s.deps.Tokens != nil {
		if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
			id, err := s.deps.Tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				return 0, true, apperr.Unauthorized("invalid token")
			}
			return id, true, nil
		}
	}

	header := strings.TrimSpace(c.Get(headerUserID))
	if header == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return 0, true, apperr.Unauthorized("invalid X-User-Id header")
	}
	return id, true, nil
}

// requireIdentity rejects requests that carry no valid identity
func (s *Server) requireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, found, err := s.identify(c)
		if err != nil {
			return err
		}
		if !found {
			return apperr.Unauthorized("missing X-User-Id header")
		}
		c.Locals(localUserID, id)
		return c.Next()
	}
}

// optionalIdentity records the identity when one is present and valid.
// Anything else is treated as an anonymous request.
func (s *Server) optionalIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, found, err := s.identify(c); found && err == nil {
			c.Locals(localUserID, id)
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(localUserID).(int64)
	return id, ok
}

package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/DimosMssd/dating-app/internal/apperr"
	"github.com/DimosMssd/dating-app/internal/lib/logger/sl"
	"github.com/DimosMssd/dating-app/internal/models"
)

// errorHandler writes every failed request as an ErrorResponse
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	requestID, _ := c.Locals(localRequestID).(string)

	var appErr *apperr.Error
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &appErr):
		status := appErr.Status()
		body := models.ErrorResponse{
			Error:   appErr.Message,
			Code:    string(appErr.Kind),
			Details: appErr.Details,
		}
		if status >= fiber.StatusInternalServerError {
			s.logger.Error("Request failed", "request_id", requestID, "path", c.Path(), sl.Err(err))
			body.Error = "internal server error"
			if !s.cfg.IsProduction() && appErr.Err != nil {
				// In non-production environments, include error details
				body.Error = appErr.Err.Error()
			}
		} else {
			s.logger.Debug("Request rejected", "request_id", requestID, "path", c.Path(), "code", appErr.Kind, "error", appErr.Message)
		}
		return c.Status(status).JSON(body)

	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{
			Error: fiberErr.Message,
			Code:  codeForStatus(fiberErr.Code),
		})

	default:
		s.logger.Error("Unexpected error", "request_id", requestID, "path", c.Path(), sl.Err(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusNotFound:
		return string(apperr.KindNotFound)
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	case fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return "BAD_REQUEST"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "HTTP_ERROR"
	}
}

// newValidator reports field errors under their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes and validates the request body into dst
func (s *Server) parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("invalid request body", nil)
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperr.Validation("invalid request body", nil)
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			details[fe.Field()] = rule
		}
		return apperr.Validation("validation failed", details)
	}
	return nil
}

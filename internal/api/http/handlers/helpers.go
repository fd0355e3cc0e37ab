package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stayhub/service-desk/internal/auth"
	"github.com/stayhub/service-desk/internal/service"
	apperrors "github.com/stayhub/service-desk/pkg/util"
)

func callerFrom(c *fiber.Ctx) (service.Caller, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return service.Caller{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Caller{
		ID:   principal.User.ID,
		Name: principal.User.Name,
		Role: principal.Role,
	}, nil
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func queryPtr(c *fiber.Ctx, key string) *string {
	if value := c.Query(key); value != "" {
		return &value
	}
	return nil
}

package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/middleware"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestID").(string); ok {
		return id
	}
	return ""
}

// respondError maps service errors onto the response envelope. Anything that
// is not a known service error is logged and reported as a 500 with fallback.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return utils.ValidationFailed(c, validation.Fields)
	case errors.Is(err, services.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, services.Message(err))
	case errors.Is(err, services.ErrForbidden):
		return utils.Error(c, fiber.StatusForbidden, services.Message(err))
	case errors.Is(err, services.ErrConflict):
		return utils.Error(c, fiber.StatusConflict, services.Message(err))
	}

	details := map[string]interface{}{
		"method":     c.Method(),
		"path":       c.Path(),
		"request_id": getRequestID(c),
	}
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.ErrorWithUser(user.ID.String(), "request_failed", err, details)
	} else {
		logger.Error("request_failed", err, details)
	}
	return utils.Error(c, fiber.StatusInternalServerError, fallback)
}

// audit fills in the request-scoped fields shared by every audit entry.
func audit(c *fiber.Ctx, svc *services.AuditService, entry services.AuditEntry) {
	if svc == nil {
		return
	}
	if entry.UserID == nil {
		if user := middleware.GetCurrentUser(c); user != nil {
			id := user.ID
			entry.UserID = &id
		}
	}
	if key := middleware.GetAPIKey(c); key != nil {
		if entry.Details == nil {
			entry.Details = map[string]interface{}{}
		}
		entry.Details["api_key_id"] = key.ID.String()
	}
	entry.IPAddress = c.IP()
	entry.RequestID = getRequestID(c)
	svc.LogAsync(entry)
}

package audit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=bon&limit=50
func ListAuditLogsHandler(rec *GormRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 100
		if limitStr := c.Query("limit"); limitStr != "" {
			n, err := strconv.Atoi(limitStr)
			if err != nil || n <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive number")
			}
			limit = n
		}

		logs, err := rec.List(c.Context(), c.Query("entity_type"), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}
		return c.JSON(logs)
	}
}

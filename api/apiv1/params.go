package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// requireID extracts the positive record id a detail or delete action
// operates on: from the JSON body on POST, from the query string on GET.
func requireID(c *fiber.Ctx) (uint, bool) {
	if c.Method() == fiber.MethodPost {
		var req struct {
			ID uint `json:"id"`
		}
		if err := c.BodyParser(&req); err == nil && req.ID > 0 {
			return req.ID, true
		}
	}
	if id := c.QueryInt("id"); id > 0 {
		return uint(id), true
	}
	return 0, false
}

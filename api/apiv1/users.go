package apiv1

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/apiarium/apiary/storage/model"
)

// resetPassword is the well-known value an admin reset assigns; users are
// expected to change it on their next login.
const resetPassword = "12345678"

func (h *handlers) usersList(c *fiber.Ctx) error {
	users, err := h.storages.Users.List()
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *handlers) userCreate(c *fiber.Ctx) error {
	var req struct {
		Username string     `json:"username"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Username and password required")
	}
	if req.Username == "" || req.Password == "" {
		return validationError(c, "Username and password required")
	}
	if len(req.Password) < h.opts.PasswordMinLength {
		return validationError(
			c, fmt.Sprintf("Password must be at least %d characters", h.opts.PasswordMinLength),
		)
	}
	if req.Role == "" {
		req.Role = model.RoleContributor
	}
	if !req.Role.Valid() {
		return validationError(c, "Invalid role")
	}
	u, err := h.storages.Users.Create(req.Username, req.Password, req.Role)
	if err != nil {
		var exists model.AlreadyExistsError
		if errors.As(err, &exists) {
			return conflict(c, "Username already exists")
		}
		return serverError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "id": u.ID})
}

func (h *handlers) userDelete(c *fiber.Ctx) error {
	id, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	if id == currentSession(c).UserID {
		return validationError(c, "Cannot delete current user")
	}
	if err := h.storages.Users.Delete(id); err != nil {
		if isNotFound(err) {
			return notFound(c, "User not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *handlers) userUpdateRole(c *fiber.Ctx) error {
	var req struct {
		ID   uint       `json:"id"`
		Role model.Role `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil || req.ID == 0 {
		return validationError(c, "Valid id required")
	}
	if !req.Role.Valid() {
		return validationError(c, "Invalid role")
	}
	// Demoting yourself would drop the last line to user management
	// mid-session; role changes of the acting admin go through another
	// admin.
	if req.ID == currentSession(c).UserID {
		return errorResponse(c, fiber.StatusForbidden, "Cannot change your own role")
	}
	if err := h.storages.Users.UpdateRole(req.ID, req.Role); err != nil {
		if isNotFound(err) {
			return notFound(c, "User not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// userResetPassword restores a locked or forgotten account by assigning
// the well-known reset password. This is the recovery path after a
// lockout cleared the credential.
func (h *handlers) userResetPassword(c *fiber.Ctx) error {
	id, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	if err := h.storages.Users.SetPassword(id, resetPassword); err != nil {
		if isNotFound(err) {
			return notFound(c, "User not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "password": resetPassword})
}

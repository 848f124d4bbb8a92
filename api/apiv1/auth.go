package apiv1

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/apiarium/apiary/storage/model"
)

const bootstrapUsername = "admin"

// isNotFound reports whether err is a storage not-found error.
func isNotFound(err error) bool {
	var nf model.NotFoundError
	return errors.As(err, &nf)
}

// me reports the caller's identity and hands out the anti-forgery token.
// A caller without a session gets a cookied anonymous one, so the token
// is available before login.
func (h *handlers) me(c *fiber.Ctx) error {
	sess := currentSession(c)
	if sess == nil {
		var err error
		if sess, err = h.sessions.Anonymous(c.Context()); err != nil {
			return serverError(c, err)
		}
		h.setSessionCookie(c, sess)
	}
	var user any
	if sess.Authenticated() {
		user = fiber.Map{
			"id":       sess.UserID,
			"username": sess.Username,
			"role":     sess.Role,
		}
	}
	return c.JSON(fiber.Map{"user": user, "csrf": sess.CSRFToken})
}

func (h *handlers) adminBootstrapStatus(c *fiber.Ctx) error {
	admins, err := h.storages.Users.CountAdmins()
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"exists": admins > 0})
}

// adminBootstrapCreate installs the initial admin/admin credential on a
// fresh installation. The action refuses to run once any admin exists, so
// it cannot be used to regain access to a populated system.
func (h *handlers) adminBootstrapCreate(c *fiber.Ctx) error {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.BodyParser(&req); err != nil || !req.Confirm {
		return validationError(c, "Confirmation required")
	}
	admins, err := h.storages.Users.CountAdmins()
	if err != nil {
		return serverError(c, err)
	}
	if admins > 0 {
		return conflict(c, "Admin already exists")
	}

	// A leftover "admin" account without the admin role (or with a
	// cleared credential) is reactivated instead of duplicated.
	existing, err := h.storages.Users.Get(bootstrapUsername)
	switch {
	case err == nil:
		if err = h.storages.Users.SetRoleAndPassword(
			existing.ID, model.RoleAdmin, bootstrapUsername,
		); err != nil {
			return serverError(c, err)
		}
		log.WithField("user_id", existing.ID).Info("bootstrap admin reactivated")
		return c.JSON(fiber.Map{"ok": true, "id": existing.ID, "updated": true})
	case isNotFound(err):
		u, cerr := h.storages.Users.Create(bootstrapUsername, bootstrapUsername, model.RoleAdmin)
		if cerr != nil {
			return serverError(c, cerr)
		}
		log.WithField("user_id", u.ID).Info("bootstrap admin created")
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "id": u.ID})
	default:
		return serverError(c, err)
	}
}

// login authenticates a username/password pair. Every failure against an
// existing account feeds the durable failure counter; reaching the
// threshold clears the account's credential so no further guesses can
// succeed. The client sees the same invalid-credentials answer in every
// failure case.
func (h *handlers) login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Username and password required")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return validationError(c, "Username and password required")
	}

	u, err := h.storages.Users.Get(username)
	if err != nil {
		if isNotFound(err) {
			// Unknown usernames never feed the counter; there is no
			// account to protect and the counter would be attacker-chosen
			// garbage.
			return invalidCredentials(c)
		}
		return serverError(c, err)
	}

	if err = h.storages.Users.VerifyPassword(u.ID, req.Password); err != nil {
		if !errors.Is(err, model.ErrBadPassword) && !errors.Is(err, model.ErrNoCredential) {
			return serverError(c, err)
		}
		// The counter is keyed by the stored username, not the presented
		// one: under a case-insensitive collation every casing variant
		// resolves to the same account and must feed the same counter.
		count := h.failures.RecordFailure(u.Username)
		if count >= h.opts.LockoutThreshold && !u.Locked() {
			if cerr := h.storages.Users.ClearCredential(u.ID); cerr != nil {
				log.WithError(cerr).WithField("user_id", u.ID).
					Error("failed to clear credential at lockout threshold")
			} else {
				log.WithFields(
					log.Fields{"user_id": u.ID, "failures": count},
				).Warn("account locked after repeated login failures")
			}
		}
		return invalidCredentials(c)
	}

	if err = h.failures.Clear(u.Username); err != nil {
		log.WithError(err).Warn("failed to reset login failure counter")
	}
	// Drop whatever session the client presented and mint a fresh
	// reference, so a pre-login reference never survives authentication.
	if old := c.Cookies(h.opts.CookieName); old != "" {
		if derr := h.sessions.Destroy(c.Context(), old); derr != nil {
			log.WithError(derr).Warn("failed to destroy pre-login session")
		}
	}
	sess, err := h.sessions.Create(c.Context(), u.ID, u.Username, u.Role)
	if err != nil {
		return serverError(c, err)
	}
	if err = h.storages.Users.TouchLastLogin(u.ID); err != nil {
		log.WithError(err).WithField("user_id", u.ID).Warn("failed to update last login")
	}
	h.setSessionCookie(c, sess)
	return c.JSON(
		fiber.Map{
			"ok": true,
			"user": fiber.Map{
				"id":       u.ID,
				"username": u.Username,
				"role":     u.Role,
			},
			"csrf": sess.CSRFToken,
		},
	)
}

func (h *handlers) logout(c *fiber.Ctx) error {
	sess := currentSession(c)
	if err := h.sessions.Destroy(c.Context(), sess.Ref); err != nil {
		return serverError(c, err)
	}
	h.clearSessionCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (h *handlers) changePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Current and new password required")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return validationError(c, "Current and new password required")
	}
	if len(req.NewPassword) < h.opts.PasswordMinLength {
		return validationError(
			c, fmt.Sprintf("New password must be at least %d characters", h.opts.PasswordMinLength),
		)
	}
	sess := currentSession(c)
	if err := h.storages.Users.VerifyPassword(sess.UserID, req.CurrentPassword); err != nil {
		if errors.Is(err, model.ErrBadPassword) || errors.Is(err, model.ErrNoCredential) {
			return invalidCredentials(c)
		}
		return serverError(c, err)
	}
	if err := h.storages.Users.SetPassword(sess.UserID, req.NewPassword); err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

package apiv1

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/apiarium/apiary/session"
	"github.com/apiarium/apiary/storage/model"
)

// gate enforces the fixed authorization order for an action: access level
// first, anti-forgery second. Login is the one POST exempt from the token
// check, since the caller has no authenticated session yet. When the
// request is rejected, allowed is false and resp is the written rejection.
func (h *handlers) gate(
	c *fiber.Ctx, action Action, spec actionSpec, sess *session.Session,
) (allowed bool, resp error) {
	if spec.Access != AccessPublic {
		if sess == nil || !sess.Authenticated() {
			return false, unauthorized(c)
		}
		switch spec.Access {
		case AccessAdmin:
			if sess.Role != model.RoleAdmin {
				return false, forbidden(c)
			}
		case AccessWrite:
			if !sess.Role.CanWrite() {
				return false, forbidden(c)
			}
		}
	}
	if spec.Method == fiber.MethodPost && action != ActionLogin {
		if sess == nil || !validCSRF(sess, c.Get(csrfHeader)) {
			return false, invalidCSRF(c)
		}
	}
	return true, nil
}

func validCSRF(sess *session.Session, received string) bool {
	if sess.CSRFToken == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(received)) == 1
}

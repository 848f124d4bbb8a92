// Package apiv1 implements the JSON action API: a single verb-sensitive
// dispatch endpoint backed by a closed action registry. Every request
// passes the authorization gate (public -> session -> role -> CSRF)
// before its handler runs.
package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/apiarium/apiary/lockout"
	"github.com/apiarium/apiary/session"
	"github.com/apiarium/apiary/storage/model"
)

const (
	actionParam = "action"
	csrfHeader  = "X-CSRF-Token"

	localSessionKey = "apiv1.session"
)

// FailureTracker is the login-failure counter consumed by the login flow.
// Implemented by *lockout.Tracker.
type FailureTracker interface {
	// RecordFailure durably increments the username's failure counter
	// and returns the new value; storage faults degrade to 1
	RecordFailure(username string) int
	// Clear resets the username's counter; a no-op when absent
	Clear(username string) error
}

// Options controls optional behavior of the API registration.
type Options struct {
	// CookieName is the session cookie name.
	CookieName string
	// SecureCookies marks the session cookie Secure; enable when serving
	// over TLS.
	SecureCookies bool
	// PasswordMinLength is enforced on user_create and change_password.
	PasswordMinLength int
	// LockoutThreshold is the failure count at which an account's
	// credential is cleared.
	LockoutThreshold int
}

func defaultOptions() Options {
	return Options{
		CookieName:        "apiary_session",
		PasswordMinLength: 7,
		LockoutThreshold:  lockout.DefaultThreshold,
	}
}

type handlers struct {
	storages model.Backends
	sessions *session.Manager
	failures FailureTracker
	opts     Options
}

// Register mounts the action dispatch endpoint under the provided router.
func Register(
	r fiber.Router, storages model.Backends, sessions *session.Manager, failures FailureTracker, opts *Options,
) {
	o := defaultOptions()
	if opts != nil {
		if opts.CookieName != "" {
			o.CookieName = opts.CookieName
		}
		if opts.PasswordMinLength > 0 {
			o.PasswordMinLength = opts.PasswordMinLength
		}
		if opts.LockoutThreshold > 0 {
			o.LockoutThreshold = opts.LockoutThreshold
		}
		o.SecureCookies = opts.SecureCookies
	}
	h := &handlers{
		storages: storages,
		sessions: sessions,
		failures: failures,
		opts:     o,
	}
	dispatch := h.dispatch(h.registry())
	r.Get("/", dispatch)
	r.Post("/", dispatch)
}

// dispatch resolves the action, runs the gate, and hands the request to
// the action's handler. Any rejection is terminal for the request.
func (h *handlers) dispatch(registry map[Action]actionSpec) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Query(actionParam)
		if name == "" {
			name = c.FormValue(actionParam)
		}
		spec, ok := registry[Action(name)]
		if !ok {
			return notFound(c, "Unknown action")
		}
		if c.Method() != spec.Method {
			return errorResponse(c, fiber.StatusMethodNotAllowed, "Method not allowed")
		}

		sess, err := h.sessions.Lookup(c.Context(), c.Cookies(h.opts.CookieName))
		if err != nil {
			return serverError(c, err)
		}
		if sess != nil {
			c.Locals(localSessionKey, sess)
		}

		if ok, resp := h.gate(c, Action(name), spec, sess); !ok {
			return resp
		}
		return spec.Handler(c)
	}
}

// currentSession returns the session resolved by dispatch, or nil.
func currentSession(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(localSessionKey).(*session.Session)
	return s
}

// setSessionCookie transmits the session reference as an HTTP-only,
// same-site-restricted cookie. The anti-forgery token is never a cookie;
// clients receive it in JSON bodies and echo it in a request header.
func (h *handlers) setSessionCookie(c *fiber.Ctx, s *session.Session) {
	c.Cookie(
		&fiber.Cookie{
			Name:     h.opts.CookieName,
			Value:    s.Ref,
			Expires:  s.ExpiresAt,
			Path:     "/",
			HTTPOnly: true,
			Secure:   h.opts.SecureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
		},
	)
}

// clearSessionCookie signals the client to drop its session reference.
func (h *handlers) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(
		&fiber.Cookie{
			Name:     h.opts.CookieName,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			Path:     "/",
			HTTPOnly: true,
			Secure:   h.opts.SecureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
		},
	)
}

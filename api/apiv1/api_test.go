package apiv1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarium/apiary/session"
	"github.com/apiarium/apiary/storage/model"
)

type testEnv struct {
	app      *fiber.App
	users    *fakeUsers
	hives    *fakeHives
	queens   *fakeQueens
	visits   *fakeVisits
	tracker  *fakeTracker
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:    newFakeUsers(),
		hives:    newFakeHives(),
		queens:   newFakeQueens(),
		visits:   newFakeVisits(),
		tracker:  newFakeTracker(),
		sessions: session.NewManager(session.NewMemoryStore(), time.Hour),
	}
	env.app = fiber.New()
	Register(
		env.app.Group("/api/v1"),
		model.Backends{
			Users:  env.users,
			Hives:  env.hives,
			Queens: env.queens,
			Visits: env.visits,
		},
		env.sessions, env.tracker, nil,
	)
	return env
}

// client is a stateful test client carrying the session cookie and the
// anti-forgery token across requests.
type client struct {
	t    *testing.T
	env  *testEnv
	ref  string
	csrf string
}

func (c *client) do(method, action string, body any, withCSRF bool) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1/?action="+action, &buf)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if c.ref != "" {
		req.AddCookie(&http.Cookie{Name: "apiary_session", Value: c.ref})
	}
	if withCSRF {
		req.Header.Set(csrfHeader, c.csrf)
	}
	resp, err := c.env.app.Test(req, -1)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	for _, ck := range resp.Cookies() {
		if ck.Name == "apiary_session" {
			c.ref = ck.Value
		}
	}
	var parsed map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&parsed))
	if csrf, ok := parsed["csrf"].(string); ok {
		c.csrf = csrf
	}
	return resp.StatusCode, parsed
}

func (c *client) get(action string) (int, map[string]any) {
	return c.do(http.MethodGet, action, nil, false)
}

func (c *client) getQuery(action, query string) (int, map[string]any) {
	return c.do(http.MethodGet, action+"&"+query, nil, false)
}

func (c *client) post(action string, body any) (int, map[string]any) {
	return c.do(http.MethodPost, action, body, true)
}

func (c *client) login(username, password string) (int, map[string]any) {
	return c.do(
		http.MethodPost, "login",
		map[string]any{"username": username, "password": password}, false,
	)
}

func seedUser(t *testing.T, env *testEnv, username, password string, role model.Role) *model.User {
	t.Helper()
	u, err := env.users.Create(username, password, role)
	require.NoError(t, err)
	return u
}

func TestUnknownActionIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	c := &client{t: t, env: env}
	status, body := c.get("does_not_exist")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Unknown action", body["error"])
}

func TestWrongVerbIsMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	c := &client{t: t, env: env}
	status, body := c.get("login")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestReadsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	c := &client{t: t, env: env}
	for _, action := range []string{"locations", "queens", "users_list"} {
		status, body := c.get(action)
		assert.Equal(t, http.StatusUnauthorized, status, action)
		assert.Equal(t, "Unauthorized", body["error"], action)
	}
}

func TestMeHandsOutAnonymousSession(t *testing.T) {
	env := newTestEnv(t)
	c := &client{t: t, env: env}
	status, body := c.get("me")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["user"])
	assert.NotEmpty(t, c.csrf)
	assert.NotEmpty(t, c.ref)

	// The anonymous session must not pass the identity gate.
	status, _ = c.get("locations")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminBootstrap(t *testing.T) {
	env := newTestEnv(t)
	c := &client{t: t, env: env}

	status, body := c.get("admin_bootstrap_status")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["exists"])

	// Bootstrap is public but mutating, so it needs the anonymous
	// session's token.
	c.get("me")

	status, body = c.post("admin_bootstrap_create", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Confirmation required", body["error"])

	status, _ = c.post("admin_bootstrap_create", map[string]any{"confirm": true})
	require.Equal(t, http.StatusCreated, status)

	status, body = c.get("admin_bootstrap_status")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["exists"])

	status, body = c.post("admin_bootstrap_create", map[string]any{"confirm": true})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Admin already exists", body["error"])

	status, _ = c.login("admin", "admin")
	assert.Equal(t, http.StatusOK, status)
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}

	status, body := c.login("beekeeper", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["error"])

	status, body = c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "beekeeper", user["username"])
	assert.Equal(t, "contributor", user["role"])
	require.NotEmpty(t, c.csrf)

	status, _ = c.get("locations")
	assert.Equal(t, http.StatusOK, status)

	ref := c.ref
	status, _ = c.post("logout", nil)
	require.Equal(t, http.StatusOK, status)

	// The destroyed reference must not resolve anymore.
	c.ref = ref
	status, _ = c.get("locations")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginRotatesSessionReference(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}

	c.get("me")
	anonRef := c.ref
	require.NotEmpty(t, anonRef)

	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, anonRef, c.ref)

	// The pre-login reference is destroyed at login.
	authedRef := c.ref
	c.ref = anonRef
	status, _ = c.get("locations")
	assert.Equal(t, http.StatusUnauthorized, status)
	c.ref = authedRef
}

func TestLockoutClearsCredential(t *testing.T) {
	env := newTestEnv(t)
	u := seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}

	for i := 0; i < 3; i++ {
		status, body := c.login("beekeeper", "wrong")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid credentials", body["error"])
	}

	stored, err := env.users.GetByID(u.ID)
	require.NoError(t, err)
	assert.True(t, stored.Locked())

	// The correct password is answered exactly like a wrong one.
	status, body := c.login("beekeeper", "hunter2hunter")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["error"])

	// An admin password reset restores access.
	require.NoError(t, env.users.SetPassword(u.ID, "12345678"))
	require.NoError(t, env.tracker.Clear("beekeeper"))
	status, _ = c.login("beekeeper", "12345678")
	assert.Equal(t, http.StatusOK, status)
}

func TestSuccessfulLoginResetsFailureCounter(t *testing.T) {
	env := newTestEnv(t)
	u := seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}

	c.login("beekeeper", "wrong")
	c.login("beekeeper", "wrong")
	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	// Two more failures start from zero and stay under the threshold.
	c.login("beekeeper", "wrong")
	c.login("beekeeper", "wrong")
	stored, err := env.users.GetByID(u.ID)
	require.NoError(t, err)
	assert.False(t, stored.Locked())
}

func TestFailureCounterKeyedByStoredUsername(t *testing.T) {
	env := newTestEnv(t)
	u := seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}

	// The store resolves every casing variant to the same account, so
	// the failures must pool in a single counter.
	c.login("Beekeeper", "wrong")
	c.login("BEEKEEPER", "wrong")
	c.login("beekeeper", "wrong")

	assert.Equal(t, map[string]int{"beekeeper": 3}, env.tracker.counts)
	stored, err := env.users.GetByID(u.ID)
	require.NoError(t, err)
	assert.True(t, stored.Locked())
}

func TestLoginClearsCounterOfStoredUsername(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}

	c.login("BEEKEEPER", "wrong")
	c.login("BEEKEEPER", "wrong")
	status, _ := c.login("Beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	assert.Empty(t, env.tracker.counts)
}

func TestUnknownUsernameDoesNotFeedCounter(t *testing.T) {
	env := newTestEnv(t)
	c := &client{t: t, env: env}
	for i := 0; i < 5; i++ {
		status, body := c.login("ghost", "whatever")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid credentials", body["error"])
	}
	assert.Empty(t, env.tracker.counts)
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}
	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	status, body := c.do(http.MethodPost, "hive_create", map[string]any{"number": "7"}, false)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Invalid CSRF token", body["error"])

	saved := c.csrf
	c.csrf = "forged"
	status, _ = c.post("hive_create", map[string]any{"number": "7"})
	assert.Equal(t, http.StatusForbidden, status)
	c.csrf = saved

	status, _ = c.post("hive_create", map[string]any{"number": "7"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestReadOnlyRoleCannotWrite(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "viewer", "hunter2hunter", model.RoleReadOnly)
	c := &client{t: t, env: env}
	status, _ := c.login("viewer", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	status, _ = c.get("locations")
	assert.Equal(t, http.StatusOK, status)

	for action, body := range map[string]any{
		"hive_create":  map[string]any{"number": "7"},
		"visit_create": map[string]any{"hive_id": 1},
		"queen_delete": map[string]any{"id": 1},
	} {
		status, resp := c.post(action, body)
		assert.Equal(t, http.StatusForbidden, status, action)
		assert.Equal(t, "Forbidden", resp["error"], action)
	}
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}
	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	status, _ = c.get("users_list")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.post(
		"user_create", map[string]any{"username": "x", "password": "longenough"},
	)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	admin := seedUser(t, env, "admin", "adminpassword", model.RoleAdmin)
	c := &client{t: t, env: env}
	status, _ := c.login("admin", "adminpassword")
	require.Equal(t, http.StatusOK, status)

	status, body := c.post(
		"user_create",
		map[string]any{"username": "helper", "password": "short"},
	)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Password must be at least 7 characters", body["error"])

	status, body = c.post(
		"user_create",
		map[string]any{"username": "helper", "password": "longenough"},
	)
	require.Equal(t, http.StatusCreated, status)
	helperID := uint(body["id"].(float64))
	helper, err := env.users.GetByID(helperID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleContributor, helper.Role)

	status, body = c.post(
		"user_create",
		map[string]any{"username": "helper", "password": "longenough"},
	)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username already exists", body["error"])

	status, _ = c.post(
		"user_update_role", map[string]any{"id": helperID, "role": "readonly"},
	)
	require.Equal(t, http.StatusOK, status)

	status, body = c.post(
		"user_update_role", map[string]any{"id": admin.ID, "role": "readonly"},
	)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Cannot change your own role", body["error"])

	status, body = c.post("user_delete", map[string]any{"id": admin.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot delete current user", body["error"])

	status, body = c.post("user_reset_password", map[string]any{"id": helperID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "12345678", body["password"])

	status, _ = c.post("user_delete", map[string]any{"id": helperID})
	assert.Equal(t, http.StatusOK, status)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}
	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	status, body := c.post(
		"change_password",
		map[string]any{"current_password": "hunter2hunter", "new_password": "short"},
	)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "New password must be at least 7 characters", body["error"])

	status, body = c.post(
		"change_password",
		map[string]any{"current_password": "wrong", "new_password": "freshpassword"},
	)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["error"])

	status, _ = c.post(
		"change_password",
		map[string]any{"current_password": "hunter2hunter", "new_password": "freshpassword"},
	)
	require.Equal(t, http.StatusOK, status)

	c2 := &client{t: t, env: env}
	status, _ = c2.login("beekeeper", "freshpassword")
	assert.Equal(t, http.StatusOK, status)
}

func TestHiveCreateInsertsInitialVisit(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}
	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	status, body := c.post("hive_create", map[string]any{"number": "12"})
	require.Equal(t, http.StatusCreated, status)
	hiveID := uint(body["id"].(float64))

	last, err := env.visits.LastForHive(hiveID)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.NotNil(t, last.Location)
	assert.Equal(t, "NEW", *last.Location)
	assert.Equal(t, time.Now().Format("2006-01-02"), last.Date)
}

func TestVisitDefaultsCarryOverLastVisit(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}
	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	hive, err := env.hives.Create("3", false)
	require.NoError(t, err)

	status, body := c.getQuery("visit_defaults", "id=1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["has_last_visit"])

	location := "South field"
	queenID := uint(9)
	strength := "strong"
	gentleness := "calm"
	todo := "add super"
	_, err = env.visits.Create(
		model.Visit{
			HiveID:         hive.ID,
			Date:           "2026-08-30",
			Location:       &location,
			QueenID:        &queenID,
			ColonyStrength: &strength,
			Gentleness:     &gentleness,
			Todo:           &todo,
		},
	)
	require.NoError(t, err)

	// The whole last visit carries over, observations included; only the
	// date is replaced by today's.
	status, body = c.getQuery("visit_defaults", "id=1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["has_last_visit"])
	defaults := body["defaults"].(map[string]any)
	assert.Equal(t, "South field", defaults["location"])
	assert.Equal(t, float64(9), defaults["queen_id"])
	assert.Equal(t, "strong", defaults["colony_strength"])
	assert.Equal(t, "calm", defaults["gentleness"])
	assert.Equal(t, "add super", defaults["todo"])
	assert.Equal(t, time.Now().Format("2006-01-02"), defaults["date"])
}

func TestVisitCreateRequiresHive(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "beekeeper", "hunter2hunter", model.RoleContributor)
	c := &client{t: t, env: env}
	status, _ := c.login("beekeeper", "hunter2hunter")
	require.Equal(t, http.StatusOK, status)

	status, body := c.post("visit_create", map[string]any{"date": "2026-08-30"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "hive_id required", body["error"])

	status, body = c.post("visit_create", map[string]any{"hive_id": 42})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Hive not found", body["error"])

	hive, err := env.hives.Create("5", false)
	require.NoError(t, err)
	status, _ = c.post("visit_create", map[string]any{"hive_id": hive.ID})
	assert.Equal(t, http.StatusCreated, status)
}

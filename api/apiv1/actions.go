package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// Action is the operation identifier carried on each request. The set of
// actions is closed: every action is registered with its HTTP verb and
// required access level, so the authorization table is part of the
// registry instead of string-set membership checks.
type Action string

const (
	ActionMe                   Action = "me"
	ActionAdminBootstrapStatus Action = "admin_bootstrap_status"
	ActionAdminBootstrapCreate Action = "admin_bootstrap_create"
	ActionLogin                Action = "login"
	ActionLogout               Action = "logout"
	ActionChangePassword       Action = "change_password"

	ActionUsersList         Action = "users_list"
	ActionUserCreate        Action = "user_create"
	ActionUserDelete        Action = "user_delete"
	ActionUserUpdateRole    Action = "user_update_role"
	ActionUserResetPassword Action = "user_reset_password"

	ActionLocations       Action = "locations"
	ActionHivesByLocation Action = "hives_by_location"
	ActionHive            Action = "hive"
	ActionHiveCreate      Action = "hive_create"
	ActionHiveUpdate      Action = "hive_update"

	ActionQueens       Action = "queens"
	ActionQueenOptions Action = "queen_options"
	ActionQueen        Action = "queen"
	ActionQueenCreate  Action = "queen_create"
	ActionQueenUpdate  Action = "queen_update"
	ActionQueenDelete  Action = "queen_delete"

	ActionVisitsByHive  Action = "visits_by_hive"
	ActionVisit         Action = "visit"
	ActionVisitDefaults Action = "visit_defaults"
	ActionVisitCreate   Action = "visit_create"
	ActionVisitUpdate   Action = "visit_update"
	ActionVisitDelete   Action = "visit_delete"
)

// Access is the access level an action statically requires.
type Access int

const (
	// AccessPublic actions skip the identity requirement
	AccessPublic Access = iota
	// AccessAuthenticated actions require a session with any role
	AccessAuthenticated
	// AccessWrite actions require the admin or contributor role
	AccessWrite
	// AccessAdmin actions require the admin role
	AccessAdmin
)

// actionSpec binds an action to its verb, access level, and handler.
type actionSpec struct {
	Method  string
	Access  Access
	Handler fiber.Handler
}

// registry returns the full action table. Mutating actions are POST; the
// gate requires the anti-forgery token on every POST except login.
func (h *handlers) registry() map[Action]actionSpec {
	return map[Action]actionSpec{
		ActionMe:                   {fiber.MethodGet, AccessPublic, h.me},
		ActionAdminBootstrapStatus: {fiber.MethodGet, AccessPublic, h.adminBootstrapStatus},
		ActionAdminBootstrapCreate: {fiber.MethodPost, AccessPublic, h.adminBootstrapCreate},
		ActionLogin:                {fiber.MethodPost, AccessPublic, h.login},
		ActionLogout:               {fiber.MethodPost, AccessAuthenticated, h.logout},
		ActionChangePassword:       {fiber.MethodPost, AccessAuthenticated, h.changePassword},

		ActionUsersList:         {fiber.MethodGet, AccessAdmin, h.usersList},
		ActionUserCreate:        {fiber.MethodPost, AccessAdmin, h.userCreate},
		ActionUserDelete:        {fiber.MethodPost, AccessAdmin, h.userDelete},
		ActionUserUpdateRole:    {fiber.MethodPost, AccessAdmin, h.userUpdateRole},
		ActionUserResetPassword: {fiber.MethodPost, AccessAdmin, h.userResetPassword},

		ActionLocations:       {fiber.MethodGet, AccessAuthenticated, h.locations},
		ActionHivesByLocation: {fiber.MethodGet, AccessAuthenticated, h.hivesByLocation},
		ActionHive:            {fiber.MethodGet, AccessAuthenticated, h.hive},
		ActionHiveCreate:      {fiber.MethodPost, AccessWrite, h.hiveCreate},
		ActionHiveUpdate:      {fiber.MethodPost, AccessWrite, h.hiveUpdate},

		ActionQueens:       {fiber.MethodGet, AccessAuthenticated, h.queens},
		ActionQueenOptions: {fiber.MethodGet, AccessAuthenticated, h.queenOptions},
		ActionQueen:        {fiber.MethodGet, AccessAuthenticated, h.queen},
		ActionQueenCreate:  {fiber.MethodPost, AccessWrite, h.queenCreate},
		ActionQueenUpdate:  {fiber.MethodPost, AccessWrite, h.queenUpdate},
		ActionQueenDelete:  {fiber.MethodPost, AccessWrite, h.queenDelete},

		ActionVisitsByHive:  {fiber.MethodGet, AccessAuthenticated, h.visitsByHive},
		ActionVisit:         {fiber.MethodGet, AccessAuthenticated, h.visit},
		ActionVisitDefaults: {fiber.MethodGet, AccessAuthenticated, h.visitDefaults},
		ActionVisitCreate:   {fiber.MethodPost, AccessWrite, h.visitCreate},
		ActionVisitUpdate:   {fiber.MethodPost, AccessWrite, h.visitUpdate},
		ActionVisitDelete:   {fiber.MethodPost, AccessWrite, h.visitDelete},
	}
}

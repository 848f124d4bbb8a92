package model

import (
	"errors"
	"time"
)

// Role determines which actions a user's sessions may invoke.
type Role string

const (
	// RoleAdmin may invoke every action, including user management
	RoleAdmin Role = "admin"
	// RoleContributor may read and modify apiary records
	RoleContributor Role = "contributor"
	// RoleReadOnly may only invoke read actions
	RoleReadOnly Role = "readonly"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleContributor, RoleReadOnly:
		return true
	default:
		return false
	}
}

// CanWrite reports whether r may create, edit, or delete apiary records.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleContributor
}

// Sentinel errors returned by UsersStore.VerifyPassword so that the login
// flow can distinguish a usable-but-wrong credential from a cleared one.
// Both must surface to clients as the same uniform invalid-credentials
// response.
var (
	// ErrNoCredential signals that the account's credential was cleared
	// (locked out) and a password login cannot succeed until an
	// administrator resets it.
	ErrNoCredential = errors.New("account has no usable credential")
	// ErrBadPassword signals that the presented password did not match
	// the stored credential.
	ErrBadPassword = errors.New("password verification failed")
)

// User represents an account in the web interface.
// An empty PasswordHash means the credential is absent: the account is
// locked and cannot authenticate by password.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	// Username is the unique login identifier
	Username string `gorm:"uniqueIndex" json:"username"`
	// PasswordHash stores a PHC-formatted argon2id hash, or "" when the
	// credential has been cleared
	PasswordHash string `json:"-"`
	// Role is the single role assigned to this user
	Role Role `gorm:"type:varchar(16)" json:"role"`
	// LastLogin is the time of the last successful login, if any
	LastLogin *time.Time `json:"last_login"`
}

// Locked reports whether the account's credential is absent.
func (u User) Locked() bool {
	return u.PasswordHash == ""
}

// UsersStore abstracts CRUD and authentication helpers for users.
type UsersStore interface {
	// CountAdmins returns the number of users with the admin role
	CountAdmins() (int64, error)
	// List returns all users (without password hashes)
	List() ([]User, error)
	// Get returns a user by username; the password hash is not stripped
	// so that callers can inspect credential presence
	Get(username string) (*User, error)
	// GetByID returns a user by id; the password hash is not stripped
	GetByID(id uint) (*User, error)
	// Create creates a user; the implementation hashes the password
	Create(username, password string, role Role) (*User, error)
	// Delete deletes a user by id
	Delete(id uint) error
	// UpdateRole assigns a new role to the user
	UpdateRole(id uint, role Role) error
	// SetPassword replaces the user's credential with a hash of password
	SetPassword(id uint, password string) error
	// SetRoleAndPassword atomically assigns a role and a fresh credential
	SetRoleAndPassword(id uint, role Role, password string) error
	// ClearCredential removes the user's credential, locking the account
	ClearCredential(id uint) error
	// VerifyPassword checks the password of the user with the given id.
	// It returns NotFoundError when no such user exists, ErrNoCredential
	// when the credential is absent, and ErrBadPassword on mismatch.
	VerifyPassword(id uint, password string) error
	// TouchLastLogin updates the last-login timestamp
	TouchLastLogin(id uint) error
}

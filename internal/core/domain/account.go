package domain

import "time"

const (
	RoleSeller = "seller"
	RoleAdmin  = "admin"
	// RoleManager is accepted by authorization checks but can never be
	// assigned through signup or update.
	RoleManager = "manager"
)

// AssignableRoles lists the roles an account may be persisted with.
var AssignableRoles = []string{RoleSeller, RoleAdmin}

// IsPrivileged reports whether role may read, modify or delete any account.
func IsPrivileged(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

// Account is a persisted seller or admin identity.
type Account struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
}

// AccountPatch carries the fields of a partial update. Nil fields are left
// untouched by the store; LastUpdated is always written.
type AccountPatch struct {
	FirstName    *string
	LastName     *string
	Username     *string
	Email        *string
	Role         *string
	PasswordHash *string
	LastUpdated  time.Time
}

// Requester is the authenticated identity on whose behalf a call is made.
type Requester struct {
	ID    string
	Email string
	Role  string
}

// CanManage reports whether the requester may modify the account with id.
func (r Requester) CanManage(id string) bool {
	return IsPrivileged(r.Role) || (r.ID != "" && r.ID == id)
}

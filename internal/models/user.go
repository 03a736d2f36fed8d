package models

import "time"

// User roles. Admins may list users and delete books.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a registered library member. PasswordHash is persisted but must
// never leave the server; handlers respond with Sanitized copies.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sanitized returns a copy safe to serve to clients.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

package model

import "time"

// Role represents a row in the `roles` table.  Roles are referenced by
// users and are never soft deleted.
type Role struct {
	ID   int64  `json:"role_id"`
	Name string `json:"role_name"`
}

// User represents a row in the `users` table joined with its role name.
// PasswordHash is loaded only for credential checks and is never serialized.
type User struct {
	ID           int64      `json:"user_id"`
	RoleID       int64      `json:"role_id"`
	RoleName     string     `json:"role_name,omitempty"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    *string    `json:"first_name"`
	LastName     *string    `json:"last_name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}

// Deleted reports whether the user has been soft deleted.
func (u User) Deleted() bool { return u.DeletedAt != nil }

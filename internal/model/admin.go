package model

import "time"

// Admin represents an administrator who manages site content through the
// admin API. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AdminProfile is the sanitized view of an Admin returned to API clients.
type AdminProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Profile returns the admin's public profile.
func (a *Admin) Profile() AdminProfile {
	return AdminProfile{
		ID:       a.ID,
		Username: a.Username,
		Name:     a.Name,
		Email:    a.Email,
	}
}

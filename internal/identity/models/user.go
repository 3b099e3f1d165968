// Package models defines the identities known to the system and their login
// sessions.
package models

import (
	"regexp"
	"strings"
	"time"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is an identity that can authenticate and act on cases.
type User struct {
	ID           id.UserID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         id.Role   `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser constructs a user, enforcing the identity invariants.
func NewUser(userID id.UserID, name, email string, role id.Role, passwordHash string, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "email %q is malformed", email)
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user role is invalid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	return &User{
		ID:           userID,
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Profile is the caller-facing projection of a user, as returned by /auth/me.
type Profile struct {
	ID    id.UserID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  id.Role   `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

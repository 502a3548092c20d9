package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Rank orders roles so that a higher role satisfies any lower requirement.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Identity is a registered account. PasswordHash never leaves the service boundary.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (i *Identity) IsActive() bool {
	return i.Status == "" || i.Status == StatusActive
}

func (i *Identity) Summary() *IdentitySummary {
	return &IdentitySummary{ID: i.ID, Name: i.Name, Email: i.Email}
}

// IdentitySummary is the public projection embedded into movie and rating reads.
type IdentitySummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Package storage records authentication attempts and the users seen by
// the gateway. The audit trail answers "why did this user end up where
// they did" after the fact; it is never on the critical path of a
// routing decision.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a user doesn't exist
var ErrUserNotFound = errors.New("user not found")

// AuthAttempt is one terminal pipeline outcome: either a routing decision
// or a typed error, never both.
type AuthAttempt struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Flow      string    `json:"flow"`
	Decision  string    `json:"decision,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserInfo represents a user who has authenticated through the gateway
type UserInfo struct {
	Email     string    `json:"email"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	IsAdmin   bool      `json:"is_admin"`
}

// Storage combines the gateway's persistence needs.
type Storage interface {
	// Attempt audit trail
	RecordAttempt(ctx context.Context, attempt AuthAttempt) error
	ListAttempts(ctx context.Context, limit int) ([]AuthAttempt, error)

	// User tracking (upserted on every successful bootstrap)
	UpsertUser(ctx context.Context, email string) error
	GetUser(ctx context.Context, email string) (*UserInfo, error)
	GetAllUsers(ctx context.Context) ([]UserInfo, error)
	SetUserAdmin(ctx context.Context, email string, isAdmin bool) error
}

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/emailutil"
)

// Ensure MemoryStorage implements the interface
var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps everything in process. Suitable for development and
// tests; production deployments use Firestore.
type MemoryStorage struct {
	attemptsMutex sync.RWMutex
	attempts      []AuthAttempt

	usersMutex sync.RWMutex
	users      map[string]*UserInfo // keyed by normalized email
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[string]*UserInfo),
	}
}

// RecordAttempt appends an attempt to the audit trail.
func (s *MemoryStorage) RecordAttempt(_ context.Context, attempt AuthAttempt) error {
	s.attemptsMutex.Lock()
	defer s.attemptsMutex.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

// ListAttempts returns the most recent attempts, newest first.
func (s *MemoryStorage) ListAttempts(_ context.Context, limit int) ([]AuthAttempt, error) {
	s.attemptsMutex.RLock()
	defer s.attemptsMutex.RUnlock()

	out := make([]AuthAttempt, len(s.attempts))
	copy(out, s.attempts)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertUser creates or refreshes the user record for an email.
func (s *MemoryStorage) UpsertUser(_ context.Context, email string) error {
	email = emailutil.Normalize(email)
	if email == "" {
		return nil
	}

	s.usersMutex.Lock()
	defer s.usersMutex.Unlock()

	now := time.Now()
	if user, ok := s.users[email]; ok {
		user.LastSeen = now
		return nil
	}
	s.users[email] = &UserInfo{
		Email:     email,
		FirstSeen: now,
		LastSeen:  now,
	}
	return nil
}

// GetUser retrieves a user by email.
func (s *MemoryStorage) GetUser(_ context.Context, email string) (*UserInfo, error) {
	s.usersMutex.RLock()
	defer s.usersMutex.RUnlock()

	user, ok := s.users[emailutil.Normalize(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// GetAllUsers returns every known user.
func (s *MemoryStorage) GetAllUsers(_ context.Context) ([]UserInfo, error) {
	s.usersMutex.RLock()
	defer s.usersMutex.RUnlock()

	out := make([]UserInfo, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// SetUserAdmin flips the admin flag on an existing user.
func (s *MemoryStorage) SetUserAdmin(_ context.Context, email string, isAdmin bool) error {
	s.usersMutex.Lock()
	defer s.usersMutex.Unlock()

	user, ok := s.users[emailutil.Normalize(email)]
	if !ok {
		return ErrUserNotFound
	}
	user.IsAdmin = isAdmin
	return nil
}

package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/emailutil"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStorage persists the audit trail and user records in Google
// Cloud Firestore.
//
// Error handling strategy mirrors the rest of the gateway: reads return
// errors (admin surfaces need real answers), attempt writes log and
// continue (auditing must never block authentication).
type FirestoreStorage struct {
	client             *firestore.Client
	attemptsCollection string
	usersCollection    string
}

var _ Storage = (*FirestoreStorage)(nil)

// attemptDoc is the Firestore representation of an AuthAttempt.
type attemptDoc struct {
	ID        string    `firestore:"id"`
	Email     string    `firestore:"email,omitempty"`
	Flow      string    `firestore:"flow"`
	Decision  string    `firestore:"decision,omitempty"`
	ErrorCode string    `firestore:"error_code,omitempty"`
	CreatedAt time.Time `firestore:"created_at"`
}

// userDoc is the Firestore representation of a UserInfo.
type userDoc struct {
	Email     string    `firestore:"email"`
	FirstSeen time.Time `firestore:"first_seen"`
	LastSeen  time.Time `firestore:"last_seen"`
	IsAdmin   bool      `firestore:"is_admin"`
}

// NewFirestoreStorage connects to Firestore in the given project and
// database. database may be empty for the default database.
func NewFirestoreStorage(ctx context.Context, projectID, database string) (*FirestoreStorage, error) {
	var client *firestore.Client
	var err error
	if database == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	}
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &FirestoreStorage{
		client:             client,
		attemptsCollection: "auth_attempts",
		usersCollection:    "auth_users",
	}, nil
}

// Close releases the underlying client.
func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}

// RecordAttempt writes the attempt. Failures are logged, not returned:
// auditing never blocks authentication.
func (s *FirestoreStorage) RecordAttempt(ctx context.Context, attempt AuthAttempt) error {
	doc := attemptDoc{
		ID:        attempt.ID,
		Email:     emailutil.Normalize(attempt.Email),
		Flow:      attempt.Flow,
		Decision:  attempt.Decision,
		ErrorCode: attempt.ErrorCode,
		CreatedAt: attempt.CreatedAt,
	}
	if _, err := s.client.Collection(s.attemptsCollection).Doc(attempt.ID).Set(ctx, doc); err != nil {
		log.LogErrorWithFields("storage", "Failed to record auth attempt", map[string]any{
			"attempt": attempt.ID,
			"error":   err.Error(),
		})
	}
	return nil
}

// ListAttempts returns the most recent attempts, newest first.
func (s *FirestoreStorage) ListAttempts(ctx context.Context, limit int) ([]AuthAttempt, error) {
	query := s.client.Collection(s.attemptsCollection).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var attempts []AuthAttempt
	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating attempts: %w", err)
		}

		var doc attemptDoc
		if err := snap.DataTo(&doc); err != nil {
			log.LogWarnWithFields("storage", "Skipping malformed attempt document", map[string]any{
				"doc":   snap.Ref.ID,
				"error": err.Error(),
			})
			continue
		}
		attempts = append(attempts, AuthAttempt{
			ID:        doc.ID,
			Email:     doc.Email,
			Flow:      doc.Flow,
			Decision:  doc.Decision,
			ErrorCode: doc.ErrorCode,
			CreatedAt: doc.CreatedAt,
		})
	}
	return attempts, nil
}

// UpsertUser creates or refreshes the user record for an email.
func (s *FirestoreStorage) UpsertUser(ctx context.Context, email string) error {
	email = emailutil.Normalize(email)
	if email == "" {
		return nil
	}

	ref := s.client.Collection(s.usersCollection).Doc(email)
	now := time.Now()

	snap, err := ref.Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("reading user %s: %w", email, err)
	}

	if err == nil && snap.Exists() {
		_, err = ref.Update(ctx, []firestore.Update{{Path: "last_seen", Value: now}})
		if err != nil {
			log.LogWarnWithFields("storage", "Failed to refresh user record", map[string]any{
				"email": emailutil.Redact(email),
				"error": err.Error(),
			})
		}
		return nil
	}

	_, err = ref.Set(ctx, userDoc{
		Email:     email,
		FirstSeen: now,
		LastSeen:  now,
	})
	if err != nil {
		log.LogWarnWithFields("storage", "Failed to create user record", map[string]any{
			"email": emailutil.Redact(email),
			"error": err.Error(),
		})
	}
	return nil
}

// GetUser retrieves a user by email.
func (s *FirestoreStorage) GetUser(ctx context.Context, email string) (*UserInfo, error) {
	email = emailutil.Normalize(email)
	snap, err := s.client.Collection(s.usersCollection).Doc(email).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading user %s: %w", email, err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", email, err)
	}
	return &UserInfo{
		Email:     doc.Email,
		FirstSeen: doc.FirstSeen,
		LastSeen:  doc.LastSeen,
		IsAdmin:   doc.IsAdmin,
	}, nil
}

// GetAllUsers returns every known user.
func (s *FirestoreStorage) GetAllUsers(ctx context.Context) ([]UserInfo, error) {
	var users []UserInfo
	iter := s.client.Collection(s.usersCollection).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating users: %w", err)
		}

		var doc userDoc
		if err := snap.DataTo(&doc); err != nil {
			continue
		}
		users = append(users, UserInfo{
			Email:     doc.Email,
			FirstSeen: doc.FirstSeen,
			LastSeen:  doc.LastSeen,
			IsAdmin:   doc.IsAdmin,
		})
	}
	return users, nil
}

// SetUserAdmin flips the admin flag on an existing user.
func (s *FirestoreStorage) SetUserAdmin(ctx context.Context, email string, isAdmin bool) error {
	email = emailutil.Normalize(email)
	ref := s.client.Collection(s.usersCollection).Doc(email)
	_, err := ref.Update(ctx, []firestore.Update{{Path: "is_admin", Value: isAdmin}})
	if status.Code(err) == codes.NotFound {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("updating user %s: %w", email, err)
	}
	return nil
}

// Package testutil provides shared fakes for the provider capability
// surface and the invitation checker.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
)

// FakeProviderClient implements provider.Client with function fields and
// an in-process event hub. Tests push events with Emit; the zero value is
// usable and behaves as "no session anywhere".
type FakeProviderClient struct {
	ExchangeCodeFunc      func(ctx context.Context, code string) (*provider.Session, error)
	SessionFromTokensFunc func(ctx context.Context, accessToken, refreshToken string) (*provider.Session, error)
	CurrentSessionFunc    func(ctx context.Context) (*provider.Session, error)

	mu          sync.Mutex
	subscribers map[int]func(provider.Event)
	nextID      int

	ExchangeCalls int
	TokenCalls    int
	CurrentCalls  int
}

func (f *FakeProviderClient) ExchangeCode(ctx context.Context, code string) (*provider.Session, error) {
	f.mu.Lock()
	f.ExchangeCalls++
	fn := f.ExchangeCodeFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, errors.New("unexpected ExchangeCode call")
	}
	return fn(ctx, code)
}

func (f *FakeProviderClient) SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*provider.Session, error) {
	f.mu.Lock()
	f.TokenCalls++
	fn := f.SessionFromTokensFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, errors.New("unexpected SessionFromTokens call")
	}
	return fn(ctx, accessToken, refreshToken)
}

func (f *FakeProviderClient) CurrentSession(ctx context.Context) (*provider.Session, error) {
	f.mu.Lock()
	f.CurrentCalls++
	fn := f.CurrentSessionFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

func (f *FakeProviderClient) OnAuthEvent(fn func(provider.Event)) provider.Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers == nil {
		f.subscribers = make(map[int]func(provider.Event))
	}
	id := f.nextID
	f.nextID++
	f.subscribers[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subscribers, id)
	}
}

// Emit delivers an event to every current subscriber, synchronously on
// the caller's goroutine.
func (f *FakeProviderClient) Emit(ev provider.Event) {
	f.mu.Lock()
	fns := make([]func(provider.Event), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SubscriberCount reports how many subscriptions are currently attached.
func (f *FakeProviderClient) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// FakeInviteChecker implements invite.Checker over a fixed allow set.
type FakeInviteChecker struct {
	Invited map[string]bool
	Err     error
	Calls   int
}

func (f *FakeInviteChecker) HasValidInvitation(ctx context.Context, email string) (bool, error) {
	f.Calls++
	if f.Err != nil {
		return false, f.Err
	}
	return f.Invited[email], nil
}

// TestSession builds a session with complete metadata for the given user.
func TestSession(id, email string) *provider.Session {
	return &provider.Session{
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		User: provider.User{
			ID:    id,
			Email: email,
			Metadata: provider.UserMetadata{
				Nom:    "Dupont",
				Prenom: "Jean",
				Statut: "artisan",
			},
		},
	}
}

package provider

import (
	"context"
	"sync"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"golang.org/x/sync/singleflight"
)

// AttemptClient binds the shared HTTP client to one callback attempt: the
// ambient token pair the browser presented, and an event watcher scoped to
// that attempt. The provider offers no push channel for auth events, so the
// watcher synthesizes the stream by polling get-current-session and
// reporting transitions.
type AttemptClient struct {
	base          *HTTPClient
	ambientAccess string
	ambientRefr   string
	pollInterval  time.Duration

	group singleflight.Group

	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
	stop   chan struct{}
}

// ForAttempt creates the per-attempt view of the provider. The token pair
// may be empty when the browser presented no prior session.
func (c *HTTPClient) ForAttempt(ambientAccess, ambientRefresh string, pollInterval time.Duration) *AttemptClient {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	return &AttemptClient{
		base:          c,
		ambientAccess: ambientAccess,
		ambientRefr:   ambientRefresh,
		pollInterval:  pollInterval,
		subs:          make(map[int]func(Event)),
	}
}

// ExchangeCode delegates to the shared client.
func (a *AttemptClient) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	return a.base.ExchangeCode(ctx, code)
}

// SessionFromTokens delegates to the shared client.
func (a *AttemptClient) SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	return a.base.SessionFromTokens(ctx, accessToken, refreshToken)
}

// CurrentSession returns the ambient session derived from the token pair
// bound to this attempt, or (nil, nil) when there is none. Concurrent
// lookups (the exchanger and the event watcher can overlap) share one
// provider round-trip.
func (a *AttemptClient) CurrentSession(ctx context.Context) (*Session, error) {
	if a.ambientAccess == "" && a.ambientRefr == "" {
		return nil, nil
	}

	v, err, _ := a.group.Do("current", func() (any, error) {
		sess, err := a.base.SessionFromTokens(ctx, a.ambientAccess, a.ambientRefr)
		if err != nil {
			// A stale or revoked pair is not an error: it just means no
			// ambient session, and the caller falls through to listening.
			log.LogDebugWithFields("provider", "Ambient session lookup failed", map[string]any{
				"error": err.Error(),
			})
			return (*Session)(nil), nil
		}
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// OnAuthEvent subscribes fn to this attempt's event stream. The first
// subscriber starts the poller; unsubscribing the last one stops it.
func (a *AttemptClient) OnAuthEvent(fn func(Event)) Unsubscribe {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	if a.stop == nil {
		a.stop = make(chan struct{})
		go a.poll(a.stop)
	}
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			if len(a.subs) == 0 && a.stop != nil {
				close(a.stop)
				a.stop = nil
			}
			a.mu.Unlock()
		})
	}
}

func (a *AttemptClient) poll(stop chan struct{}) {
	ctx := context.Background()

	sess, _ := a.CurrentSession(ctx)
	a.emit(Event{Type: EventInitialSession, Session: sess})
	present := sess != nil
	if present {
		a.emit(Event{Type: EventSignedIn, Session: sess})
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sess, err := a.CurrentSession(ctx)
			if err != nil {
				continue
			}
			switch {
			case sess != nil && !present:
				present = true
				a.emit(Event{Type: EventSignedIn, Session: sess})
			case sess == nil && present:
				present = false
				a.emit(Event{Type: EventSignedOut})
			}
		}
	}
}

func (a *AttemptClient) emit(ev Event) {
	a.mu.Lock()
	fns := make([]func(Event), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

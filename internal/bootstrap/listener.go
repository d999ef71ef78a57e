package bootstrap

import (
	"context"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/recovery"
)

// Listener waits on the provider's asynchronous auth event stream when no
// session could be established synchronously. It is an explicit state
// machine, Listening until one terminal transition: a recovery signal, a
// session-bearing event, the post-sign-out grace window elapsing, or the
// supervisor's deadline. Exactly one terminal action is guaranteed; the
// subscription is detached on every exit path.
type Listener struct {
	provider     provider.Client
	guard        *recovery.Guard
	signOutGrace time.Duration
}

// NewListener creates a listener. signOutGrace bounds how long a transient
// SIGNED_OUT (providers emit one mid-way through multi-step exchanges) may
// go unanswered before the attempt fails with ErrNoSession.
func NewListener(p provider.Client, guard *recovery.Guard, signOutGrace time.Duration) *Listener {
	if signOutGrace <= 0 {
		signOutGrace = 750 * time.Millisecond
	}
	return &Listener{
		provider:     p,
		guard:        guard,
		signOutGrace: signOutGrace,
	}
}

// listenResult is the single terminal outcome of a listen.
type listenResult struct {
	session  *provider.Session
	recovery bool
}

// Listen blocks until the attempt resolves or ctx expires. The recovery
// check runs before any event-type handling, including SIGNED_IN: recovery
// detection has priority over every other concern. ctx expiry is reported
// as ctx.Err(); the supervisor translates deadline expiry into its
// user-facing timeout.
func (l *Listener) Listen(ctx context.Context, sig recovery.Signals) (*provider.Session, bool, error) {
	events := make(chan provider.Event, 16)
	done := make(chan struct{})
	defer close(done)

	unsubscribe := l.provider.OnAuthEvent(func(ev provider.Event) {
		// The stream can fire after we have resolved; the done guard is
		// the listener-side half of the at-most-once latch.
		select {
		case events <- ev:
		case <-done:
		}
	})
	defer unsubscribe()

	var graceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()

		case <-graceC:
			log.LogDebugWithFields("bootstrap", "Sign-out grace window elapsed with no session", map[string]any{
				"grace": l.signOutGrace.String(),
			})
			return nil, false, ErrNoSession

		case ev := <-events:
			sig.EventType = string(ev.Type)
			if l.guard.Detect(sig) {
				log.LogInfoWithFields("bootstrap", "Recovery signal during event listen", map[string]any{
					"event": ev.Type,
				})
				return nil, true, nil
			}

			switch ev.Type {
			case provider.EventSignedIn, provider.EventTokenRefreshed:
				if ev.Session != nil {
					return ev.Session, false, nil
				}

			case provider.EventSignedOut:
				if graceC == nil {
					timer := time.NewTimer(l.signOutGrace)
					defer timer.Stop()
					graceC = timer.C
				}

			default:
				// INITIAL_SESSION and anything unrecognized: keep listening.
			}
		}
	}
}

// Package recovery decides whether the current attempt is part of a
// password-recovery flow. The provider conflates "user clicked a recovery
// link" with "user is now signed in": both can surface as a plain SIGNED_IN
// event, and the type=recovery marker moves between the query string and the
// hash fragment depending on the redirect shape. Detection is therefore an
// OR across independent signals, and once any of them fires the result is
// sticky for the rest of the attempt.
package recovery

import (
	"net/url"
	"strings"
	"sync/atomic"
)

const recoveryMarker = "type=recovery"

// passwordRecoveryEvent is the provider's explicit recovery event tag.
// It is not always emitted before SIGNED_IN, which is why the URL signals
// exist at all.
const passwordRecoveryEvent = "PASSWORD_RECOVERY"

// Guard is the attempt-scoped recovery flag: a single-writer, monotonic
// state cell. It starts false, flips to true at most once, and is never
// reset within an attempt (a fresh attempt gets a fresh Guard). It is safe
// to read from goroutines that do not share a call stack with the writer,
// which matters because auth events can fire after the component that
// detected recovery is already gone.
type Guard struct {
	flag atomic.Bool
}

// NewGuard returns a guard with the flag unset.
func NewGuard() *Guard {
	return &Guard{}
}

// Mark sets the recovery flag. Monotonic: there is no way to unset it.
func (g *Guard) Mark() {
	g.flag.Store(true)
}

// IsRecovery reports whether recovery has been detected at any point
// during this attempt.
func (g *Guard) IsRecovery() bool {
	return g.flag.Load()
}

// Signals is the bundle of ambient inputs the detector evaluates.
// EventType is empty outside the auth event listener.
type Signals struct {
	Path      string
	Query     string
	Fragment  string
	FullURL   string
	EventType string
}

// Detect evaluates the recovery signals as an OR: any one true means
// recovery. Side effect: on the first true evaluation the guard flag is
// set, so every later check in the attempt also reports recovery even if
// the triggering signal is gone (a second, unrelated SIGNED_IN can fire
// after the recovery redirect has already been issued).
func (g *Guard) Detect(s Signals) bool {
	if g.flag.Load() {
		return true
	}
	if detect(s) {
		g.flag.Store(true)
		return true
	}
	return false
}

// detect is the pure part: no flag, no side effects.
func detect(s Signals) bool {
	if s.EventType == passwordRecoveryEvent {
		return true
	}
	if hasRecoveryType(s.Fragment) {
		return true
	}
	if hasRecoveryType(s.Query) {
		return true
	}
	// Fallback for providers that mis-encode the fragment: the marker is
	// somewhere in the URL even though neither surface parsed it out.
	if strings.Contains(s.FullURL, recoveryMarker) {
		return true
	}
	return false
}

func hasRecoveryType(rawQuery string) bool {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "#"))
	if err != nil {
		// Unparseable surface, fall back to a substring check.
		return strings.Contains(rawQuery, recoveryMarker)
	}
	return values.Get("type") == "recovery"
}

package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userEndpoint serves /auth/v1/user, accepting the given token and
// counting requests.
func userEndpoint(t *testing.T, acceptToken string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			// Refresh attempts fail too: a rejected pair stays rejected.
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"msg": "invalid token"})
			return
		}
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+acceptToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"msg": "invalid token"})
			return
		}
		json.NewEncoder(w).Encode(testUserJSON())
	}))
}

func TestAttemptCurrentSession(t *testing.T) {
	var calls atomic.Int64
	srv := userEndpoint(t, "ambient-at", &calls)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")

	t.Run("no ambient pair", func(t *testing.T) {
		a := c.ForAttempt("", "", time.Second)
		sess, err := a.CurrentSession(context.Background())
		require.NoError(t, err)
		assert.Nil(t, sess)
		assert.Zero(t, calls.Load())
	})

	t.Run("valid ambient pair", func(t *testing.T) {
		a := c.ForAttempt("ambient-at", "ambient-rt", time.Second)
		sess, err := a.CurrentSession(context.Background())
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, "user-1", sess.User.ID)
	})

	t.Run("stale pair means absent, not error", func(t *testing.T) {
		a := c.ForAttempt("stale-at", "stale-rt", time.Second)
		sess, err := a.CurrentSession(context.Background())
		require.NoError(t, err)
		assert.Nil(t, sess)
	})
}

func TestAttemptCurrentSessionDeduplicates(t *testing.T) {
	var calls atomic.Int64
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-gate
		json.NewEncoder(w).Encode(testUserJSON())
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	a := c.ForAttempt("ambient-at", "ambient-rt", time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := a.CurrentSession(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, sess)
		}()
	}

	// Let every goroutine pile onto the in-flight lookup before the
	// backend answers.
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestAttemptEventStream(t *testing.T) {
	var calls atomic.Int64
	srv := userEndpoint(t, "ambient-at", &calls)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")

	t.Run("ambient session yields initial then signed in", func(t *testing.T) {
		a := c.ForAttempt("ambient-at", "ambient-rt", 10*time.Millisecond)

		events := make(chan Event, 16)
		unsub := a.OnAuthEvent(func(ev Event) { events <- ev })
		defer unsub()

		first := waitEvent(t, events)
		assert.Equal(t, EventInitialSession, first.Type)
		require.NotNil(t, first.Session)

		second := waitEvent(t, events)
		assert.Equal(t, EventSignedIn, second.Type)
		require.NotNil(t, second.Session)
		assert.Equal(t, "user-1", second.Session.User.ID)
	})

	t.Run("no ambient session yields empty initial event", func(t *testing.T) {
		a := c.ForAttempt("", "", 10*time.Millisecond)

		events := make(chan Event, 16)
		unsub := a.OnAuthEvent(func(ev Event) { events <- ev })
		defer unsub()

		first := waitEvent(t, events)
		assert.Equal(t, EventInitialSession, first.Type)
		assert.Nil(t, first.Session)

		select {
		case ev := <-events:
			t.Fatalf("unexpected event %s", ev.Type)
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestAttemptUnsubscribeStopsPolling(t *testing.T) {
	var calls atomic.Int64
	srv := userEndpoint(t, "ambient-at", &calls)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	a := c.ForAttempt("ambient-at", "ambient-rt", 5*time.Millisecond)

	unsub := a.OnAuthEvent(func(Event) {})
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)

	unsub()
	// Idempotent.
	unsub()

	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), settled+1)
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

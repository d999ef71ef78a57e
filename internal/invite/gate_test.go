package invite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/testutil"
)

func TestAuthorize(t *testing.T) {
	t.Run("invited email proceeds", func(t *testing.T) {
		checker := &testutil.FakeInviteChecker{Invited: map[string]bool{"jean@chantier.fr": true}}
		g := NewGate(checker)

		err := g.Authorize(context.Background(), "jean@chantier.fr")
		assert.NoError(t, err)
	})

	t.Run("email is normalized before the lookup", func(t *testing.T) {
		checker := &testutil.FakeInviteChecker{Invited: map[string]bool{"jean@chantier.fr": true}}
		g := NewGate(checker)

		err := g.Authorize(context.Background(), "  Jean@Chantier.FR  ")
		assert.NoError(t, err)
	})

	t.Run("uninvited email is refused", func(t *testing.T) {
		checker := &testutil.FakeInviteChecker{}
		g := NewGate(checker)

		err := g.Authorize(context.Background(), "intrus@exemple.fr")
		assert.ErrorIs(t, err, ErrNotInvited)
	})

	t.Run("empty email is refused without a lookup", func(t *testing.T) {
		checker := &testutil.FakeInviteChecker{}
		g := NewGate(checker)

		err := g.Authorize(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrNotInvited)
		assert.Zero(t, checker.Calls)
	})

	t.Run("lookup failure fails closed with a distinct error", func(t *testing.T) {
		boom := errors.New("provider outage")
		checker := &testutil.FakeInviteChecker{Err: boom}
		g := NewGate(checker)

		err := g.Authorize(context.Background(), "jean@chantier.fr")

		var checkErr *CheckError
		require.ErrorAs(t, err, &checkErr)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotInvited)
	})
}

// Package bootstrap runs the callback-to-destination pipeline: parse
// payload, establish a session (synchronously or by listening for auth
// events under a timeout), guard every step with recovery detection, and
// compute exactly one routing decision per attempt.
package bootstrap

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/callback"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/recovery"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/routing"
)

// Pipeline is the per-attempt session bootstrap. Construct one per
// callback attempt: the recovery guard and the resolved latch are scoped
// to a single page lifetime and must not leak across attempts.
type Pipeline struct {
	provider      provider.Client
	guard         *recovery.Guard
	resolver      *routing.Resolver
	listenTimeout time.Duration
	signOutGrace  time.Duration

	resolved atomic.Bool
}

// NewPipeline wires a pipeline for one attempt. listenTimeout bounds the
// event listener (the timeout supervisor); signOutGrace is the transient
// sign-out window.
func NewPipeline(p provider.Client, guard *recovery.Guard, resolver *routing.Resolver, listenTimeout, signOutGrace time.Duration) *Pipeline {
	if listenTimeout <= 0 {
		listenTimeout = 8 * time.Second
	}
	return &Pipeline{
		provider:      p,
		guard:         guard,
		resolver:      resolver,
		listenTimeout: listenTimeout,
		signOutGrace:  signOutGrace,
	}
}

// Result is the attempt's single terminal outcome.
type Result struct {
	Decision routing.Decision
	Session  *provider.Session
	Recovery bool
}

// Run executes the pipeline. At most one Result (or error) is ever
// produced per pipeline; a second call fails with ErrAlreadyResolved.
// Cancellation of ctx (the user navigated away) aborts listening without
// emitting a decision.
func (p *Pipeline) Run(ctx context.Context, params callback.Params) (*Result, error) {
	if !p.resolved.CompareAndSwap(false, true) {
		return nil, ErrAlreadyResolved
	}

	sig := recovery.Signals{
		Path:     params.Path,
		Query:    params.Query,
		Fragment: params.Fragment,
		FullURL:  params.FullURL,
	}

	sess, err := NewExchanger(p.provider).Establish(ctx, params)
	if err != nil {
		return nil, err
	}

	if sess == nil {
		// A recovery marker in the URL decides the destination even before
		// any session materializes; the reset page finishes the handshake.
		if p.guard.Detect(sig) {
			log.LogInfoWithFields("bootstrap", "Recovery flow detected before session establishment", nil)
			return &Result{Decision: routing.ResetPassword(), Recovery: true}, nil
		}
		return p.listen(ctx, params, sig)
	}

	// The router must never run on a recovery session: re-check the
	// signals now that a session exists and short-circuit if any fires.
	if p.guard.Detect(sig) {
		log.LogInfoWithFields("bootstrap", "Recovery flow detected, routing to password reset", map[string]any{
			"user": sess.User.ID,
		})
		return &Result{Decision: routing.ResetPassword(), Session: sess, Recovery: true}, nil
	}

	return p.route(ctx, sess, params.InvitationID)
}

// listen hands the attempt to the auth event listener under the
// supervisor's deadline.
func (p *Pipeline) listen(ctx context.Context, params callback.Params, sig recovery.Signals) (*Result, error) {
	listenCtx, cancel := context.WithTimeout(ctx, p.listenTimeout)
	defer cancel()

	sess, recovered, err := NewListener(p.provider, p.guard, p.signOutGrace).Listen(listenCtx, sig)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		// The supervisor fired, not the caller: surface the retryable
		// timeout instead of leaving the user on a spinner.
		log.LogWarnWithFields("bootstrap", "Auth event listener timed out", map[string]any{
			"timeout": p.listenTimeout.String(),
		})
		return nil, &TimeoutError{After: p.listenTimeout}
	default:
		return nil, err
	}

	if recovered {
		return &Result{Decision: routing.ResetPassword(), Session: sess, Recovery: true}, nil
	}
	return p.route(ctx, sess, params.InvitationID)
}

func (p *Pipeline) route(ctx context.Context, sess *provider.Session, invitationID string) (*Result, error) {
	decision, err := p.resolver.Route(ctx, sess, invitationID)
	if err != nil {
		return nil, &CapabilityError{Err: err}
	}

	log.LogInfoWithFields("bootstrap", "Routing decision made", map[string]any{
		"user":        sess.User.ID,
		"destination": decision.Path,
	})
	return &Result{Decision: decision, Session: sess}, nil
}

package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fasops-io/fasops/internal/console/api"
	"github.com/fasops-io/fasops/internal/console/session"
)

// State describes where the resolver is in its lifecycle.
type State int

const (
	// StateIdle: no token, nothing to resolve.
	StateIdle State = iota
	// StateResolving: a token is present and its /me call is in flight.
	StateResolving
	// StateResolved: the current token produced an identity.
	StateResolved
	// StateFailed: the last resolution hit a transport failure; the token is
	// retained and the identity is unknown.
	StateFailed
)

// MeClient is the part of the API client the resolver uses.
type MeClient interface {
	Me(ctx context.Context) (*api.MeResponse, error)
}

// Resolver converts the session's bearer token into an Identity. It
// subscribes to the session store once; each token transition triggers exactly
// one resolution. A rejected token clears the session (logging the user out);
// a transport failure leaves the session alone.
type Resolver struct {
	client MeClient
	store  *session.Store
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	current  *Identity
	resolved uint64 // store seq the current state corresponds to
}

// NewResolver constructs a Resolver bound to the store. Token changes observed
// through the subscription are resolved with context.Background: the trigger
// outlives any single caller.
func NewResolver(client MeClient, store *session.Store, logger *slog.Logger) *Resolver {
	r := &Resolver{client: client, store: store, logger: logger}
	store.Subscribe(func(token string, seq uint64) {
		if token == "" {
			r.clearIdentity(seq)
			return
		}
		r.resolve(context.Background(), token, seq)
	})
	return r
}

// Bootstrap resolves a token restored from durable storage at startup. A
// store with no token is a no-op.
func (r *Resolver) Bootstrap(ctx context.Context) error {
	token, ok := r.store.Token()
	if !ok {
		return nil
	}
	return r.resolve(ctx, token, r.store.Seq())
}

// Current returns the resolved identity, if any.
func (r *Resolver) Current() (*Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != nil
}

// State reports the resolver lifecycle state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resolver) resolve(ctx context.Context, token string, seq uint64) error {
	r.mu.Lock()
	r.state = StateResolving
	r.mu.Unlock()

	me, err := r.client.Me(ctx)

	// A later token change wins: discard results belonging to a stale seq.
	if r.store.Seq() != seq {
		if r.logger != nil {
			r.logger.Debug("discarding stale identity resolution")
		}
		return nil
	}

	if err != nil {
		if api.IsAuthInvalid(err) {
			// The backend rejected the token. Clearing the store notifies the
			// subscription again with an empty token, which resets state.
			if r.logger != nil {
				r.logger.Info("token rejected, clearing session", slog.Any("error", err))
			}
			if cerr := r.store.Clear(); cerr != nil && r.logger != nil {
				r.logger.Warn("clear session", slog.Any("error", cerr))
			}
			return err
		}
		// Transport failure: server unreachable is not proof the credential is
		// bad. Keep the token, surface the error.
		r.mu.Lock()
		r.state = StateFailed
		r.current = nil
		r.resolved = seq
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.state = StateResolved
	r.current = FromMe(me)
	r.resolved = seq
	r.mu.Unlock()
	return nil
}

func (r *Resolver) clearIdentity(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateIdle
	r.current = nil
	r.resolved = seq
}

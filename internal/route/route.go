// Package route decides which entry point the application starts in, based on
// whether a credential is currently stored.
package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/relaypoint/cli/internal/token"
)

// Route is an application entry point.
type Route string

const (
	// RouteLogin is the unauthenticated entry point.
	RouteLogin Route = "login"
	// RouteHome is the authenticated entry point.
	RouteHome Route = "home"
)

// Prober checks the stored credential against the backend. api.Client
// satisfies this with Verify.
type Prober interface {
	Verify(ctx context.Context) error
}

// Resolver maps the credential store's current value to a startup route. It
// holds no state of its own and performs no retries.
type Resolver struct {
	store  token.Store
	prober Prober
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store token.Store) *Resolver {
	return &Resolver{store: store}
}

// WithProbe enables a liveness check of the credential against the backend.
// Any probe failure is treated as an absent credential.
func (r *Resolver) WithProbe(p Prober) *Resolver {
	r.prober = p
	return r
}

// Resolve reads the store once and returns the entry point to start in.
// Absent credential means RouteLogin; storage failures other than absence are
// surfaced, not swallowed into a login route.
func (r *Resolver) Resolve(ctx context.Context) (Route, error) {
	tok, err := r.store.Get()
	if errors.Is(err, token.ErrNotFound) {
		return RouteLogin, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	if tok == "" {
		return RouteLogin, nil
	}

	if r.prober != nil {
		if err := r.prober.Verify(ctx); err != nil {
			// Rejected or unreachable: either way the session cannot be
			// trusted, start unauthenticated.
			return RouteLogin, nil
		}
	}

	return RouteHome, nil
}

// Package session owns the login and logout flows and translates
// authentication failures from the API layer into a routing decision. The
// transport clears rejected credentials; this package decides where the
// application goes afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/relaypoint/cli/internal/api"
	"github.com/relaypoint/cli/internal/route"
	"github.com/relaypoint/cli/internal/token"
)

// Controller drives session lifecycle against a credential store and the
// backend API.
type Controller struct {
	store  token.Store
	client *api.Client
	log    *slog.Logger
}

// NewController creates a session controller.
func NewController(store token.Store, client *api.Client) *Controller {
	return &Controller{
		store:  store,
		client: client,
		log:    slog.Default().With(slog.String("component", "session")),
	}
}

// Login exchanges a username and password for a token and persists it. The
// credential is saved only after the backend accepted the login, so a failed
// attempt never replaces a working session.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	tok, err := c.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := c.store.Save(tok); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	c.log.Debug("credential saved", slog.String("preview", preview(tok)))
	return nil
}

// ImportToken persists an externally issued token and verifies it against the
// backend. If the backend rejects it, the transport has already cleared it
// again and the rejection is returned.
func (c *Controller) ImportToken(ctx context.Context, tok string) error {
	if tok == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := c.store.Save(tok); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	if err := c.client.Verify(ctx); err != nil {
		return fmt.Errorf("imported token was not accepted: %w", err)
	}

	return nil
}

// Logout clears the stored credential. Logging out while already logged out
// succeeds.
func (c *Controller) Logout() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	c.log.Debug("credential cleared")
	return nil
}

// Guard inspects an error from an authenticated call and reports whether the
// application should move to the login entry point. All other errors are the
// caller's to handle.
func Guard(err error) (route.Route, bool) {
	if errors.Is(err, api.ErrAuthRequired) {
		return route.RouteLogin, true
	}
	return "", false
}

// preview truncates a secret for debug logging; whole credentials are never
// logged.
func preview(s string) string {
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "..."
}

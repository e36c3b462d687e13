package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"

	"github.com/relaypoint/cli/internal/token"
)

const userAgent = "Relaypoint-CLI/1.0"

// ErrAuthRequired indicates the backend rejected the stored credential. The
// credential has already been cleared by the time this error is returned; the
// caller (session controller, command layer) decides what happens next.
var ErrAuthRequired = errors.New("authentication required")

// TokenSource is the part of the credential store the transport needs.
type TokenSource interface {
	Get() (string, error)
	Clear() error
}

// Transport is an http.RoundTripper that attaches the stored credential as a
// Bearer token on the way out and clears it when the backend answers 401 or
// 403. The response is returned to the caller unchanged either way, and no
// retry is attempted here.
type Transport struct {
	Source TokenSource
	// Base is the underlying round tripper. NewTransport installs an
	// httpcache memory transport for conditional-request caching.
	Base http.RoundTripper

	log *slog.Logger
}

// NewTransport creates the client transport stack:
//  1. bearer-token injection + auth-failure detection (this type)
//  2. httpcache (ETag-based conditional request caching)
//  3. net/http default transport
func NewTransport(source TokenSource) *Transport {
	return &Transport{
		Source: source,
		Base:   httpcache.NewMemoryCacheTransport(),
		log:    slog.Default().With(slog.String("component", "api-transport")),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per RoundTripper contract the request must not be mutated in place.
	out := req.Clone(req.Context())
	out.Header.Set("User-Agent", userAgent)
	out.Header.Set("X-Request-ID", uuid.NewString())

	tok, err := t.Source.Get()
	switch {
	case err == nil && tok != "":
		out.Header.Set("Authorization", "Bearer "+tok)
	case err != nil && !errors.Is(err, token.ErrNotFound):
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		t.logger().Debug("credential rejected, clearing store",
			slog.Int("status", resp.StatusCode),
			slog.String("path", out.URL.Path))
		if cerr := t.Source.Clear(); cerr != nil && !errors.Is(cerr, token.ErrReadOnly) {
			t.logger().Warn("failed to clear rejected credential",
				slog.String("error", cerr.Error()))
		}
	}

	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *slog.Logger {
	if t.log != nil {
		return t.log
	}
	return slog.Default()
}

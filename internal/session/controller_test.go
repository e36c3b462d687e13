package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaypoint/cli/internal/api"
	"github.com/relaypoint/cli/internal/route"
	"github.com/relaypoint/cli/internal/token"
)

type memStore struct {
	tok string
}

func (m *memStore) Save(tok string) error { m.tok = tok; return nil }

func (m *memStore) Get() (string, error) {
	if m.tok == "" {
		return "", token.ErrNotFound
	}
	return m.tok, nil
}

func (m *memStore) Clear() error { m.tok = ""; return nil }

func newTestController(store *memStore, server *httptest.Server) *Controller {
	client := api.NewClientWithHTTPClient(server.URL, &http.Client{
		Transport: &api.Transport{Source: store},
	})
	return NewController(store, client)
}

func TestLoginSavesAcceptedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(api.LoginResponse{OK: true, Token: "issued-token"})
	}))
	defer server.Close()

	store := &memStore{}
	ctrl := newTestController(store, server)

	require.NoError(t, ctrl.Login(context.Background(), "alice", "hunter2"))
	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "issued-token", got)
}

func TestLoginFailureKeepsExistingCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"error":"account locked"}`)
	}))
	defer server.Close()

	store := &memStore{tok: "existing-token"}
	ctrl := newTestController(store, server)

	err := ctrl.Login(context.Background(), "alice", "hunter2")
	assert.Error(t, err)

	// A failed login must not replace a working session.
	got, gerr := store.Get()
	require.NoError(t, gerr)
	assert.Equal(t, "existing-token", got)
}

func TestImportToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer good-token" {
			json.NewEncoder(w).Encode(map[string]bool{"ok": true})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	t.Run("Accepted", func(t *testing.T) {
		store := &memStore{}
		ctrl := newTestController(store, server)

		require.NoError(t, ctrl.ImportToken(context.Background(), "good-token"))
		got, err := store.Get()
		require.NoError(t, err)
		assert.Equal(t, "good-token", got)
	})

	t.Run("Rejected token is cleared again", func(t *testing.T) {
		store := &memStore{}
		ctrl := newTestController(store, server)

		err := ctrl.ImportToken(context.Background(), "bad-token")
		assert.ErrorIs(t, err, api.ErrAuthRequired)

		_, err = store.Get()
		assert.ErrorIs(t, err, token.ErrNotFound)
	})

	t.Run("Empty token", func(t *testing.T) {
		ctrl := newTestController(&memStore{}, server)
		assert.Error(t, ctrl.ImportToken(context.Background(), ""))
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	store := &memStore{tok: "abc123"}
	ctrl := newTestController(store, server)

	require.NoError(t, ctrl.Logout())
	_, err := store.Get()
	assert.ErrorIs(t, err, token.ErrNotFound)

	assert.NoError(t, ctrl.Logout())
}

func TestGuard(t *testing.T) {
	r, reroute := Guard(fmt.Errorf("call failed: %w", api.ErrAuthRequired))
	assert.True(t, reroute)
	assert.Equal(t, route.RouteLogin, r)

	_, reroute = Guard(errors.New("connection refused"))
	assert.False(t, reroute)

	_, reroute = Guard(nil)
	assert.False(t, reroute)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abcd...wxyz", preview("abcdefgh-stuvwxyz"))
	assert.Equal(t, "...", preview("short"))
}

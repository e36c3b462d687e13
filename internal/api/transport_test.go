package api

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaypoint/cli/internal/token"
)

// memStore is an in-memory credential store for tests. It satisfies both
// TokenSource and token.Store.
type memStore struct {
	mu     sync.Mutex
	tok    string
	clears int
}

func (m *memStore) Save(tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = tok
	return nil
}

func (m *memStore) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == "" {
		return "", token.ErrNotFound
	}
	return m.tok, nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = ""
	m.clears++
	return nil
}

func (m *memStore) clearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func TestTransportAttachesBearerToken(t *testing.T) {
	store := &memStore{tok: "abc123"}

	var gotAuth, gotRequestID, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{Source: store}}
	resp, err := client.Get(server.URL + "/v1/session/whoami")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, userAgent, gotUserAgent)
}

func TestTransportNoTokenNoHeader(t *testing.T) {
	store := &memStore{}

	var gotAuth string
	sawAuth := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{Source: store}}
	resp, err := client.Get(server.URL + "/v1/anything")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.False(t, sawAuth, "expected no Authorization header, got %q", gotAuth)
}

func TestTransportClearsOnAuthFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "Unauthorized", status: http.StatusUnauthorized},
		{name: "Forbidden", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{tok: "abc123"}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := &http.Client{Transport: &Transport{Source: store}}
			resp, err := client.Get(server.URL + "/v1/session/whoami")
			require.NoError(t, err)
			defer resp.Body.Close()

			// The original response is delivered unchanged.
			assert.Equal(t, tt.status, resp.StatusCode)

			// Exactly one clear per detected failure.
			assert.Equal(t, 1, store.clearCount())
			_, err = store.Get()
			assert.ErrorIs(t, err, token.ErrNotFound)
		})
	}
}

func TestTransportDoesNotClearOnSuccess(t *testing.T) {
	store := &memStore{tok: "abc123"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{Source: store}}
	resp, err := client.Get(server.URL + "/v1/session/whoami")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 0, store.clearCount())
	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}

func TestTransportDoesNotMutateRequest(t *testing.T) {
	store := &memStore{tok: "abc123"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest("GET", server.URL+"/v1/anything", nil)
	require.NoError(t, err)

	client := &http.Client{Transport: &Transport{Source: store}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestNewTransportInstallsCache(t *testing.T) {
	tr := NewTransport(&memStore{})
	assert.NotNil(t, tr.Base)
}

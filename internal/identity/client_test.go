package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chatgrid/chat-service/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(Profile{
			ID: "u1", FirstName: "Alice", LastName: "Liddell", Username: "alice",
		})
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, APIKey: "sk-test"})
	require.NoError(t, err)

	p, err := c.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "/v1/users/u1", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "Alice Liddell", p.DisplayName())
}

func TestResolveUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestResolveProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "u1")
	assert.ErrorIs(t, err, errs.ErrUpstream)
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Alice Liddell", Profile{ID: "u1", FirstName: "Alice", LastName: "Liddell"}.DisplayName())
	assert.Equal(t, "Alice", Profile{ID: "u1", FirstName: "Alice"}.DisplayName())
	assert.Equal(t, "alice", Profile{ID: "u1", Username: "alice"}.DisplayName())
	assert.Equal(t, "u1", Profile{ID: "u1"}.DisplayName())
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpilot/model"
)

func testSession() *model.Session {
	return &model.Session{
		AccessToken: "tok-123",
		User:        model.User{ID: "u1", Email: "u1@example.com"},
	}
}

func TestCallNoSessionShortCircuits(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	res, err := New(srv.URL).Call(context.Background(), nil, "/workspaces/structure", Options{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Unauthorized: no active session", res.Error)
	assert.Zero(t, atomic.LoadInt32(&hits), "no network request may be issued")
}

func TestCallAttachesHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Call(context.Background(), testSession(), "/posts", Options{
		Workspace: "acme-corp",
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "acme-corp", got.Get(WorkspaceHeader))
	assert.Equal(t, "no-cache", got.Get("Cache-Control"))
}

func TestCallSkipAuth(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := New(srv.URL).Call(context.Background(), nil, "/health", Options{SkipAuth: true})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, got.Get("Authorization"))
}

func TestCallCacheControlOverride(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Cache-Control")
	}))
	defer srv.Close()

	_, err := New(srv.URL).Call(context.Background(), testSession(), "/analytics", Options{
		Headers: map[string]string{"Cache-Control": "max-age=60"},
	})
	require.NoError(t, err)
	assert.Equal(t, "max-age=60", got)
}

func TestCall401ReturnsLoginRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		_, err := New(srv.URL).Call(context.Background(), testSession(), "/posts", Options{
			Method: method,
			Body:   map[string]string{"x": "y"},
		})
		assert.ErrorIs(t, err, ErrLoginRedirect, method)
	}
}

func TestCallBackendErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string message", 400, `{"message":"slug already taken"}`, "slug already taken"},
		{"array message", 422, `{"message":["name required","timezone invalid"]}`, "name required; timezone invalid"},
		{"no body", 500, ``, "Internal Server Error"},
		{"unparseable body", 502, `<html>bad gateway</html>`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res, err := New(srv.URL).Call(context.Background(), testSession(), "/x", Options{})
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
		})
	}
}

func TestCallNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	res, err := New(srv.URL).Call(context.Background(), testSession(), "/x", Options{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ConnectivityError, res.Error)
}

func TestCallEmptyBodyIsEmptySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res, err := New(srv.URL).Call(context.Background(), testSession(), "/x", Options{Method: http.MethodDelete})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.Data)
}

func TestCallPassesThroughPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "p1", "status": "scheduled"})
	}))
	defer srv.Close()

	res, err := New(srv.URL).Call(context.Background(), testSession(), "/posts/p1", Options{})
	require.NoError(t, err)
	require.True(t, res.Success)

	var payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &payload))
	assert.Equal(t, "p1", payload.ID)
	assert.Equal(t, "scheduled", payload.Status)
}

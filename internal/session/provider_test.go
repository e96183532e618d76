package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpilot/model"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCache(rdb), mr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func sessionServer(t *testing.T, hits *int32, sess model.Session) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("Authorization") != "Bearer cookie-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(sess)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupEmptyToken(t *testing.T) {
	cache, _ := testCache(t)
	p := NewProvider("http://session.invalid", cache)

	sess, err := p.Lookup(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLookupFetchesAndCaches(t *testing.T) {
	cache, mr := testCache(t)
	var hits int32
	access := signedToken(t, time.Now().Add(time.Hour))
	srv := sessionServer(t, &hits, model.Session{
		AccessToken: access,
		User:        model.User{ID: "u1", Email: "u1@example.com"},
	})
	p := NewProvider(srv.URL, cache)

	sess, err := p.Lookup(context.Background(), "cookie-token")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// Second lookup is served from Redis.
	again, err := p.Lookup(context.Background(), "cookie-token")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// TTL never exceeds the token expiry (here: one hour).
	ttl := mr.TTL(cacheKey("cookie-token"))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, maxCacheTTL)
}

func TestLookupShortLivedTokenBoundsTTL(t *testing.T) {
	cache, mr := testCache(t)
	var hits int32
	access := signedToken(t, time.Now().Add(90*time.Second))
	srv := sessionServer(t, &hits, model.Session{AccessToken: access, User: model.User{ID: "u1"}})
	p := NewProvider(srv.URL, cache)

	sess, err := p.Lookup(context.Background(), "cookie-token")
	require.NoError(t, err)
	require.NotNil(t, sess)

	ttl := mr.TTL(cacheKey("cookie-token"))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 90*time.Second)
}

func TestLookupUnknownToken(t *testing.T) {
	cache, _ := testCache(t)
	var hits int32
	srv := sessionServer(t, &hits, model.Session{})
	p := NewProvider(srv.URL, cache)

	sess, err := p.Lookup(context.Background(), "wrong-token")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLookupExpiredTokenNotCached(t *testing.T) {
	cache, mr := testCache(t)
	var hits int32
	access := signedToken(t, time.Now().Add(-time.Minute))
	srv := sessionServer(t, &hits, model.Session{AccessToken: access, User: model.User{ID: "u1"}})
	p := NewProvider(srv.URL, cache)

	sess, err := p.Lookup(context.Background(), "cookie-token")
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.False(t, mr.Exists(cacheKey("cookie-token")))
}

func TestLookupServiceUnreachable(t *testing.T) {
	cache, _ := testCache(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	p := NewProvider(srv.URL, cache)

	sess, err := p.Lookup(context.Background(), "cookie-token")
	assert.Error(t, err)
	assert.Nil(t, sess)
}

func TestCacheExpiryObserved(t *testing.T) {
	cache, mr := testCache(t)
	sess := &model.Session{
		AccessToken: "opaque",
		User:        model.User{ID: "u1"},
		ExpiresAt:   time.Now().Add(time.Minute),
	}
	cache.Put(context.Background(), "tok", sess)

	got, ok := cache.Get(context.Background(), "tok")
	require.True(t, ok)
	assert.Equal(t, "u1", got.User.ID)

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(context.Background(), "tok")
	assert.False(t, ok)
}

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"postpilot/model"
)

// CookieName is the browser cookie carrying the opaque session token.
const CookieName = "pp_session"

// Provider resolves a browser token to a session by asking the session
// service, with a Redis cache in front. Read-only: it never issues or
// refreshes tokens.
type Provider struct {
	baseURL string
	http    *http.Client
	cache   *Cache
}

func NewProvider(baseURL string, cache *Cache) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
}

// NewProviderWithHTTPClient is for tests.
func NewProviderWithHTTPClient(baseURL string, cache *Cache, hc *http.Client) *Provider {
	return &Provider{baseURL: strings.TrimRight(baseURL, "/"), http: hc, cache: cache}
}

// Lookup returns the session for a token, or nil when the token is empty,
// unknown, or expired. A non-nil error means the session service itself was
// unreachable; callers treat that the same as no session.
func (p *Provider) Lookup(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	if sess, ok := p.cache.Get(ctx, token); ok {
		return sess, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/session", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Unknown or expired token. Not an error from this layer's view.
		return nil, nil
	}

	var sess model.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, nil
	}
	if sess.AccessToken == "" {
		return nil, nil
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = tokenExpiry(sess.AccessToken)
	}
	if sess.Expired(time.Now()) {
		return nil, nil
	}

	p.cache.Put(ctx, token, &sess)
	return &sess, nil
}

// tokenExpiry extracts exp from the access token without verifying it; the
// backend is the verifier, this only bounds the cache TTL. Zero when the
// token is not a parseable JWT.
func tokenExpiry(accessToken string) time.Time {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

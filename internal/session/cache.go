package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"postpilot/model"
)

// maxCacheTTL caps how long a session blob may live in Redis regardless of
// token expiry, so revocation upstream is observed within this window.
const maxCacheTTL = 15 * time.Minute

// Cache holds session lookups keyed by a hash of the opaque token. It is
// best effort: Redis failures degrade to a provider round trip, never to a
// request failure.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "sess:" + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, token string) (*model.Session, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(token)).Bytes()
	if err != nil {
		return nil, false
	}
	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, false
	}
	if sess.Expired(time.Now()) {
		return nil, false
	}
	return &sess, true
}

// Put stores the session with a TTL bounded by both the cap and the token's
// remaining life. Already-expired sessions are not cached.
func (c *Cache) Put(ctx context.Context, token string, sess *model.Session) {
	if c == nil || c.rdb == nil || sess == nil {
		return
	}
	ttl := maxCacheTTL
	if !sess.ExpiresAt.IsZero() {
		remaining := time.Until(sess.ExpiresAt)
		if remaining <= 0 {
			return
		}
		if remaining < ttl {
			ttl = remaining
		}
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, cacheKey(token), raw, ttl)
}

func (c *Cache) Delete(ctx context.Context, token string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, cacheKey(token))
}

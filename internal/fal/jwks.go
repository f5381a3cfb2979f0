package fal

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// JWK is one entry of the provider key set. Only Ed25519 OKP keys are used.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid,omitempty"`
	X   string `json:"x"`
}

type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// PublicKey decodes the base64url "x" member. Non Ed25519 keys return false.
func (k JWK) PublicKey() (ed25519.PublicKey, bool) {
	if k.Kty != "OKP" || k.Crv != "Ed25519" || k.X == "" {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(k.X, "="))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, false
	}
	return ed25519.PublicKey(raw), true
}

// KeySource yields the provider's current signing keys.
type KeySource interface {
	Keys(ctx context.Context) ([]ed25519.PublicKey, error)
}

// JWKSClient fetches the key set over HTTP on every call.
type JWKSClient struct {
	url        string
	httpClient *http.Client
}

func NewJWKSClient(url string) *JWKSClient {
	return &JWKSClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *JWKSClient) Keys(ctx context.Context) ([]ed25519.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch JWKS: status %d", resp.StatusCode)
	}

	var set JWKSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make([]ed25519.PublicKey, 0, len(set.Keys))
	for _, k := range set.Keys {
		if pub, ok := k.PublicKey(); ok {
			keys = append(keys, pub)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("JWKS contains no Ed25519 keys")
	}

	return keys, nil
}

// CachedKeySource caches a KeySource for ttl. The cache is filled on first
// use and a failed refresh leaves the previous value untouched.
type CachedKeySource struct {
	source KeySource
	ttl    time.Duration
	now    func() time.Time

	refresh   singleflight.Group
	mu        sync.Mutex
	keys      []ed25519.PublicKey
	fetchedAt time.Time
}

func NewCachedKeySource(source KeySource, ttl time.Duration) *CachedKeySource {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedKeySource{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source; used in tests.
func (c *CachedKeySource) WithClock(now func() time.Time) *CachedKeySource {
	c.now = now
	return c
}

// Keys serves the cached set while fresh. Concurrent callers that find it
// stale share a single upstream fetch, and the lock is never held across it.
func (c *CachedKeySource) Keys(ctx context.Context) ([]ed25519.PublicKey, error) {
	if keys, ok := c.cached(); ok {
		return keys, nil
	}

	v, err, _ := c.refresh.Do("keys", func() (interface{}, error) {
		if keys, ok := c.cached(); ok {
			return keys, nil
		}
		fetchedAt := c.now()
		keys, err := c.source.Keys(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.keys = keys
		c.fetchedAt = fetchedAt
		c.mu.Unlock()
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ed25519.PublicKey), nil
}

func (c *CachedKeySource) cached() ([]ed25519.PublicKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.keys, true
	}
	return nil, false
}

// StaticKeySource always returns the same keys.
type StaticKeySource []ed25519.PublicKey

func (s StaticKeySource) Keys(context.Context) ([]ed25519.PublicKey, error) {
	return s, nil
}

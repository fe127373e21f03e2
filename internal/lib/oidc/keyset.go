package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/pquerna/cachecontrol"
	"github.com/rs/zerolog"
)

const (
	// used when the key set response is cachable but carries no lifetime
	defaultKeySetTTL = 5 * time.Minute

	maxKeySetBytes = 1 << 20

	// minimum spacing between refetches triggered by unknown key ids
	minForcedRefreshInterval = 30 * time.Second
)

var (
	ErrUnknownKey   = errors.New("oidc: no key matches the token key id")
	ErrBadSignature = errors.New("oidc: failed to verify token signature")
)

// KeySet verifies token signatures against a remote JWKS document. The
// document is cached for as long as the response's Cache-Control allows;
// a token signed with an unknown key id forces a refetch, at most once per
// minForcedRefreshInterval.
type KeySet struct {
	jwksURL string
	client  *http.Client
	cache   Cache
	algs    []jose.SignatureAlgorithm
	now     func() time.Time

	mu sync.Mutex

	refreshMu     sync.Mutex
	lastForced    time.Time
	forcedRefresh time.Duration
}

func NewKeySet(jwksURL string, client *http.Client, cache Cache, algs []string) *KeySet {
	if client == nil {
		client = http.DefaultClient
	}
	if cache == nil {
		cache = NewMemoryCache()
	}

	return &KeySet{
		jwksURL: jwksURL,
		client:  client,
		cache:   cache,
		algs:    signatureAlgorithms(algs),
		now:     time.Now,

		forcedRefresh: minForcedRefreshInterval,
	}
}

func signatureAlgorithms(names []string) []jose.SignatureAlgorithm {
	algs := make([]jose.SignatureAlgorithm, 0, len(names))
	for _, name := range names {
		algs = append(algs, jose.SignatureAlgorithm(name))
	}
	if len(algs) == 0 {
		algs = append(algs, jose.RS256)
	}
	return algs
}

// VerifySignature implements the go-oidc KeySet interface.
func (ks *KeySet) VerifySignature(ctx context.Context, raw string) ([]byte, error) {
	jws, err := jose.ParseSigned(raw, ks.algs)
	if err != nil {
		return nil, fmt.Errorf("oidc: malformed jwt: %w", err)
	}

	kid := jws.Signatures[0].Header.KeyID

	keys, err := ks.keys(ctx, false)
	if err != nil {
		return nil, err
	}

	if payload, matched, err := verifyWith(jws, keys, kid); matched {
		return payload, err
	}

	// keys may have been rotated since the document was cached
	if !ks.allowForcedRefresh() {
		return nil, ErrUnknownKey
	}
	keys, err = ks.keys(ctx, true)
	if err != nil {
		return nil, err
	}

	payload, matched, err := verifyWith(jws, keys, kid)
	if !matched {
		return nil, ErrUnknownKey
	}
	return payload, err
}

// verifyWith reports whether any key matched kid, and the payload if one of
// the matching keys verified the signature.
func verifyWith(jws *jose.JSONWebSignature, keys *jose.JSONWebKeySet, kid string) ([]byte, bool, error) {
	matched := false
	for _, key := range keys.Keys {
		if kid != "" && key.KeyID != kid {
			continue
		}
		if key.Use != "" && key.Use != "sig" {
			continue
		}
		matched = true

		if payload, err := jws.Verify(key); err == nil {
			return payload, true, nil
		}
	}
	if matched {
		return nil, true, ErrBadSignature
	}
	return nil, false, nil
}

// allowForcedRefresh reports whether an unknown key id may trigger a fetch
// now, and if so claims the slot.
func (ks *KeySet) allowForcedRefresh() bool {
	ks.refreshMu.Lock()
	defer ks.refreshMu.Unlock()

	now := ks.now()
	if !ks.lastForced.IsZero() && now.Sub(ks.lastForced) < ks.forcedRefresh {
		return false
	}
	ks.lastForced = now
	return true
}

func (ks *KeySet) keys(ctx context.Context, refresh bool) (*jose.JSONWebKeySet, error) {
	if !refresh {
		if keys, ok := ks.cached(ctx); ok {
			return keys, nil
		}
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	// another caller may have fetched while we waited
	if !refresh {
		if keys, ok := ks.cached(ctx); ok {
			return keys, nil
		}
	}

	return ks.fetch(ctx)
}

func (ks *KeySet) cached(ctx context.Context) (*jose.JSONWebKeySet, bool) {
	raw, ok, err := ks.cache.Get(ctx, ks.jwksURL)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("key set cache unavailable")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var keys jose.JSONWebKeySet
	if err := json.Unmarshal(raw, &keys); err != nil {
		// drop it so the next fetch replaces it
		if err := ks.cache.Delete(ctx, ks.jwksURL); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to evict corrupt key set")
		}
		return nil, false
	}
	return &keys, true
}

func (ks *KeySet) fetch(ctx context.Context) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oidc: building key set request: %w", err)
	}

	resp, err := ks.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oidc: fetching key set: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetBytes))
	if err != nil {
		return nil, fmt.Errorf("oidc: reading key set: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oidc: fetching key set: %s", resp.Status)
	}

	var keys jose.JSONWebKeySet
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("oidc: decoding key set: %w", err)
	}

	if ttl := ks.lifetime(req, resp); ttl > 0 {
		if err := ks.cache.Set(ctx, ks.jwksURL, body, ttl); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to cache key set")
		}
	}

	return &keys, nil
}

// lifetime is how long the response may be reused, zero when it may not.
func (ks *KeySet) lifetime(req *http.Request, resp *http.Response) time.Duration {
	reasons, expires, err := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{})
	if err != nil || len(reasons) > 0 {
		return 0
	}
	if expires.IsZero() {
		return defaultKeySetTTL
	}
	return expires.Sub(ks.now())
}

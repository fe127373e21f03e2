// Package oidc verifies OpenID Connect ID tokens issued by a configured
// provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

const discoveryTimeout = 10 * time.Second

type Config struct {
	Issuer string

	// ClientID is the expected audience. Empty skips the audience check.
	ClientID string

	HTTPClient *http.Client
	Cache      Cache
}

type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

type providerMetadata struct {
	JWKSURL string   `json:"jwks_uri"`
	Algs    []string `json:"id_token_signing_alg_values_supported"`
}

// New discovers the provider at cfg.Issuer and builds a verifier over its
// published key set.
func New(ctx context.Context, cfg Config) (*Verifier, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: discoveryTimeout}
	}

	provider, err := gooidc.NewProvider(gooidc.ClientContext(ctx, client), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s failed: %w", cfg.Issuer, err)
	}

	var meta providerMetadata
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("decoding provider metadata: %w", err)
	}
	if meta.JWKSURL == "" {
		return nil, errors.New("provider metadata has no jwks_uri")
	}

	keySet := NewKeySet(meta.JWKSURL, client, cfg.Cache, meta.Algs)
	return NewWithKeySet(cfg.Issuer, cfg.ClientID, keySet, meta.Algs), nil
}

// NewWithKeySet builds a verifier without discovery.
func NewWithKeySet(issuer, clientID string, keySet gooidc.KeySet, algs []string) *Verifier {
	return &Verifier{
		verifier: gooidc.NewVerifier(issuer, keySet, &gooidc.Config{
			ClientID:             clientID,
			SkipClientIDCheck:    clientID == "",
			SupportedSigningAlgs: algs,
		}),
	}
}

// Verify checks the token's signature, issuer, audience and expiry and
// returns its claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decoding id token claims: %w", err)
	}
	return &claims, nil
}

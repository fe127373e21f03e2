package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/wikitype-api/internal/lib/oidc"
	"github.com/deppfellow/wikitype-api/internal/server"
)

var ErrAuthDisabled = errors.New("authentication is disabled")

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*oidc.Claims, error)
}

type AuthService struct {
	verifier TokenVerifier
	required bool
}

// NewAuthService discovers the configured issuer. With auth disabled it
// returns a service that reports itself as disabled and never verifies.
func NewAuthService(ctx context.Context, s *server.Server) (*AuthService, error) {
	cfg := s.Config.Auth
	if !cfg.Enabled {
		return &AuthService{}, nil
	}

	var cache oidc.Cache = oidc.NewMemoryCache()
	if s.Redis != nil {
		cache = oidc.NewRedisCache(s.Redis)
	}

	verifier, err := oidc.New(ctx, oidc.Config{
		Issuer:   cfg.Issuer,
		ClientID: cfg.ClientID,
		Cache:    cache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	s.Logger.Info().
		Str("issuer", cfg.Issuer).
		Bool("required", cfg.Required).
		Msg("bearer token verification enabled")

	return NewAuthServiceWithVerifier(verifier, cfg.Required), nil
}

func NewAuthServiceWithVerifier(verifier TokenVerifier, required bool) *AuthService {
	return &AuthService{verifier: verifier, required: required}
}

func (a *AuthService) Enabled() bool {
	return a != nil && a.verifier != nil
}

// Required reports whether requests without a token are rejected.
func (a *AuthService) Required() bool {
	return a.Enabled() && a.required
}

func (a *AuthService) Verify(ctx context.Context, raw string) (*oidc.Claims, error) {
	if !a.Enabled() {
		return nil, ErrAuthDisabled
	}
	return a.verifier.Verify(ctx, raw)
}

package oidc

import (
	"context"

	"github.com/go-jose/go-jose/v4/jwt"
)

// Claims holds the standard ID token claims. Optional claims are empty
// when the provider does not send them.
type Claims struct {
	Issuer    string           `json:"iss"`
	Subject   string           `json:"sub"`
	Audience  jwt.Audience     `json:"aud"`
	Expiry    *jwt.NumericDate `json:"exp"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	AuthTime  *jwt.NumericDate `json:"auth_time,omitempty"`
	Nonce     string           `json:"nonce,omitempty"`
	ACR       string           `json:"acr,omitempty"`
	AMR       []string         `json:"amr,omitempty"`
	AZP       string           `json:"azp,omitempty"`
	AtHash    string           `json:"at_hash,omitempty"`
	ID        string           `json:"jti,omitempty"`

	Name       string `json:"name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Email      string `json:"email,omitempty"`
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying verified claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

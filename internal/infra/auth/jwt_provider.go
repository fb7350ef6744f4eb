// File: internal/infra/auth/jwt_provider.go
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"planvault/internal/domain"
	"planvault/internal/domain/ports/adapter"
)

type ctxKey string

const ctxBearerToken ctxKey = "bearer_token"

// WithBearerToken stores the caller's raw bearer token in ctx. The web layer
// calls this in middleware; the provider reads it back per operation.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxBearerToken, token)
}

var _ adapter.AuthProvider = (*JWTProvider)(nil)

// JWTProvider authorizes an operation when the ctx carries a valid HS256
// token whose subject equals the acting principal. One token authorizes one
// principal: an admin token cannot act as a buyer and vice versa.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(hmacSecret string) *JWTProvider {
	return &JWTProvider{secret: []byte(hmacSecret)}
}

func (p *JWTProvider) RequireAuth(ctx context.Context, principal string) error {
	raw, _ := ctx.Value(ctxBearerToken).(string)
	if raw == "" {
		return fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !tok.Valid {
		return fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.Subject != principal {
		return fmt.Errorf("%w: token subject %q is not %q", domain.ErrUnauthorized, claims.Subject, principal)
	}
	return nil
}

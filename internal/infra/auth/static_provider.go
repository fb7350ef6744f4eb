// File: internal/infra/auth/static_provider.go
package auth

import (
	"context"
	"fmt"

	"planvault/internal/domain"
	"planvault/internal/domain/ports/adapter"
)

var _ adapter.AuthProvider = (*StaticProvider)(nil)

// StaticProvider authorizes a fixed set of principals unconditionally.
// Dev-mode only; production wiring uses JWTProvider.
type StaticProvider struct {
	allowed map[string]struct{}
}

func NewStaticProvider(principals []string) *StaticProvider {
	m := make(map[string]struct{}, len(principals))
	for _, p := range principals {
		m[p] = struct{}{}
	}
	return &StaticProvider{allowed: m}
}

func (p *StaticProvider) RequireAuth(_ context.Context, principal string) error {
	if _, ok := p.allowed[principal]; !ok {
		return fmt.Errorf("%w: principal %q not allowed", domain.ErrUnauthorized, principal)
	}
	return nil
}

package adapter

import "context"

// AuthProvider verifies that the caller behind ctx authorized the operation
// as the named principal. Failure is domain.ErrUnauthorized (possibly
// wrapped); the enclosing operation must abort without side effects.
type AuthProvider interface {
	RequireAuth(ctx context.Context, principal string) error
}

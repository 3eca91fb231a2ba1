package auth

import (
	"context"

	"community-server/entities"
)

// Principal is the identity acting on a request. The zero value is anonymous.
type Principal struct {
	User *entities.User
}

func (p Principal) Anonymous() bool { return p.User == nil }

// UserID returns the authenticated user's id, empty when anonymous.
func (p Principal) UserID() string {
	if p.User == nil {
		return ""
	}
	return p.User.ID
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the resolved principal to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal attached to ctx; a missing
// principal is reported as anonymous.
func PrincipalFromContext(ctx context.Context) Principal {
	if ctx == nil {
		return Principal{}
	}
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}

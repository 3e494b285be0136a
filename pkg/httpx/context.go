package httpx

import (
	"context"

	"github.com/magicontap/tapdash/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeyPrincipal ctxKey = "principal"
	ctxKeyClaims    ctxKey = "claims"
)

// Principal is who the bearer token says is calling.
type Principal struct {
	UserID string
	Email  string

	// Role is the dashboard role from app_metadata, "" when never assigned.
	Role string
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}

// ClaimsFromContext returns the full verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(jwtx.Claims)
	return c, ok
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = WithPrincipal(ctx, Principal{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   c.AppRole(),
	})
	return context.WithValue(ctx, ctxKeyClaims, c)
}

package auth

import "context"

type claimsKey struct{}

// WithClaims attaches verified claims to ctx. A nil claims value leaves ctx unauthenticated.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the claims attached by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user id. Ids below 1 never authenticate.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := FromContext(ctx)
	if !ok || claims.UserID < 1 {
		return 0, false
	}
	return claims.UserID, true
}

package api

import "context"

// UserClaims identifies the authenticated caller. The auth middleware
// validates the access token and stores these on the request context;
// handlers read them back with GetUserClaims.
type UserClaims struct {
	UserID string
	Handle string
}

type claimsContextKey struct{}

func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetUserClaims returns the caller's claims, or nil on an unauthenticated
// request.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(claimsContextKey{}).(*UserClaims)
	return claims
}

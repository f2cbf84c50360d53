package auth

import "context"

// SetClaimsForTesting injects claims into the context. Test use only.
func SetClaimsForTesting(ctx context.Context, claims *CustomClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

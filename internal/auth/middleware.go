package auth

import (
	"context"
	"net/http"
	"strings"

	"prospect-api/internal/http/httperr"
	"prospect-api/internal/observability/logger"

	"go.uber.org/zap"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// JWTAuthMiddleware validates JWT tokens and injects claims into context
func JWTAuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn(ctx, "missing authorization header",
					logger.Module("auth"),
					logger.Action("authenticate"),
				)
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeMissingAuthorization, "missing authorization header")
				return
			}

			// Check Bearer format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn(ctx, "invalid authorization header format",
					logger.Module("auth"),
					logger.Action("authenticate"),
				)
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidScheme, "invalid authorization header format")
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				code := httperr.ErrCodeInvalidToken
				if authErr, ok := IsAuthError(err); ok {
					switch authErr.Reason {
					case AuthFailureTokenExpired:
						code = httperr.ErrCodeTokenExpired
					case AuthFailureInvalidSignature:
						code = httperr.ErrCodeInvalidSignature
					case AuthFailureInvalidIssuer:
						code = httperr.ErrCodeInvalidIssuer
					case AuthFailureInvalidAudience:
						code = httperr.ErrCodeInvalidAudience
					}
				}
				log.Warn(ctx, "token validation failed",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.Error(err),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				httperr.Unauthorized401(w, ctx, code, "invalid token")
				return
			}

			// Add claims to context
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			ctx = logger.SetUserIDInContext(ctx, claims.ActorID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims retrieves claims from context
func GetClaims(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*CustomClaims)
	return claims, ok
}

// ActorID returns the authenticated actor from context, or "system"
// when the request carries no claims.
func ActorID(ctx context.Context) string {
	if claims, ok := GetClaims(ctx); ok {
		return claims.ActorID
	}
	return "system"
}

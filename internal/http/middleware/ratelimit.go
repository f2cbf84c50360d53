package middleware

import (
	"fmt"
	"net/http"
	"time"

	"prospect-api/internal/auth"
	"prospect-api/internal/observability/logger"
	"prospect-api/internal/ratelimit"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces rate limiting per authenticated actor.
// Unauthenticated requests are keyed by remote address.
func RateLimitMiddleware(limiter *ratelimit.RedisRateLimiter, limitPerMin int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			subject := auth.ActorID(ctx)
			if subject == "system" {
				subject = sanitizeRemoteAddr(r.RemoteAddr)
			}

			// Check rate limit
			allowed, remaining, err := limiter.AllowRequest(ctx, subject, limitPerMin, 60)
			if err != nil {
				// Redis being down should not take the API with it
				log.Error(ctx, "rate limit check failed",
					logger.Module("ratelimit"),
					logger.Action("allow_request"),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			// Add rate limit headers
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limitPerMin))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(60*time.Second).Unix()))

			if !allowed {
				// Add span event for rate limit exceeded
				span := trace.SpanFromContext(ctx)
				span.AddEvent("rate_limit_exceeded")

				log.Warn(ctx, "rate limit exceeded",
					logger.Module("ratelimit"),
					logger.Action("allow_request"),
					zap.Int("limit", limitPerMin),
				)

				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

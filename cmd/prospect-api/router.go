package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"prospect-api/internal/auth"
	"prospect-api/internal/config"
	"prospect-api/internal/http/docs"
	"prospect-api/internal/http/handler"
	"prospect-api/internal/http/middleware"
	"prospect-api/internal/observability/logger"
	"prospect-api/internal/ratelimit"
	"prospect-api/internal/repo"
	"prospect-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps carries everything buildRouter needs to assemble the mux.
type RouterDeps struct {
	Cfg             *config.Config
	Log             *logger.Logger
	TokenValidator  auth.TokenValidator
	IdempotencyRepo *repo.IdempotencyRepo
	RateLimiter     *ratelimit.RedisRateLimiter
	Metrics         *telemetry.Metrics
	Pool            *pgxpool.Pool // Needed for readiness check and debug handler

	// Handlers
	OpportunityHandler *handler.OpportunityHandler
	ItemHandler        *handler.ItemHandler
	CustomerHandler    *handler.CustomerHandler
	DebugHandler       *handler.DebugHandler
}

// buildRouter assembles the chi.Router with all middlewares and routes.
func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/openapi.yaml", docs.OpenAPIHandler().ServeHTTP)
	r.Get("/docs", docs.ScalarDocsHandler("/openapi.yaml").ServeHTTP)

	r.Get("/metrics", metricsHandler(deps.Cfg))

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Pool == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ready","note":"pool is nil"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Pool.Ping(ctx); err != nil {
			deps.Log.Error(ctx, "readiness check failed: database unavailable", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	// Debug routes (dev-only)
	if deps.Cfg.AppEnv == "dev" || deps.Cfg.AppEnv == "development" {
		r.Route("/debug", func(r chi.Router) {
			if deps.DebugHandler != nil {
				r.With(auth.JWTAuthMiddleware(deps.TokenValidator)).Get("/auth", deps.DebugHandler.GetAuthDebug)
				r.Get("/db/ping", deps.DebugHandler.PingDB)
			}
		})
	}

	// Protected routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.JWTAuthMiddleware(deps.TokenValidator))
		r.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.Cfg.RateLimitPerUserPerMin))

		// Opportunities
		if deps.OpportunityHandler != nil {
			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", deps.OpportunityHandler.ListOpportunities)
				r.With(middleware.IdempotencyMiddleware(deps.IdempotencyRepo)).Post("/", deps.OpportunityHandler.CreateOpportunity)
				r.With(middleware.IdempotencyMiddleware(deps.IdempotencyRepo)).Post("/set-status", deps.OpportunityHandler.SetStatus)
				r.Route("/{opportunityId}", func(r chi.Router) {
					r.Get("/", deps.OpportunityHandler.GetOpportunity)
					r.With(middleware.IdempotencyMiddleware(deps.IdempotencyRepo)).Patch("/", deps.OpportunityHandler.UpdateOpportunity)
					r.Delete("/", deps.OpportunityHandler.DeleteOpportunity)
					r.With(middleware.IdempotencyMiddleware(deps.IdempotencyRepo)).Post("/declare-lost", deps.OpportunityHandler.DeclareLost)
					r.With(middleware.IdempotencyMiddleware(deps.IdempotencyRepo)).Post("/make-quotation", deps.OpportunityHandler.MakeQuotation)
					r.Get("/ordered-quotations", deps.OpportunityHandler.OrderedQuotations)
				})
			})
		}

		// Item catalog lookups
		if deps.ItemHandler != nil {
			r.Get("/items/{itemCode}/details", deps.ItemHandler.GetItemDetails)
		}

		// Customer snapshot
		if deps.CustomerHandler != nil {
			r.Get("/customers/{customerId}/snapshot", deps.CustomerHandler.GetCustomerSnapshot)
		}
	})

	return r
}

// metricsHandler serves the Prometheus scrape endpoint. When a token is
// configured, it accepts either the X-Metrics-Token header or a Bearer
// Authorization header.
func metricsHandler(cfg *config.Config) http.HandlerFunc {
	prom := promhttp.Handler()
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.MetricsToken != "" {
			token := r.Header.Get("X-Metrics-Token")
			if token == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					token = strings.TrimPrefix(h, "Bearer ")
				}
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.MetricsToken)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"ok":false,"error":{"code":"UNAUTHORIZED","message":"unauthorized"}}`))
				return
			}
		}
		prom.ServeHTTP(w, r)
	}
}

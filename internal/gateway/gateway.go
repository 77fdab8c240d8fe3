// Package gateway implements the downstream HTTP surface: POST
// /v1/messages plus health endpoints, wired atop internal/dispatch.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ambergate/ambergate/internal/dispatch"
	obsmw "github.com/ambergate/ambergate/internal/observability/middleware"
)

const maxRequestBytes = 10 << 20 // 10 MiB, generous for multimodal request bodies

// Gateway owns the HTTP server exposing the Anthropic-compatible surface.
type Gateway struct {
	server *http.Server
}

// Options configures a Gateway.
type Options struct {
	Pipeline  *dispatch.Pipeline
	Readiness ReadinessChecker
	Auth      func(http.Handler) http.Handler
	Logger    *slog.Logger
}

// New builds a Gateway listening on addr. auth is the authentication
// middleware attaching a dispatch.APIKey to the request context; the core
// treats it as an opaque collaborator.
func New(addr string, opts Options) *Gateway {
	router := chi.NewRouter()

	router.Use(Recovery)
	router.Use(obsmw.RequestIDGeneration)
	router.Use(obsmw.TraceContextExtraction)
	router.Use(obsmw.Logging(opts.Logger))
	router.Use(obsmw.RequestIDPropagation)

	router.Get("/healthz", livenessHandler)
	router.Get("/readyz", readinessHandler(opts.Readiness))

	router.Group(func(r chi.Router) {
		r.Use(RequestSizeLimit(maxRequestBytes))
		r.Use(opts.Auth)
		r.Method(http.MethodPost, "/v1/messages", NewMessagesHandler(opts.Pipeline))
	})

	return &Gateway{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start begins serving in the background and returns a channel that
// receives the eventual listener error (nil on graceful Shutdown).
func (g *Gateway) Start(ctx context.Context) (<-chan error, error) {
	errCh := make(chan error, 1)
	go func() {
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen and serve: %w", err)
			return
		}
		errCh <- nil
	}()
	slog.InfoContext(ctx, "gateway listening", "addr", g.server.Addr)
	return errCh, nil
}

// Shutdown gracefully drains in-flight requests, including open SSE
// streams, honoring ctx's deadline.
func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

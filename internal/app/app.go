// Package app wires internal/config, internal/dispatch, and
// internal/gateway into the running gateway process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ambergate/ambergate/internal/config"
	"github.com/ambergate/ambergate/internal/dispatch"
	"github.com/ambergate/ambergate/internal/dispatch/account"
	"github.com/ambergate/ambergate/internal/dispatch/ratelimit"
	"github.com/ambergate/ambergate/internal/dispatch/usage"
	"github.com/ambergate/ambergate/internal/gateway"
	"github.com/ambergate/ambergate/internal/tokensource"
	"github.com/ambergate/ambergate/internal/upstream"
)

// App orchestrates the lifecycle of the gateway server and its
// collaborators, built from a resolved config.Config.
type App struct {
	gateway *gateway.Gateway
	health  *Health
}

// New wires a dispatch.Pipeline and gateway.Gateway from cfg.
func New(cfg *config.Config) (*App, error) {
	selector, err := newSelector(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure account selector: %w", err)
	}

	limiter, err := newLimiter(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure rate limiter: %w", err)
	}

	pipeline := dispatch.New(
		selector,
		upstream.New(http.DefaultTransport),
		limiter,
		usage.NewSlogRecorder(slog.Default()),
	)

	health := NewHealth()

	gw := gateway.New(cfg.Listen, gateway.Options{
		Pipeline:  pipeline,
		Readiness: health,
		Auth:      dispatch.DevAPIKeyMiddleware(newAPIKeys(cfg)),
		Logger:    slog.Default(),
	})

	return &App{gateway: gw, health: health}, nil
}

// newSelector builds the account.Selector cfg describes: a fixed static
// account when upstream.api_key is set directly, otherwise an
// OAuthSelector refreshing through cfg.Auth's token store and provider.
func newSelector(cfg *config.Config) (account.Selector, error) {
	if cfg.Upstream.APIKey != "" {
		proxyURL, err := parseProxyURL(cfg.Upstream.ProxyURL)
		if err != nil {
			return nil, err
		}
		return account.NewStaticSelector(account.Account{
			ID:        "static",
			Type:      "openai",
			APIKey:    cfg.Upstream.APIKey,
			BaseURL:   cfg.Upstream.BaseURL,
			UserAgent: cfg.Upstream.UserAgent,
			ProxyURL:  proxyURL,
		}), nil
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, err
	}
	refreshToken, err := store.Read(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read refresh token: %w", err)
	}

	proxyURL, err := parseProxyURL(cfg.Upstream.ProxyURL)
	if err != nil {
		return nil, err
	}

	tokens := tokensource.NewTokenSource(refreshToken, cfg.Auth.Endpoint(), cfg.Auth.ClientID)
	return account.NewOAuthSelector("oauth", "openai", cfg.Upstream.BaseURL, cfg.Upstream.UserAgent, proxyURL, tokens), nil
}

func parseProxyURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse upstream.proxy_url: %w", err)
	}
	return proxyURL, nil
}

// newLimiter builds the ratelimit.Limiter cfg.RateLimit selects.
func newLimiter(cfg *config.Config) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case "", "memory":
		return ratelimit.NewMemoryLimiter(), nil
	case "redis":
		if cfg.RateLimit.RedisAddr == "" {
			return nil, errors.New("rate_limit.redis_addr is required for the redis backend")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		return ratelimit.NewRedisLimiter(ratelimit.NewGoRedisClient(rdb)), nil
	default:
		return nil, fmt.Errorf("unknown rate_limit.backend %q", cfg.RateLimit.Backend)
	}
}

// newAPIKeys builds the static bearer-token table dispatch.DevAPIKeyMiddleware
// authenticates against.
func newAPIKeys(cfg *config.Config) map[string]dispatch.APIKey {
	keys := make(map[string]dispatch.APIKey, len(cfg.Keys))
	for _, k := range cfg.Keys {
		restrictions := k.ModelRestrictions
		if len(restrictions) == 0 {
			restrictions = cfg.Models.AllowedByDefault
		}
		keys[k.Token] = dispatch.APIKey{
			ID:                k.ID,
			Permissions:       k.Permissions,
			ModelRestrictions: restrictions,
		}
	}
	return keys
}

// Start starts the gateway and blocks until ctx is cancelled or the
// listener fails.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	slog.InfoContext(gCtx, "starting gateway")
	errCh, err := a.gateway.Start(gCtx)
	if err != nil {
		return fmt.Errorf("gateway startup failed: %w", err)
	}
	a.health.SetReady(true)

	g.Go(func() error {
		select {
		case err := <-errCh:
			if err != nil {
				slog.ErrorContext(gCtx, "gateway runtime error", "error", err)
				return fmt.Errorf("gateway: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()
	a.health.SetReady(false)

	slog.InfoContext(gCtx, "shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}
	if err := a.gateway.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "gateway shutdown failed", "error", err)
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

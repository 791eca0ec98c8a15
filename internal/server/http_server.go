package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/config"
)

const shutdownTimeout = 5 * time.Second

// Checker reports whether the backing stores answer.
type Checker struct {
	appCtx *app.AppContext
	// optional; kept in sync with every probe
	health *HealthRegistrar
}

func NewChecker(appCtx *app.AppContext, health *HealthRegistrar) *Checker {
	return &Checker{appCtx: appCtx, health: health}
}

// Check pings the database and Redis.
func (c *Checker) Check(ctx context.Context) map[string]string {
	out := map[string]string{"db": "ok", "redis": "ok"}

	if sqlDB, err := c.appCtx.DB.DB(); err != nil {
		out["db"] = err.Error()
	} else if err := sqlDB.PingContext(ctx); err != nil {
		out["db"] = err.Error()
	}
	if c.appCtx.RedisCache == nil {
		out["redis"] = "not configured"
	} else if err := c.appCtx.RedisCache.Ping(ctx); err != nil {
		out["redis"] = err.Error()
	}

	if c.health != nil {
		c.health.SetServing(healthy(out))
	}
	return out
}

func healthy(checks map[string]string) bool {
	for _, v := range checks {
		if v != "ok" {
			return false
		}
	}
	return true
}

// NewHTTPServer builds the admin HTTP server: /health and /metrics.
func NewHTTPServer(checker *Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/health", func(c echo.Context) error {
		checks := checker.Check(c.Request().Context())
		status := "healthy"
		code := http.StatusOK
		if !healthy(checks) {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]any{
			"status":  status,
			"service": "social-graph",
			"checks":  checks,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

// StartHTTPServer serves e until ctx is done, then shuts it down.
func StartHTTPServer(ctx context.Context, cfg *config.Config, e *echo.Echo) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("admin http on %s: %w", addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

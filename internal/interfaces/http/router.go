package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subeth/subeth/internal/interfaces/http/middleware"
	"github.com/subeth/subeth/internal/interfaces/http/routes"
	"github.com/subeth/subeth/internal/shared/goroutine"
	"github.com/subeth/subeth/internal/shared/logger"
)

const shutdownTimeout = 30 * time.Second

// Router represents the HTTP router configuration
type Router struct {
	engine *gin.Engine
	logger logger.Interface
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(c *Container, log logger.Interface) *Router {
	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))

	subs, plans, accounts, health := c.newHandlers()

	var limiter *middleware.RateLimiter
	if c.redis != nil && c.cfg.Server.WriteRateLimit > 0 {
		limiter = middleware.NewRateLimiter(c.redis, c.cfg.Server.WriteRateLimit, time.Minute, log.With("component", "ratelimit"))
	}

	routes.SetupRoutes(engine, &routes.RouteConfig{
		SubscriptionHandler: subs,
		PlanHandler:         plans,
		AccountHandler:      accounts,
		HealthHandler:       health,
		WriteLimiter:        limiter,
	})

	return &Router{engine: engine, logger: log}
}

// Engine returns the Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (r *Router) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	goroutine.SafeGo(r.logger, "http-server", func() {
		defer close(errCh)
		r.logger.Infow("server starting", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Infow("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Errorw("server forced to shutdown", "error", err)
		return err
	}

	r.logger.Infow("server exited gracefully")
	return nil
}

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/subeth/subeth/internal/interfaces/http/handlers"
	"github.com/subeth/subeth/internal/interfaces/http/middleware"
)

// RouteConfig holds the handlers behind the gateway's routes.
type RouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	PlanHandler         *handlers.PlanHandler
	AccountHandler      *handlers.AccountHandler
	HealthHandler       *handlers.HealthHandler
	// WriteLimiter guards state-changing routes. May be nil.
	WriteLimiter *middleware.RateLimiter
}

// SetupRoutes registers every gateway route on engine.
func SetupRoutes(engine *gin.Engine, cfg *RouteConfig) {
	engine.GET("/health", cfg.HealthHandler.Health)

	api := engine.Group("/api")

	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.WriteLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{cfg.WriteLimiter.Limit(), h}
	}

	plans := api.Group("/plans")
	{
		plans.GET("", cfg.PlanHandler.ListPlans)
		plans.GET("/:id", cfg.PlanHandler.GetPlan)
		plans.POST("", write(cfg.PlanHandler.CreatePlan)...)
		plans.PUT("/:id", write(cfg.PlanHandler.UpdatePlan)...)
		plans.DELETE("/:id", write(cfg.PlanHandler.DeletePlan)...)
	}

	accounts := api.Group("/accounts/:address")
	{
		accounts.GET("/delegation", cfg.AccountHandler.GetDelegation)
		accounts.GET("/subscriptions", cfg.SubscriptionHandler.ListSubscriptions)
		accounts.GET("/drift", cfg.SubscriptionHandler.Drift)
		accounts.POST("/reconcile", write(cfg.SubscriptionHandler.Reconcile)...)
	}

	subscriptions := api.Group("/subscriptions")
	{
		subscriptions.POST("/subscribe", write(cfg.SubscriptionHandler.Subscribe)...)
		subscriptions.POST("/unsubscribe", write(cfg.SubscriptionHandler.Unsubscribe)...)
	}
}

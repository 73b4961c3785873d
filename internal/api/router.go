package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/billforge/billforge/internal/api/v1"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/rest/middleware"
)

type Handlers struct {
	Billing    *v1.BillingHandler
	DeadLetter *v1.DeadLetterHandler
	Health     *v1.HealthHandler
}

func NewRouter(handlers Handlers, limiter *ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.RateLimitMiddleware(limiter))
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	billing := router.Group("/billing")
	{
		billing.POST("/runs", handlers.Billing.TriggerRun)
		billing.GET("/runs/:id", handlers.Billing.GetRun)
		billing.GET("/runs/:id/summary", handlers.Billing.GetRunSummary)
		billing.GET("/runs/:id/history", handlers.Billing.GetRunHistory)
	}

	dlq := router.Group("/dlq")
	{
		dlq.GET("", handlers.DeadLetter.ListUnresolved)
		dlq.POST("/:id/resolve", handlers.DeadLetter.Resolve)
	}
}

package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/billforge/billforge/internal/api"
	v1 "github.com/billforge/billforge/internal/api/v1"
	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/httpclient"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/payment"
	"github.com/billforge/billforge/internal/postgres"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/repository"
	"github.com/billforge/billforge/internal/service"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			ratelimit.NewLimiter,
			newHTTPClient,
			payment.NewService,
		),
		postgres.Module(),
		repository.Module(),
		service.Module(),
		fx.Provide(
			v1.NewBillingHandler,
			v1.NewDeadLetterHandler,
			v1.NewHealthHandler,
			newHandlers,
			api.NewRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func newHTTPClient(cfg *config.Configuration) httpclient.Client {
	return httpclient.NewClientWithTimeout(cfg.Payment.Timeout())
}

func newHandlers(
	billing *v1.BillingHandler,
	deadLetter *v1.DeadLetterHandler,
	health *v1.HealthHandler,
) api.Handlers {
	return api.Handlers{
		Billing:    billing,
		DeadLetter: deadLetter,
		Health:     health,
	}
}

func startServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	db *postgres.DB,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			db.Close()
			return nil
		},
	})
}

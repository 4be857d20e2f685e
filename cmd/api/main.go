package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"threadboard/infrastructure/config"
	"threadboard/infrastructure/di"
	"threadboard/interfaces/http/rest"
	"threadboard/interfaces/http/rest/handlers"
	"threadboard/interfaces/http/rest/middleware"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	router := rest.NewRouter(
		handlers.NewAskHandler(container.AskOrchestrator, container.Logger),
		handlers.NewBoardHandler(container.CreateBoardHandler, container.CommandBus, container.QueryBus, container.Logger),
		handlers.NewNodeHandler(container.DeleteNodeHandler, container.CommandBus, container.QueryBus, container.Logger),
		container.JWTValidator,
		container.Tracer,
		middleware.AuthConfig{
			RatePerMinute: cfg.RateLimitPerMinute,
			Burst:         cfg.RateLimitBurst,
		},
		cfg.AllowedOrigins,
		container.Logger,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("server shutdown error", zap.Error(err))
	}

	container.Logger.Sync()
}

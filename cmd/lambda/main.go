package main

import (
	"context"
	"log"
	"time"

	"threadboard/infrastructure/config"
	"threadboard/infrastructure/di"
	"threadboard/interfaces/http/rest"
	"threadboard/interfaces/http/rest/handlers"
	"threadboard/interfaces/http/rest/middleware"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
	coldStart = true
)

// init runs during cold start
func init() {
	start := time.Now()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
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

	chiRouter, ok := router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("handler is not a chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("lambda cold start completed",
		zap.Duration("duration", time.Since(start)),
	)
}

// Handler proxies API Gateway requests through the chi router
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}

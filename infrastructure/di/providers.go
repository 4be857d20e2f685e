package di

import (
	"context"
	"fmt"

	"threadboard/application/commands"
	"threadboard/application/commands/bus"
	cmdhandlers "threadboard/application/commands/handlers"
	"threadboard/application/ports"
	"threadboard/application/queries"
	querybus "threadboard/application/queries/bus"
	queryhandlers "threadboard/application/queries/handlers"
	"threadboard/application/services"
	domaincfg "threadboard/domain/config"
	"threadboard/infrastructure/ai/githubmodels"
	"threadboard/infrastructure/config"
	"threadboard/infrastructure/messaging/eventbridge"
	dynamostore "threadboard/infrastructure/persistence/dynamodb"
	"threadboard/pkg/auth"
	"threadboard/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at a local
// endpoint when one is configured
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBLocal != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBLocal)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideNodeRepository creates the node repository
func ProvideNodeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NodeRepository {
	return dynamostore.NewNodeRepository(client, cfg.TableName, logger)
}

// ProvideBoardRepository creates the board repository
func ProvideBoardRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.BoardRepository {
	return dynamostore.NewBoardRepository(client, cfg.TableName, cfg.EntityIndex, logger)
}

// ProvideEventPublisher creates the domain event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EventsEnabled {
		return eventbridge.NopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideDomainConfig returns the domain rule set
func ProvideDomainConfig() *domaincfg.DomainConfig {
	return domaincfg.DefaultDomainConfig()
}

// ProvideAnswerGenerator creates the answer generation client
func ProvideAnswerGenerator(cfg *config.Config, logger *zap.Logger) ports.AnswerGenerator {
	return githubmodels.NewClient(githubmodels.Config{
		Endpoint:    cfg.LLMEndpoint,
		Model:       cfg.LLMModel,
		Token:       cfg.LLMToken,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}, logger)
}

// ProvideContextBuilder creates the thread context builder
func ProvideContextBuilder(nodes ports.NodeRepository, dcfg *domaincfg.DomainConfig, logger *zap.Logger) *services.ContextBuilder {
	return services.NewContextBuilder(nodes, dcfg.MaxContextTurns, logger)
}

// ProvideMetrics creates the metrics recorder. Disabled metrics emit nothing
// but keep the instrumentation paths wired.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.MetricsEnabled {
		return observability.NewMetrics(cfg.MetricNamespace, nil, logger)
	}
	return observability.NewMetrics(fmt.Sprintf("%s/%s", cfg.MetricNamespace, cfg.Environment), client, logger)
}

// ProvideTracer creates the request tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(cfg.ServiceName, cfg.TracingEnabled)
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
}

// ProvideCache creates the query cache
func ProvideCache() ports.Cache {
	return NewInMemoryCache()
}

// ProvideAskQuestionOrchestrator creates the ask-question orchestrator
func ProvideAskQuestionOrchestrator(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	generator ports.AnswerGenerator,
	builder *services.ContextBuilder,
	publisher ports.EventPublisher,
	dcfg *domaincfg.DomainConfig,
	logger *zap.Logger,
) *cmdhandlers.AskQuestionOrchestrator {
	return cmdhandlers.NewAskQuestionOrchestrator(boards, nodes, generator, builder, publisher, dcfg, logger)
}

// ProvideDeleteNodeHandler creates the pair-deletion handler
func ProvideDeleteNodeHandler(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *cmdhandlers.DeleteNodeHandler {
	return cmdhandlers.NewDeleteNodeHandler(boards, nodes, publisher, logger)
}

// ProvideCreateBoardHandler creates the board creation handler
func ProvideCreateBoardHandler(
	boards ports.BoardRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *cmdhandlers.CreateBoardHandler {
	return cmdhandlers.NewCreateBoardHandler(boards, publisher, logger)
}

// commandHandlerAdapter adapts typed command handlers to the generic bus
// interface
type commandHandlerAdapter struct {
	handle func(context.Context, bus.Command) error
}

func (a *commandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handle(ctx, cmd)
}

// ProvideCommandBus creates a command bus with the fire-and-forget commands
// registered. Commands whose results the API returns (ask, delete node,
// create board) go through their typed handlers directly.
func ProvideCommandBus(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	pipeline := bus.NewPipeline(
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
		bus.MetricsMiddleware(metrics),
	)

	updateNode := cmdhandlers.NewUpdateNodeHandler(boards, nodes, publisher, logger)
	commandBus.Register(commands.UpdateNodeCommand{}, pipeline.Execute(&commandHandlerAdapter{
		handle: func(ctx context.Context, cmd bus.Command) error {
			updateCmd, ok := cmd.(commands.UpdateNodeCommand)
			if !ok {
				return fmt.Errorf("invalid command type %T", cmd)
			}
			_, err := updateNode.Handle(ctx, updateCmd)
			return err
		},
	}))

	renameBoard := cmdhandlers.NewRenameBoardHandler(boards, publisher, logger)
	commandBus.Register(commands.RenameBoardCommand{}, pipeline.Execute(&commandHandlerAdapter{
		handle: func(ctx context.Context, cmd bus.Command) error {
			renameCmd, ok := cmd.(commands.RenameBoardCommand)
			if !ok {
				return fmt.Errorf("invalid command type %T", cmd)
			}
			_, err := renameBoard.Handle(ctx, renameCmd)
			return err
		},
	}))

	deleteBoard := cmdhandlers.NewDeleteBoardHandler(boards, nodes, publisher, logger)
	commandBus.Register(commands.DeleteBoardCommand{}, pipeline.Execute(&commandHandlerAdapter{
		handle: func(ctx context.Context, cmd bus.Command) error {
			deleteCmd, ok := cmd.(commands.DeleteBoardCommand)
			if !ok {
				return fmt.Errorf("invalid command type %T", cmd)
			}
			return deleteBoard.Handle(ctx, deleteCmd)
		},
	}))

	return commandBus
}

// queryHandlerAdapter adapts typed query handlers to the generic bus
// interface
type queryHandlerAdapter struct {
	handle func(context.Context, querybus.Query) (interface{}, error)
}

func (a *queryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handle(ctx, query)
}

// ProvideQueryBus creates a query bus with all read models registered
func ProvideQueryBus(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	cache ports.Cache,
	cfg *config.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	metricsMw := querybus.NewMetricsMiddleware(metrics)
	cachingMw := querybus.NewCachingMiddleware(cache, cfg.CacheTTL)

	getBoard := queryhandlers.NewGetBoardHandler(boards, nodes, logger)
	queryBus.Register(queries.GetBoardQuery{}, metricsMw.Wrap(&queryHandlerAdapter{
		handle: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetBoardQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getBoard.Handle(ctx, q)
		},
	}))

	// Board listings tolerate a short staleness window, so they sit behind
	// the cache.
	listBoards := queryhandlers.NewListBoardsHandler(boards, logger)
	queryBus.Register(queries.ListBoardsQuery{}, metricsMw.Wrap(cachingMw.Wrap(&queryHandlerAdapter{
		handle: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListBoardsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return listBoards.Handle(ctx, q)
		},
	})))

	getNode := queryhandlers.NewGetNodeHandler(boards, nodes, logger)
	queryBus.Register(queries.GetNodeQuery{}, metricsMw.Wrap(&queryHandlerAdapter{
		handle: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetNodeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getNode.Handle(ctx, q)
		},
	}))

	getThread := queryhandlers.NewGetThreadHandler(boards, nodes, logger)
	queryBus.Register(queries.GetThreadQuery{}, metricsMw.Wrap(&queryHandlerAdapter{
		handle: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetThreadQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getThread.Handle(ctx, q)
		},
	}))

	return queryBus
}

// zapLoggerAdapter adapts zap.Logger to the command bus Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, toZapFields(keysAndValues)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, toZapFields(keysAndValues)...)
}

func toZapFields(keysAndValues []interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, _ := keysAndValues[i].(string)
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

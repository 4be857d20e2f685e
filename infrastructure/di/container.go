package di

import (
	"threadboard/application/commands/bus"
	cmdhandlers "threadboard/application/commands/handlers"
	"threadboard/application/ports"
	querybus "threadboard/application/queries/bus"
	"threadboard/infrastructure/config"
	"threadboard/pkg/auth"
	"threadboard/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	BoardRepo      ports.BoardRepository
	NodeRepo       ports.NodeRepository
	EventPublisher ports.EventPublisher
	Cache          ports.Cache
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer
	JWTValidator   *auth.JWTValidator

	AskOrchestrator    *cmdhandlers.AskQuestionOrchestrator
	DeleteNodeHandler  *cmdhandlers.DeleteNodeHandler
	CreateBoardHandler *cmdhandlers.CreateBoardHandler
	CommandBus         *bus.CommandBus
	QueryBus           *querybus.QueryBus
}

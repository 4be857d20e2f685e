package handlers

import (
	"context"

	"threadboard/application/commands"
	"threadboard/application/ports"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	pkgerrors "threadboard/pkg/errors"

	"go.uber.org/zap"
)

// UpdateNodeHandler applies geometry updates from the canvas. Moves and
// resizes never touch parent/root linkage.
type UpdateNodeHandler struct {
	boards    ports.BoardRepository
	nodes     ports.NodeRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewUpdateNodeHandler creates a new handler instance
func NewUpdateNodeHandler(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *UpdateNodeHandler {
	return &UpdateNodeHandler{
		boards:    boards,
		nodes:     nodes,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the update node command
func (h *UpdateNodeHandler) Handle(ctx context.Context, cmd commands.UpdateNodeCommand) (*entities.Node, error) {
	board, err := h.boards.GetByID(ctx, cmd.BoardID)
	if err != nil {
		return nil, err
	}
	if !board.IsOwnedBy(cmd.UserID) {
		return nil, pkgerrors.NewForbiddenError("board belongs to another user")
	}

	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid node ID")
	}

	node, err := h.nodes.GetByID(ctx, cmd.BoardID, nodeID)
	if err != nil {
		return nil, err
	}

	if cmd.X != nil && cmd.Y != nil {
		node.MoveTo(valueobjects.NewPosition(*cmd.X, *cmd.Y))
	}
	if cmd.Width != nil && cmd.Height != nil {
		box, err := valueobjects.NewBox(*cmd.Width, *cmd.Height)
		if err != nil {
			return nil, err
		}
		node.Resize(box)
	}

	if err := h.nodes.Save(ctx, node); err != nil {
		return nil, err
	}

	board.Touch()
	if err := h.boards.Save(ctx, board); err != nil {
		h.logger.Warn("failed to refresh board timestamp",
			zap.String("boardID", cmd.BoardID),
			zap.Error(err),
		)
	}

	if evts := node.GetUncommittedEvents(); len(evts) > 0 {
		if err := h.publisher.Publish(ctx, evts); err != nil {
			h.logger.Warn("failed to publish events", zap.Error(err))
		}
		node.MarkEventsAsCommitted()
	}

	return node, nil
}

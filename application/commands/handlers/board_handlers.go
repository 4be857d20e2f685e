package handlers

import (
	"context"
	"time"

	"threadboard/application/commands"
	"threadboard/application/ports"
	"threadboard/domain/core/entities"
	"threadboard/domain/events"
	pkgerrors "threadboard/pkg/errors"

	"go.uber.org/zap"
)

// CreateBoardHandler creates empty boards
type CreateBoardHandler struct {
	boards    ports.BoardRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewCreateBoardHandler creates a new handler instance
func NewCreateBoardHandler(boards ports.BoardRepository, publisher ports.EventPublisher, logger *zap.Logger) *CreateBoardHandler {
	return &CreateBoardHandler{boards: boards, publisher: publisher, logger: logger}
}

// Handle executes the create board command
func (h *CreateBoardHandler) Handle(ctx context.Context, cmd commands.CreateBoardCommand) (*entities.Board, error) {
	board, err := entities.NewBoard(cmd.UserID, cmd.Title)
	if err != nil {
		return nil, err
	}

	if err := h.boards.Save(ctx, board); err != nil {
		return nil, err
	}

	if err := h.publisher.Publish(ctx, board.GetUncommittedEvents()); err != nil {
		h.logger.Warn("failed to publish events", zap.Error(err))
	}
	board.MarkEventsAsCommitted()

	return board, nil
}

// RenameBoardHandler changes board titles
type RenameBoardHandler struct {
	boards    ports.BoardRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewRenameBoardHandler creates a new handler instance
func NewRenameBoardHandler(boards ports.BoardRepository, publisher ports.EventPublisher, logger *zap.Logger) *RenameBoardHandler {
	return &RenameBoardHandler{boards: boards, publisher: publisher, logger: logger}
}

// Handle executes the rename board command
func (h *RenameBoardHandler) Handle(ctx context.Context, cmd commands.RenameBoardCommand) (*entities.Board, error) {
	board, err := h.boards.GetByID(ctx, cmd.BoardID)
	if err != nil {
		return nil, err
	}
	if !board.IsOwnedBy(cmd.UserID) {
		return nil, pkgerrors.NewForbiddenError("board belongs to another user")
	}

	if err := board.Rename(cmd.Title); err != nil {
		return nil, err
	}

	if err := h.boards.Save(ctx, board); err != nil {
		return nil, err
	}

	if evts := board.GetUncommittedEvents(); len(evts) > 0 {
		if err := h.publisher.Publish(ctx, evts); err != nil {
			h.logger.Warn("failed to publish events", zap.Error(err))
		}
		board.MarkEventsAsCommitted()
	}

	return board, nil
}

// DeleteBoardHandler removes a board with everything on it
type DeleteBoardHandler struct {
	boards    ports.BoardRepository
	nodes     ports.NodeRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewDeleteBoardHandler creates a new handler instance
func NewDeleteBoardHandler(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *DeleteBoardHandler {
	return &DeleteBoardHandler{boards: boards, nodes: nodes, publisher: publisher, logger: logger}
}

// Handle executes the delete board command
func (h *DeleteBoardHandler) Handle(ctx context.Context, cmd commands.DeleteBoardCommand) error {
	board, err := h.boards.GetByID(ctx, cmd.BoardID)
	if err != nil {
		return err
	}
	if !board.IsOwnedBy(cmd.UserID) {
		return pkgerrors.NewForbiddenError("board belongs to another user")
	}

	nodes, err := h.nodes.ListByBoard(ctx, cmd.BoardID)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if err := h.nodes.Delete(ctx, cmd.BoardID, node.ID()); err != nil && !pkgerrors.IsNotFound(err) {
			return err
		}
	}

	if err := h.boards.Delete(ctx, cmd.BoardID); err != nil {
		return err
	}

	evt := events.NewBoardDeleted(cmd.BoardID, cmd.UserID, time.Now())
	if err := h.publisher.Publish(ctx, []events.DomainEvent{evt}); err != nil {
		h.logger.Warn("failed to publish events", zap.Error(err))
	}

	return nil
}

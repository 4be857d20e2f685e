package handlers

import (
	"context"
	"fmt"

	"threadboard/application/ports"
	"threadboard/application/queries"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/threads"
	"threadboard/domain/core/valueobjects"
	pkgerrors "threadboard/pkg/errors"

	"go.uber.org/zap"
)

// loadOwnedBoard resolves a board and enforces ownership. A board that
// exists but belongs to someone else is Forbidden, not NotFound, so owners
// of stale links get an honest answer.
func loadOwnedBoard(ctx context.Context, boards ports.BoardRepository, boardID, userID string) (*entities.Board, error) {
	board, err := boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !board.IsOwnedBy(userID) {
		return nil, pkgerrors.NewForbiddenError("board belongs to another user")
	}
	return board, nil
}

// GetBoardHandler resolves a board with its full node set
type GetBoardHandler struct {
	boards ports.BoardRepository
	nodes  ports.NodeRepository
	logger *zap.Logger
}

// NewGetBoardHandler creates a new handler instance
func NewGetBoardHandler(boards ports.BoardRepository, nodes ports.NodeRepository, logger *zap.Logger) *GetBoardHandler {
	return &GetBoardHandler{boards: boards, nodes: nodes, logger: logger}
}

// Handle executes the board query
func (h *GetBoardHandler) Handle(ctx context.Context, query queries.GetBoardQuery) (*queries.GetBoardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	board, err := loadOwnedBoard(ctx, h.boards, query.BoardID, query.UserID)
	if err != nil {
		return nil, err
	}

	nodes, err := h.nodes.ListByBoard(ctx, query.BoardID)
	if err != nil {
		h.logger.Error("failed to list board nodes",
			zap.String("boardID", query.BoardID),
			zap.Error(err),
		)
		return nil, err
	}

	return &queries.GetBoardResult{
		Board: queries.NewBoardView(board),
		Nodes: queries.NewNodeViews(nodes),
	}, nil
}

// ListBoardsHandler lists the caller's boards
type ListBoardsHandler struct {
	boards ports.BoardRepository
	logger *zap.Logger
}

// NewListBoardsHandler creates a new handler instance
func NewListBoardsHandler(boards ports.BoardRepository, logger *zap.Logger) *ListBoardsHandler {
	return &ListBoardsHandler{boards: boards, logger: logger}
}

// Handle executes the list query
func (h *ListBoardsHandler) Handle(ctx context.Context, query queries.ListBoardsQuery) (*queries.ListBoardsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	boards, err := h.boards.ListByOwner(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	views := make([]queries.BoardView, 0, len(boards))
	for _, board := range boards {
		views = append(views, queries.NewBoardView(board))
	}
	return &queries.ListBoardsResult{Boards: views}, nil
}

// GetNodeHandler resolves a single node
type GetNodeHandler struct {
	boards ports.BoardRepository
	nodes  ports.NodeRepository
	logger *zap.Logger
}

// NewGetNodeHandler creates a new handler instance
func NewGetNodeHandler(boards ports.BoardRepository, nodes ports.NodeRepository, logger *zap.Logger) *GetNodeHandler {
	return &GetNodeHandler{boards: boards, nodes: nodes, logger: logger}
}

// Handle executes the node query
func (h *GetNodeHandler) Handle(ctx context.Context, query queries.GetNodeQuery) (*queries.NodeView, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	if _, err := loadOwnedBoard(ctx, h.boards, query.BoardID, query.UserID); err != nil {
		return nil, err
	}

	nodeID, err := valueobjects.NewNodeIDFromString(query.NodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid node ID")
	}

	node, err := h.nodes.GetByID(ctx, query.BoardID, nodeID)
	if err != nil {
		return nil, err
	}

	view := queries.NewNodeView(node)
	return &view, nil
}

// GetThreadHandler resolves every member of one thread
type GetThreadHandler struct {
	boards ports.BoardRepository
	nodes  ports.NodeRepository
	logger *zap.Logger
}

// NewGetThreadHandler creates a new handler instance
func NewGetThreadHandler(boards ports.BoardRepository, nodes ports.NodeRepository, logger *zap.Logger) *GetThreadHandler {
	return &GetThreadHandler{boards: boards, nodes: nodes, logger: logger}
}

// Handle executes the thread query
func (h *GetThreadHandler) Handle(ctx context.Context, query queries.GetThreadQuery) (*queries.GetThreadResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	if _, err := loadOwnedBoard(ctx, h.boards, query.BoardID, query.UserID); err != nil {
		return nil, err
	}

	rootID, err := valueobjects.NewNodeIDFromString(query.RootID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid root ID")
	}

	nodes, err := h.nodes.ListByBoard(ctx, query.BoardID)
	if err != nil {
		return nil, err
	}

	members := threads.NewIndex(nodes).ThreadMembers(rootID)
	return &queries.GetThreadResult{
		RootID: query.RootID,
		Nodes:  queries.NewNodeViews(members),
	}, nil
}

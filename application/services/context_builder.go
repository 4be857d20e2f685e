package services

import (
	"context"

	"threadboard/application/ports"
	"threadboard/domain/config"
	"threadboard/domain/core/valueobjects"
	pkgerrors "threadboard/pkg/errors"

	"go.uber.org/zap"
)

// ContextBuilder reconstructs the conversation history leading up to a node
// by walking the parent chain upward. The result feeds the answer generator
// as prior turns, oldest first.
type ContextBuilder struct {
	nodes    ports.NodeRepository
	maxTurns int
	logger   *zap.Logger
}

// NewContextBuilder creates a context builder. maxTurns bounds the walk at
// 2*maxTurns messages; zero or negative falls back to the domain default.
func NewContextBuilder(nodes ports.NodeRepository, maxTurns int, logger *zap.Logger) *ContextBuilder {
	if maxTurns <= 0 {
		maxTurns = config.DefaultDomainConfig().MaxContextTurns
	}
	return &ContextBuilder{
		nodes:    nodes,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Build walks upward from parentID, prepending one message per node, and
// stops at the thread root or at the message cap. A nil parentID yields an
// empty history: the question starts a fresh thread.
//
// Each step costs one store lookup, so the walk is O(depth) bounded by the
// cap. Read-only; no side effects.
func (b *ContextBuilder) Build(ctx context.Context, boardID string, parentID *valueobjects.NodeID) ([]ports.Message, error) {
	if parentID == nil {
		return []ports.Message{}, nil
	}

	maxMessages := 2 * b.maxTurns
	history := make([]ports.Message, 0, maxMessages)

	current := parentID
	for current != nil && len(history) < maxMessages {
		node, err := b.nodes.GetByID(ctx, boardID, *current)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				// A dangling parent reference ends the walk instead of
				// failing the whole request. Can happen transiently after a
				// concurrent deletion.
				b.logger.Warn("context walk hit missing node",
					zap.String("boardID", boardID),
					zap.String("nodeID", current.String()),
				)
				break
			}
			return nil, err
		}

		role := ports.RoleAssistant
		if node.Kind().IsQuestion() {
			role = ports.RoleUser
		}
		history = append([]ports.Message{{Role: role, Content: node.Content().Text()}}, history...)

		current = node.ParentID()
	}

	return history, nil
}

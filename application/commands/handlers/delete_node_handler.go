package handlers

import (
	"context"
	"time"

	"threadboard/application/commands"
	"threadboard/application/ports"
	"threadboard/application/sagas"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/threads"
	"threadboard/domain/core/valueobjects"
	"threadboard/domain/events"
	pkgerrors "threadboard/pkg/errors"

	"go.uber.org/zap"
)

// DeleteNodeResult lists the ids removed by a deletion, so callers can
// reconcile any cached view
type DeleteNodeResult struct {
	DeletedIDs []string
}

// DeleteNodeHandler removes a node and its pair. The thread engine computes
// the plan against a board snapshot; this handler applies it: promote the
// surviving follow-up, regroup the rest of the thread under the new anchor,
// then delete. The sequence runs in a saga because the store has no
// transactions; compensation restores promoted and regrouped nodes if a
// later step fails.
type DeleteNodeHandler struct {
	boards    ports.BoardRepository
	nodes     ports.NodeRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewDeleteNodeHandler creates a new handler instance
func NewDeleteNodeHandler(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *DeleteNodeHandler {
	return &DeleteNodeHandler{
		boards:    boards,
		nodes:     nodes,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the delete node command
func (h *DeleteNodeHandler) Handle(ctx context.Context, cmd commands.DeleteNodeCommand) (*DeleteNodeResult, error) {
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

	snapshot, err := h.nodes.ListByBoard(ctx, cmd.BoardID)
	if err != nil {
		return nil, err
	}

	plan, err := threads.PlanDeletion(threads.NewIndex(snapshot), nodeID)
	if err != nil {
		return nil, err
	}

	for _, orphan := range plan.Orphaned {
		// Sibling follow-ups beyond the first keep a parent reference to a
		// deleted node. Surfaced for operators; the promotion policy picks
		// exactly one new anchor.
		h.logger.Warn("deletion orphans a sibling follow-up",
			zap.String("boardID", cmd.BoardID),
			zap.String("nodeID", orphan.ID().String()),
			zap.String("deletedParent", cmd.NodeID),
		)
	}

	var collected []events.DomainEvent
	if err := h.applyPlan(ctx, plan, &collected); err != nil {
		return nil, err
	}

	board.Touch()
	if err := h.boards.Save(ctx, board); err != nil {
		h.logger.Warn("failed to refresh board timestamp",
			zap.String("boardID", cmd.BoardID),
			zap.Error(err),
		)
	}

	deleted := make([]string, 0, len(plan.DeletedIDs))
	for _, id := range plan.DeletedIDs {
		deleted = append(deleted, id.String())
	}

	collected = append(collected, events.NewNodePairDeleted(cmd.BoardID, deleted, time.Now()))
	if err := h.publisher.Publish(ctx, collected); err != nil {
		h.logger.Warn("failed to publish events", zap.Error(err))
	}

	return &DeleteNodeResult{DeletedIDs: deleted}, nil
}

// applyPlan runs promote, regroup, delete as saga steps. Backups taken
// before each mutation drive the compensations.
func (h *DeleteNodeHandler) applyPlan(ctx context.Context, plan *threads.DeletionPlan, collected *[]events.DomainEvent) error {
	builder := sagas.NewBuilder("delete_node", h.logger)

	if plan.Promotion != nil {
		promoted := plan.Promotion.Question
		promotedAnswer := plan.Promotion.Answer
		backups, err := backupNodes(promoted, promotedAnswer)
		if err != nil {
			return err
		}

		builder.WithCompensableStep("promote_followup",
			func(ctx context.Context, data interface{}) (interface{}, error) {
				if err := promoted.PromoteToRoot(); err != nil {
					return nil, err
				}
				if err := h.nodes.Save(ctx, promoted); err != nil {
					return nil, err
				}
				if promotedAnswer != nil {
					if err := promotedAnswer.PromoteAnswer(promoted.ID()); err != nil {
						return nil, err
					}
					if err := h.nodes.Save(ctx, promotedAnswer); err != nil {
						return nil, err
					}
				}
				*collected = append(*collected, promoted.GetUncommittedEvents()...)
				promoted.MarkEventsAsCommitted()
				return data, nil
			},
			func(ctx context.Context, data interface{}) error {
				return h.nodes.SaveMany(ctx, backups)
			},
		)

		if len(plan.Reassign) > 0 {
			reassign := plan.Reassign
			reassignBackups, err := backupNodes(reassign...)
			if err != nil {
				return err
			}

			builder.WithCompensableStep("regroup_thread",
				func(ctx context.Context, data interface{}) (interface{}, error) {
					newRoot := promoted.ID()
					for _, n := range reassign {
						n.AssignRoot(newRoot)
					}
					return data, h.nodes.SaveMany(ctx, reassign)
				},
				func(ctx context.Context, data interface{}) error {
					return h.nodes.SaveMany(ctx, reassignBackups)
				},
			)
		}
	}

	boardID := plan.Target.BoardID()
	deleteIDs := plan.DeletedIDs
	builder.WithStep("delete_pair",
		func(ctx context.Context, data interface{}) (interface{}, error) {
			return data, h.nodes.DeleteMany(ctx, boardID, deleteIDs)
		},
	)

	_, err := builder.Build().Execute(ctx, nil)
	return err
}

// backupNodes snapshots nodes before mutation so compensation can restore
// their exact stored state
func backupNodes(nodes ...*entities.Node) ([]*entities.Node, error) {
	backups := make([]*entities.Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		backup, err := entities.ReconstructNode(
			n.ID(), n.BoardID(), n.Kind(), n.Content(),
			n.ParentID(), n.RootID(), n.Position(), n.Box(),
			n.CreatedAt(), n.UpdatedAt(),
		)
		if err != nil {
			return nil, err
		}
		backups = append(backups, backup)
	}
	return backups, nil
}

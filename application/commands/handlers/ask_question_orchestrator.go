package handlers

import (
	"context"
	"fmt"
	"math/rand"
	"unicode/utf8"

	"threadboard/application/commands"
	"threadboard/application/ports"
	"threadboard/application/sagas"
	"threadboard/application/services"
	"threadboard/domain/config"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/threads"
	"threadboard/domain/core/valueobjects"
	"threadboard/domain/events"
	pkgerrors "threadboard/pkg/errors"

	"go.uber.org/zap"
)

// AskQuestionResult carries the freshly created pair
type AskQuestionResult struct {
	Question *entities.Node
	Answer   *entities.Node
}

// AskQuestionOrchestrator handles the full create-pair flow: ownership
// check, context building, answer generation, and persisting the
// question/answer pair. Generation happens before any store write, so a
// generator failure leaves the board untouched; the two node writes run in a
// saga whose compensation removes a half-created pair.
type AskQuestionOrchestrator struct {
	boards    ports.BoardRepository
	nodes     ports.NodeRepository
	generator ports.AnswerGenerator
	builder   *services.ContextBuilder
	publisher ports.EventPublisher
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewAskQuestionOrchestrator creates a new orchestrator instance
func NewAskQuestionOrchestrator(
	boards ports.BoardRepository,
	nodes ports.NodeRepository,
	generator ports.AnswerGenerator,
	builder *services.ContextBuilder,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *AskQuestionOrchestrator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &AskQuestionOrchestrator{
		boards:    boards,
		nodes:     nodes,
		generator: generator,
		builder:   builder,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle executes the ask question command
func (h *AskQuestionOrchestrator) Handle(ctx context.Context, cmd commands.AskQuestionCommand) (*AskQuestionResult, error) {
	if utf8.RuneCountInString(cmd.Question) > h.cfg.MaxQuestionLength {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("question exceeds maximum length of %d characters", h.cfg.MaxQuestionLength)).
			WithCode(pkgerrors.CodeQuestionTooLong)
	}

	board, err := h.boards.GetByID(ctx, cmd.BoardID)
	if err != nil {
		return nil, err
	}
	if !board.IsOwnedBy(cmd.UserID) {
		return nil, pkgerrors.NewForbiddenError("board belongs to another user")
	}

	questionContent, err := valueobjects.NewQuestionContentWithConfig(cmd.Question, h.cfg)
	if err != nil {
		return nil, err
	}

	parentID, err := parseOptionalID(cmd.ParentID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid parent ID")
	}
	rootID, err := parseOptionalID(cmd.RootID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid root ID")
	}

	linkage, err := threads.LinkQuestion(parentID, rootID)
	if err != nil {
		return nil, err
	}

	// Conversation history for the generator, bounded by the context cap
	history, err := h.builder.Build(ctx, cmd.BoardID, parentID)
	if err != nil {
		return nil, err
	}

	// Generation runs before any store write and is bounded by the domain
	// timeout. A failure or expiry here aborts the whole request with no
	// nodes persisted.
	answerText, err := h.generate(ctx, history, cmd.Question, cmd.Quoted)
	if err != nil {
		return nil, err
	}

	answerContent, err := valueobjects.NewAnswerContent(answerText)
	if err != nil {
		return nil, pkgerrors.NewUpstreamError(pkgerrors.CodeLLMInvalidResponse, "generator returned empty answer", err)
	}

	question, answer, err := h.buildPair(cmd, linkage, questionContent, answerContent)
	if err != nil {
		return nil, err
	}

	saga := sagas.NewBuilder("ask_question", h.logger).
		WithCompensableStep("persist_question",
			func(ctx context.Context, data interface{}) (interface{}, error) {
				return data, h.nodes.Save(ctx, question)
			},
			func(ctx context.Context, data interface{}) error {
				return h.nodes.Delete(ctx, cmd.BoardID, question.ID())
			},
		).
		WithCompensableStep("persist_answer",
			func(ctx context.Context, data interface{}) (interface{}, error) {
				return data, h.nodes.Save(ctx, answer)
			},
			func(ctx context.Context, data interface{}) error {
				return h.nodes.Delete(ctx, cmd.BoardID, answer.ID())
			},
		).
		Build()

	if _, err := saga.Execute(ctx, nil); err != nil {
		return nil, err
	}

	// Node mutations refresh the board's last-modified stamp. Best effort:
	// the pair is already durable.
	board.Touch()
	if err := h.boards.Save(ctx, board); err != nil {
		h.logger.Warn("failed to refresh board timestamp",
			zap.String("boardID", cmd.BoardID),
			zap.Error(err),
		)
	}

	h.publish(ctx, question, answer, linkage.IsFollowup)

	return &AskQuestionResult{Question: question, Answer: answer}, nil
}

// generate calls the answer generator under the domain timeout
func (h *AskQuestionOrchestrator) generate(ctx context.Context, history []ports.Message, prompt, quoted string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, h.cfg.GenerationTimeout)
	defer cancel()

	text, err := h.generator.Generate(genCtx, ports.GenerateRequest{
		History: history,
		Prompt:  prompt,
		Quoted:  quoted,
	})
	if err != nil {
		if genCtx.Err() == context.DeadlineExceeded && !pkgerrors.IsTimeout(err) {
			return "", pkgerrors.NewTimeoutError("answer generation")
		}
		return "", err
	}
	return text, nil
}

// buildPair creates the question and answer entities with their linkage.
// A root question anchors its own thread once it has an id; a follow-up
// carries the propagated root. The answer always hangs off the question and
// shares its root.
func (h *AskQuestionOrchestrator) buildPair(
	cmd commands.AskQuestionCommand,
	linkage threads.PairLinkage,
	questionContent, answerContent valueobjects.Content,
) (*entities.Node, *entities.Node, error) {
	questionPos := h.questionPosition(cmd)
	questionBox, err := valueobjects.NewBox(h.cfg.QuestionBoxWidth, h.cfg.QuestionBoxHeight)
	if err != nil {
		return nil, nil, err
	}

	question, err := entities.NewNode(
		cmd.BoardID,
		linkage.QuestionKind,
		questionContent,
		linkage.ParentID,
		linkage.RootID,
		questionPos,
		questionBox,
	)
	if err != nil {
		return nil, nil, err
	}

	if !linkage.IsFollowup {
		if err := question.FinalizeRoot(); err != nil {
			return nil, nil, err
		}
	}

	answerBox, err := valueobjects.NewBox(h.cfg.AnswerBoxWidth, h.cfg.AnswerBoxHeight)
	if err != nil {
		return nil, nil, err
	}

	questionID := question.ID()
	answerRoot := question.RootID()
	answer, err := entities.NewNode(
		cmd.BoardID,
		linkage.AnswerKind,
		answerContent,
		&questionID,
		answerRoot,
		questionPos.Translate(h.cfg.AnswerOffsetX(), 0),
		answerBox,
	)
	if err != nil {
		return nil, nil, err
	}

	return question, answer, nil
}

// questionPosition uses the caller's coordinates when given, otherwise
// spreads the question within a bounded area around the default spot. The
// spread avoids exact overlap between successive roots; it is a heuristic,
// not a collision guarantee.
func (h *AskQuestionOrchestrator) questionPosition(cmd commands.AskQuestionCommand) valueobjects.Position {
	if cmd.X != nil && cmd.Y != nil {
		return valueobjects.NewPosition(*cmd.X, *cmd.Y)
	}
	x := h.cfg.DefaultQuestionX + (rand.Float64()-0.5)*h.cfg.SpreadWidth
	y := h.cfg.DefaultQuestionY + (rand.Float64()-0.5)*h.cfg.SpreadHeight
	return valueobjects.NewPosition(x, y)
}

func (h *AskQuestionOrchestrator) publish(ctx context.Context, question, answer *entities.Node, isFollowup bool) {
	rootID := ""
	if rid := question.RootID(); rid != nil {
		rootID = rid.String()
	}

	evts := question.GetUncommittedEvents()
	evts = append(evts, answer.GetUncommittedEvents()...)
	evts = append(evts, events.NewQuestionAsked(
		question.BoardID(),
		question.ID().String(),
		answer.ID().String(),
		rootID,
		isFollowup,
		question.CreatedAt(),
	))

	if err := h.publisher.Publish(ctx, evts); err != nil {
		h.logger.Warn("failed to publish events", zap.Error(err))
	}
	question.MarkEventsAsCommitted()
	answer.MarkEventsAsCommitted()
}

func parseOptionalID(raw *string) (*valueobjects.NodeID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := valueobjects.NewNodeIDFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

package handlers

import (
	"context"
	"strings"
	"testing"

	"threadboard/application/commands"
	"threadboard/application/ports"
	"threadboard/application/services"
	"threadboard/domain/config"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	"threadboard/infrastructure/persistence/memory"
	pkgerrors "threadboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	answer  string
	err     error
	lastReq ports.GenerateRequest
	calls   int
}

func (g *stubGenerator) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type env struct {
	store     *memory.Store
	publisher *memory.Publisher
	generator *stubGenerator
	ask       *AskQuestionOrchestrator
	delete    *DeleteNodeHandler
	update    *UpdateNodeHandler
	board     *entities.Board
	userID    string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.NewStore()
	publisher := memory.NewPublisher()
	generator := &stubGenerator{answer: "generated answer"}
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	builder := services.NewContextBuilder(store.Nodes(), cfg.MaxContextTurns, logger)

	userID := "user-1"
	createBoard := NewCreateBoardHandler(store.Boards(), publisher, logger)
	board, err := createBoard.Handle(context.Background(), commands.CreateBoardCommand{
		UserID: userID,
		Title:  "brainstorm",
	})
	require.NoError(t, err)

	return &env{
		store:     store,
		publisher: publisher,
		generator: generator,
		ask:       NewAskQuestionOrchestrator(store.Boards(), store.Nodes(), generator, builder, publisher, cfg, logger),
		delete:    NewDeleteNodeHandler(store.Boards(), store.Nodes(), publisher, logger),
		update:    NewUpdateNodeHandler(store.Boards(), store.Nodes(), publisher, logger),
		board:     board,
		userID:    userID,
	}
}

func (e *env) askRoot(t *testing.T, question string) *AskQuestionResult {
	t.Helper()
	result, err := e.ask.Handle(context.Background(), commands.AskQuestionCommand{
		BoardID:  e.board.ID(),
		UserID:   e.userID,
		Question: question,
	})
	require.NoError(t, err)
	return result
}

func (e *env) askFollowup(t *testing.T, question string, parent *entities.Node) *AskQuestionResult {
	t.Helper()
	parentID := parent.ID().String()
	rootID := parent.RootID().String()
	result, err := e.ask.Handle(context.Background(), commands.AskQuestionCommand{
		BoardID:  e.board.ID(),
		UserID:   e.userID,
		Question: question,
		ParentID: &parentID,
		RootID:   &rootID,
	})
	require.NoError(t, err)
	return result
}

func (e *env) boardNodes(t *testing.T) []*entities.Node {
	t.Helper()
	nodes, err := e.store.Nodes().ListByBoard(context.Background(), e.board.ID())
	require.NoError(t, err)
	return nodes
}

func TestAskQuestion_RootPairLinkage(t *testing.T) {
	e := newEnv(t)

	result := e.askRoot(t, "What is photosynthesis?")

	q, a := result.Question, result.Answer
	assert.Equal(t, entities.KindRootQuestion, q.Kind())
	assert.Nil(t, q.ParentID())
	require.NotNil(t, q.RootID())
	assert.True(t, q.RootID().Equals(q.ID()), "a root question anchors its own thread")

	assert.Equal(t, entities.KindAIAnswer, a.Kind())
	require.NotNil(t, a.ParentID())
	assert.True(t, a.ParentID().Equals(q.ID()))
	require.NotNil(t, a.RootID())
	assert.True(t, a.RootID().Equals(q.ID()))
	assert.Equal(t, "generated answer", a.Content().Text())

	// The pair is persisted
	assert.Len(t, e.boardNodes(t), 2)
}

func TestAskQuestion_AnswerPlacedBesideQuestion(t *testing.T) {
	e := newEnv(t)
	x, y := 400.0, 200.0

	result, err := e.ask.Handle(context.Background(), commands.AskQuestionCommand{
		BoardID:  e.board.ID(),
		UserID:   e.userID,
		Question: "placement?",
		X:        &x,
		Y:        &y,
	})
	require.NoError(t, err)

	cfg := config.DefaultDomainConfig()
	assert.Equal(t, x, result.Question.Position().X())
	assert.Equal(t, y, result.Question.Position().Y())
	assert.Equal(t, x+cfg.AnswerOffsetX(), result.Answer.Position().X())
	assert.Equal(t, y, result.Answer.Position().Y())
}

func TestAskQuestion_FollowupLinkage(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "root?")

	result := e.askFollowup(t, "tell me more", root.Answer)

	q, a := result.Question, result.Answer
	assert.Equal(t, entities.KindFollowupQuestion, q.Kind())
	require.NotNil(t, q.ParentID())
	assert.True(t, q.ParentID().Equals(root.Answer.ID()))
	require.NotNil(t, q.RootID())
	assert.True(t, q.RootID().Equals(root.Question.ID()), "rootID propagates from the ancestor root")

	assert.Equal(t, entities.KindFollowupAnswer, a.Kind())
	require.NotNil(t, a.ParentID())
	assert.True(t, a.ParentID().Equals(q.ID()))
	assert.True(t, a.RootID().Equals(root.Question.ID()))
}

func TestAskQuestion_FollowupFeedsHistoryToGenerator(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "root question")

	e.askFollowup(t, "follow up", root.Answer)

	history := e.generator.lastReq.History
	require.Len(t, history, 2)
	assert.Equal(t, ports.RoleUser, history[0].Role)
	assert.Equal(t, "root question", history[0].Content)
	assert.Equal(t, ports.RoleAssistant, history[1].Role)
	assert.Equal(t, "generated answer", history[1].Content)
	assert.Equal(t, "follow up", e.generator.lastReq.Prompt)
}

func TestAskQuestion_TooLongRejectedBeforeStore(t *testing.T) {
	e := newEnv(t)

	_, err := e.ask.Handle(context.Background(), commands.AskQuestionCommand{
		BoardID:  e.board.ID(),
		UserID:   e.userID,
		Question: strings.Repeat("x", 501),
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeQuestionTooLong, appErr.Code)
	assert.Zero(t, e.generator.calls, "no generation for rejected input")
	assert.Empty(t, e.boardNodes(t))
}

func TestAskQuestion_GeneratorFailureLeavesNoNodes(t *testing.T) {
	e := newEnv(t)
	e.generator.err = pkgerrors.NewUpstreamError(pkgerrors.CodeLLMRateLimit, "rate limited", nil)

	_, err := e.ask.Handle(context.Background(), commands.AskQuestionCommand{
		BoardID:  e.board.ID(),
		UserID:   e.userID,
		Question: "doomed question",
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsUpstream(err))
	assert.Empty(t, e.boardNodes(t), "generation failure must not persist nodes")
}

func TestAskQuestion_ForbiddenForNonOwner(t *testing.T) {
	e := newEnv(t)

	_, err := e.ask.Handle(context.Background(), commands.AskQuestionCommand{
		BoardID:  e.board.ID(),
		UserID:   "intruder",
		Question: "whose board is this?",
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsForbidden(err))
	assert.Empty(t, e.boardNodes(t))
}

func TestDeleteNode_LeafFollowupRemovesExactlyPair(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "root?")
	followup := e.askFollowup(t, "leaf follow-up", root.Answer)

	result, err := e.delete.Handle(context.Background(), commands.DeleteNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  followup.Question.ID().String(),
	})

	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{followup.Question.ID().String(), followup.Answer.ID().String()},
		result.DeletedIDs,
	)

	remaining := e.boardNodes(t)
	require.Len(t, remaining, 2)
	for _, n := range remaining {
		require.NotNil(t, n.RootID())
		assert.True(t, n.RootID().Equals(root.Question.ID()), "surviving rootIDs unchanged")
	}
}

func TestDeleteNode_RootWithoutChildren(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "lonely root")

	result, err := e.delete.Handle(context.Background(), commands.DeleteNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  root.Question.ID().String(),
	})

	require.NoError(t, err)
	assert.Len(t, result.DeletedIDs, 2)
	assert.Empty(t, e.boardNodes(t))
}

func TestDeleteNode_PromotesFollowupToNewAnchor(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "original root")
	followup := e.askFollowup(t, "becomes the new root", root.Answer)
	deep := e.askFollowup(t, "stays in the thread", followup.Answer)

	_, err := e.delete.Handle(context.Background(), commands.DeleteNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  root.Question.ID().String(),
	})
	require.NoError(t, err)

	byID := map[string]*entities.Node{}
	for _, n := range e.boardNodes(t) {
		byID[n.ID().String()] = n
	}
	require.Len(t, byID, 4)

	newRoot := byID[followup.Question.ID().String()]
	require.NotNil(t, newRoot)
	assert.Equal(t, entities.KindRootQuestion, newRoot.Kind())
	assert.Nil(t, newRoot.ParentID())
	require.NotNil(t, newRoot.RootID())
	assert.True(t, newRoot.RootID().Equals(newRoot.ID()), "promoted question anchors its own thread")

	newRootAnswer := byID[followup.Answer.ID().String()]
	require.NotNil(t, newRootAnswer)
	assert.Equal(t, entities.KindAIAnswer, newRootAnswer.Kind())
	assert.True(t, newRootAnswer.RootID().Equals(newRoot.ID()))

	// Every survivor of the old thread now groups under the new anchor
	for _, id := range []valueobjects.NodeID{deep.Question.ID(), deep.Answer.ID()} {
		n := byID[id.String()]
		require.NotNil(t, n)
		assert.True(t, n.RootID().Equals(newRoot.ID()))
	}
}

func TestDeleteNode_AnswerTargetDeletesQuestionToo(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "root?")

	result, err := e.delete.Handle(context.Background(), commands.DeleteNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  root.Answer.ID().String(),
	})

	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{root.Question.ID().String(), root.Answer.ID().String()},
		result.DeletedIDs,
	)
	assert.Empty(t, e.boardNodes(t))
}

func TestDeleteNode_MissingNodeIsNotFoundAndMutatesNothing(t *testing.T) {
	e := newEnv(t)
	e.askRoot(t, "root?")
	before := e.boardNodes(t)

	_, err := e.delete.Handle(context.Background(), commands.DeleteNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  valueobjects.NewNodeID().String(),
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Len(t, e.boardNodes(t), len(before))
}

func TestDeleteNode_OnlyFirstSiblingFollowupPromoted(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "root?")
	first := e.askFollowup(t, "first sibling", root.Answer)
	second := e.askFollowup(t, "second sibling", root.Answer)

	_, err := e.delete.Handle(context.Background(), commands.DeleteNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  root.Question.ID().String(),
	})
	require.NoError(t, err)

	byID := map[string]*entities.Node{}
	for _, n := range e.boardNodes(t) {
		byID[n.ID().String()] = n
	}

	promoted := byID[first.Question.ID().String()]
	require.NotNil(t, promoted)
	assert.Equal(t, entities.KindRootQuestion, promoted.Kind())

	// The second sibling stays a follow-up, regrouped under the new anchor
	// but still pointing at the deleted answer.
	sibling := byID[second.Question.ID().String()]
	require.NotNil(t, sibling)
	assert.Equal(t, entities.KindFollowupQuestion, sibling.Kind())
	require.NotNil(t, sibling.ParentID())
	assert.True(t, sibling.ParentID().Equals(root.Answer.ID()))
	assert.True(t, sibling.RootID().Equals(promoted.ID()))
}

func TestUpdateNode_MovesPosition(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "movable")
	x, y := 1000.0, 750.0

	node, err := e.update.Handle(context.Background(), commands.UpdateNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  root.Question.ID().String(),
		X:       &x,
		Y:       &y,
	})

	require.NoError(t, err)
	assert.Equal(t, x, node.Position().X())
	assert.Equal(t, y, node.Position().Y())

	stored, err := e.store.Nodes().GetByID(context.Background(), e.board.ID(), root.Question.ID())
	require.NoError(t, err)
	assert.Equal(t, x, stored.Position().X())
}

func TestUpdateNode_Resize(t *testing.T) {
	e := newEnv(t)
	root := e.askRoot(t, "resizable")
	w, h := 600.0, 500.0

	node, err := e.update.Handle(context.Background(), commands.UpdateNodeCommand{
		BoardID: e.board.ID(),
		UserID:  e.userID,
		NodeID:  root.Question.ID().String(),
		Width:   &w,
		Height:  &h,
	})

	require.NoError(t, err)
	assert.Equal(t, w, node.Box().Width())
	assert.Equal(t, h, node.Box().Height())
}

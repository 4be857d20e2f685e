package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"threadboard/application/ports"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	"threadboard/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBoardID = "board-1"

// seedThread persists a chain of alternating question/answer nodes, depth
// pairs deep, and returns the nodes oldest first.
func seedThread(t *testing.T, repo ports.NodeRepository, pairs int) []*entities.Node {
	t.Helper()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var chain []*entities.Node
	var parent *entities.Node
	var root *entities.Node

	box, err := valueobjects.NewBox(450, 400)
	require.NoError(t, err)

	add := func(kind entities.NodeKind, text string) *entities.Node {
		var parentID, rootID *valueobjects.NodeID
		if parent != nil {
			id := parent.ID()
			parentID = &id
		}
		if root != nil {
			id := root.ID()
			rootID = &id
		}
		content, err := valueobjects.NewAnswerContent(text)
		require.NoError(t, err)

		node, err := entities.ReconstructNode(
			valueobjects.NewNodeID(),
			testBoardID,
			kind,
			content,
			parentID,
			rootID,
			valueobjects.NewPosition(400, 200),
			box,
			base.Add(time.Duration(len(chain))*time.Second),
			base.Add(time.Duration(len(chain))*time.Second),
		)
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), node))

		chain = append(chain, node)
		parent = node
		return node
	}

	for i := 0; i < pairs; i++ {
		qKind, aKind := entities.KindFollowupQuestion, entities.KindFollowupAnswer
		if i == 0 {
			qKind, aKind = entities.KindRootQuestion, entities.KindAIAnswer
		}
		q := add(qKind, fmt.Sprintf("question %d", i+1))
		if i == 0 {
			root = q
			id := q.ID()
			q.AssignRoot(id)
			require.NoError(t, repo.Save(context.Background(), q))
		}
		add(aKind, fmt.Sprintf("answer %d", i+1))
	}
	return chain
}

func TestContextBuilder_NilParent(t *testing.T) {
	store := memory.NewStore()
	builder := NewContextBuilder(store.Nodes(), 6, zap.NewNop())

	history, err := builder.Build(context.Background(), testBoardID, nil)

	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestContextBuilder_WalksChainOldestFirst(t *testing.T) {
	store := memory.NewStore()
	chain := seedThread(t, store.Nodes(), 3)
	builder := NewContextBuilder(store.Nodes(), 6, zap.NewNop())

	// Start from the deepest answer, as a new follow-up would
	last := chain[len(chain)-1].ID()
	history, err := builder.Build(context.Background(), testBoardID, &last)

	require.NoError(t, err)
	require.Len(t, history, 6)
	assert.Equal(t, ports.Message{Role: ports.RoleUser, Content: "question 1"}, history[0])
	assert.Equal(t, ports.Message{Role: ports.RoleAssistant, Content: "answer 1"}, history[1])
	assert.Equal(t, ports.Message{Role: ports.RoleUser, Content: "question 2"}, history[2])
	assert.Equal(t, ports.Message{Role: ports.RoleAssistant, Content: "answer 2"}, history[3])
	assert.Equal(t, ports.Message{Role: ports.RoleUser, Content: "question 3"}, history[4])
	assert.Equal(t, ports.Message{Role: ports.RoleAssistant, Content: "answer 3"}, history[5])
}

func TestContextBuilder_CapsAtTwiceMaxTurns(t *testing.T) {
	store := memory.NewStore()
	chain := seedThread(t, store.Nodes(), 10)
	builder := NewContextBuilder(store.Nodes(), 6, zap.NewNop())

	last := chain[len(chain)-1].ID()
	history, err := builder.Build(context.Background(), testBoardID, &last)

	require.NoError(t, err)
	require.Len(t, history, 12)
	// The cap keeps the most recent turns and drops the oldest ancestors
	assert.Equal(t, "question 5", history[0].Content)
	assert.Equal(t, "answer 10", history[11].Content)
}

func TestContextBuilder_DanglingParentEndsWalk(t *testing.T) {
	store := memory.NewStore()
	chain := seedThread(t, store.Nodes(), 2)

	// Remove the root pair out from under the chain
	require.NoError(t, store.Nodes().Delete(context.Background(), testBoardID, chain[0].ID()))
	require.NoError(t, store.Nodes().Delete(context.Background(), testBoardID, chain[1].ID()))

	builder := NewContextBuilder(store.Nodes(), 6, zap.NewNop())
	last := chain[len(chain)-1].ID()
	history, err := builder.Build(context.Background(), testBoardID, &last)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "question 2", history[0].Content)
	assert.Equal(t, "answer 2", history[1].Content)
}

package threads

import (
	"testing"
	"time"

	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	pkgerrors "threadboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardFixture assembles a board snapshot node by node with strictly
// increasing creation times, so ordering-sensitive selections are
// deterministic.
type boardFixture struct {
	t     *testing.T
	nodes []*entities.Node
	base  time.Time
	seq   int
}

func newFixture(t *testing.T) *boardFixture {
	return &boardFixture{
		t:    t,
		base: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *boardFixture) add(kind entities.NodeKind, text string, parent, root *entities.Node) *entities.Node {
	f.t.Helper()

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
	require.NoError(f.t, err)
	box, err := valueobjects.NewBox(450, 400)
	require.NoError(f.t, err)

	f.seq++
	node, err := entities.ReconstructNode(
		valueobjects.NewNodeID(),
		"board-1",
		kind,
		content,
		parentID,
		rootID,
		valueobjects.NewPosition(float64(f.seq)*10, 200),
		box,
		f.base.Add(time.Duration(f.seq)*time.Second),
		f.base.Add(time.Duration(f.seq)*time.Second),
	)
	require.NoError(f.t, err)

	if kind == entities.KindRootQuestion && root == nil {
		id := node.ID()
		node.AssignRoot(id)
	}

	f.nodes = append(f.nodes, node)
	return node
}

func (f *boardFixture) index() *Index {
	return NewIndex(f.nodes)
}

// thread builds root question + answer and returns both
func (f *boardFixture) rootPair() (*entities.Node, *entities.Node) {
	q := f.add(entities.KindRootQuestion, "root question", nil, nil)
	a := f.add(entities.KindAIAnswer, "root answer", q, q)
	return q, a
}

// followupPair attaches a follow-up question/answer under the given answer
func (f *boardFixture) followupPair(answer, root *entities.Node) (*entities.Node, *entities.Node) {
	q := f.add(entities.KindFollowupQuestion, "follow-up question", answer, root)
	a := f.add(entities.KindFollowupAnswer, "follow-up answer", q, root)
	return q, a
}

func TestLinkQuestion_NewRoot(t *testing.T) {
	linkage, err := LinkQuestion(nil, nil)

	require.NoError(t, err)
	assert.Equal(t, entities.KindRootQuestion, linkage.QuestionKind)
	assert.Equal(t, entities.KindAIAnswer, linkage.AnswerKind)
	assert.Nil(t, linkage.ParentID)
	assert.Nil(t, linkage.RootID)
	assert.False(t, linkage.IsFollowup)
}

func TestLinkQuestion_Followup(t *testing.T) {
	parentID := valueobjects.NewNodeID()
	rootID := valueobjects.NewNodeID()

	linkage, err := LinkQuestion(&parentID, &rootID)

	require.NoError(t, err)
	assert.Equal(t, entities.KindFollowupQuestion, linkage.QuestionKind)
	assert.Equal(t, entities.KindFollowupAnswer, linkage.AnswerKind)
	require.NotNil(t, linkage.ParentID)
	assert.True(t, linkage.ParentID.Equals(parentID))
	require.NotNil(t, linkage.RootID)
	assert.True(t, linkage.RootID.Equals(rootID))
	assert.True(t, linkage.IsFollowup)
}

func TestLinkQuestion_FollowupWithoutRoot(t *testing.T) {
	parentID := valueobjects.NewNodeID()

	_, err := LinkQuestion(&parentID, nil)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestLinkQuestion_RootWithRootID(t *testing.T) {
	rootID := valueobjects.NewNodeID()

	_, err := LinkQuestion(nil, &rootID)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPairOf_QuestionResolvesAnswer(t *testing.T) {
	f := newFixture(t)
	q, a := f.rootPair()
	ix := f.index()

	pair := ix.PairOf(q)

	require.NotNil(t, pair)
	assert.True(t, pair.ID().Equals(a.ID()))
}

func TestPairOf_AnswerResolvesQuestion(t *testing.T) {
	f := newFixture(t)
	q, a := f.rootPair()
	ix := f.index()

	pair := ix.PairOf(a)

	require.NotNil(t, pair)
	assert.True(t, pair.ID().Equals(q.ID()))
}

func TestPairOf_IgnoresFollowupChildren(t *testing.T) {
	// An answer's children include follow-up questions; only the node with
	// the paired answer kind counts as the question's partner.
	f := newFixture(t)
	q, a := f.rootPair()
	f.followupPair(a, q)
	ix := f.index()

	pair := ix.PairOf(q)

	require.NotNil(t, pair)
	assert.True(t, pair.ID().Equals(a.ID()))
}

func TestPlanDeletion_NotFound(t *testing.T) {
	f := newFixture(t)
	f.rootPair()
	ix := f.index()

	_, err := PlanDeletion(ix, valueobjects.NewNodeID())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestPlanDeletion_LeafFollowupPair(t *testing.T) {
	f := newFixture(t)
	q, a := f.rootPair()
	fq, fa := f.followupPair(a, q)
	ix := f.index()

	plan, err := PlanDeletion(ix, fq.ID())

	require.NoError(t, err)
	require.Len(t, plan.DeletedIDs, 2)
	assert.True(t, plan.DeletedIDs[0].Equals(fq.ID()))
	assert.True(t, plan.DeletedIDs[1].Equals(fa.ID()))
	assert.Nil(t, plan.Promotion)
	assert.Empty(t, plan.Reassign)
	assert.Empty(t, plan.Orphaned)
}

func TestPlanDeletion_RootWithoutFollowups(t *testing.T) {
	f := newFixture(t)
	q, a := f.rootPair()
	ix := f.index()

	plan, err := PlanDeletion(ix, q.ID())

	require.NoError(t, err)
	require.Len(t, plan.DeletedIDs, 2)
	assert.True(t, plan.DeletedIDs[0].Equals(q.ID()))
	assert.True(t, plan.DeletedIDs[1].Equals(a.ID()))
	assert.Nil(t, plan.Promotion)
}

func TestPlanDeletion_RootPromotesFirstFollowup(t *testing.T) {
	f := newFixture(t)
	q, a := f.rootPair()
	fq, fa := f.followupPair(a, q)
	// One level deeper, linked to the root transitively
	dq, da := f.followupPair(fa, q)
	ix := f.index()

	plan, err := PlanDeletion(ix, q.ID())

	require.NoError(t, err)
	require.NotNil(t, plan.Promotion)
	assert.True(t, plan.Promotion.Question.ID().Equals(fq.ID()))
	require.NotNil(t, plan.Promotion.Answer)
	assert.True(t, plan.Promotion.Answer.ID().Equals(fa.ID()))
	require.NotNil(t, plan.Promotion.OldRootID)
	assert.True(t, plan.Promotion.OldRootID.Equals(q.ID()))

	// The deep pair must be regrouped under the new anchor; the promoted
	// pair and the deleted pair must not appear in the reassignment set.
	require.Len(t, plan.Reassign, 2)
	reassigned := map[string]bool{}
	for _, n := range plan.Reassign {
		reassigned[n.ID().String()] = true
	}
	assert.True(t, reassigned[dq.ID().String()])
	assert.True(t, reassigned[da.ID().String()])
}

func TestPlanDeletion_TargetIsAnswer(t *testing.T) {
	// Deleting either member of a pair removes both. An answer resolves its
	// question through its own parentID.
	f := newFixture(t)
	q, a := f.rootPair()
	fq, _ := f.followupPair(a, q)
	ix := f.index()

	plan, err := PlanDeletion(ix, a.ID())

	require.NoError(t, err)
	require.Len(t, plan.DeletedIDs, 2)
	assert.True(t, plan.DeletedIDs[0].Equals(a.ID()))
	assert.True(t, plan.DeletedIDs[1].Equals(q.ID()))
	require.NotNil(t, plan.Promotion)
	assert.True(t, plan.Promotion.Question.ID().Equals(fq.ID()))
}

func TestPlanDeletion_OnlyFirstFollowupPromoted(t *testing.T) {
	f := newFixture(t)
	q, a := f.rootPair()
	first, _ := f.followupPair(a, q)
	second, _ := f.followupPair(a, q)
	third, _ := f.followupPair(a, q)
	ix := f.index()

	plan, err := PlanDeletion(ix, q.ID())

	require.NoError(t, err)
	require.NotNil(t, plan.Promotion)
	assert.True(t, plan.Promotion.Question.ID().Equals(first.ID()))

	require.Len(t, plan.Orphaned, 2)
	assert.True(t, plan.Orphaned[0].ID().Equals(second.ID()))
	assert.True(t, plan.Orphaned[1].ID().Equals(third.ID()))
}

func TestPlanDeletion_ReassignIsBoardWideForOldRoot(t *testing.T) {
	// Nodes in an unrelated thread keep their rootID untouched.
	f := newFixture(t)
	q, a := f.rootPair()
	f.followupPair(a, q)
	otherQ, otherA := f.rootPair()
	ix := f.index()

	plan, err := PlanDeletion(ix, q.ID())

	require.NoError(t, err)
	for _, n := range plan.Reassign {
		assert.False(t, n.ID().Equals(otherQ.ID()))
		assert.False(t, n.ID().Equals(otherA.ID()))
	}
}

func TestThreadMembers(t *testing.T) {
	f := newFixture(t)
	q, a := f.rootPair()
	fq, fa := f.followupPair(a, q)
	f.rootPair() // unrelated thread
	ix := f.index()

	members := ix.ThreadMembers(q.ID())

	require.Len(t, members, 4)
	assert.True(t, members[0].ID().Equals(q.ID()))
	assert.True(t, members[1].ID().Equals(a.ID()))
	assert.True(t, members[2].ID().Equals(fq.ID()))
	assert.True(t, members[3].ID().Equals(fa.ID()))
}

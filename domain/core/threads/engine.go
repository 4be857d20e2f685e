package threads

import (
	"sort"

	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	pkgerrors "threadboard/pkg/errors"
)

// This package is the thread-integrity engine. It is pure decision logic:
// it consumes a snapshot of one board's nodes and produces the set of
// mutations that keep parent/root linkage consistent. Applying those
// mutations (and persisting them) is the orchestration layer's job.

// Index is a read-only snapshot of a board's nodes, keyed for the traversals
// the engine performs. The graph is a flat table addressed by id; parent and
// root fields are references into the table, never in-memory pointers.
type Index struct {
	byID     map[string]*entities.Node
	byParent map[string][]*entities.Node
	all      []*entities.Node
}

// NewIndex builds an index over a board's nodes. Children lists are ordered
// by creation time so "first follow-up" selections are deterministic.
func NewIndex(nodes []*entities.Node) *Index {
	ix := &Index{
		byID:     make(map[string]*entities.Node, len(nodes)),
		byParent: make(map[string][]*entities.Node),
		all:      nodes,
	}
	for _, n := range nodes {
		ix.byID[n.ID().String()] = n
		if pid := n.ParentID(); pid != nil {
			key := pid.String()
			ix.byParent[key] = append(ix.byParent[key], n)
		}
	}
	for _, children := range ix.byParent {
		sortByCreation(children)
	}
	return ix
}

// Get looks up a node by id
func (ix *Index) Get(id valueobjects.NodeID) (*entities.Node, bool) {
	n, ok := ix.byID[id.String()]
	return n, ok
}

// ChildrenOf returns the direct children of a node, oldest first
func (ix *Index) ChildrenOf(id valueobjects.NodeID) []*entities.Node {
	return ix.byParent[id.String()]
}

// PairOf resolves the 1:1 partner of a node. A question's pair is the answer
// whose parentID equals the question's id; an answer's pair is the node its
// own parentID references. Matching goes through parentID only: a compound
// match on rootID can mis-pair after a promotion has rewritten root
// references.
func (ix *Index) PairOf(n *entities.Node) *entities.Node {
	if n.Kind().IsQuestion() {
		answerKind, ok := n.Kind().PairedAnswerKind()
		if !ok {
			return nil
		}
		for _, child := range ix.ChildrenOf(n.ID()) {
			if child.Kind() == answerKind {
				return child
			}
		}
		return nil
	}
	pid := n.ParentID()
	if pid == nil {
		return nil
	}
	pair, ok := ix.Get(*pid)
	if !ok {
		return nil
	}
	return pair
}

// ThreadMembers returns every node whose rootID equals rootID, oldest first
func (ix *Index) ThreadMembers(rootID valueobjects.NodeID) []*entities.Node {
	var members []*entities.Node
	for _, n := range ix.all {
		if rid := n.RootID(); rid != nil && rid.Equals(rootID) {
			members = append(members, n)
		}
	}
	sortByCreation(members)
	return members
}

// PairLinkage describes how a new question/answer pair hooks into the graph.
// For a root question RootID is nil: the anchor reference is finalized to the
// question's own id only after the store has assigned one.
type PairLinkage struct {
	QuestionKind entities.NodeKind
	AnswerKind   entities.NodeKind
	ParentID     *valueobjects.NodeID
	RootID       *valueobjects.NodeID
	IsFollowup   bool
}

// LinkQuestion computes creation-time linkage for a new question. A nil
// parentID starts a brand-new thread; a non-nil parentID is a follow-up asked
// against an existing answer and must carry the thread's rootID, propagated
// from the ancestor root rather than recomputed.
func LinkQuestion(parentID, rootID *valueobjects.NodeID) (PairLinkage, error) {
	if parentID == nil {
		if rootID != nil {
			return PairLinkage{}, pkgerrors.NewValidationError("a new root question cannot carry a rootId")
		}
		return PairLinkage{
			QuestionKind: entities.KindRootQuestion,
			AnswerKind:   entities.KindAIAnswer,
		}, nil
	}
	if rootID == nil {
		return PairLinkage{}, pkgerrors.NewValidationError("a follow-up question requires the thread's rootId")
	}
	return PairLinkage{
		QuestionKind: entities.KindFollowupQuestion,
		AnswerKind:   entities.KindFollowupAnswer,
		ParentID:     parentID,
		RootID:       rootID,
		IsFollowup:   true,
	}, nil
}

// Promotion names the follow-up pair that becomes the new thread anchor
// after a deletion. Answer is nil when the promoted question has no pair.
type Promotion struct {
	Question  *entities.Node
	Answer    *entities.Node
	OldRootID *valueobjects.NodeID
}

// DeletionPlan is the full set of mutations a deletion requires. The plan is
// computed against a snapshot and applied by the caller: promote, reassign,
// then delete, in that order.
type DeletionPlan struct {
	Target *entities.Node
	Pair   *entities.Node

	// Promotion is nil when no follow-up question child exists.
	Promotion *Promotion

	// Reassign lists every surviving node in the board whose rootID still
	// references the old thread anchor and must be repointed at the promoted
	// question. Board-wide on purpose: follow-ups several levels down are
	// linked to the root transitively, not through the deleted pair.
	Reassign []*entities.Node

	// Orphaned lists follow-up question children beyond the promoted one.
	// Only the first follow-up is promoted; the rest keep a parentID that
	// points at a deleted node. Reported so callers can log or surface the
	// gap, but deliberately not rewired.
	Orphaned []*entities.Node

	DeletedIDs []valueobjects.NodeID
}

// PlanDeletion computes the mutations required to delete a node and its
// paired partner while keeping the rest of the thread grouped. The snapshot
// is not modified.
func PlanDeletion(ix *Index, targetID valueobjects.NodeID) (*DeletionPlan, error) {
	target, ok := ix.Get(targetID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}

	plan := &DeletionPlan{Target: target}
	plan.Pair = ix.PairOf(target)

	plan.DeletedIDs = append(plan.DeletedIDs, target.ID())
	if plan.Pair != nil {
		plan.DeletedIDs = append(plan.DeletedIDs, plan.Pair.ID())
	}

	// Direct children of the question and of the answer, minus the pair
	// itself. The answer's children are the follow-up questions asked
	// against it.
	children := ix.ChildrenOf(target.ID())
	if plan.Pair != nil {
		children = append(children, ix.ChildrenOf(plan.Pair.ID())...)
	}
	sortByCreation(children)

	var followups []*entities.Node
	for _, child := range children {
		if isDeleted(plan, child.ID()) {
			continue
		}
		if child.Kind() == entities.KindFollowupQuestion {
			followups = append(followups, child)
		}
	}

	if len(followups) == 0 {
		return plan, nil
	}

	promoted := followups[0]
	plan.Promotion = &Promotion{
		Question:  promoted,
		Answer:    ix.PairOf(promoted),
		OldRootID: target.RootID(),
	}
	plan.Orphaned = followups[1:]

	if oldRoot := target.RootID(); oldRoot != nil {
		for _, n := range ix.ThreadMembers(*oldRoot) {
			if isDeleted(plan, n.ID()) {
				continue
			}
			if n.ID().Equals(promoted.ID()) {
				continue
			}
			if plan.Promotion.Answer != nil && n.ID().Equals(plan.Promotion.Answer.ID()) {
				continue
			}
			plan.Reassign = append(plan.Reassign, n)
		}
	}

	return plan, nil
}

func isDeleted(plan *DeletionPlan, id valueobjects.NodeID) bool {
	for _, deleted := range plan.DeletedIDs {
		if deleted.Equals(id) {
			return true
		}
	}
	return false
}

func sortByCreation(nodes []*entities.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].CreatedAt().Before(nodes[j].CreatedAt())
	})
}

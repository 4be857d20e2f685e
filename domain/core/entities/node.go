package entities

import (
	"time"

	"threadboard/domain/core/valueobjects"
	"threadboard/domain/events"
	pkgerrors "threadboard/pkg/errors"
)

// NodeKind classifies a card on the canvas. The enumeration is closed:
// question nodes always come paired with exactly one answer node.
type NodeKind string

const (
	KindRootQuestion     NodeKind = "root_question"
	KindAIAnswer         NodeKind = "ai_answer"
	KindFollowupQuestion NodeKind = "followup_question"
	KindFollowupAnswer   NodeKind = "followup_answer"
)

// IsQuestion reports whether the kind is one of the question kinds
func (k NodeKind) IsQuestion() bool {
	return k == KindRootQuestion || k == KindFollowupQuestion
}

// IsAnswer reports whether the kind is one of the answer kinds
func (k NodeKind) IsAnswer() bool {
	return k == KindAIAnswer || k == KindFollowupAnswer
}

// PairedAnswerKind returns the answer kind that pairs with a question kind
func (k NodeKind) PairedAnswerKind() (NodeKind, bool) {
	switch k {
	case KindRootQuestion:
		return KindAIAnswer, true
	case KindFollowupQuestion:
		return KindFollowupAnswer, true
	default:
		return "", false
	}
}

// ValidKind reports whether s names a known node kind
func ValidKind(s string) bool {
	switch NodeKind(s) {
	case KindRootQuestion, KindAIAnswer, KindFollowupQuestion, KindFollowupAnswer:
		return true
	default:
		return false
	}
}

// Node is a single card on the canvas: one question or one answer.
// Thread structure is carried entirely by parentID and rootID references
// into the board's flat node table, never by in-memory pointers.
type Node struct {
	id       valueobjects.NodeID
	boardID  string
	kind     NodeKind
	content  valueobjects.Content
	parentID *valueobjects.NodeID
	rootID   *valueobjects.NodeID
	position valueobjects.Position
	box      valueobjects.Box

	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewNode creates a node with full business rule validation. parentID and
// rootID may be nil: a root question starts with both unset and has its
// rootID finalized to its own id after the store assigns one.
func NewNode(
	boardID string,
	kind NodeKind,
	content valueobjects.Content,
	parentID, rootID *valueobjects.NodeID,
	position valueobjects.Position,
	box valueobjects.Box,
) (*Node, error) {
	if boardID == "" {
		return nil, pkgerrors.NewValidationError("boardID cannot be empty")
	}
	if !ValidKind(string(kind)) {
		return nil, pkgerrors.NewValidationError("unknown node kind")
	}
	if content.IsEmpty() {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if kind == KindRootQuestion && parentID != nil {
		return nil, pkgerrors.NewValidationError("root question cannot have a parent")
	}
	if kind != KindRootQuestion && parentID == nil {
		return nil, pkgerrors.NewValidationError("non-root node requires a parent")
	}

	now := time.Now()
	node := &Node{
		id:        valueobjects.NewNodeID(),
		boardID:   boardID,
		kind:      kind,
		content:   content,
		parentID:  copyID(parentID),
		rootID:    copyID(rootID),
		position:  position,
		box:       box,
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}

	return node, nil
}

// ReconstructNode rebuilds a node from repository data with preserved
// identity and timestamps. No events are raised.
func ReconstructNode(
	id valueobjects.NodeID,
	boardID string,
	kind NodeKind,
	content valueobjects.Content,
	parentID, rootID *valueobjects.NodeID,
	position valueobjects.Position,
	box valueobjects.Box,
	createdAt, updatedAt time.Time,
) (*Node, error) {
	if boardID == "" {
		return nil, pkgerrors.NewValidationError("boardID cannot be empty")
	}
	if !ValidKind(string(kind)) {
		return nil, pkgerrors.NewValidationError("unknown node kind")
	}

	return &Node{
		id:        id,
		boardID:   boardID,
		kind:      kind,
		content:   content,
		parentID:  copyID(parentID),
		rootID:    copyID(rootID),
		position:  position,
		box:       box,
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// BoardID returns the owning board's id; immutable after creation
func (n *Node) BoardID() string { return n.boardID }

// Kind returns the node's kind
func (n *Node) Kind() NodeKind { return n.kind }

// Content returns the node's text content
func (n *Node) Content() valueobjects.Content { return n.content }

// ParentID returns the node this one replies to, or nil for roots
func (n *Node) ParentID() *valueobjects.NodeID { return copyID(n.parentID) }

// RootID returns the thread anchor's id, or nil before finalization
func (n *Node) RootID() *valueobjects.NodeID { return copyID(n.rootID) }

// Position returns the node's canvas position
func (n *Node) Position() valueobjects.Position { return n.position }

// Box returns the node's rendered size
func (n *Node) Box() valueobjects.Box { return n.box }

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// IsThreadAnchor reports whether the node anchors its own thread:
// a root question whose rootID equals its own id.
func (n *Node) IsThreadAnchor() bool {
	return n.kind == KindRootQuestion && n.rootID != nil && n.rootID.Equals(n.id)
}

// FinalizeRoot sets a root question's rootID to its own id, making it the
// thread anchor. Only valid for root questions.
func (n *Node) FinalizeRoot() error {
	if n.kind != KindRootQuestion {
		return pkgerrors.NewValidationError("only a root question can anchor a thread")
	}
	id := n.id
	n.rootID = &id
	n.updatedAt = time.Now()
	return nil
}

// PromoteToRoot turns a follow-up question into a new thread anchor: the
// parent reference is cleared, the rootID becomes the node's own id, and the
// kind changes to root_question.
func (n *Node) PromoteToRoot() error {
	if n.kind != KindFollowupQuestion {
		return pkgerrors.NewValidationError("only a follow-up question can be promoted to root")
	}
	oldRoot := ""
	if n.rootID != nil {
		oldRoot = n.rootID.String()
	}

	id := n.id
	n.kind = KindRootQuestion
	n.parentID = nil
	n.rootID = &id
	n.updatedAt = time.Now()

	n.addEvent(events.NewThreadReanchored(n.boardID, oldRoot, n.id.String(), n.updatedAt))
	return nil
}

// PromoteAnswer rewrites a follow-up answer as the ai_answer of a freshly
// promoted root, assigning it the new thread anchor.
func (n *Node) PromoteAnswer(newRootID valueobjects.NodeID) error {
	if n.kind != KindFollowupAnswer {
		return pkgerrors.NewValidationError("only a follow-up answer can be promoted")
	}
	n.kind = KindAIAnswer
	n.rootID = &newRootID
	n.updatedAt = time.Now()
	return nil
}

// AssignRoot reassigns the node's thread anchor. Used when the remainder of
// a thread is regrouped under a promoted root.
func (n *Node) AssignRoot(rootID valueobjects.NodeID) {
	n.rootID = &rootID
	n.updatedAt = time.Now()
}

// MoveTo moves the node to a new canvas position
func (n *Node) MoveTo(position valueobjects.Position) {
	if position.Equals(n.position) {
		return
	}
	old := n.position
	n.position = position
	n.updatedAt = time.Now()
	n.addEvent(events.NewNodeMoved(n.boardID, n.id.String(), old.X(), old.Y(), position.X(), position.Y(), n.updatedAt))
}

// Resize changes the node's rendered size
func (n *Node) Resize(box valueobjects.Box) {
	if box.Equals(n.box) {
		return
	}
	n.box = box
	n.updatedAt = time.Now()
}

// UpdateContent replaces the node's text
func (n *Node) UpdateContent(content valueobjects.Content) error {
	if content.IsEmpty() {
		return pkgerrors.NewValidationError("content cannot be empty")
	}
	if content.Equals(n.content) {
		return nil
	}
	n.content = content
	n.updatedAt = time.Now()
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}

func copyID(id *valueobjects.NodeID) *valueobjects.NodeID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

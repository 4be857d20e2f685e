package queries

import (
	"time"

	"threadboard/domain/core/entities"
)

// NodeView is the read-model shape of a node, serialized for the canvas
type NodeView struct {
	ID        string  `json:"id"`
	BoardID   string  `json:"boardId"`
	Kind      string  `json:"kind"`
	Content   string  `json:"content"`
	ParentID  *string `json:"parentId"`
	RootID    *string `json:"rootId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// NewNodeView maps a node entity to its read model
func NewNodeView(node *entities.Node) NodeView {
	view := NodeView{
		ID:        node.ID().String(),
		BoardID:   node.BoardID(),
		Kind:      string(node.Kind()),
		Content:   node.Content().Text(),
		X:         node.Position().X(),
		Y:         node.Position().Y(),
		Width:     node.Box().Width(),
		Height:    node.Box().Height(),
		CreatedAt: node.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt: node.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
	if pid := node.ParentID(); pid != nil {
		s := pid.String()
		view.ParentID = &s
	}
	if rid := node.RootID(); rid != nil {
		s := rid.String()
		view.RootID = &s
	}
	return view
}

// NewNodeViews maps a slice of node entities
func NewNodeViews(nodes []*entities.Node) []NodeView {
	views := make([]NodeView, 0, len(nodes))
	for _, node := range nodes {
		views = append(views, NewNodeView(node))
	}
	return views
}

// BoardView is the read-model shape of a board
type BoardView struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// NewBoardView maps a board entity to its read model
func NewBoardView(board *entities.Board) BoardView {
	return BoardView{
		ID:        board.ID(),
		OwnerID:   board.OwnerID(),
		Title:     board.Title(),
		CreatedAt: board.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt: board.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
}

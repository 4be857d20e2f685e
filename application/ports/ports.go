package ports

import (
	"context"
	"time"

	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	"threadboard/domain/events"
)

// NodeRepository provides persistence for canvas nodes. All operations are
// scoped to one board; there is no cross-board access path.
type NodeRepository interface {
	// Save creates or overwrites a node
	Save(ctx context.Context, node *entities.Node) error

	// SaveMany persists a batch of nodes; used for board-wide root
	// reassignment after a promotion
	SaveMany(ctx context.Context, nodes []*entities.Node) error

	// GetByID retrieves a node by id within a board
	GetByID(ctx context.Context, boardID string, id valueobjects.NodeID) (*entities.Node, error)

	// ListByBoard returns every node on a board
	ListByBoard(ctx context.Context, boardID string) ([]*entities.Node, error)

	// Delete removes a node
	Delete(ctx context.Context, boardID string, id valueobjects.NodeID) error

	// DeleteMany removes a set of nodes
	DeleteMany(ctx context.Context, boardID string, ids []valueobjects.NodeID) error
}

// BoardRepository provides persistence for boards
type BoardRepository interface {
	Save(ctx context.Context, board *entities.Board) error
	GetByID(ctx context.Context, id string) (*entities.Board, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Board, error)
	Delete(ctx context.Context, id string) error
}

// Message is one turn of conversation history handed to the generator
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateRequest carries everything the answer generator needs for one
// completion: prior thread history oldest-first, the new question, and an
// optional quoted excerpt the question refers to.
type GenerateRequest struct {
	History []Message
	Prompt  string
	Quoted  string
}

// AnswerGenerator produces answer text from a conversation. Implementations
// fail with upstream-failure or timeout errors from pkg/errors; they never
// partially succeed.
type AnswerGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// EventPublisher delivers domain events to interested consumers after a
// mutation has been persisted. Delivery is best-effort; publish failures must
// not fail the originating request.
type EventPublisher interface {
	Publish(ctx context.Context, evts []events.DomainEvent) error
}

// Cache provides read-through caching for query results
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

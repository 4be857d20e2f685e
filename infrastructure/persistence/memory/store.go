package memory

import (
	"context"
	"sort"
	"sync"

	"threadboard/application/ports"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	"threadboard/domain/events"
	pkgerrors "threadboard/pkg/errors"
)

// Store is an in-memory implementation of the node and board repositories.
// It backs tests and local development; semantics mirror the DynamoDB
// implementation, including copy-on-read so callers never alias stored
// state.
type Store struct {
	mu     sync.RWMutex
	nodes  map[string]map[string]*entities.Node // boardID -> nodeID -> node
	boards map[string]*entities.Board
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		nodes:  make(map[string]map[string]*entities.Node),
		boards: make(map[string]*entities.Board),
	}
}

// Nodes returns the store's node repository view
func (s *Store) Nodes() ports.NodeRepository { return (*nodeRepository)(s) }

// Boards returns the store's board repository view
func (s *Store) Boards() ports.BoardRepository { return (*boardRepository)(s) }

type nodeRepository Store

func (r *nodeRepository) Save(ctx context.Context, node *entities.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(node)
}

func (r *nodeRepository) SaveMany(ctx context.Context, nodes []*entities.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range nodes {
		if err := r.saveLocked(node); err != nil {
			return err
		}
	}
	return nil
}

func (r *nodeRepository) saveLocked(node *entities.Node) error {
	copied, err := copyNode(node)
	if err != nil {
		return err
	}
	board, ok := r.nodes[node.BoardID()]
	if !ok {
		board = make(map[string]*entities.Node)
		r.nodes[node.BoardID()] = board
	}
	board[node.ID().String()] = copied
	return nil
}

func (r *nodeRepository) GetByID(ctx context.Context, boardID string, id valueobjects.NodeID) (*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[boardID][id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return copyNode(node)
}

func (r *nodeRepository) ListByBoard(ctx context.Context, boardID string) ([]*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*entities.Node, 0, len(r.nodes[boardID]))
	for _, node := range r.nodes[boardID] {
		copied, err := copyNode(node)
		if err != nil {
			return nil, err
		}
		list = append(list, copied)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt().Before(list[j].CreatedAt())
	})
	return list, nil
}

func (r *nodeRepository) Delete(ctx context.Context, boardID string, id valueobjects.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(boardID, id)
}

func (r *nodeRepository) DeleteMany(ctx context.Context, boardID string, ids []valueobjects.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if err := r.deleteLocked(boardID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *nodeRepository) deleteLocked(boardID string, id valueobjects.NodeID) error {
	board, ok := r.nodes[boardID]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	if _, ok := board[id.String()]; !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	delete(board, id.String())
	return nil
}

type boardRepository Store

func (r *boardRepository) Save(ctx context.Context, board *entities.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied, err := copyBoard(board)
	if err != nil {
		return err
	}
	r.boards[board.ID()] = copied
	return nil
}

func (r *boardRepository) GetByID(ctx context.Context, id string) (*entities.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	board, ok := r.boards[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("board")
	}
	return copyBoard(board)
}

func (r *boardRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []*entities.Board
	for _, board := range r.boards {
		if board.OwnerID() != ownerID {
			continue
		}
		copied, err := copyBoard(board)
		if err != nil {
			return nil, err
		}
		list = append(list, copied)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt().Before(list[j].CreatedAt())
	})
	return list, nil
}

func (r *boardRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.boards[id]; !ok {
		return pkgerrors.NewNotFoundError("board")
	}
	delete(r.boards, id)
	delete(r.nodes, id)
	return nil
}

func copyNode(node *entities.Node) (*entities.Node, error) {
	return entities.ReconstructNode(
		node.ID(),
		node.BoardID(),
		node.Kind(),
		node.Content(),
		node.ParentID(),
		node.RootID(),
		node.Position(),
		node.Box(),
		node.CreatedAt(),
		node.UpdatedAt(),
	)
}

func copyBoard(board *entities.Board) (*entities.Board, error) {
	return entities.ReconstructBoard(
		board.ID(),
		board.OwnerID(),
		board.Title(),
		board.CreatedAt(),
		board.UpdatedAt(),
	)
}

// Publisher is an in-memory event publisher that records everything it is
// handed. Tests assert against Published.
type Publisher struct {
	mu        sync.Mutex
	Published []events.DomainEvent
}

// NewPublisher creates an in-memory publisher
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish appends the events to the published log
func (p *Publisher) Publish(ctx context.Context, evts []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, evts...)
	return nil
}

package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	"threadboard/domain/config"
	"threadboard/domain/events"
	pkgerrors "threadboard/pkg/errors"

	"github.com/google/uuid"
)

// Board is an owned workspace of nodes. Exactly one owner; visible and
// mutable only by that owner.
type Board struct {
	id        string
	ownerID   string
	title     string
	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewBoard creates a board with validation
func NewBoard(ownerID, title string) (*Board, error) {
	title = strings.TrimSpace(title)
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > config.DefaultDomainConfig().MaxBoardTitleLength {
		return nil, pkgerrors.NewValidationError("title too long")
	}

	now := time.Now()
	board := &Board{
		id:        uuid.New().String(),
		ownerID:   ownerID,
		title:     title,
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}
	board.addEvent(events.NewBoardCreated(board.id, ownerID, title, now))
	return board, nil
}

// ReconstructBoard rebuilds a board from repository data
func ReconstructBoard(id, ownerID, title string, createdAt, updatedAt time.Time) (*Board, error) {
	if id == "" || ownerID == "" {
		return nil, pkgerrors.NewValidationError("board id and ownerID are required")
	}
	return &Board{
		id:        id,
		ownerID:   ownerID,
		title:     title,
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}, nil
}

// ID returns the board's unique identifier
func (b *Board) ID() string { return b.id }

// OwnerID returns the owning user's id
func (b *Board) OwnerID() string { return b.ownerID }

// Title returns the board title
func (b *Board) Title() string { return b.title }

// CreatedAt returns when the board was created
func (b *Board) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-modified timestamp
func (b *Board) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy reports whether userID owns this board
func (b *Board) IsOwnedBy(userID string) bool {
	return b.ownerID == userID
}

// Rename changes the board title
func (b *Board) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > config.DefaultDomainConfig().MaxBoardTitleLength {
		return pkgerrors.NewValidationError("title too long")
	}
	if title == b.title {
		return nil
	}
	b.title = title
	b.updatedAt = time.Now()
	b.addEvent(events.NewBoardRenamed(b.id, title, b.updatedAt))
	return nil
}

// Touch refreshes the last-modified timestamp. Every node mutation on the
// board goes through this.
func (b *Board) Touch() {
	b.updatedAt = time.Now()
}

// GetUncommittedEvents returns all uncommitted domain events
func (b *Board) GetUncommittedEvents() []events.DomainEvent {
	return b.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (b *Board) MarkEventsAsCommitted() {
	b.events = []events.DomainEvent{}
}

func (b *Board) addEvent(event events.DomainEvent) {
	b.events = append(b.events, event)
}

package events

import "time"

// DomainEvent is the base interface for all domain events.
// Events represent something that has happened in the past.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// SourceBackend identifies this service as the event source
const SourceBackend = "threadboard.backend"

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Node events

// QuestionAsked is raised when a question/answer pair has been created
type QuestionAsked struct {
	BaseEvent
	BoardID    string `json:"board_id"`
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
	RootID     string `json:"root_id"`
	IsFollowup bool   `json:"is_followup"`
}

// NewQuestionAsked creates a QuestionAsked event
func NewQuestionAsked(boardID, questionID, answerID, rootID string, isFollowup bool, timestamp time.Time) QuestionAsked {
	return QuestionAsked{
		BaseEvent: BaseEvent{
			AggregateID: questionID,
			EventType:   "node.question_asked",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID:    boardID,
		QuestionID: questionID,
		AnswerID:   answerID,
		RootID:     rootID,
		IsFollowup: isFollowup,
	}
}

// NodeMoved is raised when a node is moved to a new position
type NodeMoved struct {
	BaseEvent
	BoardID string  `json:"board_id"`
	NodeID  string  `json:"node_id"`
	OldX    float64 `json:"old_x"`
	OldY    float64 `json:"old_y"`
	NewX    float64 `json:"new_x"`
	NewY    float64 `json:"new_y"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(boardID, nodeID string, oldX, oldY, newX, newY float64, timestamp time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent: BaseEvent{
			AggregateID: nodeID,
			EventType:   "node.moved",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID: boardID,
		NodeID:  nodeID,
		OldX:    oldX,
		OldY:    oldY,
		NewX:    newX,
		NewY:    newY,
	}
}

// NodePairDeleted is raised when a question/answer pair has been removed
type NodePairDeleted struct {
	BaseEvent
	BoardID    string   `json:"board_id"`
	DeletedIDs []string `json:"deleted_ids"`
}

// NewNodePairDeleted creates a NodePairDeleted event
func NewNodePairDeleted(boardID string, deletedIDs []string, timestamp time.Time) NodePairDeleted {
	aggregate := boardID
	if len(deletedIDs) > 0 {
		aggregate = deletedIDs[0]
	}
	return NodePairDeleted{
		BaseEvent: BaseEvent{
			AggregateID: aggregate,
			EventType:   "node.pair_deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID:    boardID,
		DeletedIDs: deletedIDs,
	}
}

// ThreadReanchored is raised when a follow-up question becomes the new root
// of its thread after a deletion.
type ThreadReanchored struct {
	BaseEvent
	BoardID   string `json:"board_id"`
	OldRootID string `json:"old_root_id"`
	NewRootID string `json:"new_root_id"`
}

// NewThreadReanchored creates a ThreadReanchored event
func NewThreadReanchored(boardID, oldRootID, newRootID string, timestamp time.Time) ThreadReanchored {
	return ThreadReanchored{
		BaseEvent: BaseEvent{
			AggregateID: newRootID,
			EventType:   "thread.reanchored",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID:   boardID,
		OldRootID: oldRootID,
		NewRootID: newRootID,
	}
}

// Board events

// BoardCreated is raised when a new board is created
type BoardCreated struct {
	BaseEvent
	BoardID string `json:"board_id"`
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

// NewBoardCreated creates a BoardCreated event
func NewBoardCreated(boardID, ownerID, title string, timestamp time.Time) BoardCreated {
	return BoardCreated{
		BaseEvent: BaseEvent{
			AggregateID: boardID,
			EventType:   "board.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID: boardID,
		OwnerID: ownerID,
		Title:   title,
	}
}

// BoardRenamed is raised when a board's title changes
type BoardRenamed struct {
	BaseEvent
	BoardID string `json:"board_id"`
	Title   string `json:"title"`
}

// NewBoardRenamed creates a BoardRenamed event
func NewBoardRenamed(boardID, title string, timestamp time.Time) BoardRenamed {
	return BoardRenamed{
		BaseEvent: BaseEvent{
			AggregateID: boardID,
			EventType:   "board.renamed",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID: boardID,
		Title:   title,
	}
}

// BoardDeleted is raised when a board and its nodes are removed
type BoardDeleted struct {
	BaseEvent
	BoardID string `json:"board_id"`
	OwnerID string `json:"owner_id"`
}

// NewBoardDeleted creates a BoardDeleted event
func NewBoardDeleted(boardID, ownerID string, timestamp time.Time) BoardDeleted {
	return BoardDeleted{
		BaseEvent: BaseEvent{
			AggregateID: boardID,
			EventType:   "board.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		BoardID: boardID,
		OwnerID: ownerID,
	}
}

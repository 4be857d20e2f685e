package commands

import (
	"errors"
	"strings"
	"unicode/utf8"

	"threadboard/domain/config"
)

// AskQuestionCommand creates a question/answer pair on a board. A nil
// ParentID starts a new thread; a non-nil ParentID is a follow-up asked
// against an existing answer node and must carry the thread's RootID.
type AskQuestionCommand struct {
	BoardID  string  `json:"board_id" validate:"required"`
	UserID   string  `json:"user_id" validate:"required"`
	Question string  `json:"question" validate:"required,max=500"`
	ParentID *string `json:"parent_id,omitempty"`
	RootID   *string `json:"root_id,omitempty"`

	// Quoted is an optional excerpt of the parent answer the question
	// refers to; it is passed through to the generator, never stored.
	Quoted string `json:"quoted,omitempty"`

	// Optional question placement. When absent the orchestrator spreads
	// the node within the default area.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Validate validates the command
func (cmd AskQuestionCommand) Validate() error {
	if cmd.BoardID == "" {
		return errors.New("board ID is required")
	}
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if strings.TrimSpace(cmd.Question) == "" {
		return errors.New("question is required")
	}
	if utf8.RuneCountInString(cmd.Question) > config.DefaultDomainConfig().MaxQuestionLength {
		return errors.New("question exceeds maximum length")
	}
	if cmd.ParentID != nil && cmd.RootID == nil {
		return errors.New("a follow-up question requires the thread's root ID")
	}
	if cmd.ParentID == nil && cmd.RootID != nil {
		return errors.New("a new root question cannot carry a root ID")
	}
	return nil
}

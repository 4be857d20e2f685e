package commands

import (
	"errors"
	"strings"
	"unicode/utf8"

	"threadboard/domain/config"
)

// CreateBoardCommand creates an empty board owned by the caller
type CreateBoardCommand struct {
	UserID string `json:"user_id" validate:"required"`
	Title  string `json:"title" validate:"required,max=120"`
}

// Validate validates the command
func (cmd CreateBoardCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	return validateTitle(cmd.Title)
}

// RenameBoardCommand changes a board's title
type RenameBoardCommand struct {
	BoardID string `json:"board_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=120"`
}

// Validate validates the command
func (cmd RenameBoardCommand) Validate() error {
	if cmd.BoardID == "" {
		return errors.New("board ID is required")
	}
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	return validateTitle(cmd.Title)
}

// DeleteBoardCommand removes a board and every node on it
type DeleteBoardCommand struct {
	BoardID string `json:"board_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

// Validate validates the command
func (cmd DeleteBoardCommand) Validate() error {
	if cmd.BoardID == "" {
		return errors.New("board ID is required")
	}
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > config.DefaultDomainConfig().MaxBoardTitleLength {
		return errors.New("title exceeds maximum length")
	}
	return nil
}

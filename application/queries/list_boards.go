package queries

import "errors"

// ListBoardsQuery lists the boards a user owns
type ListBoardsQuery struct {
	UserID string
}

// Validate validates the ListBoardsQuery
func (q ListBoardsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// ListBoardsResult carries the caller's boards, oldest first
type ListBoardsResult struct {
	Boards []BoardView `json:"boards"`
}

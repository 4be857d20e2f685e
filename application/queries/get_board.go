package queries

import "errors"

// GetBoardQuery fetches a board together with every node on it
type GetBoardQuery struct {
	UserID  string
	BoardID string
}

// Validate validates the GetBoardQuery
func (q GetBoardQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.BoardID == "" {
		return errors.New("board ID is required")
	}
	return nil
}

// GetBoardResult carries the board and its full node set
type GetBoardResult struct {
	Board BoardView  `json:"board"`
	Nodes []NodeView `json:"nodes"`
}

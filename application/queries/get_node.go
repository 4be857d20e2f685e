package queries

import "errors"

// GetNodeQuery fetches a single node on a board
type GetNodeQuery struct {
	UserID  string
	BoardID string
	NodeID  string
}

// Validate validates the GetNodeQuery
func (q GetNodeQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.BoardID == "" {
		return errors.New("board ID is required")
	}
	if q.NodeID == "" {
		return errors.New("node ID is required")
	}
	return nil
}

package queries

import "errors"

// GetThreadQuery fetches every node sharing one root anchor, oldest first.
// The canvas uses this to re-color a thread after a promotion.
type GetThreadQuery struct {
	UserID  string
	BoardID string
	RootID  string
}

// Validate validates the GetThreadQuery
func (q GetThreadQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.BoardID == "" {
		return errors.New("board ID is required")
	}
	if q.RootID == "" {
		return errors.New("root ID is required")
	}
	return nil
}

// GetThreadResult carries the thread's members in creation order
type GetThreadResult struct {
	RootID string     `json:"rootId"`
	Nodes  []NodeView `json:"nodes"`
}

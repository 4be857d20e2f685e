package commands

import "errors"

// UpdateNodeCommand adjusts a node's geometry. Position and size are the
// only node fields the canvas may mutate directly; graph structure never
// changes through this path. The canvas debounces drags, so the store only
// sees the final value of a movement.
type UpdateNodeCommand struct {
	BoardID string `json:"board_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	NodeID  string `json:"node_id" validate:"required"`

	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Validate validates the command
func (cmd UpdateNodeCommand) Validate() error {
	if cmd.BoardID == "" {
		return errors.New("board ID is required")
	}
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.NodeID == "" {
		return errors.New("node ID is required")
	}
	if (cmd.X == nil) != (cmd.Y == nil) {
		return errors.New("position requires both x and y")
	}
	if (cmd.Width == nil) != (cmd.Height == nil) {
		return errors.New("size requires both width and height")
	}
	if cmd.X == nil && cmd.Width == nil {
		return errors.New("nothing to update")
	}
	if cmd.Width != nil && (*cmd.Width <= 0 || *cmd.Height <= 0) {
		return errors.New("size must be positive")
	}
	return nil
}

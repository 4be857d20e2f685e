package valueobjects

import pkgerrors "threadboard/pkg/errors"

// Position is a 2D canvas coordinate. Geometry is mutated independently of
// graph structure, so it lives in its own value object.
type Position struct {
	x float64
	y float64
}

// NewPosition creates a position from canvas coordinates
func NewPosition(x, y float64) Position {
	return Position{x: x, y: y}
}

// X returns the horizontal coordinate
func (p Position) X() float64 { return p.x }

// Y returns the vertical coordinate
func (p Position) Y() float64 { return p.y }

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	return p.x == other.x && p.y == other.y
}

// Translate returns a position shifted by dx, dy
func (p Position) Translate(dx, dy float64) Position {
	return Position{x: p.x + dx, y: p.y + dy}
}

// Box is the rendered size of a card on the canvas
type Box struct {
	width  float64
	height float64
}

// NewBox creates a box with validation
func NewBox(width, height float64) (Box, error) {
	if width <= 0 || height <= 0 {
		return Box{}, pkgerrors.NewValidationError("box dimensions must be positive")
	}
	return Box{width: width, height: height}, nil
}

// Width returns the box width
func (b Box) Width() float64 { return b.width }

// Height returns the box height
func (b Box) Height() float64 { return b.height }

// Equals checks if two boxes are equal
func (b Box) Equals(other Box) bool {
	return b.width == other.width && b.height == other.height
}

package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"threadboard/domain/config"
	pkgerrors "threadboard/pkg/errors"
)

// Content is a value object for the text carried by a node. Questions are
// length-capped at the boundary; answers are bounded by the generator's own
// output limit instead.
type Content struct {
	text string
}

// NewQuestionContent creates question text with validation using the default
// domain configuration.
func NewQuestionContent(text string) (Content, error) {
	return NewQuestionContentWithConfig(text, config.DefaultDomainConfig())
}

// NewQuestionContentWithConfig creates question text with validation
func NewQuestionContentWithConfig(text string, cfg *config.DomainConfig) (Content, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Content{}, pkgerrors.NewValidationError("question cannot be empty")
	}

	if utf8.RuneCountInString(text) > cfg.MaxQuestionLength {
		return Content{}, pkgerrors.NewValidationError(
			fmt.Sprintf("question exceeds maximum length of %d characters", cfg.MaxQuestionLength))
	}

	return Content{text: text}, nil
}

// NewAnswerContent creates answer text with validation
func NewAnswerContent(text string) (Content, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Content{}, pkgerrors.NewValidationError("answer cannot be empty")
	}
	return Content{text: text}, nil
}

// Text returns the content text
func (c Content) Text() string {
	return c.text
}

// IsEmpty checks if content is empty
func (c Content) IsEmpty() bool {
	return c.text == ""
}

// Equals checks if two contents are equal
func (c Content) Equals(other Content) bool {
	return c.text == other.text
}

// Summary returns a truncated summary of the content
func (c Content) Summary(maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(c.text) <= maxLength {
		return c.text
	}
	runes := []rune(c.text)
	return string(runes[:maxLength-3]) + "..."
}

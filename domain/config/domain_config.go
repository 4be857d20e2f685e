package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Question constraints
	MaxQuestionLength int
	MaxAnswerLength   int

	// Conversation context
	MaxContextTurns int

	// Canvas layout
	QuestionBoxWidth  float64
	QuestionBoxHeight float64
	AnswerBoxWidth    float64
	AnswerBoxHeight   float64
	AnswerGapX        float64

	// Default placement for root questions created without a position
	DefaultQuestionX float64
	DefaultQuestionY float64

	// Spread bounds for randomized placement (avoids exact overlap,
	// not a hard non-overlap guarantee)
	SpreadWidth  float64
	SpreadHeight float64

	// Answer generation
	GenerationTimeout time.Duration

	// Board constraints
	MaxBoardTitleLength int
	MaxNodesPerBoard    int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Question constraints
		MaxQuestionLength: 500,
		MaxAnswerLength:   0, // No ceiling; the generator bounds output itself

		// Conversation context: 6 turns, i.e. up to 12 messages
		MaxContextTurns: 6,

		// Canvas layout. The answer sits at a fixed horizontal offset from
		// its question (answer width + gap) on the same row.
		QuestionBoxWidth:  450,
		QuestionBoxHeight: 400,
		AnswerBoxWidth:    320,
		AnswerBoxHeight:   200,
		AnswerGapX:        30,

		DefaultQuestionX: 400,
		DefaultQuestionY: 200,

		SpreadWidth:  800,
		SpreadHeight: 600,

		GenerationTimeout: 30 * time.Second,

		MaxBoardTitleLength: 120,
		MaxNodesPerBoard:    5000,
	}
}

// AnswerOffsetX returns the horizontal distance between a question and
// its paired answer.
func (c *DomainConfig) AnswerOffsetX() float64 {
	return c.AnswerBoxWidth + c.AnswerGapX
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	return nil
}

package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is a single unit of work in a saga. Compensate undoes the step's
// effects and may be nil for read-only or idempotent work.
type Step struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
}

// State represents the current state of a saga execution
type State string

const (
	StatePending      State = "PENDING"
	StateRunning      State = "RUNNING"
	StateCompleted    State = "COMPLETED"
	StateFailed       State = "FAILED"
	StateCompensating State = "COMPENSATING"
	StateCompensated  State = "COMPENSATED"
)

// Saga runs a sequence of steps and, on failure, compensates the completed
// ones in reverse order. Multi-step store mutations that have no
// transactional backing run through a saga so a mid-sequence failure never
// leaves half-applied state behind silently.
type Saga struct {
	id          string
	name        string
	steps       []Step
	state       State
	currentStep int
	logger      *zap.Logger
}

// NewSaga creates a new saga instance
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{
		id:     uuid.New().String(),
		name:   name,
		state:  StatePending,
		logger: logger,
	}
}

// AddStep appends a step to the saga
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs every step in order. The output of each step is the input of
// the next. On the first failure the completed steps are compensated in
// reverse order and the step's error is returned.
func (s *Saga) Execute(ctx context.Context, initialData interface{}) (interface{}, error) {
	s.state = StateRunning
	s.logger.Info("starting saga",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
		zap.Int("total_steps", len(s.steps)),
	)

	data := initialData

	// One compensation slot per completed step, nil when the step has no
	// compensation, so indices always line up with the step list.
	compensations := make([]func(ctx context.Context) error, 0, len(s.steps))

	for i, step := range s.steps {
		s.currentStep = i

		result, err := s.runWithRetry(ctx, step, data)
		if err != nil {
			s.state = StateFailed
			s.logger.Error("saga step failed",
				zap.String("saga_id", s.id),
				zap.String("step_name", step.Name),
				zap.Error(err),
			)
			s.compensate(ctx, compensations)
			s.state = StateCompensated
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}

		data = result
		if step.Compensate != nil {
			stepData := data
			compensate := step.Compensate
			compensations = append(compensations, func(ctx context.Context) error {
				return compensate(ctx, stepData)
			})
		} else {
			compensations = append(compensations, nil)
		}
	}

	s.state = StateCompleted
	s.logger.Info("saga completed",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
	)
	return data, nil
}

func (s *Saga) runWithRetry(ctx context.Context, step Step, data interface{}) (interface{}, error) {
	attempts := step.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
		s.logger.Warn("saga step attempt failed",
			zap.String("saga_id", s.id),
			zap.String("step_name", step.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

// compensate runs registered compensations newest first. A failing
// compensation is logged and the rest still run.
func (s *Saga) compensate(ctx context.Context, compensations []func(ctx context.Context) error) {
	s.state = StateCompensating
	for i := len(compensations) - 1; i >= 0; i-- {
		if compensations[i] == nil {
			continue
		}
		if err := compensations[i](ctx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga_id", s.id),
				zap.String("saga_name", s.name),
				zap.Int("step_number", i+1),
				zap.Error(err),
			)
		}
	}
}

// GetState returns the current state of the saga
func (s *Saga) GetState() State {
	return s.state
}

// GetID returns the saga ID
func (s *Saga) GetID() string {
	return s.id
}

// Builder provides a fluent interface for assembling sagas
type Builder struct {
	saga *Saga
}

// NewBuilder creates a new saga builder
func NewBuilder(name string, logger *zap.Logger) *Builder {
	return &Builder{saga: NewSaga(name, logger)}
}

// WithStep adds a step without compensation
func (b *Builder) WithStep(name string, execute func(context.Context, interface{}) (interface{}, error)) *Builder {
	b.saga.AddStep(Step{Name: name, Execute: execute})
	return b
}

// WithCompensableStep adds a step with compensation logic
func (b *Builder) WithCompensableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	compensate func(context.Context, interface{}) error,
) *Builder {
	b.saga.AddStep(Step{Name: name, Execute: execute, Compensate: compensate})
	return b
}

// WithRetryableStep adds a step retried on failure
func (b *Builder) WithRetryableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	maxRetries int,
	retryDelay time.Duration,
) *Builder {
	b.saga.AddStep(Step{Name: name, Execute: execute, MaxRetries: maxRetries, RetryDelay: retryDelay})
	return b
}

// Build returns the constructed saga
func (b *Builder) Build() *Saga {
	return b.saga
}

// Package saga runs an ordered list of steps and, when one fails, undoes the
// steps that already completed by running their compensations in reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bu-wallet-ledger/internal/metrics"
)

// Outcome of a single step as recorded for the journal
const (
	OutcomeCompleted          = "completed"
	OutcomeFailed             = "failed"
	OutcomeCompensated        = "compensated"
	OutcomeCompensationFailed = "compensation_failed"
	OutcomeSkipped            = "skipped"
)

// Step is one action together with the action that reverses it.
// Compensate may be nil for steps with nothing to undo.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepRecord is what happened to a step during a run
type StepRecord struct {
	Name    string
	Outcome string
	Err     error
}

// Saga is a named sequence of steps
type Saga struct {
	Name   string
	Steps  []Step
	logger *slog.Logger

	records []StepRecord
}

func New(name string, logger *slog.Logger, steps ...Step) *Saga {
	return &Saga{
		Name:   name,
		Steps:  steps,
		logger: logger.With("saga", name),
	}
}

// Records returns the per-step outcomes of the last Run
func (s *Saga) Records() []StepRecord {
	return s.records
}

// Run executes the steps in order. On the first failing step it compensates
// every completed step in reverse order and returns an *OrchestrationFailure.
// Compensations run on a context that ignores cancellation of ctx so that a
// cancelled caller still leaves balances restored.
func (s *Saga) Run(ctx context.Context) error {
	s.records = make([]StepRecord, 0, len(s.Steps))

	for i, step := range s.Steps {
		if err := step.Action(ctx); err != nil {
			s.records = append(s.records, StepRecord{Name: step.Name, Outcome: OutcomeFailed, Err: err})
			s.logger.Warn("Step failed, compensating", "step", step.Name, "error", err)

			failure := s.compensate(context.WithoutCancel(ctx), i)
			failure.FailedStep = step.Name
			failure.CompletedSteps = i
			failure.Cause = err

			for _, skipped := range s.Steps[i+1:] {
				s.records = append(s.records, StepRecord{Name: skipped.Name, Outcome: OutcomeSkipped})
			}

			if failure.Compensated {
				metrics.RecordSagaRun(s.Name, OutcomeCompensated)
			} else {
				metrics.RecordSagaRun(s.Name, OutcomeCompensationFailed)
			}
			return failure
		}
		s.records = append(s.records, StepRecord{Name: step.Name, Outcome: OutcomeCompleted})
	}

	metrics.RecordSagaRun(s.Name, OutcomeCompleted)
	return nil
}

func (s *Saga) compensate(ctx context.Context, failedAt int) *OrchestrationFailure {
	failure := &OrchestrationFailure{Saga: s.Name, Compensated: true}

	for i := failedAt - 1; i >= 0; i-- {
		step := s.Steps[i]
		if step.Compensate == nil {
			continue
		}

		if err := step.Compensate(ctx); err != nil {
			s.records[i].Outcome = OutcomeCompensationFailed
			s.records[i].Err = err
			failure.Compensated = false
			failure.CompensationErrors = append(failure.CompensationErrors, fmt.Errorf("%s: %w", step.Name, err))
			metrics.RecordCompensationFailure(s.Name, step.Name)
			s.logger.Error("Compensation failed, manual reconciliation required", "step", step.Name, "error", err)
			continue
		}
		s.records[i].Outcome = OutcomeCompensated
		s.logger.Info("Step compensated", "step", step.Name)
	}

	return failure
}

// OrchestrationFailure reports a step that failed after earlier steps had
// already taken effect. Compensated is false when at least one compensation
// also failed, leaving the ledger in need of reconciliation.
type OrchestrationFailure struct {
	Saga               string
	FailedStep         string
	CompletedSteps     int
	Cause              error
	CompensationErrors []error
	Compensated        bool
}

func (e *OrchestrationFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed at step %s: %v", e.Saga, e.FailedStep, e.Cause)
	if len(e.CompensationErrors) > 0 {
		fmt.Fprintf(&b, " (compensation errors: %v)", errors.Join(e.CompensationErrors...))
	}
	return b.String()
}

// Unwrap exposes the failing step's error to errors.Is and errors.As
func (e *OrchestrationFailure) Unwrap() error {
	return e.Cause
}

// AsFailure extracts an *OrchestrationFailure from err
func AsFailure(err error) (*OrchestrationFailure, bool) {
	var failure *OrchestrationFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

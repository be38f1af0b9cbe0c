package taskplan

import (
	"errors"
	"fmt"
)

// ErrEmptyTask is returned when the task text is empty or whitespace-only.
var ErrEmptyTask = errors.New("task is empty")

// Pipeline steps reported in errors.
const (
	StepValidate      = "validate"
	StepTypeDetection = "type_detection"
	StepSearch        = "codebase_search"
	StepClarity       = "clarity"
	StepPlan          = "plan"
)

// ClassificationError aborts a classification. No partial result exists.
type ClassificationError struct {
	Step  string
	Cause error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed at %s: %v", e.Step, e.Cause)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}

// PlanningError aborts a plan generation. No partial plan exists.
type PlanningError struct {
	Step  string
	Cause error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed at %s: %v", e.Step, e.Cause)
}

func (e *PlanningError) Unwrap() error {
	return e.Cause
}

package segeval

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("segeval: model file not found")

	// ErrInvalidModel indicates the model file exists but is malformed.
	ErrInvalidModel = errors.New("segeval: invalid model format")

	// ErrInvalidMapping indicates the class mapping fails validation.
	ErrInvalidMapping = errors.New("segeval: invalid class mapping")

	// ErrShapeMismatch indicates prediction and target disagree on shape
	// after the target has been resized.
	ErrShapeMismatch = errors.New("segeval: prediction/target shape mismatch")

	// ErrEmptyEvaluationSet indicates no page was successfully accumulated.
	// No metrics can be computed from an all-zero aggregate, so the run is
	// refused rather than reporting zeros.
	ErrEmptyEvaluationSet = errors.New("segeval: no pages evaluated")
)

// PageError records a page that was skipped during a run. Skipped pages
// contribute nothing to any total and reduce the processed-page count.
type PageError struct {
	ID  string
	Err error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.ID, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

package models

import (
	"errors"
	"fmt"
)

// Error classes surfaced by the analysis pipeline. Callers match them with
// errors.Is; the wrapping error carries the detail.
var (
	ErrDataUnavailable             = errors.New("data unavailable")
	ErrInvalidValuationAssumptions = errors.New("invalid valuation assumptions")
	ErrMemoGenerationFailed        = errors.New("memo generation failed")
	ErrConfiguration               = errors.New("configuration error")
	ErrArtifactNotFound            = errors.New("analysis artifact not found")
	ErrInvalidTicker               = errors.New("invalid ticker")
)

// Stage identifies a step of the analysis pipeline.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageRatios    Stage = "ratios"
	StageValuation Stage = "valuation"
	StagePersist   Stage = "persist"
	StageMemo      Stage = "memo"
	// StageLoad reads a persisted artifact back for memo regeneration.
	StageLoad      Stage = "load"
)

// StageError records which pipeline stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage it failed in. A nil err stays nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// ErrorClass returns a short label for the taxonomy class of err, used for
// metrics and run records.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrInvalidValuationAssumptions):
		return "invalid_assumptions"
	case errors.Is(err, ErrMemoGenerationFailed):
		return "memo_generation"
	case errors.Is(err, ErrArtifactNotFound):
		return "artifact_not_found"
	case errors.Is(err, ErrInvalidTicker):
		return "invalid_ticker"
	default:
		return "internal"
	}
}

package main

import (
	"errors"

	"fundamental-analyst/models"
)

// Process exit codes, one per error class.
const (
	exitOK                 = 0
	exitFailure            = 1
	exitConfiguration      = 2
	exitDataUnavailable    = 3
	exitInvalidAssumptions = 4
	exitMemoFailed         = 5
)

// exitCode maps err to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, models.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, models.ErrDataUnavailable),
		errors.Is(err, models.ErrArtifactNotFound),
		errors.Is(err, models.ErrInvalidTicker):
		return exitDataUnavailable
	case errors.Is(err, models.ErrInvalidValuationAssumptions):
		return exitInvalidAssumptions
	case errors.Is(err, models.ErrMemoGenerationFailed):
		return exitMemoFailed
	default:
		return exitFailure
	}
}

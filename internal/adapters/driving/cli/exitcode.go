package cli

import (
	"errors"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitNotFound    = 3
	ExitUnavailable = 4
)

// ExitCode maps a command error onto a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType):
		return ExitUsage
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrIndexBuild),
		errors.Is(err, domain.ErrSourceMissing), errors.Is(err, domain.ErrSchema):
		return ExitUnavailable
	default:
		return ExitFailure
	}
}

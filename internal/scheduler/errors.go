package scheduler

import "errors"

var (
	// ErrValidation reports bad input at schedule or update time. No state changed.
	ErrValidation = errors.New("validation error")

	// ErrNotFound reports an unknown job id. No state changed.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidState reports an operation that is illegal for the job's current status.
	ErrInvalidState = errors.New("invalid job state")

	// ErrNotRunning is returned by mutating operations before Start or after Shutdown.
	ErrNotRunning = errors.New("scheduler is not running")
)

package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrScheduleNotFound is reported when a schedule to remove does not exist.
	ErrScheduleNotFound = errors.New("schedule does not exist")
	// ErrInvalidScheduleName is reported when a name cannot be stored by the backend.
	ErrInvalidScheduleName = errors.New("invalid schedule name")
	// ErrInvalidTaskDefinitionName is reported when a task definition name cannot be recorded.
	ErrInvalidTaskDefinitionName = errors.New("invalid task definition name")
	// ErrMissingCronExpression is reported when a request carries no cron expression.
	ErrMissingCronExpression = errors.New("missing cron expression")
	// ErrInvalidCronExpression is reported when a cron expression cannot be parsed.
	ErrInvalidCronExpression = errors.New("invalid cron expression")
)

// CreateScheduleError is returned when a schedule could not be created
type CreateScheduleError struct {
	ScheduleName string
	Err          error
}

func (e *CreateScheduleError) Error() string {
	return fmt.Sprintf("failed to create schedule %s: %v", e.ScheduleName, e.Err)
}

func (e *CreateScheduleError) Unwrap() error {
	return e.Err
}

// UnscheduleError is returned when a schedule could not be removed
type UnscheduleError struct {
	ScheduleName string
	Err          error
}

func (e *UnscheduleError) Error() string {
	return fmt.Sprintf("failed to unschedule schedule %s: %v", e.ScheduleName, e.Err)
}

func (e *UnscheduleError) Unwrap() error {
	return e.Err
}

// ResourceError is returned when a resource cannot be resolved to an image
type ResourceError struct {
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("unable to get URI for %s: %v", e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// IsInvalidRequest reports whether err was caused by the request itself rather than the backend.
func IsInvalidRequest(err error) bool {
	var resErr *ResourceError
	return errors.Is(err, ErrInvalidScheduleName) ||
		errors.Is(err, ErrInvalidTaskDefinitionName) ||
		errors.Is(err, ErrMissingCronExpression) ||
		errors.Is(err, ErrInvalidCronExpression) ||
		errors.As(err, &resErr)
}

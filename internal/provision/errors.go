package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/3cpo-dev/hostinit/internal/target"
)

// Precondition failures. They abort a run before the step mutates anything
// and map to exit status 1.
var (
	ErrNotRoot       = errors.New("must be run as root")
	ErrEmptyPassword = errors.New("password cannot be empty for a new user")
	ErrNoSSHKeys     = errors.New("at least one SSH public key is required")
	ErrInvalidSSHKey = errors.New("invalid SSH public key")
	ErrInvalidAnswer = errors.New("invalid answer")
)

// RunError is returned by Runner.Run when a critical step fails.
type RunError struct {
	Step string
	Err  error
}

func (e *RunError) Error() string { return fmt.Sprintf("step %s: %v", e.Step, e.Err) }

func (e *RunError) Unwrap() error { return e.Err }

// ExitCode maps a run error to a process exit status: the status of the
// command that failed, 130 on interruption and 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *target.ExitError
	if errors.As(err, &ee) && ee.Code > 0 {
		return ee.Code
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

package cli

import "fmt"

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code int
	Err  error
	// Silent means the message was already shown to the user
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

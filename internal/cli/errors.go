package cli

import (
	"errors"
	"fmt"
)

// ExitError lets a command fail with a specific exit code without calling
// os.Exit, so commands stay testable.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError extracts the exit code from err, if it carries one.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

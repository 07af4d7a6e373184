package gitx

import (
	"fmt"
	"strings"
)

// BackendError is any underlying git command failure. It carries the exact
// invocation and stderr so failures can be surfaced verbatim; nothing is
// retried automatically.
type BackendError struct {
	Args     []string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *BackendError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("git %s failed: %s", strings.Join(e.Args, " "), msg)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------
// Safe calls - panic-protected execution of untrusted work
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"
)

// PanicError is returned by SafeCall when fn panicked.
type PanicError struct {
	Name  string
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Name, e.Value)
}

// SafeCall runs fn and converts a panic into a *PanicError.
// The panic and its stack are logged so the caller only needs to handle the error.
//
// Example:
//
//	err := common.SafeCall(logger, "job:analysis", func() error {
//	    return executor.Execute(ctx, job)
//	})
func SafeCall(logger arbor.ILogger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			stackTrace := string(buf[:n])

			if logger != nil {
				logger.Error().
					Str("call", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace).
					Msg("Recovered from panic")
			}

			err = &PanicError{Name: name, Value: r, Stack: stackTrace}
		}
	}()

	return fn()
}

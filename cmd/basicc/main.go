// Command basicc compiles a pre-lowered BASIC program into QBE
// intermediate language text.
package main

import (
	"errors"
	"fmt"
	"os"
)

// exitError pins a specific process exit code to an error, distinguishing
// user errors (bad input, missing file) from internal ones (a build/gen
// stage failing outright): 0 success, 1 user error, 2 internal error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "basicc:", err)

		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(2)
	}
}

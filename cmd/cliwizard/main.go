// Package main implements the cliwizard command.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// Version is set at build time
	version = "0.1.0"
	// BuildDate is set at build time
	buildDate = "unknown"
)

func main() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		printError(a.stderr, err)
		os.Exit(1)
	}
}

// exitError exits with the error already printed.
type exitError struct {
	err error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func printError(w io.Writer, err error) {
	var exit *exitError
	if errors.As(err, &exit) {
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

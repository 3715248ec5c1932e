// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// Exit codes of a2a-engine.
const (
	exitSuccess          = 0
	exitGeneralError     = 1
	exitInvalidArguments = 2
	exitFileNotFound     = 3
	exitValidationFailed = 4
)

// exitError ends the process with code instead of exitGeneralError.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode returns the process exit code for the result of a command.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitGeneralError
}

// argsExit reports argument count errors with exitInvalidArguments.
func argsExit(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withExit(exitInvalidArguments, fn(cmd, args))
	}
}

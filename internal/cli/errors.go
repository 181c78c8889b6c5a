// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, exit codes and error display for lmc.
//
// STANDARDIZED PATTERN:
//   - Always return errors; only the top level prints them
//   - The REPL reports a failed request and keeps going
//   - Start-up failures map to an exit code by category

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/lmc/internal/config"
	"github.com/jeranaias/lmc/internal/ui/styles"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
)

// =============================================================================
// ERROR TYPES
// =============================================================================

var (
	// ErrEmptyInput is returned in piped mode when stdin holds no prompt.
	ErrEmptyInput = errors.New("expected a prompt to be supplied via stdin but it was empty")

	// ErrNothingToRetry is returned by /retry before any prompt was sent.
	ErrNothingToRetry = errors.New("nothing to retry")
)

// UsageError represents invalid command-line usage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a failure to load or validate the configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UnknownCommandError is returned for a slash command the REPL does not know.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q (type /help for a list)", e.Name)
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err as an error status line.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, styles.RenderError(err.Error()))
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfigError
	}

	// Config package errors that were returned without the wrapper
	var unknownField *config.UnknownFieldError
	var validation config.ValidateErrors
	if errors.Is(err, config.ErrProfileNotFound) ||
		errors.Is(err, config.ErrCircularExtends) ||
		errors.Is(err, config.ErrMissingField) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.As(err, &unknownField) ||
		errors.As(err, &validation) {
		return ExitConfigError
	}

	return ExitGeneralError
}

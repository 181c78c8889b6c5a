// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/lmc/internal/config"
	"github.com/jeranaias/lmc/internal/markdown"
)

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestRootCommand_Version(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		t.Run(flag, func(t *testing.T) {
			cmd := NewRootCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{flag})

			require.NoError(t, cmd.Execute())
			require.Equal(t, "lmc v"+Version+"\n", out.String())
		})
	}
}

func TestRootCommand_UsageErrors(t *testing.T) {
	tests := [][]string{
		{"--no-such-flag"},
		{"positional"},
		{"--temperature", "warm"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			cmd := NewRootCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(args)

			err := cmd.Execute()
			require.Error(t, err)
			require.Equal(t, ExitUsageError, GetExitCode(err))
		})
	}
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")})

	err := cmd.Execute()
	require.ErrorIs(t, err, config.ErrConfigNotFound)
	require.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestFlags_OnlyChangedFlagsOverride(t *testing.T) {
	flags := &Flags{}
	fs := pflag.NewFlagSet("lmc", pflag.ContinueOnError)
	bindFlags(fs, flags)
	require.NoError(t, fs.Parse([]string{"-m", "llama3", "-t", "0", "--no-streaming"}))

	p := flags.overrides(fs)

	require.NotNil(t, p.Model)
	require.Equal(t, "llama3", *p.Model)
	require.NotNil(t, p.Temperature, "an explicit zero still overrides")
	require.Zero(t, *p.Temperature)
	require.NotNil(t, p.Stream)
	require.False(t, *p.Stream)
	require.Nil(t, p.APIURL)
	require.Nil(t, p.APIKey)
	require.Nil(t, p.Renderer)
}

// =============================================================================
// PIPED MODE TESTS
// =============================================================================

func TestRunPiped_EmptyInput(t *testing.T) {
	session, _ := newTestSession(&fakeCompleter{}, true, markdown.PlainTheme())
	err := runPiped(context.Background(), session, strings.NewReader("\n\n"))
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestRunPiped_SendsWholeInput(t *testing.T) {
	client := &fakeCompleter{answers: [][]string{{"answer"}}}
	session, out := newTestSession(client, true, markdown.PlainTheme())

	err := runPiped(context.Background(), session, strings.NewReader("line one\nline two\n"))
	require.NoError(t, err)
	require.Equal(t, "answer\n", out.String())

	history := client.histories[0]
	require.Equal(t, "line one\nline two", history[len(history)-1].Content)
}

func TestRunPiped_RequestError(t *testing.T) {
	client := &fakeCompleter{err: errors.New("refused")}
	session, _ := newTestSession(client, false, markdown.PlainTheme())

	err := runPiped(context.Background(), session, strings.NewReader("hi"))
	require.Error(t, err)
	require.Equal(t, ExitGeneralError, GetExitCode(err))
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	require.Equal(t, ExitSuccess, GetExitCode(nil))
	require.Equal(t, ExitGeneralError, GetExitCode(errors.New("x")))
	require.Equal(t, ExitUsageError, GetExitCode(&UsageError{Err: errors.New("bad flag")}))
	require.Equal(t, ExitConfigError, GetExitCode(&ConfigError{Err: errors.New("bad file")}))
	require.Equal(t, ExitConfigError, GetExitCode(fmt.Errorf("load: %w", config.ErrMissingField)))
	require.Equal(t, ExitConfigError, GetExitCode(&config.UnknownFieldError{Key: "default.x"}))
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, nil)
	require.Empty(t, buf.String())

	DisplayError(&buf, errors.New("it broke"))
	require.Contains(t, buf.String(), "[e]")
	require.True(t, strings.HasSuffix(buf.String(), "it broke\n"))
}

func TestResponseTheme(t *testing.T) {
	require.Equal(t, markdown.DefaultTheme(), responseTheme(true))
	require.Equal(t, markdown.PlainTheme(), responseTheme(false))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jeranaias/lmc/internal/api"
	"github.com/jeranaias/lmc/internal/config"
	"github.com/jeranaias/lmc/internal/console"
	"github.com/jeranaias/lmc/internal/model"
	"github.com/jeranaias/lmc/internal/render"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Flags holds the command-line flags.
type Flags struct {
	APIURL       string
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float64
	ConfigPath   string
	Profile      string
	NoStreaming  bool
	Renderer     string
	Verbose      bool
}

// overrides converts the flags the user set into a config overlay.
func (f *Flags) overrides(fs *pflag.FlagSet) config.Profile {
	var p config.Profile
	if fs.Changed("api-url") {
		p.APIURL = &f.APIURL
	}
	if fs.Changed("api-key") {
		p.APIKey = &f.APIKey
	}
	if fs.Changed("model") {
		p.Model = &f.Model
	}
	if fs.Changed("system-prompt") {
		p.SystemPrompt = &f.SystemPrompt
	}
	if fs.Changed("temperature") {
		p.Temperature = &f.Temperature
	}
	if fs.Changed("no-streaming") && f.NoStreaming {
		stream := false
		p.Stream = &stream
	}
	if fs.Changed("renderer") {
		p.Renderer = &f.Renderer
	}
	return p
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the lmc command.
func NewRootCommand() *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:   "lmc",
		Short: "Chat with large language models from the terminal",
		Long: `lmc talks to any OpenAI-compatible chat completions API.

With a terminal on stdin it starts an interactive chat; with piped stdin it
sends the whole input as one prompt and prints the answer. Answers are
rendered as they stream in, with headings, code and bold text styled.`,
		Version:       Version,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, flags.overrides(cmd.Flags()))
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	bindFlags(cmd.Flags(), flags)

	return cmd
}

// bindFlags registers the command-line flags on fs.
func bindFlags(fs *pflag.FlagSet, flags *Flags) {
	fs.StringVarP(&flags.APIURL, "api-url", "u", "", "API base URL, e.g. https://api.openai.com/v1")
	fs.StringVarP(&flags.APIKey, "api-key", "k", "", "API key sent as a bearer token")
	fs.StringVarP(&flags.Model, "model", "m", "", "model to chat with")
	fs.StringVarP(&flags.SystemPrompt, "system-prompt", "s", "", "system prompt sent before the conversation")
	fs.Float64VarP(&flags.Temperature, "temperature", "t", 0, "sampling temperature (0-2)")
	fs.StringVarP(&flags.ConfigPath, "config", "c", "", "configuration file (default ~/.lmc/config.toml)")
	fs.StringVarP(&flags.Profile, "profile", "p", "", "configuration profile (default \"default\")")
	fs.BoolVar(&flags.NoStreaming, "no-streaming", false, "wait for the whole answer instead of streaming it")
	fs.StringVar(&flags.Renderer, "renderer", "", "renderer for non-streamed answers: highlight or glamour")
	fs.BoolVar(&flags.Verbose, "verbose", false, "log requests to stderr")
	fs.BoolP("version", "v", false, "print the version and exit")
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		DisplayError(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// run loads the configuration and starts the interactive or piped mode.
func run(ctx context.Context, flags *Flags, overrides config.Profile) error {
	cfg, err := config.Load(config.Options{
		Path:      flags.ConfigPath,
		Profile:   flags.Profile,
		Overrides: overrides,
	})
	if err != nil {
		return &ConfigError{Err: err}
	}

	logger := log.New(io.Discard, "", 0)
	if flags.Verbose {
		logger = log.New(os.Stderr, "[lmc] ", log.LstdFlags)
	}
	logger.Printf("lmc %s (commit %s, built %s)", Version, GitCommit, BuildDate)
	logger.Printf("profile %q, model %q, api key %s", cfg.Profile, cfg.Model, cfg.MaskedAPIKey())

	client := api.NewClient(cfg.APIURL, cfg.Model).
		WithAPIKey(cfg.APIKey).
		WithTemperature(cfg.Temperature).
		WithRateLimit(cfg.RequestsPerMinute).
		WithUserAgent("lmc/" + Version).
		WithLogger(logger)

	colors := ColorsEnabled()
	session := NewSession(client, model.NewConversation(cfg.Model, cfg.SystemPrompt), os.Stdout, SessionOptions{
		Stream: cfg.Stream,
		Document: render.DocumentOptions{
			Renderer: cfg.Renderer,
			Theme:    responseTheme(colors),
			Colors:   colors,
			WordWrap: GetTerminalWidth(),
		},
		Logger: logger,
	})

	if IsTTY() {
		return runInteractive(ctx, session, cfg, logger)
	}
	return runPiped(ctx, session, os.Stdin)
}

// runInteractive runs the REPL on the terminal.
func runInteractive(ctx context.Context, session *Session, cfg *config.Config, logger *log.Logger) error {
	historyPath, err := config.HistoryPath()
	if err != nil {
		logger.Printf("input history disabled: %v", err)
		historyPath = ""
	}

	input := console.New(historyPath)
	defer func() {
		if err := input.Close(); err != nil {
			logger.Printf("failed to save input history: %v", err)
		}
	}()

	repl := NewREPL(session, input, os.Stdout, os.Stderr)
	repl.Greet(cfg.Model, cfg.APIURL)
	return repl.Run(ctx)
}

// runPiped answers the single prompt read from r.
func runPiped(ctx context.Context, session *Session, r io.Reader) error {
	prompt, err := console.ReadPiped(r)
	if err != nil {
		return err
	}
	if prompt == "" {
		return ErrEmptyInput
	}
	if err := session.Ask(ctx, prompt); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jeranaias/lmc/internal/console"
	"github.com/jeranaias/lmc/internal/ui/styles"
	"github.com/jeranaias/lmc/internal/util"
)

// historyPreviewWidth is the display width of one /history line.
const historyPreviewWidth = 72

// InputReader reads one complete prompt. *console.Console implements it.
type InputReader interface {
	ReadInput() (string, error)
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the interactive read-eval-print loop.
type REPL struct {
	session *Session
	input   InputReader
	out     io.Writer
	errOut  io.Writer

	// requestContext derives the context of one request. By default Ctrl+C
	// cancels the request instead of ending the program.
	requestContext func(parent context.Context) (context.Context, context.CancelFunc)
}

// NewREPL creates a REPL reading prompts from input.
func NewREPL(session *Session, input InputReader, out, errOut io.Writer) *REPL {
	return &REPL{
		session: session,
		input:   input,
		out:     out,
		errOut:  errOut,
		requestContext: func(parent context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(parent, os.Interrupt)
		},
	}
}

// Greet prints the greeting line naming the model and endpoint.
func (r *REPL) Greet(model, url string) {
	fmt.Fprintln(r.out, styles.RenderInfo(fmt.Sprintf("Chatting with %q at %q", model, url)))
}

// Run reads prompts until end of input, Ctrl+C at the prompt or /quit.
// Failed requests and unknown commands are reported and the loop goes on.
func (r *REPL) Run(ctx context.Context) error {
	for {
		input, err := r.input.ReadInput()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, console.ErrAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		line := strings.TrimSpace(input)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.handleCommand(ctx, line)
			if err != nil {
				DisplayError(r.errOut, err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := r.request(ctx, func(ctx context.Context) error {
			return r.session.Ask(ctx, input)
		}); err != nil {
			DisplayError(r.errOut, err)
		}
	}
}

// request runs one model request under its own cancelable context.
func (r *REPL) request(parent context.Context, fn func(context.Context) error) error {
	ctx, cancel := r.requestContext(parent)
	defer cancel()
	return fn(ctx)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand runs a slash command and reports whether the REPL should end.
func (r *REPL) handleCommand(ctx context.Context, line string) (bool, error) {
	name, _, _ := strings.Cut(line, " ")

	switch name {
	case "/q", "/quit":
		return true, nil

	case "/r", "/retry":
		return false, r.request(ctx, r.session.Retry)

	case "/c", "/clear":
		r.session.Conversation().ClearHistory()
		fmt.Fprintln(r.out, styles.RenderInfo("Conversation cleared"))
		return false, nil

	case "/history":
		r.printHistory()
		return false, nil

	case "/h", "/help":
		r.printHelp()
		return false, nil

	default:
		return false, &UnknownCommandError{Name: name}
	}
}

// printHistory prints one preview line per message.
func (r *REPL) printHistory() {
	conv := r.session.Conversation()
	if conv.IsEmpty() {
		fmt.Fprintln(r.out, styles.RenderInfo("No messages yet"))
		return
	}

	nameWidth := 0
	for _, msg := range conv.Messages {
		nameWidth = max(nameWidth, util.StringWidth(msg.Role.DisplayName()))
	}

	for i, msg := range conv.Messages {
		name := msg.Role.DisplayName()
		padding := strings.Repeat(" ", nameWidth-util.StringWidth(name))
		fmt.Fprintf(r.out, "%s %s%s  %s\n",
			styles.RenderMuted(fmt.Sprintf("%3d", i+1)),
			styles.RoleStyle(msg.Role).Render(name),
			padding,
			msg.Preview(historyPreviewWidth),
		)
	}
}

const helpText = `Commands:
  /q, /quit     Exit
  /r, /retry    Ask again for the last answer
  /c, /clear    Forget the conversation (keeps the system prompt)
  /history      List the messages so far
  /h, /help     Show this help

End a line with \ to continue the prompt on the next line.
Ctrl+C cancels a running answer; Ctrl+D exits.`

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, helpText)
}

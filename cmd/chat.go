package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

const chatBanner = "Welcome to llcguide. Tell me about the business you want to form,\n" +
	"or type 'help' at any time. Type 'exit' to leave."

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive formation conversation",
		Long: `Chat opens a single conversation on standard input. Every reply shows the
suggested actions and any stage change.

Global commands work at any point: help, status, restart, back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runChat(ctx, cmd, opts)
		},
	}
}

func runChat(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	// Console logging would interleave with the conversation, so records only
	// go to the log file.
	a, err := newApp(opts, io.Discard, "chat", true)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.newSessions(1)
	if err != nil {
		return err
	}
	defer sessions.Shutdown()

	s, err := sessions.Create()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := newPrinter(out, isTerminal(cmd.InOrStdin()) && isTerminal(out))

	p.line(colorBold, chatBanner)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		p.prompt()
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		resp, err := sessions.Send(ctx, s.ID(), input, nil)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			p.line(colorRed, "Something went wrong: "+err.Error())
			continue
		}
		p.response(resp)
	}
	return scanner.Err()
}

// printer renders replies, with color only on a terminal
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color}
}

func (p *printer) prompt() {
	if p.color {
		fmt.Fprint(p.w, colorCyan+"> "+colorReset)
	}
}

func (p *printer) line(color, text string) {
	if p.color {
		fmt.Fprintln(p.w, color+text+colorReset)
		return
	}
	fmt.Fprintln(p.w, text)
}

func (p *printer) response(resp *conversation.Response) {
	p.line(colorReset, resp.Message)

	if len(resp.Actions) > 0 {
		labels := make([]string, len(resp.Actions))
		for i, a := range resp.Actions {
			labels[i] = "[" + a.Text + "]"
		}
		p.line(colorGray, strings.Join(labels, " "))
	}

	if resp.NextStage != "" {
		stage := resp.NextStage
		if s, ok := conversation.ParseStage(resp.NextStage); ok {
			stage = s.Title()
		}
		msg := "Moved to " + stage
		if resp.DelegateTo != "" {
			msg += " (" + resp.DelegateTo + ")"
		}
		p.line(colorGreen, msg)
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

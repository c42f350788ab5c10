/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/longkey1/llmchat/internal/attachment"
	"github.com/longkey1/llmchat/internal/chat"
	"github.com/longkey1/llmchat/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Open the interactive chat widget",
	Long: `Open the chat widget and converse with the assistant.

Press Enter to send. End a line with '\' to continue typing on the next line.
Type '/help' for commands, '/exit' or 'Ctrl+D' to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(os.Stdin, os.Stdout, os.Stderr)
		w, err := newWidget(chat.WithOnChange(s.notify))
		if err != nil {
			return err
		}
		defer w.close()

		s.conv = w.conv
		if term.IsTerminal(int(os.Stdin.Fd())) {
			s.readSecret = readPassword
			s.spinner = showSpinner(os.Stderr)
		}
		return s.run(cmd.Context())
	},
}

// session drives a conversation from line-oriented input
type session struct {
	conv *chat.Conversation
	in   *bufio.Scanner
	out  io.Writer
	err  io.Writer

	// readSecret reads a value without echo; nil falls back to a plain line
	readSecret func() (string, error)
	// spinner is disabled when nil
	spinner func(done <-chan struct{})

	// updates is signalled by the conversation's change observer
	updates chan struct{}
	// shown counts the log entries already rendered
	shown int
}

func newSession(in io.Reader, out, errOut io.Writer) *session {
	return &session{
		in:      bufio.NewScanner(in),
		out:     out,
		err:     errOut,
		updates: make(chan struct{}, 1),
	}
}

// notify is registered as the conversation's change observer. It never blocks.
func (s *session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// awaitIdle blocks until the conversation leaves AwaitingResponse
func (s *session) awaitIdle(ctx context.Context) error {
	for s.conv.State() != chat.Idle {
		select {
		case <-s.updates:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// flush renders log entries appended since the last call. The user's text
// is already on screen, so user entries only show their attachment.
func (s *session) flush() {
	msgs := s.conv.Messages()
	for _, m := range msgs[s.shown:] {
		if m.IsUser() {
			if m.Attachment != nil {
				fmt.Fprintf(s.out, "    %s\n", ui.AttachmentLabel(m.Attachment.Name, m.Attachment.MediaType, len(m.Attachment.Data)))
			}
			continue
		}
		fmt.Fprintf(s.out, "%s\n\n", ui.Message(m))
	}
	s.shown = len(msgs)
}

func (s *session) run(ctx context.Context) error {
	cfg := s.conv.Config()

	s.conv.Open()
	fmt.Fprintf(s.out, "%s\n\n", ui.Header(cfg.UI))
	s.flush()
	if !s.conv.HasCredential() {
		fmt.Fprintln(s.err, ui.Hint("No API key set. Use '/key' to enter one."))
	}
	fmt.Fprintln(s.err, ui.Hint("Type '/help' for commands, '/exit' or 'Ctrl+D' to quit"))

	for {
		input, ok, err := s.readInput(cfg.UI.Placeholder)
		if err != nil {
			return fmt.Errorf("input error: %w", err)
		}
		if !ok {
			fmt.Fprintln(s.err, "\nGoodbye!")
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if !s.handleCommand(input) {
				return nil
			}
			continue
		}

		if err := s.send(ctx, input); err != nil {
			return err
		}
	}
}

// readInput reads one logical line. A trailing backslash joins the next line.
func (s *session) readInput(placeholder string) (string, bool, error) {
	fmt.Fprint(s.err, "You> ")

	var lines []string
	for {
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return "", false, err
			}
			if len(lines) == 0 {
				return "", false, nil
			}
			break
		}

		line := s.in.Text()
		if strings.HasSuffix(line, `\`) {
			lines = append(lines, strings.TrimSuffix(line, `\`))
			fmt.Fprint(s.err, "...  ")
			continue
		}
		lines = append(lines, line)
		break
	}

	input := strings.TrimSpace(strings.Join(lines, "\n"))
	if input == "" && placeholder != "" {
		fmt.Fprintln(s.err, ui.Hint(placeholder))
	}
	return input, true, nil
}

// send submits input and renders the log once the reply has been appended
func (s *session) send(ctx context.Context, input string) error {
	turn, err := s.conv.Submit(ctx, input)
	if err != nil {
		var notice *chat.Notice
		if errors.As(err, &notice) {
			fmt.Fprintln(s.err, ui.Notice(notice))
			return nil
		}
		if errors.Is(err, chat.ErrRequestInFlight) {
			fmt.Fprintln(s.err, err)
			return nil
		}
		return err
	}
	if turn == nil {
		return nil
	}
	s.flush()

	idle := make(chan struct{})
	stopped := make(chan struct{})
	if s.spinner != nil {
		go func() {
			defer close(stopped)
			s.spinner(idle)
		}()
	} else {
		close(stopped)
	}

	err = s.awaitIdle(ctx)
	close(idle)
	<-stopped
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out)
	s.flush()
	return nil
}

// handleCommand processes slash commands.
// Returns true to continue the loop, false to exit.
func (s *session) handleCommand(input string) bool {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/help", "/h":
		fmt.Fprintln(s.err, "\nAvailable commands:")
		fmt.Fprintln(s.err, "  /attach <path> - Stage an image for the next message")
		fmt.Fprintln(s.err, "  /detach        - Remove the staged image")
		fmt.Fprintln(s.err, "  /key [value]   - Set your API key")
		fmt.Fprintln(s.err, "  /info, /i      - Show conversation information")
		fmt.Fprintln(s.err, "  /clear, /c     - Clear screen")
		fmt.Fprintln(s.err, "  /exit, /quit   - Exit")
		fmt.Fprintln(s.err, "  Ctrl+D         - Exit")
		fmt.Fprintln(s.err, "")
		return true

	case "/attach", "/a":
		if arg == "" {
			fmt.Fprintln(s.err, "Usage: /attach <path>")
			return true
		}
		file, err := attachment.LoadFile(arg)
		if err != nil {
			fmt.Fprintf(s.err, "Error: %v\n", err)
			return true
		}
		if err := s.conv.AttachFile(file); err != nil {
			s.printError(err)
			return true
		}
		fmt.Fprintf(s.err, "Attached %s\n", ui.AttachmentLabel(file.Name, file.MediaType, len(file.Data)))
		return true

	case "/detach", "/d":
		s.conv.RemoveAttachment()
		fmt.Fprintln(s.err, "Attachment removed.")
		return true

	case "/key", "/k":
		value := arg
		if value == "" {
			var err error
			value, err = s.promptSecret()
			if err != nil {
				fmt.Fprintf(s.err, "Error: %v\n", err)
				return true
			}
		}
		if err := s.conv.SetCredential(value); err != nil {
			s.printError(err)
			return true
		}
		fmt.Fprintln(s.err, "API key saved.")
		return true

	case "/info", "/i":
		cfg := s.conv.Config()
		fmt.Fprintln(s.err, "\nConversation Information:")
		fmt.Fprintf(s.err, "  ID: %s\n", s.conv.ID())
		fmt.Fprintf(s.err, "  Model: %s\n", cfg.Generation.Model)
		fmt.Fprintf(s.err, "  Messages: %d\n", len(s.conv.Messages()))
		fmt.Fprintf(s.err, "  State: %s\n", s.conv.State())
		if p, ok := s.conv.Pending(); ok {
			fmt.Fprintf(s.err, "  Attachment: %s\n", p.Name)
		}
		fmt.Fprintf(s.err, "  API key: %v\n", s.conv.HasCredential())
		fmt.Fprintln(s.err, "")
		return true

	case "/clear", "/c":
		fmt.Fprint(s.out, "\033[H\033[2J")
		return true

	case "/exit", "/quit", "/q":
		fmt.Fprintln(s.err, "Goodbye!")
		return false

	default:
		fmt.Fprintf(s.err, "Unknown command: %s (type '/help' for available commands)\n", name)
		return true
	}
}

func (s *session) promptSecret() (string, error) {
	fmt.Fprint(s.err, "API key: ")
	if s.readSecret != nil {
		v, err := s.readSecret()
		fmt.Fprintln(s.err)
		return v, err
	}
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.in.Text(), nil
}

func (s *session) printError(err error) {
	var notice *chat.Notice
	if errors.As(err, &notice) {
		fmt.Fprintln(s.err, ui.Notice(notice))
		return
	}
	fmt.Fprintf(s.err, "Error: %v\n", err)
}

// showSpinner displays a spinner animation while waiting for response
func showSpinner(w io.Writer) func(done <-chan struct{}) {
	return func(done <-chan struct{}) {
		spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(spinners) {
			fmt.Fprintf(w, "\r%s Waiting for response...", spinners[i])
			select {
			case <-done:
				// Clear the spinner line
				fmt.Fprint(w, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}
}

// readPassword reads from the terminal without echo
func readPassword() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func init() {
	rootCmd.AddCommand(startCmd)
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/longkey1/llmchat/internal/attachment"
	"github.com/longkey1/llmchat/internal/chat"
	"github.com/spf13/cobra"
)

var attachPath string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a single message and print the reply",
	Long: `Send one message to the assistant and print the reply.
This command performs exactly one API call.

For an interactive conversation, use 'llmchat start' instead.

If no message is provided as an argument, it reads from stdin.
Use --attach to send one image along with the message.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var message string
		if len(args) > 0 {
			message = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = string(input)
		}

		w, err := newWidget()
		if err != nil {
			return err
		}
		defer w.close()

		if attachPath != "" {
			file, err := attachment.LoadFile(attachPath)
			if err != nil {
				return err
			}
			if err := w.conv.AttachFile(file); err != nil {
				return err
			}
		}

		turn, err := w.conv.Submit(cmd.Context(), message)
		if err != nil {
			return err
		}
		if turn == nil {
			return fmt.Errorf("nothing to send: provide a message or --attach an image")
		}

		return printReply(cmd.Context(), os.Stdout, turn)
	},
}

// printReply waits for turn and writes the assistant message, failure text included
func printReply(ctx context.Context, w io.Writer, turn *chat.Turn) error {
	reply, err := turn.Wait(ctx)
	if reply.Content != "" {
		fmt.Fprintln(w, reply.Content)
	}
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&attachPath, "attach", "a", "", "Path of an image to send with the message")
}

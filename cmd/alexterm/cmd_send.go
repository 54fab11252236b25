package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"alexterm/pkg/agent"
	"alexterm/pkg/conversation"
)

// newSendCmd creates the "alexterm send" subcommand.
func newSendCmd(opts *globalOptions) *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message and print the reply",
		Long:  "Sends a single message to ALEX on a fresh conversation (or the one given\nwith --conversation) and prints the cleaned-up reply.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if conversationID == "" {
				id, err := uuid.NewRandom()
				if err != nil {
					return fmt.Errorf("generate conversation id: %w", err)
				}
				conversationID = id.String()
			}

			reply, err := newAgentClient(cfg).Send(cmd.Context(), agent.Request{
				ConversationID: conversationID,
				Text:           strings.Join(args, " "),
				Terminal:       true,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), conversation.Normalize(reply))
			return nil
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id to continue")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

var historyOutput string

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "Show the questions asked in a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return notConfigured("chat")
	}
	if err := validateOutput(historyOutput); err != nil {
		return err
	}

	conversationID := args[0]
	turns, err := chatService.History(cmd.Context(), conversationID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if historyOutput != outputText {
		if turns == nil {
			turns = []domain.Turn{}
		}
		return writeStructured(cmd.OutOrStdout(), historyOutput, turns)
	}

	if len(turns) == 0 {
		cmd.Printf("No turns recorded for conversation %s\n", conversationID)
		return nil
	}

	cmd.Printf("Conversation %s\n", conversationID)
	for i := range turns {
		cmd.Println()
		cmd.Printf("[%s] Q: %s\n", turns[i].CreatedAt.Format(timeLayout), turns[i].Question)
		cmd.Printf("A: %s\n", turns[i].Answer)
		for j := range turns[i].Sources {
			cmd.Printf("  - %s\n", citation(&turns[i].Sources[j]))
		}
		cmd.Printf("  confidence %.2f\n", turns[i].Confidence)
	}
	return nil
}

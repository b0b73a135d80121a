package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

var (
	askConversation string
	askOutput       string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question using the passages retrieved from your uploaded
documents. Each answer lists the sources it was grounded in and a
confidence score.

Pass --conversation to record the question under an existing conversation;
otherwise a new conversation ID is created and printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "conversation ID to continue")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return notConfigured("chat")
	}
	if err := validateOutput(askOutput); err != nil {
		return err
	}

	printStartupWarnings(cmd)

	result, err := chatService.Ask(cmd.Context(), args[0], askConversation)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askOutput != outputText {
		return writeStructured(cmd.OutOrStdout(), askOutput, result)
	}
	outputAnswerText(cmd, result)
	return nil
}

func outputAnswerText(cmd *cobra.Command, result *domain.ChatResult) {
	cmd.Println(strings.TrimSpace(result.Answer))
	cmd.Println()

	if !result.Metadata.HasContext {
		cmd.Println("No matching documents were found for this question.")
	} else {
		cmd.Println("Sources:")
		for i := range result.Sources {
			outputSource(cmd, i+1, &result.Sources[i])
		}
	}

	cmd.Println()
	cmd.Printf("Confidence:   %.2f\n", result.Confidence)
	cmd.Printf("Conversation: %s\n", result.ConversationID)
}

// outputSource prints one numbered source with its snippet.
func outputSource(cmd *cobra.Command, n int, src *domain.Source) {
	cmd.Printf("  [%d] %s (%.2f)\n", n, citation(src), src.RelevanceScore)
	if src.TextSnippet != "" {
		cmd.Printf("      %s\n", src.TextSnippet)
	}
}

// citation renders "document, page N" or just the document name.
func citation(src *domain.Source) string {
	name := src.DocumentName
	if name == "" {
		name = "(unknown document)"
	}
	if src.PageNumber != nil {
		return fmt.Sprintf("%s, page %d", name, *src.PageNumber)
	}
	return name
}

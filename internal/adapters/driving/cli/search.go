package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

var (
	searchLimit  int
	searchOutput string
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Search indexed documents",
	Long: `Retrieves the passages most similar to a question without generating
an answer. Useful for checking what an answer would be grounded in.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = retrieval.top_k)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}
	if err := validateOutput(searchOutput); err != nil {
		return err
	}

	sources, err := retrievalService.Search(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchOutput != outputText {
		if sources == nil {
			sources = []domain.Source{}
		}
		return writeStructured(cmd.OutOrStdout(), searchOutput, sources)
	}
	outputSearchTable(cmd, sources)
	return nil
}

func outputSearchTable(cmd *cobra.Command, sources []domain.Source) {
	if len(sources) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range sources {
		outputSource(cmd, i+1, &sources[i])
		cmd.Println()
	}
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

var ingestType string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Upload documents into the index",
	Long: `Extracts the text of each file, splits it into chunks, embeds them and
adds them to the vector index. The original file is kept so it can be
downloaded later.

Supported formats: PDF and DOCX.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "document type label, e.g. lab_result or prescription")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		filename := filepath.Base(path)
		result, err := documentService.ProcessDocument(cmd.Context(), data, filename, ingestType)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedFormat) {
				return fmt.Errorf("failed to ingest %s: %w (supported: %s)",
					filename, err, strings.Join(documentService.SupportedExtensions(), ", "))
			}
			return fmt.Errorf("failed to ingest %s: %w", filename, err)
		}

		if result.NumChunks == 0 {
			warn(cmd, "%s contained no extractable text", filename)
		}
		success(cmd, "Ingested %s", filename)
		cmd.Printf("  Document ID: %s\n", result.DocumentID)
		cmd.Printf("  Chunks:      %d\n", result.NumChunks)
	}

	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage uploaded documents",
	Long:    `List, inspect, download or delete uploaded documents.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsDownloadCmd = &cobra.Command{
	Use:   "download [doc-id]",
	Short: "Save the original upload",
	Long: `Writes the originally uploaded bytes to a file. Without --out the file is
saved under its original name in the current directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentsDownload,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index entries",
	Long: `Removes a document's chunks from the vector index, its stored upload and
its record. The flat index backend is append-only and cannot delete; switch
to the sqlite backend (vector_index.backend = "sqlite") to enable deletion.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentsDelete,
}

var (
	documentsOutput string
	downloadOut     string
	downloadForce   bool
)

func init() {
	documentsListCmd.Flags().StringVarP(&documentsOutput, "output", "o", outputText, "output format: text, json or yaml")
	documentsDownloadCmd.Flags().StringVar(&downloadOut, "out", "", "destination path (default: original filename)")
	documentsDownloadCmd.Flags().BoolVarP(&downloadForce, "force", "f", false, "overwrite an existing file")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsDownloadCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	if err := validateOutput(documentsOutput); err != nil {
		return err
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsOutput != outputText {
		if docs == nil {
			docs = []domain.Document{}
		}
		return writeStructured(cmd.OutOrStdout(), documentsOutput, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents uploaded yet. Add one with 'caresync ingest <file>'.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:    %s\n", docs[i].Filename)
		if docs[i].DocumentType != "" {
			cmd.Printf("    Type:    %s\n", docs[i].DocumentType)
		}
		cmd.Printf("    Chunks:  %d\n", docs[i].NumChunks)
		cmd.Printf("    Created: %s\n", docs[i].CreatedAt.Format(timeLayout))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:     %s\n", doc.Filename)
	cmd.Printf("  Type:     %s\n", orNone(doc.DocumentType))
	cmd.Printf("  Content:  %s\n", doc.ContentType)
	cmd.Printf("  Size:     %d bytes\n", doc.Size)
	cmd.Printf("  Chunks:   %d\n", doc.NumChunks)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format(timeLayout))
	return nil
}

func runDocumentsDownload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	data, doc, err := documentService.Download(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to download document: %w", err)
	}

	dest := downloadOut
	if dest == "" {
		dest = filepath.Base(doc.Filename)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !downloadForce {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(dest, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
		}
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	success(cmd, "Saved %s (%d bytes)", dest, len(data))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	docID := args[0]
	if err := documentService.Delete(cmd.Context(), docID); err != nil {
		if errors.Is(err, domain.ErrUnsupportedOperation) {
			return fmt.Errorf("failed to delete document: %w (the flat index is append-only; "+
				"set vector_index.backend to sqlite to enable deletion)", err)
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	success(cmd, "Deleted document %s", docID)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

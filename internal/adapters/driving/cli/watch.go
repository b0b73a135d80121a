package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/adapters/driving/watch"
)

var (
	watchType     string
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents dropped into a folder",
	Long: `Watches a folder and ingests every PDF or DOCX file written to it, as if
it had been passed to 'caresync ingest'. Hidden files and unsupported
formats are ignored. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchType, "type", "t", "", "document type label for ingested files")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already in the folder")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	w, err := watch.New(args[0], documentService,
		watch.WithDocumentType(watchType),
		watch.WithInitialScan(watchExisting),
		watch.WithDebounce(watchDebounce),
		watch.WithResultHandler(func(r watch.Result) {
			if r.Err != nil {
				warn(cmd, "%s: %v", r.Path, r.Err)
				return
			}
			success(cmd, "Ingested %s as %s (%d chunks)", r.Path, r.DocumentID, r.NumChunks)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to watch: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Dir())
	return w.Run(ctx)
}

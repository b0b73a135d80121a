package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive chat",
	Long: `Launch the interactive terminal chat for CareSync.

Ask questions one after another in a single conversation, browse the
sources behind each answer and manage uploaded documents.

Controls:
  Enter    - Ask / Select
  Tab      - Switch between question and sources
  PgUp/Dn  - Scroll the transcript
  Ctrl+N   - Start a new conversation
  Esc      - Back
  ?        - Toggle help
  Ctrl+C   - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	if chatService == nil {
		return notConfigured("chat")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("panic in chat UI: %v", r)
		}
	}()

	printStartupWarnings(cmd)

	app, err := tui.NewApp(tui.NewPorts(chatService, documentService))
	if err != nil {
		return fmt.Errorf("failed to create chat UI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

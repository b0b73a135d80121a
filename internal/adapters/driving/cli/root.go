// Package cli provides the cobra command tree for the caresync binary.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/core/ports/driving"
	"github.com/custodia-labs/caresync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by the entry point. Commands check for nil before use.
var (
	settingsService  driving.SettingsService
	documentService  driving.DocumentService
	retrievalService driving.RetrievalService
	chatService      driving.ChatService
	startupWarnings  []string
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "caresync",
	Short: "Ask questions about your health documents",
	Long: `CareSync indexes your medical documents (PDF and DOCX) and answers
questions about them, citing the passages each answer is grounded in.

Upload documents with 'caresync ingest', then ask with 'caresync ask' or
open the interactive chat with 'caresync chat'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline debug output to stderr")
}

// Services holds the driving ports the commands operate on.
type Services struct {
	Settings  driving.SettingsService
	Document  driving.DocumentService
	Retrieval driving.RetrievalService
	Chat      driving.ChatService

	// Warnings are non-fatal startup problems shown by commands that
	// depend on them, such as a missing LLM key.
	Warnings []string
}

// SetServices injects the services used by commands.
func SetServices(s Services) {
	settingsService = s.Settings
	documentService = s.Document
	retrievalService = s.Retrieval
	chatService = s.Chat
	startupWarnings = s.Warnings
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// RootCommand returns the root command.
func RootCommand() *cobra.Command {
	return rootCmd
}

var (
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
)

// warn prints a highlighted warning to the command's error stream.
func warn(cmd *cobra.Command, format string, args ...any) {
	warnColor.Fprintf(cmd.ErrOrStderr(), "Warning: "+format+"\n", args...) //nolint:errcheck // best-effort output
}

// success prints a highlighted status line to the command's output stream.
func success(cmd *cobra.Command, format string, args ...any) {
	successColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...) //nolint:errcheck // best-effort output
}

// printStartupWarnings shows warnings collected while wiring services.
func printStartupWarnings(cmd *cobra.Command) {
	for _, w := range startupWarnings {
		warn(cmd, "%s", w)
	}
}

// notConfigured reports a missing service, with the startup warnings that
// explain why when there are any.
func notConfigured(name string) error {
	if len(startupWarnings) == 0 {
		return fmt.Errorf("%s service not configured", name)
	}
	return fmt.Errorf("%s service not configured: %s", name, strings.Join(startupWarnings, "; "))
}

// Command caresync answers questions about uploaded health documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/caresync/internal/adapters/driven/ai"
	"github.com/custodia-labs/caresync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/caresync/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/caresync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/caresync/internal/adapters/driving/cli"
	"github.com/custodia-labs/caresync/internal/chunker"
	"github.com/custodia-labs/caresync/internal/core/services"
	"github.com/custodia-labs/caresync/internal/extractors"
	"github.com/custodia-labs/caresync/internal/extractors/pdf"
	"github.com/custodia-labs/caresync/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)

	cleanup, err := wire()
	defer cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := cli.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// wire builds every service from settings and hands them to the CLI.
// Failures past settings loading are reported as warnings so that config
// commands keep working while providers are misconfigured.
func wire() (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return cleanup, fmt.Errorf("loading config: %w", err)
	}
	configDir := filepath.Dir(configStore.Path())

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(), services.DefaultDataDir())
	settings, err := settingsService.Get()
	if err != nil {
		return cleanup, fmt.Errorf("resolving settings: %w", err)
	}

	if settings.Log.File != "" {
		if err := logger.SetFile(settings.Log.File); err != nil {
			logger.Warn("log file %s: %v", settings.Log.File, err)
		}
		closers = append(closers, func() { _ = logger.Close() })
	}

	svc := cli.Services{Settings: settingsService}
	defer func() { cli.SetServices(svc) }()

	if err := pdf.CheckAvailable(); err != nil {
		logger.Warn("%v: PDF uploads will fail. %s", err, pdf.InstallInstructions())
	}

	splitter, err := chunker.FromSettings(settings.Chunker)
	if err != nil {
		svc.Warnings = append(svc.Warnings, err.Error())
		return cleanup, nil
	}

	aiResult, err := ai.Initialize(settings)
	if err != nil {
		svc.Warnings = append(svc.Warnings,
			fmt.Sprintf("%v; run 'caresync config show' to check provider settings", err))
		return cleanup, nil
	}
	closers = append(closers, aiResult.Close)
	svc.Warnings = append(svc.Warnings, aiResult.Warnings...)

	store, err := sqlite.NewStore(settingsService.DataDir())
	if err != nil {
		svc.Warnings = append(svc.Warnings, fmt.Sprintf("opening metadata database: %v", err))
		return cleanup, nil
	}
	closers = append(closers, func() { _ = store.Close() })

	blobs, err := blob.NewStore(settings.Documents.Path)
	if err != nil {
		svc.Warnings = append(svc.Warnings, fmt.Sprintf("opening document store: %v", err))
		return cleanup, nil
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return cleanup, fmt.Errorf("loading prompts: %w", err)
	}

	retrieval := services.NewRetrievalService(aiResult.EmbeddingService, aiResult.VectorIndex, settings.Retrieval.TopK)
	generator := services.NewAnswerGenerator(aiResult.LLMService, prompts, settings.LLM)

	svc.Retrieval = retrieval
	svc.Chat = services.NewChatService(retrieval, generator, store.ConversationStore(), settings.Retrieval.TopK)
	svc.Document = services.NewDocumentService(
		extractors.NewDefaultRegistry(),
		splitter,
		aiResult.EmbeddingService,
		aiResult.VectorIndex,
		blobs,
		store.DocumentStore(),
		services.DocumentConfig{
			BatchSize:    settings.Embedding.BatchSize,
			MaxSizeBytes: settings.Documents.MaxSizeBytes,
		},
	)

	return cleanup, nil
}

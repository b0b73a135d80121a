package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// Config keys written by the interactive commands.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMAPIKey     = "llm.api_key"
)

// Targets accepted by set-key.
const (
	targetEmbedding = "embedding"
	targetLLM       = "llm"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Manage application settings",
	Long: `View and change CareSync settings.

Settings are read from built-in defaults, then ~/.caresync/config.toml, then
environment variables (a .env file in the working directory is loaded first).
Environment values always win, so 'config set' cannot override them.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config file value",
	Long: `Persist a single value to the config file, e.g.

  caresync config set llm.provider anthropic
  caresync config set chunker.size 800
  caresync config set vector_index.backend sqlite

Changes take effect the next time caresync starts.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [embedding|llm]",
	Short: "Store an API key without echoing it",
	Long: `Prompt for an API key and store it for the embedding or LLM provider.
The key is read without echo when stdin is a terminal. The provider is
pinged afterwards; a failed ping is reported but the key is kept.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{targetEmbedding, targetLLM},
	RunE:      runConfigSetKey,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the embedding provider, model and API key.`,
	RunE:  runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Interactively choose the provider that writes answers, its model and API key.`,
	RunE:  runConfigLLM,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", describeKey(settings.Embedding.APIKey))
	}
	cmd.Printf("  Batch Size: %d\n", settings.Embedding.BatchSize)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", describeKey(settings.LLM.APIKey))
	}
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.VectorIndex.Backend.Description())
	cmd.Printf("  Path: %s\n", settings.VectorIndex.Path)
	if settings.VectorIndex.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.VectorIndex.Dimensions)
	} else {
		cmd.Println("  Dimensions: (from embedding model)")
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunker.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunker.Overlap)
	cmd.Println()

	cmd.Println("[Documents]")
	cmd.Printf("  Path: %s\n", settings.Documents.Path)
	cmd.Printf("  Max Size: %d bytes\n", settings.Documents.MaxSizeBytes)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	if settings.Log.File != "" {
		cmd.Println("[Log]")
		cmd.Printf("  File: %s\n", settings.Log.File)
		cmd.Println()
	}

	if err := settingsService.Validate(); err != nil {
		warn(cmd, "%v", err)
		cmd.Println("Run 'caresync config set' or 'caresync config set-key' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.HasSuffix(key, ".api_key") {
		value = maskAPIKey(value)
	}
	success(cmd, "Set %s = %s", key, value)
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}

	var key string
	var validate func() error
	switch args[0] {
	case targetEmbedding:
		key, validate = keyEmbedAPIKey, settingsService.ValidateEmbeddingConfig
	case targetLLM:
		key, validate = keyLLMAPIKey, settingsService.ValidateLLMConfig
	default:
		return fmt.Errorf("unknown target %q (want %s or %s)", args[0], targetEmbedding, targetLLM)
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword(cmd.InOrStdin())
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if err := settingsService.Set(key, apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	success(cmd, "Stored %s (%s)", key, maskAPIKey(apiKey))

	cmd.Print("Validating configuration... ")
	if err := validate(); err != nil {
		cmd.Println("FAILED")
		warn(cmd, "%v", err)
		return nil
	}
	cmd.Println("OK")
	return nil
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, reader, providerPrompt{
		title:       "Select Embedding Provider",
		providers:   domain.AllEmbeddingProviders(),
		models:      domain.DefaultEmbeddingModels(),
		providerKey: keyEmbedProvider,
		modelKey:    keyEmbedModel,
		apiKeyKey:   keyEmbedAPIKey,
		validate:    settingsService.ValidateEmbeddingConfig,
		label:       "Embedding",
	})
}

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, reader, providerPrompt{
		title:       "Select LLM Provider",
		providers:   domain.AllLLMProviders(),
		models:      domain.DefaultLLMModels(),
		providerKey: keyLLMProvider,
		modelKey:    keyLLMModel,
		apiKeyKey:   keyLLMAPIKey,
		validate:    settingsService.ValidateLLMConfig,
		label:       "LLM",
	})
}

// providerPrompt describes one interactive provider selection.
type providerPrompt struct {
	title       string
	providers   []domain.AIProvider
	models      map[domain.AIProvider]string
	providerKey string
	modelKey    string
	apiKeyKey   string
	validate    func() error
	label       string
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, p providerPrompt) error {
	cmd.Println(p.title)
	for i, provider := range p.providers {
		cmd.Printf("  %d. %s\n", i+1, provider.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(p.providers), 1)
	selected := p.providers[idx-1]

	defaultModel := p.models[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readSecret(reader, cmd.InOrStdin())
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.Set(p.providerKey, selected.String()); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", p.label, err)
	}
	if err := settingsService.Set(p.modelKey, model); err != nil {
		return fmt.Errorf("failed to configure %s model: %w", p.label, err)
	}
	if apiKey != "" {
		if err := settingsService.Set(p.apiKeyKey, apiKey); err != nil {
			return fmt.Errorf("failed to store %s API key: %w", p.label, err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := p.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", p.label, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", p.label, selected.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a line from in, without echo when in is a terminal.
func readPassword(in io.Reader) string {
	return readSecret(bufio.NewReader(in), in)
}

// readSecret reads without echo from a terminal, otherwise from reader.
func readSecret(reader *bufio.Reader, in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func describeKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

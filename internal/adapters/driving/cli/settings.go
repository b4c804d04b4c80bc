package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change helpdesk settings.

Settings are read from defaults, then ~/.helpdesk/config.toml, then the
environment (HELPDESK_LLM_PROVIDER for llm.provider, and so on).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting in the config file",
	Long: `Set a setting in the config file.

Examples:
  helpdesk settings set llm.provider ollama
  helpdesk settings set answer.confidence_threshold 0.7
  helpdesk settings set llm.timeout 90s`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		if settings == nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Printf("Warning: %v\n\n", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", orNone(string(settings.LLM.Provider)))
	cmd.Printf("  Model: %s\n", orNone(settings.LLM.Model))
	cmd.Printf("  Base URL: %s\n", orNone(settings.LLM.BaseURL))
	cmd.Printf("  API Key: %s\n", secret(settings.LLM.APIKey))
	cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	cmd.Printf("  Status: %s\n", status(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", orNone(string(settings.Embedding.Provider)))
	cmd.Printf("  Model: %s\n", orNone(settings.Embedding.Model))
	cmd.Printf("  Base URL: %s\n", orNone(settings.Embedding.BaseURL))
	cmd.Printf("  API Key: %s\n", secret(settings.Embedding.APIKey))
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	cmd.Printf("  Status: %s\n", status(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	cmd.Printf("  Name: %s\n", settings.Index.Name)
	switch settings.Index.Backend {
	case domain.IndexBackendChromem:
		cmd.Printf("  Path: %s\n", orNone(settings.Index.Path))
	case domain.IndexBackendPGVector:
		cmd.Printf("  DSN: %s\n", secret(settings.Index.DSN))
	case domain.IndexBackendChroma:
		cmd.Printf("  URL: %s\n", orNone(settings.Index.URL))
	}
	cmd.Printf("  Status: %s\n", status(settings.Index.IsConfigured()))
	cmd.Println()

	cmd.Println("[Answer]")
	cmd.Printf("  Source type: %s\n", orNone(settings.Answer.SourceType))
	cmd.Printf("  Top K: %d\n", settings.Answer.TopK)
	cmd.Printf("  Confidence threshold: %.2f\n", settings.Answer.ConfidenceThreshold)
	cmd.Printf("  LLM judge: %t\n", settings.Answer.UseLLMJudge)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Target tokens: %d\n", settings.Chunking.TargetTokens)
	cmd.Printf("  Min/max tokens: %d/%d\n", settings.Chunking.MinTokens, settings.Chunking.MaxTokens)
	cmd.Printf("  Overlap: %d-%d words\n", settings.Chunking.OverlapMin, settings.Chunking.OverlapMax)
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  Kind: %s\n", orNone(string(settings.Source.Kind)))
	switch settings.Source.Kind {
	case domain.SourceKindConfluence, "":
		c := settings.Source.Confluence
		cmd.Printf("  Base URL: %s\n", orNone(c.BaseURL))
		cmd.Printf("  Email: %s\n", orNone(c.Email))
		cmd.Printf("  API Token: %s\n", secret(c.APIToken))
		cmd.Printf("  Space: %s\n", orNone(c.SpaceKey))
		cmd.Printf("  Status: %s\n", status(c.IsConfigured()))
	case domain.SourceKindNotion:
		cmd.Printf("  Token: %s\n", secret(settings.Source.Notion.Token))
		cmd.Printf("  Page limit: %d\n", settings.Source.Notion.PageLimit)
	case domain.SourceKindFilesystem:
		cmd.Printf("  Root: %s\n", orNone(settings.Source.Filesystem.Root))
	}
	cmd.Println()

	cmd.Println("[Service]")
	cmd.Printf("  Storage: %s\n", orNone(settings.StoragePath))
	cmd.Printf("  Listen address: %s\n", settings.ServerAddr)
	cmd.Printf("  Log file: %s\n", orNone(settings.LogFile))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'helpdesk settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if settingsService.IsSecret(key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		if settingsService.IsSecret(key) {
			cmd.Printf("%s (secret)\n", key)
			continue
		}
		cmd.Println(key)
	}
	return nil
}

// maskAPIKey masks an API key for display, showing only first/last 4 chars.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func secret(v string) string {
	if v == "" {
		return "(not set)"
	}
	return maskAPIKey(v)
}

func orNone(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func status(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

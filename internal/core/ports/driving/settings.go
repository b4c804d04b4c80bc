package driving

import "github.com/custodia-labs/helpdesk/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings: defaults, overlaid by the config file,
	// overlaid by the environment.
	Get() (*domain.Settings, error)

	// Set updates one dotted config key and persists it.
	Set(key, value string) error

	// Keys lists every recognised config key.
	Keys() []string

	// Validate checks that settings are usable for answering questions.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}

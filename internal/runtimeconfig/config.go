package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrEntitySuffixRequired = errors.New("translatable config: entity suffix is required")
var ErrEntitySuffixInvalid = errors.New("translatable config: entity suffix must be a valid identifier")
var ErrDefaultLocaleInvalid = errors.New("translatable config: default locale must be 2-6 characters")
var ErrLoggingProviderRequired = errors.New("translatable config: logging provider is required when logging is enabled")
var ErrLoggingProviderUnknown = errors.New("translatable config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("translatable config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("translatable config: logging format is invalid")

const (
	// DefaultEntitySuffix is appended to a source type name to name its
	// synthesized translation type.
	DefaultEntitySuffix = "Translation"

	minLocaleLength = 2
	maxLocaleLength = 6
)

// Config captures the registry defaults. Runtime changes go through
// Registry.Configure; this struct only seeds the initial state.
type Config struct {
	// DefaultLocale backs the locale resolver when no resolver is
	// configured. Empty means "no locale".
	DefaultLocale string
	ShouldDelete  bool
	ShouldMutate  bool
	EntitySuffix  string
	Logging       LoggingConfig
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Enabled   bool
	Provider  string
	Level     string
	Format    string
	AddSource bool
}

// DefaultConfig returns the defaults: delete translations after merging,
// work on a copy, and name generated types "<Source>Translation".
func DefaultConfig() Config {
	return Config{
		ShouldDelete: true,
		ShouldMutate: false,
		EntitySuffix: DefaultEntitySuffix,
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if err := ValidateEntitySuffix(cfg.EntitySuffix); err != nil {
		return err
	}
	if locale := strings.TrimSpace(cfg.DefaultLocale); locale != "" && !ValidLocaleLength(locale) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleInvalid, locale)
	}
	if cfg.Logging.Enabled {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// ValidateEntitySuffix checks that suffix can be appended to a Go type name.
func ValidateEntitySuffix(suffix string) error {
	if strings.TrimSpace(suffix) == "" {
		return ErrEntitySuffixRequired
	}
	for _, r := range suffix {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return fmt.Errorf("%w: %q", ErrEntitySuffixInvalid, suffix)
		}
	}
	return nil
}

// ValidLocaleLength reports whether locale fits the translation locale column.
func ValidLocaleLength(locale string) bool {
	n := utf8.RuneCountInString(locale)
	return n >= minLocaleLength && n <= maxLocaleLength
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

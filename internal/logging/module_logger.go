package logging

import (
	"context"

	"github.com/goliatone/go-translatable/pkg/interfaces"
)

const (
	rootModule     = "translatable"
	registryModule = "translatable.registry"
	storeModule    = "translatable.store"
	augmentModule  = "translatable.augment"
)

const (
	fieldSourceType = "source_type"
	fieldLocale     = "locale"
	fieldTable      = "table"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RegistryLogger returns the logger namespace reserved for the translation registry.
func RegistryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, registryModule)
}

// StoreLogger returns the logger namespace reserved for translation repositories.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// AugmentLogger returns the logger namespace reserved for repository augmentation.
func AugmentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, augmentModule)
}

// WithTranslationContext enriches the logger with source type, locale and
// table fields. Empty values are ignored.
func WithTranslationContext(logger interfaces.Logger, sourceType, locale, table string) interfaces.Logger {
	return WithFields(logger, map[string]any{
		fieldSourceType: sourceType,
		fieldLocale:     locale,
		fieldTable:      table,
	})
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

package registry

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// Option updates one registry setting. Options only touch the setting they
// name, so Configure can be called repeatedly with partial updates.
type Option func(*update)

type update struct {
	localeResolver interfaces.LocaleResolver
	dbResolver     interfaces.DBResolver
	shouldDelete   *bool
	shouldMutate   *bool
	entitySuffix   *string
	logger         interfaces.Logger
	provider       interfaces.LoggerProvider
}

// WithLocaleResolver sets the function used to find the current locale.
func WithLocaleResolver(resolver interfaces.LocaleResolver) Option {
	return func(u *update) {
		u.localeResolver = resolver
	}
}

// WithDefaultLocale installs a resolver that always answers locale.
func WithDefaultLocale(locale string) Option {
	locale = strings.TrimSpace(locale)
	return WithLocaleResolver(func(context.Context) (string, bool) {
		return locale, locale != ""
	})
}

// WithDBResolver sets the function used when no bun handle is passed
// explicitly.
func WithDBResolver(resolver interfaces.DBResolver) Option {
	return func(u *update) {
		u.dbResolver = resolver
	}
}

// WithDB installs a resolver that always answers db.
func WithDB(db bun.IDB) Option {
	return WithDBResolver(func(context.Context) (bun.IDB, bool) {
		return db, db != nil
	})
}

func WithShouldDelete(v bool) Option {
	return func(u *update) {
		u.shouldDelete = &v
	}
}

func WithShouldMutate(v bool) Option {
	return func(u *update) {
		u.shouldMutate = &v
	}
}

// WithEntitySuffix sets the suffix appended to source names. Rejected once
// translation types have been generated.
func WithEntitySuffix(suffix string) Option {
	return func(u *update) {
		u.entitySuffix = &suffix
	}
}

// WithLogger overrides the registry logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(u *update) {
		u.logger = logger
	}
}

// WithLoggerProvider derives the registry, store and augment loggers from
// provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(u *update) {
		u.provider = provider
		if provider != nil && u.logger == nil {
			u.logger = logging.RegistryLogger(provider)
		}
	}
}

// Package translatable adds per-locale companion records to bun models.
//
// A source model declares which of its fields have locale overrides. The
// registry either synthesizes a translation model for it at runtime or
// works with a hand written one, repositories load the translations of one
// locale, and Translate merges the matching translation into the model.
package translatable

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/augment"
	"github.com/goliatone/go-translatable/internal/logging/gologger"
	"github.com/goliatone/go-translatable/internal/merge"
	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/internal/records"
	"github.com/goliatone/go-translatable/internal/registry"
	"github.com/goliatone/go-translatable/internal/schema"
	"github.com/goliatone/go-translatable/internal/store"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

type (
	Registry              = registry.Registry
	Option                = registry.Option
	TableOptions          = metadata.TableOptions
	ColumnOptions         = metadata.ColumnOptions
	RelationOptions       = metadata.RelationOptions
	TranslationType       = schema.TranslationType
	Introspector          = schema.Introspector
	TranslationBase       = records.TranslationBase
	Record                = records.Record
	Translations          = records.Translations
	TranslationRepository = store.Repository
	NotFoundError         = store.NotFoundError
	Augmentation          = augment.Augmentation
	MergeOption           = merge.Option
	LocaleResolver        = interfaces.LocaleResolver
	DBResolver            = interfaces.DBResolver
	Logger                = interfaces.Logger
	LoggerProvider        = interfaces.LoggerProvider
	TranslationRecord     = interfaces.TranslationRecord
	FieldValuer           = interfaces.FieldValuer
)

// Repository is a go-repository-bun repository whose reads load the
// translations of one locale.
type Repository[T any] = augment.Repository[T]

// DefaultRelationSlot is the source field that receives translations.
const DefaultRelationSlot = registry.DefaultRelationSlot

var (
	WithLocaleResolver = registry.WithLocaleResolver
	WithDefaultLocale  = registry.WithDefaultLocale
	WithDBResolver     = registry.WithDBResolver
	WithDB             = registry.WithDB
	WithShouldDelete   = registry.WithShouldDelete
	WithShouldMutate   = registry.WithShouldMutate
	WithEntitySuffix   = registry.WithEntitySuffix
	WithLogger         = registry.WithLogger
	WithLoggerProvider = registry.WithLoggerProvider
)

var (
	WithLocale            = merge.WithLocale
	WithMergeShouldDelete = merge.WithShouldDelete
	WithMergeShouldMutate = merge.WithShouldMutate
)

// New builds a registry from cfg. When cfg.Logging is enabled and no logger
// provider option is given, a go-logger provider is installed first.
func New(cfg Config, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logging.Enabled {
		provider, err := gologger.NewProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		opts = append([]Option{registry.WithLoggerProvider(provider)}, opts...)
	}
	return registry.New(cfg, opts...)
}

// NewRecord builds a translation record for a synthesized translation type.
// values are keyed by source field name.
func NewRecord(sourceID any, locale string, values map[string]any) *Record {
	return records.NewRecord(sourceID, locale, values)
}

// Translate merges the translation of the resolved locale into entity, a
// pointer to a struct. r may be nil to use the package defaults.
func Translate[T any](ctx context.Context, r *Registry, entity T, opts ...MergeOption) (T, error) {
	return merge.Translate(ctx, mergeSource(r), entity, opts...)
}

// TranslateAll runs Translate over entities.
func TranslateAll[T any](ctx context.Context, r *Registry, entities []T, opts ...MergeOption) ([]T, error) {
	return merge.TranslateAll(ctx, mergeSource(r), entities, opts...)
}

// IsTranslatable reports whether entity holds well formed translations in
// its slot.
func IsTranslatable(r *Registry, entity any) bool {
	slot := DefaultRelationSlot
	if r != nil {
		slot = r.RelationSlot(entity)
	}
	return merge.IsTranslatable(entity, slot)
}

// WithTranslation returns the augmentation applied by Extend. db may be nil
// to use the registry's DB resolver; locale overrides the locale resolver.
func WithTranslation(r *Registry, db bun.IDB, locale ...string) Augmentation {
	if r == nil {
		return augment.WithTranslation(nil, db, locale...)
	}
	return augment.WithTranslation(r, db, locale...)
}

// Extend decorates inner so that Get, GetByID and List load translations of
// the augmentation's locale.
func Extend[T any](inner repository.Repository[T], aug Augmentation) *Repository[T] {
	return augment.Extend(inner, aug)
}

func mergeSource(r *Registry) merge.Source {
	if r == nil {
		return nil
	}
	return r
}

package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/errs"
	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/internal/runtimeconfig"
	"github.com/goliatone/go-translatable/internal/schema"
	"github.com/goliatone/go-translatable/internal/store"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// DefaultRelationSlot is the source field that holds loaded translations
// when no relation slot was declared.
const DefaultRelationSlot = "Translations"

// Registry tracks translatable sources, their translatable fields and the
// translation types synthesized for them. Declarations accumulate until
// Generate runs; after that the type map and the entity suffix are frozen.
type Registry struct {
	mu sync.RWMutex

	localeResolver interfaces.LocaleResolver
	dbResolver     interfaces.DBResolver
	shouldDelete   bool
	shouldMutate   bool
	entitySuffix   string

	pending   metadata.Store
	generated map[any]*schema.TranslationType
	order     []*schema.TranslationType
	fields    map[any][]string
	slots     map[any]string
	built     bool

	provider interfaces.LoggerProvider
	logger   interfaces.Logger
}

// New builds a registry seeded from cfg and then applies opts.
func New(cfg runtimeconfig.Config, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		shouldDelete: cfg.ShouldDelete,
		shouldMutate: cfg.ShouldMutate,
		entitySuffix: strings.TrimSpace(cfg.EntitySuffix),
		generated:    map[any]*schema.TranslationType{},
		fields:       map[any][]string{},
		slots:        map[any]string{},
		logger:       logging.RegistryLogger(nil),
	}
	if locale := strings.TrimSpace(cfg.DefaultLocale); locale != "" {
		opts = append([]Option{WithDefaultLocale(locale)}, opts...)
	}
	if err := r.Configure(opts...); err != nil {
		return nil, err
	}
	return r, nil
}

// Configure applies opts. Every option present is applied independently; a
// suffix change after generation is rejected with ErrAlreadyGenerated while
// the remaining options still take effect.
func (r *Registry) Configure(opts ...Option) error {
	var u update
	for _, opt := range opts {
		if opt != nil {
			opt(&u)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if u.provider != nil {
		r.provider = u.provider
	}
	if u.logger != nil {
		r.logger = u.logger
	}
	if u.localeResolver != nil {
		r.localeResolver = u.localeResolver
	}
	if u.dbResolver != nil {
		r.dbResolver = u.dbResolver
	}
	if u.shouldDelete != nil {
		r.shouldDelete = *u.shouldDelete
	}
	if u.shouldMutate != nil {
		r.shouldMutate = *u.shouldMutate
	}
	if u.entitySuffix == nil {
		return nil
	}

	if r.built {
		r.logger.Warn("translation.registry.configure.rejected", "option", "entity_suffix", "current", r.entitySuffix)
		return errs.AlreadyGenerated("cannot change entity suffix to %q after translation types are generated", *u.entitySuffix)
	}
	suffix := strings.TrimSpace(*u.entitySuffix)
	if err := runtimeconfig.ValidateEntitySuffix(suffix); err != nil {
		r.logger.Warn("translation.registry.configure.rejected", "option", "entity_suffix", "error", err)
		return err
	}
	r.entitySuffix = suffix
	return nil
}

// DeclareTranslatable marks source as translatable. Repeated declarations are
// not deduplicated.
func (r *Registry) DeclareTranslatable(source any, opts metadata.TableOptions) error {
	target, err := metadata.TargetOf(source)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.AddTable(target, opts)
	r.logger.Debug("translation.registry.declare_table", "source", target.String())
	return nil
}

// DeclareTranslatableName declares a source known only by name. Its
// translation type has an int64 source key and no relation to a Go type.
func (r *Registry) DeclareTranslatableName(name string, opts metadata.TableOptions) error {
	if strings.TrimSpace(name) == "" {
		return metadata.ErrInvalidSource
	}
	return r.DeclareTranslatable(name, opts)
}

// DeclareTranslatableField marks field of source as having per-locale values.
func (r *Registry) DeclareTranslatableField(source any, field string, opts metadata.ColumnOptions) error {
	target, err := metadata.TargetOf(source)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.AddColumn(target, field, opts)
	r.logger.Debug("translation.registry.declare_column", "source", target.String(), "field", field)
	return nil
}

// DeclareTranslationsRelation names the field of source that receives the
// loaded translations.
func (r *Registry) DeclareTranslationsRelation(source any, field string, opts metadata.RelationOptions) error {
	target, err := metadata.TargetOf(source)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.AddRelation(target, field, opts)
	r.logger.Debug("translation.registry.declare_relation", "source", target.String(), "field", field)
	return nil
}

// DeclareFields adds fields to the translatable set of source directly. Used
// for hand written translation models that are not synthesized.
func (r *Registry) DeclareFields(source any, fields ...string) error {
	target, err := metadata.TargetOf(source)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addFields(target.Key(), fields...)
	return nil
}

func (r *Registry) addFields(key any, fields ...string) {
	set := r.fields[key]
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" || slices.Contains(set, field) {
			continue
		}
		set = append(set, field)
	}
	r.fields[key] = set
}

// Generate synthesizes one translation type per declared table, in
// declaration order, and freezes the registry. in reads source column
// metadata and receives the new types; *bun.DB satisfies it. A second call
// fails with ErrAlreadyGenerated and changes nothing. A failed call leaves
// the registry unbuilt.
func (r *Registry) Generate(in schema.Introspector) ([]*schema.TranslationType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.built {
		return nil, errs.AlreadyGenerated("translation types are already generated")
	}

	pending := r.pending.Clone()
	built := make([]*schema.TranslationType, 0, len(pending.Tables))
	for _, table := range pending.Tables {
		desc, err := schema.Describe(table, pending.ColumnsFor(table.Target), pending.RelationsFor(table.Target), r.entitySuffix, in)
		if err != nil {
			r.logger.Error("translation.registry.generate.failed", "source", table.Target.String(), "error", err)
			return nil, err
		}
		tt, err := schema.Build(desc)
		if err != nil {
			r.logger.Error("translation.registry.generate.failed", "source", table.Target.String(), "error", err)
			return nil, err
		}
		if err := validateSlots(desc); err != nil {
			return nil, err
		}
		built = append(built, tt)
	}

	for _, tt := range built {
		if err := schema.Register(in, tt); err != nil {
			r.logger.Error("translation.registry.generate.failed", "source", tt.Source.String(), "error", err)
			return nil, err
		}
	}

	for _, tt := range built {
		key := tt.Source.Key()
		r.addFields(key, tt.FieldNames()...)
		if len(tt.Relations) > 0 {
			r.slots[key] = tt.Relations[0].Field
		}
		r.generated[key] = tt
		r.order = append(r.order, tt)
		logging.WithTranslationContext(r.logger, tt.Source.String(), "", tt.Table).
			Debug("translation.registry.generate.type", "entity", tt.EntityName, "fields", tt.FieldNames())
	}
	r.built = true
	r.logger.Info("translation.registry.generate.complete", "count", len(built), "suffix", r.entitySuffix)

	return append([]*schema.TranslationType(nil), built...), nil
}

func validateSlots(desc schema.Description) error {
	if desc.Source.Named() {
		return nil
	}
	for _, rel := range desc.Relations {
		if _, ok := desc.Source.Type.FieldByName(rel.Field); !ok {
			return fmt.Errorf("%w: translations slot %s.%s", schema.ErrUnknownField, desc.Source, rel.Field)
		}
	}
	return nil
}

// ResolveTranslationType returns the translation type generated for source.
// Values, pointers, slices and reflect.Types of the same model all resolve
// to the same entry. When a bun handle is given or resolvable, the type is
// bound into that handle's table cache.
func (r *Registry) ResolveTranslationType(ctx context.Context, source any, db ...bun.IDB) (*schema.TranslationType, error) {
	target, err := metadata.TargetOf(source)
	if err != nil {
		return nil, errs.TranslationEntityNotFound("could not find translation type for %v: %v", source, err)
	}

	r.mu.RLock()
	tt, ok := r.generated[target.Key()]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.TranslationEntityNotFound("could not find translation type for %s", target)
	}

	if handle, err := r.ResolveDB(ctx, db...); err == nil {
		if err := schema.Register(schema.IntrospectorFunc(handle.Dialect().Tables().Get), tt); err != nil {
			return nil, err
		}
	}
	return tt, nil
}

// ResolveRepositoryFor returns a translation repository for source bound to
// the explicit handle or the one produced by the DB resolver.
func (r *Registry) ResolveRepositoryFor(ctx context.Context, source any, db ...bun.IDB) (*store.Repository, error) {
	handle, err := r.ResolveDB(ctx, db...)
	if err != nil {
		return nil, err
	}
	tt, err := r.ResolveTranslationType(ctx, source, handle)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	provider := r.provider
	r.mu.RUnlock()
	return store.New(handle, tt, logging.FromContext(ctx, logging.StoreLogger(provider))), nil
}

// ResolveDB returns the first non-nil explicit handle, else the handle from
// the DB resolver, else ErrEntityManagerNotFound.
func (r *Registry) ResolveDB(ctx context.Context, db ...bun.IDB) (bun.IDB, error) {
	for _, handle := range db {
		if handle != nil {
			return handle, nil
		}
	}

	r.mu.RLock()
	resolver := r.dbResolver
	r.mu.RUnlock()
	if resolver != nil {
		if handle, ok := resolver(ctx); ok && handle != nil {
			return handle, nil
		}
	}
	return nil, errs.EntityManagerNotFound("could not resolve a database handle; pass one explicitly or configure a resolver")
}

// Locale returns the locale from the configured resolver.
func (r *Registry) Locale(ctx context.Context) (string, bool) {
	r.mu.RLock()
	resolver := r.localeResolver
	r.mu.RUnlock()
	if resolver == nil {
		return "", false
	}
	locale, ok := resolver(ctx)
	if !ok || strings.TrimSpace(locale) == "" {
		return "", false
	}
	return locale, true
}

// Defaults returns the default merge options.
func (r *Registry) Defaults() (shouldDelete, shouldMutate bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shouldDelete, r.shouldMutate
}

func (r *Registry) EntitySuffix() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entitySuffix
}

// Generated reports whether Generate has completed.
func (r *Registry) Generated() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.built
}

// TranslationTypes returns the generated types in declaration order.
func (r *Registry) TranslationTypes() []*schema.TranslationType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*schema.TranslationType(nil), r.order...)
}

// TranslatableFields returns the registered translatable fields of source.
func (r *Registry) TranslatableFields(source any) []string {
	target, err := metadata.TargetOf(source)
	if err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.fields[target.Key()]...)
}

// RelationSlot returns the field name of the translations slot of source.
func (r *Registry) RelationSlot(source any) string {
	target, err := metadata.TargetOf(source)
	if err != nil {
		return DefaultRelationSlot
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if slot, ok := r.slots[target.Key()]; ok && slot != "" {
		return slot
	}
	return DefaultRelationSlot
}

// LoggerProvider returns the provider set through WithLoggerProvider.
func (r *Registry) LoggerProvider() interfaces.LoggerProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.provider
}

// CreateTables creates the tables of types, foreign keys included. With no
// types it creates every generated table.
func (r *Registry) CreateTables(ctx context.Context, db bun.IDB, types ...*schema.TranslationType) error {
	if len(types) == 0 {
		types = r.TranslationTypes()
	}
	for _, tt := range types {
		q := db.NewCreateTable().Model(tt.New()).IfNotExists()
		if !tt.Source.Named() {
			q = q.WithForeignKeys()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", tt.Table, err)
		}
	}
	return nil
}

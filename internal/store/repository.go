package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/records"
	"github.com/goliatone/go-translatable/internal/schema"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

var (
	ErrDatabaseRequired = errors.New("translation repository: database is required")
	ErrNamedSource      = errors.New("translation repository: named sources have no Go type to attach to")
	ErrInvalidSlot      = errors.New("translation repository: translations slot must be of type records.Translations")
	ErrInvalidSources   = errors.New("translation repository: sources must be a pointer to a struct or a slice of structs")
)

var translationsType = reflect.TypeOf(records.Translations(nil))

// NotFoundError reports a missing translation row.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Repository persists rows of one synthesized translation type. Rows cross
// the API as records.Record values keyed by source field name.
type Repository struct {
	db     bun.IDB
	tt     *schema.TranslationType
	logger interfaces.Logger
}

// New binds a repository to db for the given translation type.
func New(db bun.IDB, tt *schema.TranslationType, logger interfaces.Logger) *Repository {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Repository{
		db:     db,
		tt:     tt,
		logger: logging.WithTranslationContext(logger, tt.Source.String(), "", tt.Table),
	}
}

// Type returns the translation type the repository is bound to.
func (r *Repository) Type() *schema.TranslationType {
	return r.tt
}

// WithDB returns a copy of the repository scoped to db, typically a bun.Tx.
func (r *Repository) WithDB(db bun.IDB) *Repository {
	clone := *r
	clone.db = db
	return &clone
}

// Create validates and inserts record. The returned record carries the
// generated identifier.
func (r *Repository) Create(ctx context.Context, record *records.Record) (*records.Record, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	model, err := r.tt.FromRecord(record)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, mapRepositoryError(err, r.tt.EntityName, "")
	}
	created, err := r.tt.ToRecord(model)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("translation.store.create", "id", created.ID, "locale", created.Locale, "source_id", created.SourceID)
	return created, nil
}

// Update overwrites the row identified by record.ID.
func (r *Repository) Update(ctx context.Context, record *records.Record) (*records.Record, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	model, err := r.tt.FromRecord(record)
	if err != nil {
		return nil, err
	}
	res, err := r.db.NewUpdate().Model(model).WherePK().Exec(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, r.tt.EntityName, fmt.Sprint(record.ID))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, &NotFoundError{Resource: r.tt.EntityName, Key: fmt.Sprint(record.ID)}
	}
	r.logger.Debug("translation.store.update", "id", record.ID, "locale", record.Locale)
	return r.tt.ToRecord(model)
}

// GetByID loads a single translation row.
func (r *Repository) GetByID(ctx context.Context, id int64) (*records.Record, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	model := r.tt.New()
	if err := r.db.NewSelect().Model(model).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
		return nil, mapRepositoryError(err, r.tt.EntityName, fmt.Sprint(id))
	}
	return r.tt.ToRecord(model)
}

// List returns every row for locale, or every row when locale is empty.
func (r *Repository) List(ctx context.Context, locale string) (records.Translations, error) {
	return r.list(ctx, locale, nil)
}

// ListBySource returns the rows owned by the given source keys, optionally
// restricted to one locale. Rows come back in insertion order.
func (r *Repository) ListBySource(ctx context.Context, locale string, sourceIDs ...any) (records.Translations, error) {
	if len(sourceIDs) == 0 {
		return records.Translations{}, nil
	}
	return r.list(ctx, locale, sourceIDs)
}

func (r *Repository) list(ctx context.Context, locale string, sourceIDs []any) (records.Translations, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	slice := r.tt.NewSlice()
	q := r.db.NewSelect().Model(slice).OrderExpr("?TableAlias.id ASC")
	if locale != "" {
		q = q.Where("?TableAlias.locale = ?", locale)
	}
	if sourceIDs != nil {
		q = q.Where("?TableAlias.source_id IN (?)", bun.In(sourceIDs))
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, mapRepositoryError(err, r.tt.EntityName, "")
	}

	rows := reflect.ValueOf(slice).Elem()
	out := make(records.Translations, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		record, err := r.tt.ToRecord(rows.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// Delete removes the row identified by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ready(); err != nil {
		return err
	}
	res, err := r.db.NewDelete().Model(r.tt.New()).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapRepositoryError(err, r.tt.EntityName, fmt.Sprint(id))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return &NotFoundError{Resource: r.tt.EntityName, Key: fmt.Sprint(id)}
	}
	r.logger.Debug("translation.store.delete", "id", id)
	return nil
}

// DeleteBySource removes every translation of one source record and reports
// how many rows were deleted.
func (r *Repository) DeleteBySource(ctx context.Context, sourceID any) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	res, err := r.db.NewDelete().Model(r.tt.New()).Where("source_id = ?", sourceID).Exec(ctx)
	if err != nil {
		return 0, mapRepositoryError(err, r.tt.EntityName, fmt.Sprint(sourceID))
	}
	affected, _ := res.RowsAffected()
	r.logger.Debug("translation.store.delete_by_source", "source_id", sourceID, "count", affected)
	return affected, nil
}

// Attach loads translations for sources and stores them in the slot field of
// each source. sources is a pointer to a struct, a pointer to a slice, or a
// slice of struct pointers. Sources without rows get an empty, non-nil slot.
func (r *Repository) Attach(ctx context.Context, sources any, slot, locale string) error {
	if r.tt.Source.Named() {
		return ErrNamedSource
	}
	targets, err := collectSources(reflect.ValueOf(sources), r.tt.Source.Type)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	keys := make([]any, 0, len(targets))
	for _, target := range targets {
		field := target.FieldByName(slot)
		if !field.IsValid() || field.Type() != translationsType || !field.CanSet() {
			return fmt.Errorf("%w: %s.%s", ErrInvalidSlot, r.tt.Source, slot)
		}
		keys = append(keys, target.FieldByName(r.tt.SourceKeyGo).Interface())
	}

	rows, err := r.ListBySource(ctx, locale, keys...)
	if err != nil {
		return err
	}
	grouped := make(map[any]records.Translations, len(targets))
	for _, row := range rows {
		grouped[row.SourceID] = append(grouped[row.SourceID], row)
	}

	for i, target := range targets {
		found := grouped[keys[i]]
		if found == nil {
			found = records.Translations{}
		}
		target.FieldByName(slot).Set(reflect.ValueOf(found))
	}
	r.logger.Debug("translation.store.attach", "sources", len(targets), "rows", len(rows), "locale", locale)
	return nil
}

func (r *Repository) ready() error {
	if r == nil || r.db == nil || r.tt == nil {
		return ErrDatabaseRequired
	}
	return nil
}

// collectSources returns the addressable struct values reachable from v.
func collectSources(v reflect.Value, want reflect.Type) ([]reflect.Value, error) {
	if !v.IsValid() {
		return nil, ErrInvalidSources
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil, ErrInvalidSources
		}
		elem := v.Elem()
		if elem.Kind() == reflect.Struct {
			if elem.Type() != want {
				return nil, fmt.Errorf("%w: got %s", ErrInvalidSources, v.Type())
			}
			return []reflect.Value{elem}, nil
		}
		return collectSources(elem, want)
	case reflect.Slice:
		out := make([]reflect.Value, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			if item.Kind() == reflect.Pointer {
				if item.IsNil() {
					continue
				}
				item = item.Elem()
			}
			if item.Kind() != reflect.Struct || item.Type() != want || !item.CanAddr() {
				return nil, fmt.Errorf("%w: got %s", ErrInvalidSources, v.Type())
			}
			out = append(out, item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrInvalidSources, v.Type())
	}
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("translation repository: %w", err)
}

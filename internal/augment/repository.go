package augment

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/internal/records"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

var translationsType = reflect.TypeOf(records.Translations(nil))

// Repository decorates a go-repository-bun repository so that reads load
// the translations of a single locale into each record. Writes go straight
// to the inner repository.
//
// Slots declared as bun has-many relations are joined through Relation with
// a locale filter. Slots of type records.Translations belong to synthesized
// translation types and are filled after the read through the translation
// repository.
type Repository[T any] struct {
	repository.Repository[T]

	aug         Augmentation
	model       reflect.Type
	slot        string
	synthesized bool
	logger      interfaces.Logger
}

// Extend wraps inner with aug.
func Extend[T any](inner repository.Repository[T], aug Augmentation) *Repository[T] {
	var zero T
	model, _ := metadata.StructType(reflect.TypeOf(zero))

	r := &Repository[T]{
		Repository: inner,
		aug:        aug,
		model:      model,
		slot:       "Translations",
		logger:     logging.AugmentLogger(nil),
	}
	if aug.src != nil {
		r.logger = logging.AugmentLogger(aug.src.LoggerProvider())
		if model != nil {
			r.slot = aug.src.RelationSlot(model)
		}
	}
	if model != nil {
		if field, ok := model.FieldByName(r.slot); ok && field.Type == translationsType {
			r.synthesized = true
		}
	}
	return r
}

// Inner returns the wrapped repository.
func (r *Repository[T]) Inner() repository.Repository[T] {
	return r.Repository
}

// Get returns one record with the translations of the resolved locale.
func (r *Repository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return zero, err
	}
	record, err := r.Repository.Get(ctx, r.criteria(locale, criteria)...)
	if err != nil {
		return zero, err
	}
	if err := r.attach(ctx, record, locale); err != nil {
		return zero, err
	}
	return record, nil
}

// GetByID returns the record identified by id with the translations of the
// resolved locale.
func (r *Repository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return zero, err
	}
	record, err := r.Repository.GetByID(ctx, id, r.criteria(locale, criteria)...)
	if err != nil {
		return zero, err
	}
	if err := r.attach(ctx, record, locale); err != nil {
		return zero, err
	}
	return record, nil
}

// List returns a page of records with the translations of the resolved
// locale.
func (r *Repository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := r.Repository.List(ctx, r.criteria(locale, criteria)...)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attach(ctx, items, locale); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetTx is Get on tx. Synthesized slots are loaded through tx as well.
func (r *Repository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return zero, err
	}
	record, err := r.Repository.GetTx(ctx, tx, r.criteria(locale, criteria)...)
	if err != nil {
		return zero, err
	}
	if err := r.attachWith(ctx, tx, record, locale); err != nil {
		return zero, err
	}
	return record, nil
}

// GetByIDTx is GetByID on tx.
func (r *Repository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return zero, err
	}
	record, err := r.Repository.GetByIDTx(ctx, tx, id, r.criteria(locale, criteria)...)
	if err != nil {
		return zero, err
	}
	if err := r.attachWith(ctx, tx, record, locale); err != nil {
		return zero, err
	}
	return record, nil
}

// ListTx is List on tx.
func (r *Repository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := r.Repository.ListTx(ctx, tx, r.criteria(locale, criteria)...)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachWith(ctx, tx, items, locale); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByIdentifier returns the record matching identifier with the
// translations of the resolved locale.
func (r *Repository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return zero, err
	}
	record, err := r.Repository.GetByIdentifier(ctx, identifier, r.criteria(locale, criteria)...)
	if err != nil {
		return zero, err
	}
	if err := r.attach(ctx, record, locale); err != nil {
		return zero, err
	}
	return record, nil
}

// GetByIdentifierTx is GetByIdentifier on tx.
func (r *Repository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return zero, err
	}
	record, err := r.Repository.GetByIdentifierTx(ctx, tx, identifier, r.criteria(locale, criteria)...)
	if err != nil {
		return zero, err
	}
	if err := r.attachWith(ctx, tx, record, locale); err != nil {
		return zero, err
	}
	return record, nil
}

// SelectQuery builds a select over model, a *T or *[]T (nil means a new
// T). An empty alias returns the plain query. Otherwise the translations slot
// is joined for the resolved locale: alias names either the model's own
// table alias or a relation path whose slot should be joined ("Author" joins
// "Author.Translations").
//
// Synthesized slots cannot be joined by bun; for those the query comes back
// unchanged and Load fills the slot after scanning.
func (r *Repository[T]) SelectQuery(ctx context.Context, model any, alias string) (*bun.SelectQuery, error) {
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return nil, err
	}
	db, err := r.aug.resolveDB(ctx)
	if err != nil {
		return nil, err
	}

	if model == nil {
		model = r.newModel()
	}
	q := db.NewSelect().Model(model)
	if alias == "" || r.synthesized || r.model == nil {
		return q, nil
	}

	path := r.slot
	if table := db.Dialect().Tables().Get(r.model); table == nil || alias != table.Alias {
		path = alias + "." + r.slot
	}
	r.logger.Debug("translation.augment.select", "relation", path, "locale", locale)
	return q.Relation(path, LocaleFilter(locale)), nil
}

// Load fills the synthesized translations slot of dst (a T, a []T or a
// pointer to either) for the resolved locale. It is a no-op for has-many
// slots, which SelectQuery already joins.
func (r *Repository[T]) Load(ctx context.Context, dst any) error {
	locale, err := r.aug.ResolveLocale(ctx)
	if err != nil {
		return err
	}
	return r.attach(ctx, dst, locale)
}

func (r *Repository[T]) criteria(locale string, criteria []repository.SelectCriteria) []repository.SelectCriteria {
	if r.synthesized || r.model == nil {
		return criteria
	}
	slot := r.slot
	join := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation(slot, LocaleFilter(locale))
	})
	return append(append([]repository.SelectCriteria(nil), criteria...), join)
}

func (r *Repository[T]) attach(ctx context.Context, dst any, locale string) error {
	if !r.synthesized || r.aug.src == nil {
		return nil
	}
	db, err := r.aug.resolveDB(ctx)
	if err != nil {
		return err
	}
	return r.attachWith(ctx, db, dst, locale)
}

// attachWith loads synthesized translations through db, which may be a
// transaction.
func (r *Repository[T]) attachWith(ctx context.Context, db bun.IDB, dst any, locale string) error {
	if !r.synthesized || r.aug.src == nil {
		return nil
	}
	repo, err := r.aug.src.ResolveRepositoryFor(ctx, r.model, db)
	if err != nil {
		return err
	}
	if err := repo.Attach(ctx, dst, r.slot, locale); err != nil {
		return fmt.Errorf("load translations for %s: %w", r.model, err)
	}
	return nil
}

func (r *Repository[T]) newModel() any {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Pointer {
		return reflect.New(typ.Elem()).Interface()
	}
	return &zero
}

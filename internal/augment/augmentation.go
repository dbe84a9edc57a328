package augment

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/errs"
	"github.com/goliatone/go-translatable/internal/store"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// Source is the registry surface augmentation depends on.
// *registry.Registry satisfies it.
type Source interface {
	Locale(ctx context.Context) (string, bool)
	RelationSlot(source any) string
	ResolveDB(ctx context.Context, db ...bun.IDB) (bun.IDB, error)
	ResolveRepositoryFor(ctx context.Context, source any, db ...bun.IDB) (*store.Repository, error)
	LoggerProvider() interfaces.LoggerProvider
}

// Augmentation carries what an extended repository needs to join the
// translations of one locale: the registry, an optional bun handle and an
// optional fixed locale.
type Augmentation struct {
	src    Source
	db     bun.IDB
	locale string
}

// WithTranslation builds an augmentation. db may be nil to use the
// registry's DB resolver; locale, when given, overrides the locale resolver.
func WithTranslation(src Source, db bun.IDB, locale ...string) Augmentation {
	aug := Augmentation{src: src, db: db}
	for _, l := range locale {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			aug.locale = trimmed
			break
		}
	}
	return aug
}

// ResolveLocale returns the fixed locale, else the registry locale. No
// locale is a NotTranslatable error.
func (a Augmentation) ResolveLocale(ctx context.Context) (string, error) {
	if a.locale != "" {
		return a.locale, nil
	}
	if a.src != nil {
		if locale, ok := a.src.Locale(ctx); ok {
			return locale, nil
		}
	}
	return "", errs.NotTranslatable("no locale specified")
}

// Locale is the fixed locale, empty when the resolver is used.
func (a Augmentation) Locale() string {
	return a.locale
}

func (a Augmentation) resolveDB(ctx context.Context) (bun.IDB, error) {
	if a.src == nil {
		if a.db == nil {
			return nil, errs.EntityManagerNotFound("augmentation has neither a database handle nor a registry")
		}
		return a.db, nil
	}
	return a.src.ResolveDB(ctx, a.db)
}

// LocaleFilter restricts a relation query to rows of locale.
func LocaleFilter(locale string) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.locale = ?", locale)
	}
}

package interfaces

import (
	"context"

	"github.com/uptrace/bun"
)

// TranslationRecord is the capability every element of a translations slot
// must expose. Elements that do not implement it make the owning entity
// untranslatable.
type TranslationRecord interface {
	LocaleCode() string
}

// FieldValuer is implemented by translation records that do not carry their
// overrides as struct fields (for example map-backed records of synthesized
// types). The name is the Go field name of the source entity.
type FieldValuer interface {
	TranslatedValue(field string) (any, bool)
}

// TranslatableFieldsProvider lets a source type list its translatable fields
// directly instead of declaring them on the registry.
type TranslatableFieldsProvider interface {
	TranslatableFields() []string
}

// LocaleResolver returns the locale for the current execution context,
// typically read from a request scoped value.
type LocaleResolver func(ctx context.Context) (string, bool)

// DBResolver returns the bun handle (database, transaction or connection)
// for the current execution context.
type DBResolver func(ctx context.Context) (bun.IDB, bool)

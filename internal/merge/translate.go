package merge

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/goliatone/go-translatable/internal/errs"
	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// Source provides the defaults and per-type metadata the merge reads.
// *registry.Registry satisfies it.
type Source interface {
	Locale(ctx context.Context) (string, bool)
	Defaults() (shouldDelete, shouldMutate bool)
	TranslatableFields(source any) []string
	RelationSlot(source any) string
}

const defaultSlot = "Translations"

var recordType = reflect.TypeOf((*interfaces.TranslationRecord)(nil)).Elem()

type options struct {
	locale       *string
	shouldDelete *bool
	shouldMutate *bool
}

// Option overrides a single merge setting for one call.
type Option func(*options)

func WithLocale(locale string) Option {
	return func(o *options) { o.locale = &locale }
}

func WithShouldDelete(v bool) Option {
	return func(o *options) { o.shouldDelete = &v }
}

func WithShouldMutate(v bool) Option {
	return func(o *options) { o.shouldMutate = &v }
}

// Translate returns entity with the overrides of the translation matching the
// requested locale applied to its translatable fields. entity must be a
// pointer to a struct.
//
// Without WithShouldMutate(true) the result is a shallow copy and entity is
// left untouched. With WithShouldDelete (the default) the translations slot is
// cleared on the result, and on entity too when mutating. A missing locale
// match is not an error: the copy comes back with its original values.
func Translate[T any](ctx context.Context, src Source, entity T, opts ...Option) (T, error) {
	var zero T
	if src == nil {
		src = defaultSource{}
	}

	v := reflect.ValueOf(entity)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return zero, errs.NotTranslatable("entity must be a non-nil pointer to a struct, got %T", entity)
	}
	typ := v.Elem().Type()
	slot := src.RelationSlot(typ)
	if slot == "" {
		slot = defaultSlot
	}
	if !isTranslatable(v.Elem(), slot) {
		return zero, errs.NotTranslatable("entity %s is not translatable", typ)
	}

	o := resolveOptions(ctx, src, opts)

	working := v
	if !o.mutate {
		working = reflect.New(typ)
		working.Elem().Set(v.Elem())
	}
	target := working.Elem()
	slotField := target.FieldByName(slot)

	match, found := findLocale(slotField, o.locale)

	if o.delete {
		// working and entity are the same value when mutating.
		slotField.Set(reflect.Zero(slotField.Type()))
	}

	result, _ := working.Interface().(T)
	if !found {
		return result, nil
	}

	fields := translatableFields(src, typ, working.Interface())
	if len(fields) == 0 {
		return zero, errs.NotTranslatable("entity %s has no translatable fields", typ)
	}

	for _, name := range fields {
		dst := target.FieldByName(name)
		if !dst.IsValid() || !dst.CanSet() || name == slot {
			continue
		}
		value, ok := translatedValue(match, name)
		if !ok {
			continue
		}
		if err := metadata.AssignValue(dst, value); err != nil {
			return zero, fmt.Errorf("translate %s.%s: %w", typ, name, err)
		}
	}
	return result, nil
}

// TranslateAll applies Translate to each entity and stops at the first
// failure.
func TranslateAll[T any](ctx context.Context, src Source, entities []T, opts ...Option) ([]T, error) {
	out := make([]T, 0, len(entities))
	for i, entity := range entities {
		translated, err := Translate(ctx, src, entity, opts...)
		if err != nil {
			return nil, fmt.Errorf("translate item %d: %w", i, err)
		}
		out = append(out, translated)
	}
	return out, nil
}

// IsTranslatable reports whether the slot field of entity holds at least one
// translation and every element is a TranslationRecord.
func IsTranslatable(entity any, slot string) bool {
	v := reflect.Indirect(reflect.ValueOf(entity))
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return false
	}
	if slot == "" {
		slot = defaultSlot
	}
	return isTranslatable(v, slot)
}

func isTranslatable(v reflect.Value, slot string) bool {
	field := v.FieldByName(slot)
	if !field.IsValid() || (field.Kind() != reflect.Slice && field.Kind() != reflect.Array) || field.Len() == 0 {
		return false
	}
	for i := 0; i < field.Len(); i++ {
		if _, ok := asRecord(field.Index(i)); !ok {
			return false
		}
	}
	return true
}

func asRecord(item reflect.Value) (interfaces.TranslationRecord, bool) {
	for item.Kind() == reflect.Interface {
		if item.IsNil() {
			return nil, false
		}
		item = item.Elem()
	}
	if item.Kind() == reflect.Pointer && item.IsNil() {
		return nil, false
	}
	if item.Type().Implements(recordType) {
		record, ok := item.Interface().(interfaces.TranslationRecord)
		return record, ok
	}
	if item.CanAddr() && reflect.PointerTo(item.Type()).Implements(recordType) {
		record, ok := item.Addr().Interface().(interfaces.TranslationRecord)
		return record, ok
	}
	return nil, false
}

// findLocale returns the first element whose locale equals locale.
func findLocale(slot reflect.Value, locale string) (reflect.Value, bool) {
	if locale == "" {
		return reflect.Value{}, false
	}
	for i := 0; i < slot.Len(); i++ {
		item := slot.Index(i)
		record, ok := asRecord(item)
		if ok && record.LocaleCode() == locale {
			return item, true
		}
	}
	return reflect.Value{}, false
}

func translatedValue(match reflect.Value, name string) (any, bool) {
	if record, ok := asRecord(match); ok {
		if valuer, ok := record.(interfaces.FieldValuer); ok {
			return valuer.TranslatedValue(name)
		}
	}
	for match.Kind() == reflect.Interface || match.Kind() == reflect.Pointer {
		match = match.Elem()
	}
	if match.Kind() != reflect.Struct {
		return nil, false
	}
	field := match.FieldByName(name)
	if !field.IsValid() || !field.CanInterface() {
		return nil, false
	}
	return field.Interface(), true
}

// translatableFields is the registry field set of typ merged with the
// fields the entity reports itself. Read on every call.
func translatableFields(src Source, typ reflect.Type, entity any) []string {
	fields := append([]string(nil), src.TranslatableFields(typ)...)
	if provider, ok := entity.(interfaces.TranslatableFieldsProvider); ok {
		for _, name := range provider.TranslatableFields() {
			if name != "" && !slices.Contains(fields, name) {
				fields = append(fields, name)
			}
		}
	}
	return fields
}

type resolved struct {
	locale string
	delete bool
	mutate bool
}

func resolveOptions(ctx context.Context, src Source, opts []Option) resolved {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	var out resolved
	out.delete, out.mutate = src.Defaults()
	if o.shouldDelete != nil {
		out.delete = *o.shouldDelete
	}
	if o.shouldMutate != nil {
		out.mutate = *o.shouldMutate
	}
	if o.locale != nil {
		out.locale = *o.locale
	} else if locale, ok := src.Locale(ctx); ok {
		out.locale = locale
	}
	return out
}

// defaultSource answers the package defaults when no registry is supplied.
type defaultSource struct{}

func (defaultSource) Locale(context.Context) (string, bool) { return "", false }
func (defaultSource) Defaults() (bool, bool)                { return true, false }
func (defaultSource) TranslatableFields(any) []string       { return nil }
func (defaultSource) RelationSlot(any) string               { return defaultSlot }

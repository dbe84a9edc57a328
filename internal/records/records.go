package records

import (
	"maps"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TranslationBase is embedded by hand written translation models. The
// owning model adds its own SourceID column, typed after the source key.
type TranslationBase struct {
	ID     int64  `bun:"id,pk,autoincrement" json:"id"`
	Locale string `bun:"locale,type:varchar(6),notnull" json:"locale"`
}

// LocaleCode satisfies interfaces.TranslationRecord.
func (b TranslationBase) LocaleCode() string {
	return b.Locale
}

// Record is the map backed view of a row of a synthesized translation type.
// Values are keyed by the Go field name of the source entity.
type Record struct {
	ID       int64          `json:"id"`
	Locale   string         `json:"locale"`
	SourceID any            `json:"source_id"`
	Values   map[string]any `json:"values,omitempty"`
}

// NewRecord builds a record for the source identified by sourceID.
func NewRecord(sourceID any, locale string, values map[string]any) *Record {
	record := &Record{
		Locale:   locale,
		SourceID: sourceID,
		Values:   make(map[string]any, len(values)),
	}
	maps.Copy(record.Values, values)
	return record
}

// LocaleCode satisfies interfaces.TranslationRecord.
func (r *Record) LocaleCode() string {
	if r == nil {
		return ""
	}
	return r.Locale
}

// TranslatedValue satisfies interfaces.FieldValuer.
func (r *Record) TranslatedValue(field string) (any, bool) {
	if r == nil || r.Values == nil {
		return nil, false
	}
	value, ok := r.Values[field]
	return value, ok
}

// Set stores value for field and returns the record for chaining.
func (r *Record) Set(field string, value any) *Record {
	if r.Values == nil {
		r.Values = map[string]any{}
	}
	r.Values[field] = value
	return r
}

// Validate checks the fields the store needs to persist the record.
func (r *Record) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Locale, validation.Required, validation.RuneLength(2, 6)),
		validation.Field(&r.SourceID, validation.Required),
	)
}

// Translations is the slot type for sources whose translation type is
// synthesized at runtime. Tag the field `bun:"-"`; it is filled by the
// translation repository.
type Translations []*Record

// ForLocale returns the first record for locale in slice order.
func (t Translations) ForLocale(locale string) (*Record, bool) {
	for _, record := range t {
		if record != nil && record.Locale == locale {
			return record, true
		}
	}
	return nil, false
}

// Locales lists the distinct locales present, sorted.
func (t Translations) Locales() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, record := range t {
		if record == nil {
			continue
		}
		if _, ok := seen[record.Locale]; ok {
			continue
		}
		seen[record.Locale] = struct{}{}
		out = append(out, record.Locale)
	}
	slices.Sort(out)
	return out
}

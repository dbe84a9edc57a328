package translatable

import (
	"context"
	"strings"

	"github.com/uptrace/bun"
	"golang.org/x/text/language"
)

type localeKey struct{}

type dbKey struct{}

// ContextWithLocale stores locale in ctx for ContextLocaleResolver.
func ContextWithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, strings.TrimSpace(locale))
}

// ContextWithTag stores the BCP 47 form of tag in ctx. The zero tag clears
// the locale.
func ContextWithTag(ctx context.Context, tag language.Tag) context.Context {
	if tag == (language.Tag{}) {
		return ContextWithLocale(ctx, "")
	}
	return ContextWithLocale(ctx, tag.String())
}

// LocaleFromContext returns the locale stored by ContextWithLocale or
// ContextWithTag.
func LocaleFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	locale, _ := ctx.Value(localeKey{}).(string)
	return locale, locale != ""
}

// TagFromContext parses the stored locale as a language tag.
func TagFromContext(ctx context.Context) (language.Tag, bool) {
	locale, ok := LocaleFromContext(ctx)
	if !ok {
		return language.Tag{}, false
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Tag{}, false
	}
	return tag, true
}

// MatchLocale picks the supported locale that best fits the preferences,
// given as tags or Accept-Language values. The first supported locale wins
// when nothing matches.
func MatchLocale(supported []string, preferred ...string) string {
	if len(supported) == 0 {
		return ""
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, locale := range supported {
		tags = append(tags, language.Make(locale))
	}
	_, index, confidence := language.NewMatcher(tags).Match(parsePreferred(preferred)...)
	if confidence == language.No {
		return supported[0]
	}
	return supported[index]
}

func parsePreferred(preferred []string) []language.Tag {
	var out []language.Tag
	for _, value := range preferred {
		tags, _, err := language.ParseAcceptLanguage(value)
		if err != nil {
			continue
		}
		out = append(out, tags...)
	}
	return out
}

// ContextWithDB stores a bun handle (database or transaction) in ctx for
// ContextDBResolver.
func ContextWithDB(ctx context.Context, db bun.IDB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

func DBFromContext(ctx context.Context) (bun.IDB, bool) {
	if ctx == nil {
		return nil, false
	}
	db, ok := ctx.Value(dbKey{}).(bun.IDB)
	return db, ok && db != nil
}

// ContextLocaleResolver reads the locale installed by ContextWithLocale.
func ContextLocaleResolver() LocaleResolver {
	return LocaleFromContext
}

// ContextDBResolver reads the handle installed by ContextWithDB.
func ContextDBResolver() DBResolver {
	return DBFromContext
}

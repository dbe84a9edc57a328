package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// CamelToSnake converts a CamelCase string to snake_case. Acronyms are kept
// together: "ID" -> "id", "SourceID" -> "source_id", "HTTPPost" -> "http_post".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EntityName is the name of the translation type synthesized for source.
func EntityName(source, suffix string) string {
	return source + suffix
}

// TableName derives a bun style table name from an entity name:
// "PostWithDeclarationsTranslation" -> "post_with_declarations_translations".
func TableName(entity string) string {
	snake := CamelToSnake(entity)
	idx := strings.LastIndexByte(snake, '_')
	if idx < 0 {
		return inflection.Plural(snake)
	}
	return snake[:idx+1] + inflection.Plural(snake[idx+1:])
}

// Alias derives a short table alias from the initials of the snake case
// segments: "post_translations" -> "pt".
func Alias(table string) string {
	var b strings.Builder
	for _, part := range strings.Split(table, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		b.WriteRune(r[0])
	}
	if b.Len() == 0 {
		return table
	}
	return b.String()
}

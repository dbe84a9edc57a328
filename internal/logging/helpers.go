package logging

import (
	"strings"

	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// WithFields binds fields to logger for loggers that implement
// FieldsLogger. Blank keys, nil values and blank strings are dropped so a
// store call without a locale does not log `locale=""`. The caller's map is
// never handed to the logger.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil {
		return logger
	}
	fieldsLogger, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		return logger
	}

	kept := make(map[string]any, len(fields))
	for key, value := range fields {
		if strings.TrimSpace(key) == "" || value == nil {
			continue
		}
		if s, isString := value.(string); isString {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			value = s
		}
		kept[key] = value
	}
	if len(kept) == 0 {
		return logger
	}
	return fieldsLogger.WithFields(kept)
}

package translatable

import "github.com/goliatone/go-translatable/internal/errs"

// Errors raised by the translation layer. All of them are configuration or
// usage defects; none is transient. They are go-errors values, so
// errors.Is matches these sentinels and TextCode carries the codes below.
var (
	ErrNotTranslatable           = errs.ErrNotTranslatable
	ErrAlreadyGenerated          = errs.ErrAlreadyGenerated
	ErrEntityManagerNotFound     = errs.ErrEntityManagerNotFound
	ErrTranslationEntityNotFound = errs.ErrTranslationEntityNotFound
)

const (
	CodeNotTranslatable           = errs.CodeNotTranslatable
	CodeAlreadyGenerated          = errs.CodeAlreadyGenerated
	CodeEntityManagerNotFound     = errs.CodeEntityManagerNotFound
	CodeTranslationEntityNotFound = errs.CodeTranslationEntityNotFound
)

package errs

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrNotTranslatable           = errors.New("translatable: entity is not translatable")
	ErrAlreadyGenerated          = errors.New("translatable: translation entities already generated")
	ErrEntityManagerNotFound     = errors.New("translatable: entity manager not found")
	ErrTranslationEntityNotFound = errors.New("translatable: translation entity not found")
)

const (
	CodeNotTranslatable           = "NOT_TRANSLATABLE"
	CodeAlreadyGenerated          = "ALREADY_GENERATED"
	CodeEntityManagerNotFound     = "ENTITY_MANAGER_NOT_FOUND"
	CodeTranslationEntityNotFound = "TRANSLATION_ENTITY_NOT_FOUND"
)

// NotTranslatable reports an entity without well formed translations,
// without translatable fields, or a query with no resolvable locale.
func NotTranslatable(format string, args ...any) error {
	return goerrors.Wrap(ErrNotTranslatable, goerrors.CategoryValidation, fmt.Sprintf(format, args...)).
		WithTextCode(CodeNotTranslatable)
}

// AlreadyGenerated reports a second synthesis or a late suffix change.
func AlreadyGenerated(format string, args ...any) error {
	return goerrors.Wrap(ErrAlreadyGenerated, goerrors.CategoryConflict, fmt.Sprintf(format, args...)).
		WithTextCode(CodeAlreadyGenerated)
}

// EntityManagerNotFound reports that neither an explicit handle nor the
// configured resolver produced a bun handle.
func EntityManagerNotFound(format string, args ...any) error {
	return goerrors.Wrap(ErrEntityManagerNotFound, goerrors.CategoryNotFound, fmt.Sprintf(format, args...)).
		WithTextCode(CodeEntityManagerNotFound)
}

// TranslationEntityNotFound reports a source type with no synthesized
// translation type.
func TranslationEntityNotFound(format string, args ...any) error {
	return goerrors.Wrap(ErrTranslationEntityNotFound, goerrors.CategoryNotFound, fmt.Sprintf(format, args...)).
		WithTextCode(CodeTranslationEntityNotFound)
}

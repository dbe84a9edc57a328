package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/errs"
	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/internal/records"
	"github.com/goliatone/go-translatable/internal/runtimeconfig"
	"github.com/goliatone/go-translatable/pkg/testsupport"
)

type post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID           int64                `bun:"id,pk,autoincrement"`
	Title        string               `bun:"title,type:varchar(255)"`
	Text         string               `bun:"text"`
	Slug         string               `bun:"slug"`
	Translations records.Translations `bun:"-"`
}

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := New(runtimeconfig.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func declarePost(t *testing.T, r *Registry) {
	t.Helper()
	if err := r.DeclareTranslatable(post{}, metadata.TableOptions{}); err != nil {
		t.Fatalf("DeclareTranslatable() error = %v", err)
	}
	for _, field := range []string{"Title", "Text"} {
		if err := r.DeclareTranslatableField(&post{}, field, metadata.ColumnOptions{}); err != nil {
			t.Fatalf("DeclareTranslatableField(%s) error = %v", field, err)
		}
	}
	if err := r.DeclareTranslationsRelation((*post)(nil), "Translations", metadata.RelationOptions{OnDelete: "CASCADE"}); err != nil {
		t.Fatalf("DeclareTranslationsRelation() error = %v", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	r := newRegistry(t)

	shouldDelete, shouldMutate := r.Defaults()
	if !shouldDelete || shouldMutate {
		t.Fatalf("unexpected defaults delete=%v mutate=%v", shouldDelete, shouldMutate)
	}
	if r.EntitySuffix() != "Translation" {
		t.Fatalf("unexpected suffix %q", r.EntitySuffix())
	}
	if _, ok := r.Locale(context.Background()); ok {
		t.Fatal("expected no locale without resolver")
	}
	if r.Generated() {
		t.Fatal("expected fresh registry to be unbuilt")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.EntitySuffix = ""
	if _, err := New(cfg); !errors.Is(err, runtimeconfig.ErrEntitySuffixRequired) {
		t.Fatalf("expected ErrEntitySuffixRequired, got %v", err)
	}
}

func TestNewSeedsDefaultLocale(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = "my"
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if locale, ok := r.Locale(context.Background()); !ok || locale != "my" {
		t.Fatalf("expected default locale my, got %q %v", locale, ok)
	}
}

func TestConfigurePartialUpdates(t *testing.T) {
	r := newRegistry(t)

	if err := r.Configure(WithShouldDelete(false)); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := r.Configure(WithShouldMutate(true)); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	shouldDelete, shouldMutate := r.Defaults()
	if shouldDelete || !shouldMutate {
		t.Fatalf("expected delete=false mutate=true, got %v %v", shouldDelete, shouldMutate)
	}

	type localeKey struct{}
	if err := r.Configure(WithLocaleResolver(func(ctx context.Context) (string, bool) {
		locale, ok := ctx.Value(localeKey{}).(string)
		return locale, ok
	})); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	ctx := context.WithValue(context.Background(), localeKey{}, "es")
	if locale, ok := r.Locale(ctx); !ok || locale != "es" {
		t.Fatalf("expected resolved locale es, got %q %v", locale, ok)
	}

	if err := r.Configure(WithEntitySuffix("Locale")); err != nil {
		t.Fatalf("Configure(suffix) error = %v", err)
	}
	if r.EntitySuffix() != "Locale" {
		t.Fatalf("expected suffix Locale, got %q", r.EntitySuffix())
	}
	if err := r.Configure(WithEntitySuffix("not valid")); !errors.Is(err, runtimeconfig.ErrEntitySuffixInvalid) {
		t.Fatalf("expected ErrEntitySuffixInvalid, got %v", err)
	}
}

func TestGenerateSynthesizesDeclaredTypes(t *testing.T) {
	db := testsupport.NewBunDB(t, (*post)(nil))
	r := newRegistry(t)
	declarePost(t, r)

	types, err := r.Generate(db)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(types) != 1 || types[0].Name() != "postTranslation" || types[0].Table != "post_translations" {
		t.Fatalf("unexpected types %+v", types)
	}
	if !r.Generated() {
		t.Fatal("expected registry to be built")
	}
	if got := r.TranslatableFields(post{}); !reflect.DeepEqual(got, []string{"Title", "Text"}) {
		t.Fatalf("unexpected translatable fields %v", got)
	}
	if got := r.RelationSlot(&post{}); got != "Translations" {
		t.Fatalf("unexpected relation slot %q", got)
	}
	if column, ok := types[0].Type.FieldByName("Title"); !ok || column.Tag.Get("bun") != "title,type:varchar(255)" {
		t.Fatalf("expected mirrored title column, got %q", column.Tag)
	}
}

func TestGenerateRunsOnce(t *testing.T) {
	db := testsupport.NewBunDB(t, (*post)(nil))
	r := newRegistry(t)
	declarePost(t, r)

	first, err := r.Generate(db)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if err := r.DeclareTranslatableName("Banner", metadata.TableOptions{}); err != nil {
		t.Fatalf("DeclareTranslatableName() error = %v", err)
	}
	second, err := r.Generate(db)
	if !errors.Is(err, errs.ErrAlreadyGenerated) {
		t.Fatalf("expected ErrAlreadyGenerated, got %v", err)
	}
	if second != nil {
		t.Fatalf("expected no types from second call, got %v", second)
	}
	types := r.TranslationTypes()
	if len(types) != len(first) || types[0] != first[0] {
		t.Fatalf("type map changed after second Generate: %v", types)
	}
	if _, err := r.ResolveTranslationType(context.Background(), "Banner"); !errors.Is(err, errs.ErrTranslationEntityNotFound) {
		t.Fatalf("expected late declaration to stay unresolved, got %v", err)
	}
}

func TestEntitySuffixFrozenAfterGenerate(t *testing.T) {
	db := testsupport.NewBunDB(t, (*post)(nil))
	r := newRegistry(t)
	declarePost(t, r)
	if _, err := r.Generate(db); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	err := r.Configure(WithEntitySuffix("Locale"), WithShouldMutate(true))
	if !errors.Is(err, errs.ErrAlreadyGenerated) {
		t.Fatalf("expected ErrAlreadyGenerated, got %v", err)
	}
	if r.EntitySuffix() != "Translation" {
		t.Fatalf("suffix changed to %q", r.EntitySuffix())
	}
	if _, shouldMutate := r.Defaults(); !shouldMutate {
		t.Fatal("expected other options in the same call to apply")
	}
}

func TestGenerateFailureLeavesRegistryUnbuilt(t *testing.T) {
	db := testsupport.NewBunDB(t, (*post)(nil))
	r := newRegistry(t)
	if err := r.DeclareTranslatable(post{}, metadata.TableOptions{}); err != nil {
		t.Fatalf("DeclareTranslatable() error = %v", err)
	}
	if err := r.DeclareTranslatableField(post{}, "Missing", metadata.ColumnOptions{}); err != nil {
		t.Fatalf("DeclareTranslatableField() error = %v", err)
	}

	if _, err := r.Generate(db); err == nil {
		t.Fatal("expected Generate to fail for unknown field")
	}
	if r.Generated() || len(r.TranslationTypes()) != 0 {
		t.Fatal("expected failed generation to publish nothing")
	}
}

func TestResolveTranslationTypeUsesCanonicalIdentity(t *testing.T) {
	db := testsupport.NewBunDB(t, (*post)(nil))
	r := newRegistry(t)
	declarePost(t, r)
	if _, err := r.Generate(db); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	ctx := context.Background()
	want, err := r.ResolveTranslationType(ctx, post{})
	if err != nil {
		t.Fatalf("ResolveTranslationType() error = %v", err)
	}
	for _, source := range []any{&post{}, (*post)(nil), []*post{}, &[]post{}, reflect.TypeOf(post{})} {
		got, err := r.ResolveTranslationType(ctx, source, db)
		if err != nil {
			t.Fatalf("ResolveTranslationType(%T) error = %v", source, err)
		}
		if got != want {
			t.Fatalf("ResolveTranslationType(%T) returned a different type", source)
		}
	}

	type other struct{ ID int64 }
	if _, err := r.ResolveTranslationType(ctx, other{}); !errors.Is(err, errs.ErrTranslationEntityNotFound) {
		t.Fatalf("expected ErrTranslationEntityNotFound, got %v", err)
	}
	if _, err := r.ResolveTranslationType(ctx, 42); !errors.Is(err, errs.ErrTranslationEntityNotFound) {
		t.Fatalf("expected ErrTranslationEntityNotFound for invalid source, got %v", err)
	}
}

func TestResolveDB(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	r := newRegistry(t)

	if _, err := r.ResolveDB(ctx); !errors.Is(err, errs.ErrEntityManagerNotFound) {
		t.Fatalf("expected ErrEntityManagerNotFound, got %v", err)
	}
	if got, err := r.ResolveDB(ctx, nil, db); err != nil || got != db {
		t.Fatalf("expected explicit handle, got %v %v", got, err)
	}

	if err := r.Configure(WithDB(db)); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if got, err := r.ResolveDB(ctx); err != nil || got != db {
		t.Fatalf("expected resolver handle, got %v %v", got, err)
	}
}

func TestResolveRepositoryForRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t, (*post)(nil))
	r := newRegistry(t)
	declarePost(t, r)
	if _, err := r.Generate(db); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := r.ResolveRepositoryFor(ctx, post{}); !errors.Is(err, errs.ErrEntityManagerNotFound) {
		t.Fatalf("expected ErrEntityManagerNotFound without handle, got %v", err)
	}

	if err := r.CreateTables(ctx, db); err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	p := &post{Title: "Hello", Text: "World", Slug: "hello"}
	if _, err := db.NewInsert().Model(p).Exec(ctx); err != nil {
		t.Fatalf("insert post: %v", err)
	}

	repo, err := r.ResolveRepositoryFor(ctx, p, db)
	if err != nil {
		t.Fatalf("ResolveRepositoryFor() error = %v", err)
	}
	if _, err := repo.Create(ctx, records.NewRecord(p.ID, "my", map[string]any{"Title": "မင်္ဂလာပါ"})); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Attach(ctx, p, r.RelationSlot(p), ""); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if got, _ := p.Translations.ForLocale("my"); got == nil || got.Values["Title"] != "မင်္ဂလာပါ" {
		t.Fatalf("unexpected translations %+v", p.Translations)
	}
}

func TestNamedDeclarationUsesAbstractBase(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	r := newRegistry(t, WithDB(db))

	if err := r.DeclareTranslatableName("Banner", metadata.TableOptions{Name: "banner_translations"}); err != nil {
		t.Fatalf("DeclareTranslatableName() error = %v", err)
	}
	if err := r.DeclareTranslatableField("Banner", "Caption", metadata.ColumnOptions{Type: "varchar(80)"}); err != nil {
		t.Fatalf("DeclareTranslatableField() error = %v", err)
	}
	if err := r.DeclareTranslatableName(" ", metadata.TableOptions{}); !errors.Is(err, metadata.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}

	types, err := r.Generate(db)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if types[0].Name() != "BannerTranslation" {
		t.Fatalf("unexpected name %q", types[0].Name())
	}
	if err := r.CreateTables(ctx, db); err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}

	repo, err := r.ResolveRepositoryFor(ctx, "Banner")
	if err != nil {
		t.Fatalf("ResolveRepositoryFor() error = %v", err)
	}
	if _, err := repo.Create(ctx, records.NewRecord(int64(3), "fr", map[string]any{"Caption": "Bonjour"})); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	rows, err := repo.List(ctx, "fr")
	if err != nil || len(rows) != 1 || rows[0].Values["Caption"] != "Bonjour" {
		t.Fatalf("unexpected rows %v %v", rows, err)
	}
	if got := r.TranslatableFields("Banner"); !reflect.DeepEqual(got, []string{"Caption"}) {
		t.Fatalf("unexpected fields %v", got)
	}
}

func TestDeclareFieldsDeduplicates(t *testing.T) {
	r := newRegistry(t)
	if err := r.DeclareFields(post{}, "Title", " Title ", "", "Text"); err != nil {
		t.Fatalf("DeclareFields() error = %v", err)
	}
	if got := r.TranslatableFields(&post{}); !reflect.DeepEqual(got, []string{"Title", "Text"}) {
		t.Fatalf("unexpected fields %v", got)
	}
	if err := r.DeclareFields(nil, "Title"); !errors.Is(err, metadata.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

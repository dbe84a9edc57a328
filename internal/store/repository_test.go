package store

import (
	"context"
	"errors"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/internal/records"
	"github.com/goliatone/go-translatable/internal/schema"
	"github.com/goliatone/go-translatable/pkg/testsupport"
)

type note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID           int64                `bun:"id,pk,autoincrement"`
	Title        string               `bun:"title,type:varchar(100)"`
	Translations records.Translations `bun:"-"`
}

func newNoteRepository(t *testing.T) (*Repository, *bun.DB) {
	t.Helper()
	db := testsupport.NewBunDB(t, (*note)(nil))

	target, err := metadata.TargetOf(note{})
	if err != nil {
		t.Fatalf("TargetOf() error = %v", err)
	}
	desc, err := schema.Describe(
		metadata.TableDeclaration{Target: target},
		[]metadata.ColumnDeclaration{{Target: target, Field: "Title"}},
		[]metadata.RelationDeclaration{{Target: target, Field: "Translations", Options: metadata.RelationOptions{OnDelete: "CASCADE"}}},
		"Translation",
		db,
	)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	tt, err := schema.Build(desc)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := db.NewCreateTable().Model(tt.New()).WithForeignKeys().Exec(context.Background()); err != nil {
		t.Fatalf("create translation table: %v", err)
	}
	return New(db, tt, nil), db
}

func seedNotes(t *testing.T, db *bun.DB, titles ...string) []*note {
	t.Helper()
	out := make([]*note, 0, len(titles))
	for _, title := range titles {
		n := &note{Title: title}
		if _, err := db.NewInsert().Model(n).Exec(context.Background()); err != nil {
			t.Fatalf("insert note: %v", err)
		}
		out = append(out, n)
	}
	return out
}

func TestRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo, db := newNoteRepository(t)
	notes := seedNotes(t, db, "Hello")

	created, err := repo.Create(ctx, records.NewRecord(notes[0].ID, "my", map[string]any{"Title": "မင်္ဂလာပါ"}))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected generated id")
	}

	loaded, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if loaded.Locale != "my" || loaded.Values["Title"] != "မင်္ဂလာပါ" || loaded.SourceID != notes[0].ID {
		t.Fatalf("unexpected record %+v", loaded)
	}

	var notFound *NotFoundError
	if _, err := repo.GetByID(ctx, 999); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRepositoryCreateValidatesRecord(t *testing.T) {
	repo, _ := newNoteRepository(t)

	if _, err := repo.Create(context.Background(), records.NewRecord(1, "x", nil)); err == nil {
		t.Fatal("expected validation error for one letter locale")
	}
	if _, err := repo.Create(context.Background(), records.NewRecord(nil, "en", nil)); err == nil {
		t.Fatal("expected validation error for missing source id")
	}
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo, db := newNoteRepository(t)
	notes := seedNotes(t, db, "Hello")

	created, err := repo.Create(ctx, records.NewRecord(notes[0].ID, "es", map[string]any{"Title": "Hola"}))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	created.Set("Title", "Buenas")
	if _, err := repo.Update(ctx, created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	loaded, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if loaded.Values["Title"] != "Buenas" {
		t.Fatalf("expected updated title, got %v", loaded.Values["Title"])
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var notFound *NotFoundError
	if err := repo.Delete(ctx, created.ID); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestRepositoryListBySourceFiltersLocale(t *testing.T) {
	ctx := context.Background()
	repo, db := newNoteRepository(t)
	notes := seedNotes(t, db, "One", "Two")

	for _, rec := range []*records.Record{
		records.NewRecord(notes[0].ID, "es", map[string]any{"Title": "Uno"}),
		records.NewRecord(notes[0].ID, "fr", map[string]any{"Title": "Un"}),
		records.NewRecord(notes[1].ID, "es", map[string]any{"Title": "Dos"}),
	} {
		if _, err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.ListBySource(ctx, "", notes[0].ID)
	if err != nil {
		t.Fatalf("ListBySource() error = %v", err)
	}
	if got := all.Locales(); len(got) != 2 || got[0] != "es" || got[1] != "fr" {
		t.Fatalf("unexpected locales %v", got)
	}

	spanish, err := repo.List(ctx, "es")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(spanish) != 2 {
		t.Fatalf("expected 2 spanish rows, got %d", len(spanish))
	}

	empty, err := repo.ListBySource(ctx, "es")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result without keys, got %v %v", empty, err)
	}

	removed, err := repo.DeleteBySource(ctx, notes[0].ID)
	if err != nil {
		t.Fatalf("DeleteBySource() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows removed, got %d", removed)
	}
}

func TestRepositoryAttachFillsSlots(t *testing.T) {
	ctx := context.Background()
	repo, db := newNoteRepository(t)
	notes := seedNotes(t, db, "One", "Two")

	if _, err := repo.Create(ctx, records.NewRecord(notes[0].ID, "es", map[string]any{"Title": "Uno"})); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Attach(ctx, notes, "Translations", "es"); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if got, _ := notes[0].Translations.ForLocale("es"); got == nil || got.Values["Title"] != "Uno" {
		t.Fatalf("expected spanish translation on first note, got %+v", notes[0].Translations)
	}
	if notes[1].Translations == nil || len(notes[1].Translations) != 0 {
		t.Fatalf("expected empty non-nil slot on second note, got %#v", notes[1].Translations)
	}

	single := &note{ID: notes[0].ID}
	if err := repo.Attach(ctx, single, "Translations", ""); err != nil {
		t.Fatalf("Attach(single) error = %v", err)
	}
	if len(single.Translations) != 1 {
		t.Fatalf("expected one translation, got %d", len(single.Translations))
	}

	if err := repo.Attach(ctx, notes, "Title", "es"); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
	if err := repo.Attach(ctx, "nope", "Translations", "es"); !errors.Is(err, ErrInvalidSources) {
		t.Fatalf("expected ErrInvalidSources, got %v", err)
	}
}

func TestRepositoryWithDBScopesToTransaction(t *testing.T) {
	ctx := context.Background()
	repo, db := newNoteRepository(t)
	notes := seedNotes(t, db, "One")

	rollback := errors.New("rollback")
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := repo.WithDB(tx).Create(ctx, records.NewRecord(notes[0].ID, "de", map[string]any{"Title": "Eins"})); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("expected rollback error, got %v", err)
	}

	rows, err := repo.List(ctx, "de")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected rolled back insert, got %d rows", len(rows))
	}
}

package metadata

import "strings"

// TableOptions configure the synthesized translation table.
type TableOptions struct {
	// Name overrides the derived table name.
	Name string
	// Alias overrides the derived table alias.
	Alias string
}

// ColumnOptions override what is mirrored from the source column.
type ColumnOptions struct {
	// Type is the SQL type, e.g. "varchar(255)".
	Type    string
	NotNull bool
	Default string
}

// RelationOptions are carried onto the translation -> source foreign key.
type RelationOptions struct {
	OnDelete string
	OnUpdate string
}

// TableDeclaration marks a source as translatable.
type TableDeclaration struct {
	Target  Target
	Options TableOptions
}

// ColumnDeclaration marks a source field as translatable.
type ColumnDeclaration struct {
	Target  Target
	Field   string
	Options ColumnOptions
}

// RelationDeclaration marks the source field that holds the translations.
type RelationDeclaration struct {
	Target  Target
	Field   string
	Options RelationOptions
}

// Store accumulates declarations until synthesis. Lists keep declaration
// order and are never deduplicated.
type Store struct {
	Tables    []TableDeclaration
	Columns   []ColumnDeclaration
	Relations []RelationDeclaration
}

func (s *Store) AddTable(target Target, opts TableOptions) {
	s.Tables = append(s.Tables, TableDeclaration{Target: target, Options: opts})
}

func (s *Store) AddColumn(target Target, field string, opts ColumnOptions) {
	s.Columns = append(s.Columns, ColumnDeclaration{Target: target, Field: strings.TrimSpace(field), Options: opts})
}

func (s *Store) AddRelation(target Target, field string, opts RelationOptions) {
	s.Relations = append(s.Relations, RelationDeclaration{Target: target, Field: strings.TrimSpace(field), Options: opts})
}

// ColumnsFor returns the column declarations owned by target, in order.
func (s *Store) ColumnsFor(target Target) []ColumnDeclaration {
	out := make([]ColumnDeclaration, 0, len(s.Columns))
	for _, col := range s.Columns {
		if col.Target.Key() == target.Key() {
			out = append(out, col)
		}
	}
	return out
}

// RelationsFor returns the relation slot declarations owned by target.
func (s *Store) RelationsFor(target Target) []RelationDeclaration {
	out := make([]RelationDeclaration, 0, len(s.Relations))
	for _, rel := range s.Relations {
		if rel.Target.Key() == target.Key() {
			out = append(out, rel)
		}
	}
	return out
}

// Clone returns a copy whose slices do not alias the receiver.
func (s *Store) Clone() Store {
	return Store{
		Tables:    append([]TableDeclaration(nil), s.Tables...),
		Columns:   append([]ColumnDeclaration(nil), s.Columns...),
		Relations: append([]RelationDeclaration(nil), s.Relations...),
	}
}

package schema

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"
	"strings"

	bunschema "github.com/uptrace/bun/schema"

	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/internal/naming"
)

var (
	ErrIntrospectorRequired = errors.New("translatable schema: introspector is required for typed sources")
	ErrSourceKey            = errors.New("translatable schema: source must have exactly one primary key")
	ErrUnknownField         = errors.New("translatable schema: unknown source field")
	ErrFieldConflict        = errors.New("translatable schema: field name reserved by translation base")
)

const (
	defaultSourcePK = "id"
	sourceKeyColumn = "source_id"
	localeColumn    = "locale"
	localeSQLType   = "varchar(6)"
)

var reservedFields = map[string]struct{}{
	"BaseModel": {},
	"ID":        {},
	"Locale":    {},
	"SourceID":  {},
	"Source":    {},
}

// Introspector is the part of *bun.DB the synthesizer reads source column
// metadata from. Calling Table also registers a type with bun's table cache.
type Introspector interface {
	Table(typ reflect.Type) *bunschema.Table
}

// Column describes one translatable column of a synthesized type.
type Column struct {
	GoName  string
	Name    string
	Type    reflect.Type
	SQLType string
	NotNull bool
	Default string
}

// Description is the plain data shape of a translation type, collected from
// declarations before any type is constructed.
type Description struct {
	Source        metadata.Target
	EntityName    string
	Table         string
	Alias         string
	SourcePK      string
	SourceKeyGo   string
	SourceKeyType reflect.Type
	SourceKeySQL  string
	Columns       []Column
	Relations     []metadata.RelationDeclaration
}

// Describe resolves declarations for one translatable table into a
// Description. Typed sources have their columns mirrored from bun's table
// metadata; name-only sources use the declared column options as is.
func Describe(
	table metadata.TableDeclaration,
	columns []metadata.ColumnDeclaration,
	relations []metadata.RelationDeclaration,
	suffix string,
	in Introspector,
) (Description, error) {
	entity := naming.EntityName(table.Target.Name, suffix)
	desc := Description{
		Source:        table.Target,
		EntityName:    entity,
		Table:         strings.TrimSpace(table.Options.Name),
		Alias:         strings.TrimSpace(table.Options.Alias),
		SourcePK:      defaultSourcePK,
		SourceKeyGo:   "ID",
		SourceKeyType: reflect.TypeOf(int64(0)),
		Relations:     append([]metadata.RelationDeclaration(nil), relations...),
	}
	if desc.Table == "" {
		desc.Table = naming.TableName(entity)
	}
	if desc.Alias == "" {
		desc.Alias = naming.Alias(desc.Table)
	}

	if table.Target.Named() {
		for _, decl := range columns {
			col, err := namedColumn(decl)
			if err != nil {
				return Description{}, err
			}
			desc.Columns = append(desc.Columns, col)
		}
		return desc, nil
	}

	if in == nil {
		return Description{}, ErrIntrospectorRequired
	}
	sourceTable, err := introspect(in, table.Target.Type)
	if err != nil {
		return Description{}, err
	}
	if len(sourceTable.PKs) != 1 {
		return Description{}, fmt.Errorf("%w: %s has %d", ErrSourceKey, table.Target, len(sourceTable.PKs))
	}
	pk := sourceTable.PKs[0]
	desc.SourcePK = pk.Name
	desc.SourceKeyGo = pk.GoName
	desc.SourceKeyType = pk.StructField.Type
	desc.SourceKeySQL = pk.UserSQLType

	for _, decl := range columns {
		field := lookupField(sourceTable, decl.Field)
		if field == nil {
			return Description{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, table.Target, decl.Field)
		}
		if _, reserved := reservedFields[field.GoName]; reserved {
			return Description{}, fmt.Errorf("%w: %s", ErrFieldConflict, field.GoName)
		}
		desc.Columns = append(desc.Columns, Column{
			GoName:  field.GoName,
			Name:    field.Name,
			Type:    field.StructField.Type,
			SQLType: firstNonEmpty(decl.Options.Type, field.UserSQLType, field.DiscoveredSQLType),
			NotNull: decl.Options.NotNull,
			Default: decl.Options.Default,
		})
	}
	return desc, nil
}

// FieldNames lists the Go names of the translatable columns in order.
func (d Description) FieldNames() []string {
	out := make([]string, 0, len(d.Columns))
	for _, col := range d.Columns {
		out = append(out, col.GoName)
	}
	return out
}

func namedColumn(decl metadata.ColumnDeclaration) (Column, error) {
	if _, reserved := reservedFields[decl.Field]; reserved {
		return Column{}, fmt.Errorf("%w: %s", ErrFieldConflict, decl.Field)
	}
	if decl.Field == "" || !isExported(decl.Field) {
		return Column{}, fmt.Errorf("%w: %q must be an exported Go name", ErrUnknownField, decl.Field)
	}
	return Column{
		GoName:  decl.Field,
		Name:    naming.CamelToSnake(decl.Field),
		Type:    reflect.TypeOf(""),
		SQLType: decl.Options.Type,
		NotNull: decl.Options.NotNull,
		Default: decl.Options.Default,
	}, nil
}

func introspect(in Introspector, typ reflect.Type) (table *bunschema.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("translatable schema: introspect %s: %v", typ, r)
		}
	}()
	table = in.Table(typ)
	if table == nil {
		return nil, fmt.Errorf("translatable schema: no table metadata for %s", typ)
	}
	return table, nil
}

func lookupField(table *bunschema.Table, name string) *bunschema.Field {
	for _, field := range table.Fields {
		if field.GoName == name || field.Name == name {
			return field
		}
	}
	return nil
}

func isExported(name string) bool {
	return token.IsIdentifier(name) && token.IsExported(name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

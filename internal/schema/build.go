package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	bunschema "github.com/uptrace/bun/schema"

	"github.com/goliatone/go-translatable/internal/metadata"
	"github.com/goliatone/go-translatable/internal/records"
)

// TranslationType is a translation model synthesized from a Description.
type TranslationType struct {
	Description
	Type reflect.Type
}

var (
	baseModelType = reflect.TypeOf(bun.BaseModel{})
	idType        = reflect.TypeOf(int64(0))
	stringType    = reflect.TypeOf("")
)

// Build constructs the struct type for desc. The result has the shape
//
//	struct {
//		bun.BaseModel `bun:"table:<table>,alias:<alias>"`
//		ID       int64  `bun:"id,pk,autoincrement"`
//		Locale   string `bun:"locale,type:varchar(6),notnull"`
//		SourceID <pk>   `bun:"source_id,type:<pk type>,notnull"`
//		Source   *<Src> `bun:"rel:belongs-to,join:source_id=<pk>"` // typed sources only
//		<Field>  <T>    `bun:"<column>"`                          // one per translatable column
//	}
func Build(desc Description) (*TranslationType, error) {
	fields := []reflect.StructField{
		{
			Name:      "BaseModel",
			Type:      baseModelType,
			Anonymous: true,
			Tag:       tag(fmt.Sprintf("table:%s,alias:%s", desc.Table, desc.Alias), ""),
		},
		{Name: "ID", Type: idType, Tag: tag("id,pk,autoincrement", "id")},
		{Name: "Locale", Type: stringType, Tag: tag(localeColumn+",type:"+localeSQLType+",notnull", "locale")},
		{Name: "SourceID", Type: desc.SourceKeyType, Tag: tag(sourceKeyTag(desc), sourceKeyColumn)},
	}

	if !desc.Source.Named() {
		fields = append(fields, reflect.StructField{
			Name: "Source",
			Type: reflect.PointerTo(desc.Source.Type),
			Tag:  tag(belongsTo(desc), "-"),
		})
	}

	seen := map[string]struct{}{}
	for _, col := range desc.Columns {
		if _, dup := seen[col.GoName]; dup {
			continue
		}
		seen[col.GoName] = struct{}{}
		fields = append(fields, reflect.StructField{
			Name: col.GoName,
			Type: col.Type,
			Tag:  tag(columnTag(col), col.Name),
		})
	}

	typ, err := structOf(fields)
	if err != nil {
		return nil, fmt.Errorf("translatable schema: build %s: %w", desc.EntityName, err)
	}
	return &TranslationType{Description: desc, Type: typ}, nil
}

// Name is the entity name, "<Source><Suffix>".
func (t *TranslationType) Name() string {
	return t.EntityName
}

// New returns a pointer to a zero value of the synthesized struct.
func (t *TranslationType) New() any {
	return reflect.New(t.Type).Interface()
}

// NewSlice returns a pointer to an empty slice of struct pointers, suitable
// as a bun Model for selects.
func (t *TranslationType) NewSlice() any {
	return reflect.New(reflect.SliceOf(reflect.PointerTo(t.Type))).Interface()
}

// ToRecord converts a synthesized model (pointer or value) into a Record.
func (t *TranslationType) ToRecord(model any) (*records.Record, error) {
	v := reflect.Indirect(reflect.ValueOf(model))
	if !v.IsValid() || v.Type() != t.Type {
		return nil, fmt.Errorf("translatable schema: %T is not a %s", model, t.EntityName)
	}
	record := &records.Record{
		ID:       v.FieldByName("ID").Int(),
		Locale:   v.FieldByName("Locale").String(),
		SourceID: v.FieldByName("SourceID").Interface(),
		Values:   make(map[string]any, len(t.Columns)),
	}
	for _, col := range t.Columns {
		record.Values[col.GoName] = v.FieldByName(col.GoName).Interface()
	}
	return record, nil
}

// FromRecord builds a synthesized model from record. Values for fields the
// type does not declare are rejected.
func (t *TranslationType) FromRecord(record *records.Record) (any, error) {
	ptr := reflect.New(t.Type)
	v := ptr.Elem()

	v.FieldByName("ID").SetInt(record.ID)
	v.FieldByName("Locale").SetString(record.Locale)
	if err := metadata.AssignValue(v.FieldByName("SourceID"), record.SourceID); err != nil {
		return nil, fmt.Errorf("translatable schema: source id: %w", err)
	}
	for name, value := range record.Values {
		if !t.HasField(name) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, t.EntityName, name)
		}
		if err := metadata.AssignValue(v.FieldByName(name), value); err != nil {
			return nil, fmt.Errorf("translatable schema: %s.%s: %w", t.EntityName, name, err)
		}
	}
	return ptr.Interface(), nil
}

// HasField reports whether name is one of the translatable columns.
func (t *TranslationType) HasField(name string) bool {
	for _, col := range t.Columns {
		if col.GoName == name {
			return true
		}
	}
	return false
}

func belongsTo(desc Description) string {
	parts := []string{"rel:belongs-to", "join:" + sourceKeyColumn + "=" + desc.SourcePK}
	if len(desc.Relations) > 0 {
		opts := desc.Relations[0].Options
		if v := strings.TrimSpace(opts.OnDelete); v != "" {
			parts = append(parts, "on_delete:"+quoteOption(v))
		}
		if v := strings.TrimSpace(opts.OnUpdate); v != "" {
			parts = append(parts, "on_update:"+quoteOption(v))
		}
	}
	return strings.Join(parts, ",")
}

func sourceKeyTag(desc Description) string {
	if desc.SourceKeySQL != "" {
		return sourceKeyColumn + ",type:" + desc.SourceKeySQL + ",notnull"
	}
	return sourceKeyColumn + ",notnull"
}

func columnTag(col Column) string {
	parts := []string{col.Name}
	if col.SQLType != "" {
		parts = append(parts, "type:"+col.SQLType)
	}
	if col.NotNull {
		parts = append(parts, "notnull")
	}
	if col.Default != "" {
		parts = append(parts, "default:"+quoteOption(col.Default))
	}
	return strings.Join(parts, ",")
}

func quoteOption(v string) string {
	if strings.ContainsAny(v, " ,") {
		return "'" + v + "'"
	}
	return v
}

func tag(bunTag, jsonName string) reflect.StructTag {
	if jsonName == "" {
		return reflect.StructTag(fmt.Sprintf("bun:%q", bunTag))
	}
	return reflect.StructTag(fmt.Sprintf("bun:%q json:%q", bunTag, jsonName))
}

func structOf(fields []reflect.StructField) (typ reflect.Type, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return reflect.StructOf(fields), nil
}

// IntrospectorFunc adapts a function, such as bunschema.Tables.Get, to the
// Introspector interface.
type IntrospectorFunc func(typ reflect.Type) *bunschema.Table

func (f IntrospectorFunc) Table(typ reflect.Type) *bunschema.Table {
	return f(typ)
}

// Register binds the synthesized type into the table cache behind in, which
// resolves its columns and the belongs-to relation against the source.
func Register(in Introspector, tt *TranslationType) error {
	if in == nil || tt == nil {
		return nil
	}
	if _, err := introspect(in, tt.Type); err != nil {
		return fmt.Errorf("translatable schema: register %s: %w", tt.EntityName, err)
	}
	return nil
}

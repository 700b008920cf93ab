// Package reflection rebuilds a schema.Table's columns from an already
// existing Notion database. Reflection is decomposed into two primitive,
// single-API-call executables — HasTable and ReflectTable — that Reflect
// drives across every registered, unpopulated table.
package reflection

import (
	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/notion"
	"github.com/gopherdb/notionsql/schema"
	"github.com/gopherdb/notionsql/typeengine"
)

// ReflectedColumn is one row of the (name, type_engine_tag, column_id,
// value) shape reflection returns, mirroring an information_schema.columns
// view: Value only ever carries something for the two implicit columns,
// which reflect off the database object itself rather than a declared
// property.
type ReflectedColumn struct {
	Name  string
	Type  typeengine.Type
	ID    string
	Value any
}

// HasTable makes exactly one databases.retrieve call and reports whether
// table's backing Notion database still exists and is reachable. A table
// with no RemoteID yet has nothing to check and reports false rather than
// failing.
func HasTable(client notion.Client, table *schema.Table) (bool, error) {
	if table.RemoteID == "" {
		return false, nil
	}
	raw, err := client.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestRetrieve, map[string]any{"id": table.RemoteID})
	if err != nil {
		return false, err
	}
	obj, ok := raw.(map[string]any)
	return ok && len(obj) > 0, nil
}

// ReflectTable makes exactly one databases.retrieve call and returns one
// row per declared property, followed by the two implicit columns last —
// the same trailing position NewTable always appends them in.
func ReflectTable(client notion.Client, table *schema.Table) ([]ReflectedColumn, error) {
	if table.RemoteID == "" {
		return nil, nerr.New(nerr.KindDatabase, "reflection.ReflectTable", nil)
	}
	raw, err := client.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestRetrieve, map[string]any{"id": table.RemoteID})
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, nerr.Newf(nerr.KindDatabase, "reflection.ReflectTable", "database %q not found", table.RemoteID)
	}

	var rows []ReflectedColumn
	props, _ := obj["properties"].(map[string]any)
	for name, raw := range props {
		if name == schema.ImplicitIDColumn || name == schema.ImplicitArchivedColumn {
			continue
		}
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		t, err := typeFromProperty(prop)
		if err != nil {
			return nil, nerr.Newf(nerr.KindInvalidRequest, "reflection.ReflectTable", "column %q: %v", name, err)
		}
		id, _ := prop["id"].(string)
		rows = append(rows, ReflectedColumn{Name: name, Type: t, ID: id})
	}

	rows = append(rows,
		ReflectedColumn{Name: schema.ImplicitIDColumn, Type: typeengine.ObjectIdType{}, Value: obj["id"]},
		ReflectedColumn{Name: schema.ImplicitArchivedColumn, Type: typeengine.ArchivalFlagType{}, Value: obj["archived"]},
	)
	return rows, nil
}

// typeFromProperty is the reverse of every Type.ColSpec: it reads back
// the property-type key InMemoryClient.add tags each stored property
// with, and — for the "number" family, where Integer, Numeric, and Money
// all share the same wire key — disambiguates on the nested format
// string exactly as ColSpec wrote it (a currency code for Money, the
// literal "number" for a plain numeric column). A stored int-vs-decimal
// distinction does not survive the wire, so both reflect as NumericType,
// the superset of the two.
func typeFromProperty(prop map[string]any) (typeengine.Type, error) {
	tag, _ := prop["type"].(string)
	switch tag {
	case "title":
		return typeengine.StringType{IsTitle: true}, nil
	case "rich_text":
		return typeengine.StringType{IsTitle: false}, nil
	case "checkbox":
		return typeengine.BooleanType{}, nil
	case "date":
		return typeengine.DateType{}, nil
	case "number":
		format, _ := numberFormat(prop)
		if format == "" || format == "number" {
			return typeengine.NumericType{}, nil
		}
		return typeengine.MoneyType{Currency: format}, nil
	default:
		return nil, nerr.Newf(nerr.KindInvalidRequest, "reflection.typeFromProperty", "unknown property type %q", tag)
	}
}

func numberFormat(prop map[string]any) (string, bool) {
	spec, ok := prop["number"].(map[string]any)
	if !ok {
		return "", false
	}
	format, ok := spec["format"].(string)
	return format, ok
}

// ReflectedTableInfo validates a row set before it is allowed to become
// real schema.Column entries: both implicit columns must be present, and
// every row must carry a resolved type engine.
type ReflectedTableInfo struct {
	rows []ReflectedColumn
}

// NewReflectedTableInfo validates rows, failing KindInvalidRequest if
// either implicit column is missing or any row has no known type.
func NewReflectedTableInfo(rows []ReflectedColumn) (*ReflectedTableInfo, error) {
	hasID, hasArchived := false, false
	for _, r := range rows {
		if r.Type == nil {
			return nil, nerr.Newf(nerr.KindInvalidRequest, "reflection.NewReflectedTableInfo", "column %q has no known type engine", r.Name)
		}
		switch r.Name {
		case schema.ImplicitIDColumn:
			hasID = true
		case schema.ImplicitArchivedColumn:
			hasArchived = true
		}
	}
	if !hasID || !hasArchived {
		return nil, nerr.New(nerr.KindInvalidRequest, "reflection.NewReflectedTableInfo", nil)
	}
	return &ReflectedTableInfo{rows: rows}, nil
}

// ColumnSpecs converts the validated rows into schema.ColumnSpec values
// ready for Table.Populate, in the same order ReflectTable produced them.
func (rti *ReflectedTableInfo) ColumnSpecs() []schema.ColumnSpec {
	specs := make([]schema.ColumnSpec, 0, len(rti.rows))
	for _, r := range rti.rows {
		specs = append(specs, schema.ColumnSpec{
			Name:       r.Name,
			Engine:     r.Type,
			PrimaryKey: r.Name == schema.ImplicitIDColumn,
		})
	}
	return specs
}

// Reflect orchestrates HasTable then ReflectTable for every registered,
// unpopulated table in md, merging the resulting rows into real columns
// via Table.Populate.
func Reflect(client notion.Client, md *schema.MetaData) error {
	for _, table := range md.Unpopulated() {
		exists, err := HasTable(client, table)
		if err != nil {
			return err
		}
		if !exists {
			return nerr.Newf(nerr.KindDatabase, "reflection.Reflect", "table %q has no reachable Notion database", table.Name)
		}
		rows, err := ReflectTable(client, table)
		if err != nil {
			return err
		}
		info, err := NewReflectedTableInfo(rows)
		if err != nil {
			return err
		}
		if err := table.Populate(info.ColumnSpecs()); err != nil {
			return err
		}
	}
	return nil
}

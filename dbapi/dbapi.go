// Package dbapi implements a stateful, single-statement cursor:
// description/rowcount/lastrowid/paramstyle, deferred execution under a
// transaction, and a composite cursor over multiple committed result sets.
package dbapi

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/notion"
	"github.com/gopherdb/notionsql/row"
	"github.com/gopherdb/notionsql/schema"
	"github.com/gopherdb/notionsql/typeengine"
)

// ParamStyle is always "named": this dialect only supports :name markers.
const ParamStyle = "named"

// TypeCode mirrors a Notion property type for the purposes of
// Cursor.Description, rather than leaving type_code opaque.
type TypeCode string

const (
	TypeID               TypeCode = "object_id"
	TypeTitle            TypeCode = "title"
	TypeCheckbox         TypeCode = "checkbox"
	TypeNumber           TypeCode = "number"
	TypeNumberWithCommas TypeCode = "number_with_commas"
	TypeNumberDollar     TypeCode = "dollar"
	TypeRichText         TypeCode = "rich_text"
	TypeDate             TypeCode = "date"
)

func typeCodeFor(t typeengine.Type) TypeCode {
	switch t.Tag() {
	case typeengine.TagInteger, typeengine.TagNumeric:
		return TypeNumber
	case typeengine.TagMoney:
		return TypeNumberDollar
	case typeengine.TagString:
		if st, ok := t.(typeengine.StringType); ok && st.IsTitle {
			return TypeTitle
		}
		return TypeRichText
	case typeengine.TagBoolean, typeengine.TagArchivalFlag:
		return TypeCheckbox
	case typeengine.TagDate:
		return TypeDate
	case typeengine.TagUUID, typeengine.TagObjectId:
		return TypeID
	default:
		return TypeRichText
	}
}

// ColumnDescription is one entry of Cursor.Description: a 7-field
// descriptor per PEP 249, with every field beyond name/type_code unused
// and left zero.
type ColumnDescription struct {
	Name         string
	TypeCode     TypeCode
	DisplaySize  any
	InternalSize any
	Precision    any
	Scale        any
	NullOk       any
}

// Cursor executes exactly one CallDescriptor and exposes its result set.
// It is not transaction-aware; TxnCursor wraps one to defer execution.
type Cursor struct {
	client      notion.Client
	description []ColumnDescription
	metadata    row.ResultMetadata
	rows        []row.Row
	rowCount    int
	lastRowID   *big.Int
	closed      bool
}

// NewCursor wraps a client. rowCount starts at -1, meaning no statement has
// executed yet or the affected count is indeterminate.
func NewCursor(client notion.Client) *Cursor {
	return &Cursor{client: client, rowCount: -1}
}

func (c *Cursor) Description() []ColumnDescription { return c.description }
func (c *Cursor) RowCount() int                     { return c.rowCount }
func (c *Cursor) LastRowID() *big.Int               { return c.lastRowID }
func (c *Cursor) Paramstyle() string                { return ParamStyle }
func (c *Cursor) Closed() bool                       { return c.closed }

// Execute binds params into desc, invokes the client, and parses the
// result into rows when returnsRows is set. columns controls which table
// columns are extracted and their order; nil/empty means every column
// (SELECT *).
func (c *Cursor) Execute(desc *crosscompiler.CallDescriptor, table *schema.Table, params map[string]any, columns []string, returnsRows bool) error {
	if c.closed {
		return nerr.New(nerr.KindResourceClosed, "dbapi.Cursor.Execute", nil)
	}
	if err := crosscompiler.BindParams(desc, table, params); err != nil {
		return err
	}
	if desc.Endpoint == crosscompiler.EndpointPages && desc.Request == crosscompiler.RequestCreate {
		if desc.Payload["properties"] == nil {
			return nerr.New(nerr.KindInterface, "dbapi.Cursor.Execute", nil)
		}
		if desc.Payload["parent"] == nil {
			return nerr.New(nerr.KindInterface, "dbapi.Cursor.Execute", nil)
		}
	}

	raw, err := c.client.Enact(desc.Endpoint, desc.Request, desc.Payload)
	if err != nil {
		return err
	}
	return c.Populate(raw, table, columns, returnsRows)
}

// Populate parses an already-fetched raw Enact result into the cursor's
// result-set state. Execute calls this immediately after a synchronous
// client call; a transaction-deferred caller calls it again once an
// Operation's DoCommit has actually run, against the same Cursor a
// TxnCursor was handed back at stage time.
func (c *Cursor) Populate(raw any, table *schema.Table, columns []string, returnsRows bool) error {
	if c.closed {
		return nerr.New(nerr.KindResourceClosed, "dbapi.Cursor.Populate", nil)
	}
	objects, err := normalizeObjects(raw)
	if err != nil {
		return err
	}

	c.rowCount = len(objects)
	c.lastRowID = lastRowID(objects)

	if !returnsRows {
		c.description = nil
		c.metadata = row.NoResultMetadata()
		c.rows = nil
		return nil
	}

	cols := columns
	if len(cols) == 0 {
		cols = table.Columns.Names()
	}
	descs, err := buildDescription(table, cols)
	if err != nil {
		return err
	}
	md := row.NewResultMetadata(cols)
	rows := make([]row.Row, 0, len(objects))
	for _, obj := range objects {
		values := make([]any, len(cols))
		for i, name := range cols {
			col, ok := table.Columns.Get(name)
			if !ok {
				return nerr.Newf(nerr.KindArgument, "dbapi.Cursor.Populate", "unknown column %q", name)
			}
			v, err := extractValue(obj, col)
			if err != nil {
				return err
			}
			values[i] = v
		}
		r, err := row.NewRow(md, values)
		if err != nil {
			return err
		}
		rows = append(rows, r)
	}
	c.description = descs
	c.metadata = md
	c.rows = rows
	return nil
}

// ExecuteMany is reserved, mirroring DBAPI's NotImplementedError.
func (c *Cursor) ExecuteMany(desc *crosscompiler.CallDescriptor, table *schema.Table, paramSets []map[string]any, columns []string, returnsRows bool) error {
	return nerr.New(nerr.KindInterface, "dbapi.Cursor.ExecuteMany", nil)
}

// FetchOne returns the next row, nil when the result set is exhausted.
// It fails if no Execute produced a result set or the cursor is closed.
func (c *Cursor) FetchOne() (*row.Row, error) {
	if c.closed {
		return nil, nerr.New(nerr.KindResourceClosed, "dbapi.Cursor.FetchOne", nil)
	}
	if c.rows == nil {
		return nil, nerr.New(nerr.KindInterface, "dbapi.Cursor.FetchOne", nil)
	}
	if len(c.rows) == 0 {
		return nil, nil
	}
	r := c.rows[0]
	c.rows = c.rows[1:]
	return &r, nil
}

// FetchAll returns every remaining row and empties the result set; a
// second call returns an empty slice, per the cursor laws.
func (c *Cursor) FetchAll() ([]row.Row, error) {
	if c.closed {
		return nil, nerr.New(nerr.KindResourceClosed, "dbapi.Cursor.FetchAll", nil)
	}
	if c.rows == nil {
		return nil, nerr.New(nerr.KindInterface, "dbapi.Cursor.FetchAll", nil)
	}
	out := c.rows
	c.rows = []row.Row{}
	return out, nil
}

// Close releases the cursor; any later operation on it fails
// KindResourceClosed.
func (c *Cursor) Close() {
	c.description = nil
	c.rows = nil
	c.closed = true
}

func buildDescription(table *schema.Table, columns []string) ([]ColumnDescription, error) {
	descs := make([]ColumnDescription, 0, len(columns))
	for _, name := range columns {
		col, ok := table.Columns.Get(name)
		if !ok {
			return nil, nerr.Newf(nerr.KindArgument, "dbapi.buildDescription", "unknown column %q", name)
		}
		descs = append(descs, ColumnDescription{Name: name, TypeCode: typeCodeFor(col.Engine)})
	}
	return descs, nil
}

// extractValue reads one column's stored value back out of a Notion
// object. The two implicit columns live on the object itself (id,
// archived), matching typeengine's ObjectIdType/ArchivalFlagType design;
// every other column lives under "properties".
func extractValue(obj map[string]any, col *schema.Column) (any, error) {
	switch col.Name {
	case schema.ImplicitIDColumn:
		return col.Engine.Result(typeengine.Fragment{"id": obj["id"]})
	case schema.ImplicitArchivedColumn:
		return col.Engine.Result(typeengine.Fragment{"archived": obj["archived"]})
	default:
		props, _ := obj["properties"].(map[string]any)
		entry, ok := props[col.Name].(map[string]any)
		if !ok {
			return nil, nerr.Newf(nerr.KindInternal, "dbapi.extractValue", "object missing property %q", col.Name)
		}
		return col.Engine.Result(typeengine.Fragment(entry))
	}
}

// normalizeObjects reduces a Client.Enact result to a slice of objects: a
// single non-empty map is one object, a slice is already a list, and an
// empty map (not-found sentinel) yields no objects.
func normalizeObjects(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
		return []map[string]any{v}, nil
	case []map[string]any:
		return v, nil
	default:
		return nil, nerr.Newf(nerr.KindInternal, "dbapi.normalizeObjects", "unexpected client result type %T", raw)
	}
}

func lastRowID(objects []map[string]any) *big.Int {
	if len(objects) == 0 {
		return nil
	}
	idStr, ok := objects[len(objects)-1]["id"].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil
	}
	return new(big.Int).SetBytes(id[:])
}

// Package crosscompiler lowers a parsed AST, the registered schema, and
// bound parameters into a Notion API CallDescriptor. Apart from CREATE
// TABLE registering and DROP TABLE removing a table in the schema
// registry, the compiler is a pure function of its inputs: same AST +
// schema + params always yields the same descriptor.
package crosscompiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/parser"
	"github.com/gopherdb/notionsql/schema"
	"github.com/gopherdb/notionsql/typeengine"
)

// Endpoint names a Notion API resource family.
type Endpoint string

const (
	EndpointPages     Endpoint = "pages"
	EndpointDatabases Endpoint = "databases"
	EndpointBlocks    Endpoint = "blocks"
)

// Request names the verb applied to an Endpoint.
type Request string

const (
	RequestCreate   Request = "create"
	RequestRetrieve Request = "retrieve"
	RequestUpdate   Request = "update"
	RequestQuery    Request = "query"
)

// CallDescriptor is the cross-compiler's output: everything notion.Client
// needs to enact one Notion API call. Payload may still contain raw
// ":name" placeholder strings where the AST referenced a bind parameter;
// BindParams resolves them using Params before the descriptor is staged.
type CallDescriptor struct {
	Endpoint Endpoint
	Request  Request
	Payload  map[string]any
	Params   map[string]any
}

// Compiler binds AST nodes against a schema registry. CREATE TABLE
// registers a new schema.Table as a side effect; DROP TABLE removes one;
// INSERT/SELECT look an existing one up.
type Compiler struct {
	MetaData   *schema.MetaData
	RootPageID string
}

func New(md *schema.MetaData, rootPageID string) *Compiler {
	return &Compiler{MetaData: md, RootPageID: rootPageID}
}

// Compile dispatches on the AST node's concrete type via a Go type switch,
// the tagged-variant dispatch style named in the redesign notes.
func (c *Compiler) Compile(node parser.Node) (*CallDescriptor, error) {
	switch n := node.(type) {
	case *parser.CreateTable:
		return c.compileCreateTable(n)
	case *parser.DropTable:
		return c.compileDropTable(n)
	case *parser.Insert:
		return c.compileInsert(n)
	case *parser.Select:
		return c.compileSelect(n)
	default:
		return nil, nerr.Newf(nerr.KindInternal, "crosscompiler.Compile", "unsupported AST node %T", node)
	}
}

func (c *Compiler) compileCreateTable(ct *parser.CreateTable) (*CallDescriptor, error) {
	specs := make([]schema.ColumnSpec, 0, len(ct.Columns))
	for _, col := range ct.Columns {
		engine, err := typeengine.New(col.SQLType, col.Arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, schema.ColumnSpec{Name: col.Name, Engine: engine})
	}
	table, err := schema.NewTable(ct.Table, "notion", specs)
	if err != nil {
		return nil, err
	}
	if err := c.MetaData.Add(table); err != nil {
		return nil, err
	}

	props := make(map[string]any, table.Columns.Len())
	for _, col := range table.Columns.Slice() {
		props[col.Name] = col.Engine.ColSpec()
	}

	payload := map[string]any{
		"title": []any{
			map[string]any{"text": map[string]any{"content": ct.Table}},
		},
		"properties": props,
		"parent":     map[string]any{"page_id": c.RootPageID},
	}
	return &CallDescriptor{Endpoint: EndpointDatabases, Request: RequestCreate, Payload: payload}, nil
}

// compileDropTable archives the table's Notion database. There is no
// databases.update endpoint to call directly, so this reuses pages.update
// against the database's own object id to flip its archived flag.
func (c *Compiler) compileDropTable(dt *parser.DropTable) (*CallDescriptor, error) {
	table, ok := c.MetaData.Get(dt.Table)
	if !ok {
		return nil, nerr.Newf(nerr.KindArgument, "crosscompiler.compileDropTable", "unknown table %q", dt.Table)
	}
	if table.RemoteID == "" {
		return nil, nerr.Newf(nerr.KindDatabase, "crosscompiler.compileDropTable", "table %q has no remote id", dt.Table)
	}
	c.MetaData.Remove(dt.Table)
	payload := map[string]any{
		"page_id":  table.RemoteID,
		"archived": true,
	}
	return &CallDescriptor{Endpoint: EndpointPages, Request: RequestUpdate, Payload: payload}, nil
}

func (c *Compiler) compileInsert(ins *parser.Insert) (*CallDescriptor, error) {
	table, ok := c.MetaData.Get(ins.Table)
	if !ok {
		return nil, nerr.Newf(nerr.KindArgument, "crosscompiler.compileInsert", "unknown table %q", ins.Table)
	}
	if table.RemoteID == "" {
		return nil, nerr.Newf(nerr.KindDatabase, "crosscompiler.compileInsert", "table %q has no remote id", ins.Table)
	}
	props := make(map[string]any, len(ins.Columns))
	for i, colName := range ins.Columns {
		col, ok := table.Columns.Get(colName)
		if !ok {
			return nil, nerr.Newf(nerr.KindArgument, "crosscompiler.compileInsert", "unknown column %q on table %q", colName, ins.Table)
		}
		value, err := compileValue(ins.Values[i], col)
		if err != nil {
			return nil, err
		}
		props[colName] = value
	}
	payload := map[string]any{
		"parent":     map[string]any{"database_id": table.RemoteID},
		"properties": props,
	}
	return &CallDescriptor{Endpoint: EndpointPages, Request: RequestCreate, Payload: payload}, nil
}

// compileValue resolves a literal Constant through the column's type
// engine, or leaves a ":name" placeholder string for a bind parameter to
// be resolved later by BindParams.
func compileValue(node parser.Node, col *schema.Column) (any, error) {
	switch v := node.(type) {
	case *parser.Constant:
		lit, err := literalValue(v)
		if err != nil {
			return nil, err
		}
		return col.Engine.Bind(lit)
	case *parser.Identifier:
		if !v.IsParam {
			return nil, nerr.Newf(nerr.KindArgument, "crosscompiler.compileValue", "expected literal or parameter, got bare identifier %q", v.Name)
		}
		return ":" + v.Name, nil
	default:
		return nil, nerr.Newf(nerr.KindInternal, "crosscompiler.compileValue", "unexpected VALUES element %T", node)
	}
}

func literalValue(c *parser.Constant) (any, error) {
	switch c.Type {
	case parser.ConstInt:
		n, err := strconv.Atoi(c.Text)
		if err != nil {
			return nil, nerr.New(nerr.KindSyntax, "crosscompiler.literalValue", err)
		}
		return n, nil
	case parser.ConstFloat:
		f, err := strconv.ParseFloat(c.Text, 64)
		if err != nil {
			return nil, nerr.New(nerr.KindSyntax, "crosscompiler.literalValue", err)
		}
		return f, nil
	case parser.ConstString:
		return c.Text, nil
	case parser.ConstBool:
		return c.Text == "true", nil
	default:
		return nil, nerr.Newf(nerr.KindInternal, "crosscompiler.literalValue", "unknown constant type %v", c.Type)
	}
}

func (c *Compiler) compileSelect(sel *parser.Select) (*CallDescriptor, error) {
	table, ok := c.MetaData.Get(sel.Table)
	if !ok {
		return nil, nerr.Newf(nerr.KindArgument, "crosscompiler.compileSelect", "unknown table %q", sel.Table)
	}
	if table.RemoteID == "" {
		return nil, nerr.Newf(nerr.KindDatabase, "crosscompiler.compileSelect", "table %q has no remote id", sel.Table)
	}
	payload := map[string]any{"database_id": table.RemoteID}
	if sel.Where != nil {
		filter, err := compileFilter(sel.Where.Expr, table)
		if err != nil {
			return nil, err
		}
		payload["filter"] = filter
	}
	return &CallDescriptor{Endpoint: EndpointDatabases, Request: RequestQuery, Payload: payload}, nil
}

var cmpVerbs = map[string]string{
	"=":  "equals",
	"!=": "does_not_equal",
	"<":  "less_than",
	"<=": "less_than_or_equal_to",
	">":  "greater_than",
	">=": "greater_than_or_equal_to",
}

// compileFilter maps a WHERE expression to a Notion filter tree: AND/OR
// become {"and": [...]}/{"or": [...]}, comparisons become
// {"property": col, key: {verb: value}}.
func compileFilter(node parser.Node, table *schema.Table) (map[string]any, error) {
	op, ok := node.(*parser.BinaryOp)
	if !ok {
		return nil, nerr.Newf(nerr.KindInternal, "crosscompiler.compileFilter", "expected BinaryOp, got %T", node)
	}
	switch op.Op {
	case "AND", "OR":
		left, err := compileFilter(op.Left, table)
		if err != nil {
			return nil, err
		}
		right, err := compileFilter(op.Right, table)
		if err != nil {
			return nil, err
		}
		return map[string]any{strings.ToLower(op.Op): []any{left, right}}, nil
	case "NOT":
		return nil, nerr.Newf(nerr.KindInternal, "crosscompiler.compileFilter", "NOT is not representable in the Notion filter tree")
	default:
		verb, ok := cmpVerbs[op.Op]
		if !ok {
			return nil, nerr.Newf(nerr.KindInternal, "crosscompiler.compileFilter", "unknown comparison operator %q", op.Op)
		}
		return compileComparison(op, verb, table)
	}
}

func compileComparison(op *parser.BinaryOp, verb string, table *schema.Table) (map[string]any, error) {
	ident, ok := op.Left.(*parser.Identifier)
	if !ok || ident.IsParam {
		return nil, nerr.New(nerr.KindArgument, "crosscompiler.compileComparison", fmt.Errorf("left operand of a comparison must be a column reference"))
	}
	col, ok := table.Columns.Get(ident.Name)
	if !ok {
		return nil, nerr.Newf(nerr.KindArgument, "crosscompiler.compileComparison", "unknown column %q on table %q", ident.Name, table.Name)
	}
	key, value, err := filterKeyAndValue(op.Right, col)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"property": ident.Name,
		key:        map[string]any{verb: value},
	}, nil
}

// filterKeyAndValue resolves the right-hand operand to the Notion filter
// property-type key and comparison value, or a ":name" placeholder left
// for BindParams to resolve.
func filterKeyAndValue(node parser.Node, col *schema.Column) (string, any, error) {
	key := filterKey(col.Engine)
	if id, ok := node.(*parser.Identifier); ok {
		if !id.IsParam {
			return "", nil, nerr.Newf(nerr.KindArgument, "crosscompiler.filterKeyAndValue", "right operand must be a literal or parameter, got bare identifier %q", id.Name)
		}
		return key, ":" + id.Name, nil
	}
	lit, ok := node.(*parser.Constant)
	if !ok {
		return "", nil, nerr.Newf(nerr.KindInternal, "crosscompiler.filterKeyAndValue", "unexpected WHERE operand %T", node)
	}
	v, err := literalValue(lit)
	if err != nil {
		return "", nil, err
	}
	scalar, err := filterScalar(col, v)
	if err != nil {
		return "", nil, err
	}
	return key, scalar, nil
}

// filterScalar reduces a native value to the plain comparison value a
// Notion filter condition expects. Number/checkbox/string columns compare
// against the native value directly; date and id-shaped columns need the
// string/ISO form Bind would otherwise nest inside an object or array.
func filterScalar(col *schema.Column, v any) (any, error) {
	switch col.Engine.Tag() {
	case typeengine.TagDate:
		fragment, err := col.Engine.Bind(v)
		if err != nil {
			return nil, err
		}
		date := fragment["date"].(typeengine.Fragment)
		return date["start"], nil
	case typeengine.TagUUID, typeengine.TagObjectId:
		fragment, err := col.Engine.Bind(v)
		if err != nil {
			return nil, err
		}
		return fragment["id"], nil
	default:
		return v, nil
	}
}

// filterKey returns the single top-level fragment key a Type's Bind
// produces, which doubles as the Notion filter's property-type key.
func filterKey(t typeengine.Type) string {
	switch t.Tag() {
	case typeengine.TagInteger, typeengine.TagNumeric, typeengine.TagMoney:
		return "number"
	case typeengine.TagString:
		if st, ok := t.(typeengine.StringType); ok && st.IsTitle {
			return "title"
		}
		return "rich_text"
	case typeengine.TagBoolean:
		return "checkbox"
	case typeengine.TagDate:
		return "date"
	case typeengine.TagUUID, typeengine.TagObjectId:
		return "id"
	case typeengine.TagArchivalFlag:
		return "archived"
	default:
		return "rich_text"
	}
}

// BindParams walks a descriptor's payload looking for ":name" placeholder
// strings left by Compile and resolves each through the owning column's
// type engine. Missing keys fail KindInterface per the DBAPI contract.
func BindParams(desc *CallDescriptor, table *schema.Table, params map[string]any) error {
	desc.Params = params
	if props, ok := desc.Payload["properties"].(map[string]any); ok {
		for colName, v := range props {
			name, isPlaceholder := placeholderName(v)
			if !isPlaceholder {
				continue
			}
			col, ok := table.Columns.Get(colName)
			if !ok {
				return nerr.Newf(nerr.KindInternal, "crosscompiler.BindParams", "unknown column %q", colName)
			}
			val, ok := params[name]
			if !ok {
				return nerr.Newf(nerr.KindInterface, "crosscompiler.BindParams", "missing bind parameter %q", name)
			}
			fragment, err := col.Engine.Bind(val)
			if err != nil {
				return err
			}
			props[colName] = fragment
		}
	}
	if filter, ok := desc.Payload["filter"].(map[string]any); ok {
		if err := bindFilterParams(filter, table, params); err != nil {
			return err
		}
	}
	return nil
}

func bindFilterParams(filter map[string]any, table *schema.Table, params map[string]any) error {
	if children, ok := filter["and"].([]any); ok {
		return bindFilterChildren(children, table, params)
	}
	if children, ok := filter["or"].([]any); ok {
		return bindFilterChildren(children, table, params)
	}
	colName, ok := filter["property"].(string)
	if !ok {
		return nil
	}
	col, ok := table.Columns.Get(colName)
	if !ok {
		return nerr.Newf(nerr.KindInternal, "crosscompiler.bindFilterParams", "unknown column %q", colName)
	}
	key := filterKey(col.Engine)
	cond, ok := filter[key].(map[string]any)
	if !ok {
		return nil
	}
	for verb, v := range cond {
		name, isPlaceholder := placeholderName(v)
		if !isPlaceholder {
			continue
		}
		val, ok := params[name]
		if !ok {
			return nerr.Newf(nerr.KindInterface, "crosscompiler.bindFilterParams", "missing bind parameter %q", name)
		}
		scalar, err := filterScalar(col, val)
		if err != nil {
			return err
		}
		cond[verb] = scalar
	}
	return nil
}

func bindFilterChildren(children []any, table *schema.Table, params map[string]any) error {
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if err := bindFilterParams(child, table, params); err != nil {
			return err
		}
	}
	return nil
}

func placeholderName(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, ":") {
		return "", false
	}
	return s[1:], true
}

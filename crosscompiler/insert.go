package crosscompiler

import (
	"errors"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/schema"
)

var errMixedValues = errors.New("cannot mix positional and keyword values")

// Insert is a generative alternative to parsing an "INSERT ... VALUES"
// statement: build one against a registered table, set its values, widen
// its RETURNING tuple past the default, then Compile it. Every method
// besides the constructor returns the same *Insert so calls chain:
//
//	stmt := crosscompiler.NewInsert(table).Values(map[string]any{"name": "Ada"})
//	desc, err := compiler.CompileInsert(stmt)
//
// A failure on one call in the chain short-circuits every later call
// instead of panicking or silently compiling a partial statement.
type Insert struct {
	table      *schema.Table
	values     map[string]any
	positional bool
	keyword    bool
	returning  []string
	err        error
}

// NewInsert starts a generative insert against table, with the two
// implicit columns already in its RETURNING tuple.
func NewInsert(table *schema.Table) *Insert {
	return &Insert{
		table:     table,
		returning: []string{schema.ImplicitIDColumn, schema.ImplicitArchivedColumn},
	}
}

func (ins *Insert) Table() *schema.Table { return ins.table }

// Values sets the VALUES clause from a column-name-to-value map. Calling
// Values after ValuesPositional on the same Insert fails ArgumentError,
// mirroring the "not both positional and keyword" rule.
func (ins *Insert) Values(kv map[string]any) *Insert {
	if ins.err != nil {
		return ins
	}
	if ins.positional {
		ins.err = nerr.New(nerr.KindArgument, "crosscompiler.Insert.Values", errMixedValues)
		return ins
	}
	ins.values = kv
	ins.keyword = true
	return ins
}

// ValuesPositional sets the VALUES clause by zipping vals against the
// table's user-declared columns in order, skipping the two implicit
// columns. Calling it after Values, or with the wrong number of values,
// fails ArgumentError.
func (ins *Insert) ValuesPositional(vals ...any) *Insert {
	if ins.err != nil {
		return ins
	}
	if ins.keyword {
		ins.err = nerr.New(nerr.KindArgument, "crosscompiler.Insert.ValuesPositional", errMixedValues)
		return ins
	}
	cols := userColumns(ins.table)
	if len(vals) != len(cols) {
		ins.err = nerr.Newf(nerr.KindArgument, "crosscompiler.Insert.ValuesPositional",
			"not enough values supplied for all columns: required %d, supplied %d", len(cols), len(vals))
		return ins
	}
	kv := make(map[string]any, len(cols))
	for i, col := range cols {
		kv[col.Name] = vals[i]
	}
	ins.values = kv
	ins.positional = true
	return ins
}

// Returning appends cols to the default (_no_id, _no_archived) tuple this
// Insert's committed cursor exposes. A column not owned by this Insert's
// table fails ArgumentError.
func (ins *Insert) Returning(cols ...string) *Insert {
	if ins.err != nil {
		return ins
	}
	for _, name := range cols {
		if _, ok := ins.table.Columns.Get(name); !ok {
			ins.err = nerr.Newf(nerr.KindArgument, "crosscompiler.Insert.Returning", "column %q does not belong to table %q", name, ins.table.Name)
			return ins
		}
		ins.returning = append(ins.returning, name)
	}
	return ins
}

// ReturningColumns is the RETURNING tuple this Insert will expose once
// committed: the two implicit columns plus anything Returning appended.
func (ins *Insert) ReturningColumns() []string { return ins.returning }

// CompileInsert lowers a generative Insert into a CallDescriptor, binding
// every value through its owning column's type engine. Any error recorded
// by an earlier Values/ValuesPositional/Returning call surfaces here
// instead of being raised at the point it happened.
func (c *Compiler) CompileInsert(ins *Insert) (*CallDescriptor, error) {
	if ins.err != nil {
		return nil, ins.err
	}
	if ins.table.RemoteID == "" {
		return nil, nerr.Newf(nerr.KindDatabase, "crosscompiler.CompileInsert", "table %q has no remote id", ins.table.Name)
	}
	if ins.values == nil {
		return nil, nerr.New(nerr.KindArgument, "crosscompiler.CompileInsert", errors.New("no values supplied"))
	}

	props := make(map[string]any, len(ins.values))
	for name, v := range ins.values {
		col, ok := ins.table.Columns.Get(name)
		if !ok {
			return nil, nerr.Newf(nerr.KindArgument, "crosscompiler.CompileInsert", "unknown column %q on table %q", name, ins.table.Name)
		}
		fragment, err := col.Engine.Bind(v)
		if err != nil {
			return nil, err
		}
		props[name] = fragment
	}

	payload := map[string]any{
		"parent":     map[string]any{"database_id": ins.table.RemoteID},
		"properties": props,
	}
	return &CallDescriptor{Endpoint: EndpointPages, Request: RequestCreate, Payload: payload}, nil
}

func userColumns(table *schema.Table) []*schema.Column {
	all := table.Columns.Slice()
	out := make([]*schema.Column, 0, len(all))
	for _, col := range all {
		if col.Name == schema.ImplicitIDColumn || col.Name == schema.ImplicitArchivedColumn {
			continue
		}
		out = append(out, col)
	}
	return out
}

package crosscompiler_test

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/parser"
	"github.com/gopherdb/notionsql/schema"
	"github.com/gopherdb/notionsql/typeengine"
)

const (
	rootPageID = "11111111-1111-4111-8111-111111111111"
	studentsID = "22222222-2222-4222-8222-222222222222"
)

func TestCompileCreateTableGolden(t *testing.T) {
	g := goldie.New(t)
	md := schema.NewMetaData()
	c := crosscompiler.New(md, rootPageID)
	node := &parser.CreateTable{
		Table: "widgets",
		Columns: []parser.ColumnDef{
			{Name: "id", SQLType: "int"},
		},
	}
	desc, err := c.Compile(node)
	require.NoError(t, err)
	require.Equal(t, crosscompiler.EndpointDatabases, desc.Endpoint)
	require.Equal(t, crosscompiler.RequestCreate, desc.Request)

	out, err := json.MarshalIndent(desc.Payload, "", "  ")
	require.NoError(t, err)
	g.Assert(t, "create_table_widgets", out)

	require.True(t, md.Contains("widgets"))
}

func TestCompileSelectNoWhereGolden(t *testing.T) {
	g := goldie.New(t)
	md := schema.NewMetaData()
	tbl, err := schema.NewTable("students", "notion", nil)
	require.NoError(t, err)
	tbl.RemoteID = studentsID
	require.NoError(t, md.Add(tbl))

	c := crosscompiler.New(md, rootPageID)
	desc, err := c.Compile(&parser.Select{Table: "students", Star: true})
	require.NoError(t, err)
	require.Equal(t, crosscompiler.EndpointDatabases, desc.Endpoint)
	require.Equal(t, crosscompiler.RequestQuery, desc.Request)

	out, err := json.MarshalIndent(desc.Payload, "", "  ")
	require.NoError(t, err)
	g.Assert(t, "select_no_where", out)
}

func studentsTable(t *testing.T) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable("students", "notion", []schema.ColumnSpec{
		{Name: "id", Engine: typeengine.IntegerType{}, PrimaryKey: true},
		{Name: "name", Engine: typeengine.StringType{IsTitle: true}},
		{Name: "grade", Engine: typeengine.StringType{IsTitle: false}},
	})
	require.NoError(t, err)
	tbl.RemoteID = studentsID
	return tbl
}

func TestCompileInsertLiteralsAndParams(t *testing.T) {
	md := schema.NewMetaData()
	tbl := studentsTable(t)
	require.NoError(t, md.Add(tbl))
	c := crosscompiler.New(md, rootPageID)

	node := &parser.Insert{
		Table:   "students",
		Columns: []string{"id", "name", "grade"},
		Values: []parser.Node{
			&parser.Constant{Type: parser.ConstInt, Text: "1"},
			&parser.Constant{Type: parser.ConstString, Text: "Isaac Newton"},
			&parser.Identifier{Name: "grade", IsParam: true},
		},
	}
	desc, err := c.Compile(node)
	require.NoError(t, err)
	require.Equal(t, crosscompiler.EndpointPages, desc.Endpoint)
	require.Equal(t, crosscompiler.RequestCreate, desc.Request)

	props := desc.Payload["properties"].(map[string]any)
	require.Equal(t, typeengine.Fragment{"number": 1}, props["id"])
	require.Equal(t, typeengine.Fragment{"title": []any{
		typeengine.Fragment{"text": typeengine.Fragment{"content": "Isaac Newton"}},
	}}, props["name"])
	require.Equal(t, ":grade", props["grade"])

	err = crosscompiler.BindParams(desc, tbl, map[string]any{"grade": "B"})
	require.NoError(t, err)
	require.Equal(t, typeengine.Fragment{"rich_text": []any{
		typeengine.Fragment{"text": typeengine.Fragment{"content": "B"}},
	}}, props["grade"])
	require.Equal(t, map[string]any{"grade": "B"}, desc.Params)
}

func TestCompileInsertMissingBindParamFails(t *testing.T) {
	md := schema.NewMetaData()
	tbl := studentsTable(t)
	require.NoError(t, md.Add(tbl))
	c := crosscompiler.New(md, rootPageID)
	node := &parser.Insert{
		Table:   "students",
		Columns: []string{"id"},
		Values:  []parser.Node{&parser.Identifier{Name: "id", IsParam: true}},
	}
	desc, err := c.Compile(node)
	require.NoError(t, err)
	err = crosscompiler.BindParams(desc, tbl, map[string]any{})
	require.Error(t, err)
}

func TestCompileSelectWhereAndProducesNotionFilterTree(t *testing.T) {
	md := schema.NewMetaData()
	tbl := studentsTable(t)
	require.NoError(t, md.Add(tbl))
	c := crosscompiler.New(md, rootPageID)

	where := &parser.Where{Expr: &parser.BinaryOp{
		Op:    "AND",
		Left:  &parser.BinaryOp{Op: "=", Left: &parser.Identifier{Name: "id"}, Right: &parser.Constant{Type: parser.ConstInt, Text: "1"}},
		Right: &parser.BinaryOp{Op: "!=", Left: &parser.Identifier{Name: "grade"}, Right: &parser.Identifier{Name: "g", IsParam: true}},
	}}
	desc, err := c.Compile(&parser.Select{Table: "students", Star: true, Where: where})
	require.NoError(t, err)

	filter := desc.Payload["filter"].(map[string]any)
	and := filter["and"].([]any)
	require.Len(t, and, 2)
	left := and[0].(map[string]any)
	require.Equal(t, "id", left["property"])
	require.Equal(t, map[string]any{"equals": 1}, left["number"])
	right := and[1].(map[string]any)
	require.Equal(t, "grade", right["property"])
	require.Equal(t, map[string]any{"does_not_equal": ":g"}, right["rich_text"])

	err = crosscompiler.BindParams(desc, tbl, map[string]any{"g": "C"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"does_not_equal": "C"}, right["rich_text"])
}

func TestCompileUnknownTableFails(t *testing.T) {
	md := schema.NewMetaData()
	c := crosscompiler.New(md, rootPageID)
	_, err := c.Compile(&parser.Select{Table: "ghosts", Star: true})
	require.Error(t, err)
}

func TestCompileUnknownColumnFails(t *testing.T) {
	md := schema.NewMetaData()
	tbl := studentsTable(t)
	require.NoError(t, md.Add(tbl))
	c := crosscompiler.New(md, rootPageID)
	_, err := c.Compile(&parser.Insert{Table: "students", Columns: []string{"nope"}, Values: []parser.Node{&parser.Constant{Type: parser.ConstInt, Text: "1"}}})
	require.Error(t, err)
}

func TestCompileWhereLeftOperandMustBeColumnFails(t *testing.T) {
	md := schema.NewMetaData()
	tbl := studentsTable(t)
	require.NoError(t, md.Add(tbl))
	c := crosscompiler.New(md, rootPageID)
	where := &parser.Where{Expr: &parser.BinaryOp{
		Op:    "=",
		Left:  &parser.Constant{Type: parser.ConstInt, Text: "1"},
		Right: &parser.Identifier{Name: "id"},
	}}
	_, err := c.Compile(&parser.Select{Table: "students", Star: true, Where: where})
	require.Error(t, err)
}

func TestCompileDeterminism(t *testing.T) {
	md := schema.NewMetaData()
	tbl := studentsTable(t)
	require.NoError(t, md.Add(tbl))
	c := crosscompiler.New(md, rootPageID)
	node := &parser.Insert{
		Table:   "students",
		Columns: []string{"id"},
		Values:  []parser.Node{&parser.Constant{Type: parser.ConstInt, Text: "7"}},
	}
	d1, err := c.Compile(node)
	require.NoError(t, err)
	d2, err := c.Compile(node)
	require.NoError(t, err)
	require.Equal(t, d1.Payload, d2.Payload)
}

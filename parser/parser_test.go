package parser_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/parser"
)

func TestParseCreateTable(t *testing.T) {
	node, err := parser.Parse("CREATE TABLE students (id int, name title_varchar(255), grade varchar(1))")
	require.NoError(t, err)
	ct, ok := node.(*parser.CreateTable)
	require.True(t, ok)
	require.Equal(t, "students", ct.Table)
	require.Len(t, ct.Columns, 3)
	require.Equal(t, "id", ct.Columns[0].Name)
	require.Equal(t, "int", ct.Columns[0].SQLType)
	require.False(t, ct.Columns[0].HasArg)
	require.Equal(t, "name", ct.Columns[1].Name)
	require.Equal(t, "title_varchar", ct.Columns[1].SQLType)
	require.True(t, ct.Columns[1].HasArg)
	require.Equal(t, "255", ct.Columns[1].Arg)
}

func TestParseDropTable(t *testing.T) {
	node, err := parser.Parse("DROP TABLE students")
	require.NoError(t, err)
	dt, ok := node.(*parser.DropTable)
	require.True(t, ok)
	require.Equal(t, "students", dt.Table)
}

func TestParseInsertLiterals(t *testing.T) {
	node, err := parser.Parse("INSERT INTO students (id, name, grade) VALUES (1, 'Isaac Newton', 'B')")
	require.NoError(t, err)
	ins, ok := node.(*parser.Insert)
	require.True(t, ok)
	require.Equal(t, "students", ins.Table)
	require.Equal(t, []string{"id", "name", "grade"}, ins.Columns)
	require.Len(t, ins.Values, 3)
	c0 := ins.Values[0].(*parser.Constant)
	require.Equal(t, parser.ConstInt, c0.Type)
	require.Equal(t, "1", c0.Text)
	c1 := ins.Values[1].(*parser.Constant)
	require.Equal(t, parser.ConstString, c1.Type)
	require.Equal(t, "Isaac Newton", c1.Text)
}

func TestParseInsertParameterized(t *testing.T) {
	node, err := parser.Parse("INSERT INTO students (id, name, grade) VALUES (:id, :name, :grade)")
	require.NoError(t, err)
	ins := node.(*parser.Insert)
	for i, col := range []string{"id", "name", "grade"} {
		id := ins.Values[i].(*parser.Identifier)
		require.True(t, id.IsParam)
		require.Equal(t, col, id.Name)
	}
}

func TestParseInsertColumnValueMismatch(t *testing.T) {
	_, err := parser.Parse("INSERT INTO students (id, name) VALUES (1)")
	require.Error(t, err)
}

func TestParseSelectStar(t *testing.T) {
	node, err := parser.Parse("SELECT * FROM students")
	require.NoError(t, err)
	sel := node.(*parser.Select)
	require.True(t, sel.Star)
	require.Equal(t, "students", sel.Table)
	require.Nil(t, sel.Where)
}

func TestParseSelectColumnsNoWhere(t *testing.T) {
	node, err := parser.Parse("SELECT id, name, grade FROM students")
	require.NoError(t, err)
	sel := node.(*parser.Select)
	require.False(t, sel.Star)
	require.Equal(t, []string{"id", "name", "grade"}, sel.Columns)
}

func TestParseSelectWhereSimpleComparison(t *testing.T) {
	node, err := parser.Parse("SELECT id FROM students WHERE id = 1")
	require.NoError(t, err)
	sel := node.(*parser.Select)
	require.NotNil(t, sel.Where)
	op := sel.Where.Expr.(*parser.BinaryOp)
	require.Equal(t, "=", op.Op)
	left := op.Left.(*parser.Identifier)
	require.Equal(t, "id", left.Name)
	right := op.Right.(*parser.Constant)
	require.Equal(t, "1", right.Text)
}

func TestParseSelectWhereAndOrPrecedence(t *testing.T) {
	node, err := parser.Parse("SELECT id FROM students WHERE a = 1 AND b = 2 OR c = 3")
	require.NoError(t, err)
	sel := node.(*parser.Select)
	top := sel.Where.Expr.(*parser.BinaryOp)
	require.Equal(t, "OR", top.Op)
	left := top.Left.(*parser.BinaryOp)
	require.Equal(t, "AND", left.Op)
	right := top.Right.(*parser.BinaryOp)
	require.Equal(t, "=", right.Op)
}

func TestParseSelectWhereParenRegroup(t *testing.T) {
	node, err := parser.Parse("SELECT id FROM students WHERE a = 1 AND (b = 2 OR c = 3)")
	require.NoError(t, err)
	sel := node.(*parser.Select)
	top := sel.Where.Expr.(*parser.BinaryOp)
	require.Equal(t, "AND", top.Op)
	right := top.Right.(*parser.BinaryOp)
	require.Equal(t, "OR", right.Op)
}

func TestParseSelectWhereParameterizedComparison(t *testing.T) {
	node, err := parser.Parse("SELECT id FROM students WHERE id = :wid")
	require.NoError(t, err)
	sel := node.(*parser.Select)
	op := sel.Where.Expr.(*parser.BinaryOp)
	right := op.Right.(*parser.Identifier)
	require.True(t, right.IsParam)
	require.Equal(t, "wid", right.Name)
}

func TestParseUnexpectedTokenIsSyntaxError(t *testing.T) {
	_, err := parser.Parse("SELECT FROM students")
	require.Error(t, err)
	require.True(t, errors.Is(err, nerr.Sentinel(nerr.KindSyntax)))
}

func TestParseUnknownColumnTypeIsSyntaxError(t *testing.T) {
	_, err := parser.Parse("CREATE TABLE t (a weird)")
	require.Error(t, err)
	require.True(t, errors.Is(err, nerr.Sentinel(nerr.KindSyntax)))
}

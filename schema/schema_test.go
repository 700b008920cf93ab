package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/schema"
	"github.com/gopherdb/notionsql/typeengine"
)

func studentsSpecs() []schema.ColumnSpec {
	return []schema.ColumnSpec{
		{Name: "id", Engine: typeengine.IntegerType{}, PrimaryKey: true},
		{Name: "name", Engine: typeengine.StringType{IsTitle: true}},
	}
}

func TestNewTableAlwaysHasImplicitColumns(t *testing.T) {
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	require.True(t, tbl.Columns.Contains(schema.ImplicitIDColumn))
	require.True(t, tbl.Columns.Contains(schema.ImplicitArchivedColumn))
	require.Equal(t, 4, tbl.Columns.Len())
}

func TestPrimaryKeyDeclarationOrderImplicitsLast(t *testing.T) {
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	names := make([]string, len(tbl.PrimaryKey))
	for i, c := range tbl.PrimaryKey {
		names[i] = c.Name
	}
	require.Equal(t, []string{"id", schema.ImplicitIDColumn}, names)
}

func TestDuplicateColumnNameFails(t *testing.T) {
	specs := []schema.ColumnSpec{
		{Name: "id", Engine: typeengine.IntegerType{}},
		{Name: "id", Engine: typeengine.IntegerType{}},
	}
	_, err := schema.NewTable("t", "notion", specs)
	require.Error(t, err)
}

func TestColumnParentSetExactlyOnce(t *testing.T) {
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	col, ok := tbl.Columns.Get("id")
	require.True(t, ok)
	name, hasParent := col.Parent()
	require.True(t, hasParent)
	require.Equal(t, "students", name)
}

func TestColumnCollectionIterationOrderIsInsertionOrder(t *testing.T) {
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", schema.ImplicitIDColumn, schema.ImplicitArchivedColumn}, tbl.Columns.Names())
}

func TestReadOnlyColumnsMutationAlwaysFails(t *testing.T) {
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	ro := schema.NewReadOnlyColumns(tbl.Columns)
	require.Equal(t, tbl.Columns.Len(), ro.Len())
	err = ro.Add(&schema.Column{Name: "extra"})
	require.Error(t, err)
}

func TestStubPopulateAttachesImplicitsThroughComputePK(t *testing.T) {
	stub := schema.NewStub("students", "notion")
	require.False(t, stub.Populated)
	err := stub.Populate([]schema.ColumnSpec{
		{Name: "id", Engine: typeengine.IntegerType{}, PrimaryKey: true},
		{Name: schema.ImplicitIDColumn, Engine: typeengine.ObjectIdType{}, PrimaryKey: true},
		{Name: schema.ImplicitArchivedColumn, Engine: typeengine.ArchivalFlagType{}},
	})
	require.NoError(t, err)
	require.True(t, stub.Populated)
	require.Len(t, stub.PrimaryKey, 2)
}

func TestPopulateTwiceFails(t *testing.T) {
	stub := schema.NewStub("students", "notion")
	require.NoError(t, stub.Populate(nil))
	require.Error(t, stub.Populate(nil))
}

func TestMetaDataAddContainsGet(t *testing.T) {
	md := schema.NewMetaData()
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	require.NoError(t, md.Add(tbl))
	require.True(t, md.Contains("students"))
	got, ok := md.Get("students")
	require.True(t, ok)
	require.Same(t, tbl, got)
}

func TestMetaDataDuplicateAddFails(t *testing.T) {
	md := schema.NewMetaData()
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	require.NoError(t, md.Add(tbl))
	require.Error(t, md.Add(tbl))
}

func TestMetaDataUnpopulatedTracksStubs(t *testing.T) {
	md := schema.NewMetaData()
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	require.NoError(t, md.Add(tbl))
	stub := schema.NewStub("teachers", "notion")
	require.NoError(t, md.Add(stub))
	unpop := md.Unpopulated()
	require.Len(t, unpop, 1)
	require.Equal(t, "teachers", unpop[0].Name)
}

func TestMetaDataRemove(t *testing.T) {
	md := schema.NewMetaData()
	tbl, err := schema.NewTable("students", "notion", studentsSpecs())
	require.NoError(t, err)
	require.NoError(t, md.Add(tbl))
	md.Remove("students")
	require.False(t, md.Contains("students"))
	require.Empty(t, md.Tables())
}

package row_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/row"
)

func TestResultMetadataIndexOf(t *testing.T) {
	md := row.NewResultMetadata([]string{"id", "name", "grade"})
	i, ok := md.IndexOf("name")
	require.True(t, ok)
	require.Equal(t, 1, i)
	_, ok = md.IndexOf("nope")
	require.False(t, ok)
}

func TestRowGetAndAt(t *testing.T) {
	md := row.NewResultMetadata([]string{"id", "name"})
	r, err := row.NewRow(md, []any{1, "Isaac Newton"})
	require.NoError(t, err)

	v, err := r.Get("name")
	require.NoError(t, err)
	require.Equal(t, "Isaac Newton", v)

	v, err = r.At(0)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = r.Get("nope")
	require.Error(t, err)

	_, err = r.At(5)
	require.Error(t, err)
}

func TestNewRowLengthMismatchFails(t *testing.T) {
	md := row.NewResultMetadata([]string{"id", "name"})
	_, err := row.NewRow(md, []any{1})
	require.Error(t, err)
}

func TestSentinelNoResultMetadataRejectsAccessors(t *testing.T) {
	md := row.NoResultMetadata()
	require.False(t, md.ReturnsRows)
	_, err := row.NewRow(md, nil)
	require.Error(t, err)

	r := row.Row{Metadata: md}
	_, err = r.Get("anything")
	require.Error(t, err)
	_, err = r.At(0)
	require.Error(t, err)
}

package row

import "github.com/gopherdb/notionsql/internal/nerr"

// ResultMetadata describes the named columns of a result set. A sentinel
// value with ReturnsRows false models a statement that produced no rows;
// accessor use against it fails.
type ResultMetadata struct {
	Keys        []string
	index       map[string]int
	ReturnsRows bool
}

// NewResultMetadata builds metadata for a row-returning statement.
func NewResultMetadata(keys []string) ResultMetadata {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return ResultMetadata{Keys: keys, index: idx, ReturnsRows: true}
}

// NoResultMetadata is the sentinel for non-row-returning statements.
func NoResultMetadata() ResultMetadata {
	return ResultMetadata{ReturnsRows: false}
}

// IndexOf returns the ordinal position of a column name.
func (m ResultMetadata) IndexOf(key string) (int, bool) {
	i, ok := m.index[key]
	return i, ok
}

// Row is a read-only, metadata-described tuple of values. There are no
// mutator methods — attribute assignment on a Row simply isn't part of its
// API surface.
type Row struct {
	Metadata ResultMetadata
	Values   []any
}

// NewRow pairs metadata with values, failing if the lengths disagree.
func NewRow(md ResultMetadata, values []any) (Row, error) {
	if !md.ReturnsRows {
		return Row{}, nerr.New(nerr.KindInvalidRequest, "row.NewRow", nil)
	}
	if len(values) != len(md.Keys) {
		return Row{}, nerr.Newf(nerr.KindInternal, "row.NewRow", "metadata has %d columns, got %d values", len(md.Keys), len(values))
	}
	return Row{Metadata: md, Values: values}, nil
}

// At returns the value at ordinal position i.
func (r Row) At(i int) (any, error) {
	if !r.Metadata.ReturnsRows {
		return nil, nerr.New(nerr.KindInvalidRequest, "Row.At", nil)
	}
	if i < 0 || i >= len(r.Values) {
		return nil, nerr.Newf(nerr.KindInternal, "Row.At", "index %d out of range [0,%d)", i, len(r.Values))
	}
	return r.Values[i], nil
}

// Get returns the value under a column name.
func (r Row) Get(key string) (any, error) {
	if !r.Metadata.ReturnsRows {
		return nil, nerr.New(nerr.KindInvalidRequest, "Row.Get", nil)
	}
	i, ok := r.Metadata.IndexOf(key)
	if !ok {
		return nil, nerr.Newf(nerr.KindArgument, "Row.Get", "unknown column %q", key)
	}
	return r.Values[i], nil
}

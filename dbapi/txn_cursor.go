package dbapi

import (
	"math/big"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/row"
)

// TxnCursor is the transaction-aware cursor a connection hands back from
// Execute: it wraps a placeholder Cursor that starts empty (row count -1,
// no description, no rows) and is populated in place once the staged
// operation backing it actually commits. Every accessor simply forwards
// to that shared Cursor, so a caller holding a TxnCursor sees its real
// result set appear the moment the owning transaction resolves.
type TxnCursor struct {
	cursor *Cursor
	closed bool
}

// NewTxnCursor wraps an already-staged placeholder Cursor. The connection
// that staged the underlying operation is the only thing that ever calls
// Populate on it.
func NewTxnCursor(cursor *Cursor) *TxnCursor {
	return &TxnCursor{cursor: cursor}
}

func (tc *TxnCursor) Description() []ColumnDescription {
	if tc.cursor == nil {
		return nil
	}
	return tc.cursor.Description()
}

func (tc *TxnCursor) RowCount() int {
	if tc.cursor == nil {
		return -1
	}
	return tc.cursor.RowCount()
}

func (tc *TxnCursor) LastRowID() *big.Int {
	if tc.cursor == nil {
		return nil
	}
	return tc.cursor.LastRowID()
}

func (tc *TxnCursor) Paramstyle() string { return ParamStyle }

func (tc *TxnCursor) FetchOne() (*row.Row, error) {
	if tc.closed {
		return nil, nerr.New(nerr.KindResourceClosed, "dbapi.TxnCursor.FetchOne", nil)
	}
	if tc.cursor == nil {
		return nil, nerr.New(nerr.KindInterface, "dbapi.TxnCursor.FetchOne", nil)
	}
	return tc.cursor.FetchOne()
}

func (tc *TxnCursor) FetchAll() ([]row.Row, error) {
	if tc.closed {
		return nil, nerr.New(nerr.KindResourceClosed, "dbapi.TxnCursor.FetchAll", nil)
	}
	if tc.cursor == nil {
		return nil, nerr.New(nerr.KindInterface, "dbapi.TxnCursor.FetchAll", nil)
	}
	return tc.cursor.FetchAll()
}

func (tc *TxnCursor) Close() {
	tc.closed = true
	if tc.cursor != nil {
		tc.cursor.Close()
	}
}

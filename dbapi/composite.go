package dbapi

import (
	"math/big"

	"github.com/gopherdb/notionsql/row"
)

// CompositeCursor holds the ordered result sets produced by committing a
// transaction's staged operations, one Cursor per operation. nextset() is
// the only way to advance: there is no random access across child cursors.
type CompositeCursor struct {
	cursors []*Cursor
	current int
}

// NewCompositeCursor wraps cursors in commit order. It panics on an empty
// slice: a composite cursor over zero operations is a caller bug, not a
// runtime condition to report through the error return.
func NewCompositeCursor(cursors []*Cursor) *CompositeCursor {
	if len(cursors) == 0 {
		panic("dbapi: NewCompositeCursor requires at least one cursor")
	}
	return &CompositeCursor{cursors: cursors}
}

func (cc *CompositeCursor) current_() *Cursor { return cc.cursors[cc.current] }

// NextSet closes the current child cursor and advances to the next one,
// returning false once the last child has been reached.
func (cc *CompositeCursor) NextSet() bool {
	if cc.current+1 >= len(cc.cursors) {
		return false
	}
	cc.cursors[cc.current].Close()
	cc.current++
	return true
}

func (cc *CompositeCursor) Description() []ColumnDescription { return cc.current_().Description() }
func (cc *CompositeCursor) RowCount() int                     { return cc.current_().RowCount() }
func (cc *CompositeCursor) LastRowID() *big.Int               { return cc.current_().LastRowID() }
func (cc *CompositeCursor) Paramstyle() string                { return ParamStyle }

func (cc *CompositeCursor) FetchOne() (*row.Row, error) { return cc.current_().FetchOne() }
func (cc *CompositeCursor) FetchAll() ([]row.Row, error) { return cc.current_().FetchAll() }

// Close closes every remaining child cursor, including the current one.
func (cc *CompositeCursor) Close() {
	for i := cc.current; i < len(cc.cursors); i++ {
		cc.cursors[i].Close()
	}
}

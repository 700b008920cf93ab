// Package schema holds the named table registry and column metadata that
// the cross-compiler and reflection orchestrator consult.
package schema

import (
	"sync"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/typeengine"
)

// ImplicitIDColumn and ImplicitArchivedColumn are the two columns every
// Table auto-appends exactly once at construction.
const (
	ImplicitIDColumn       = "_no_id"
	ImplicitArchivedColumn = "_no_archived"
)

// Column is a single table column. parent is a non-owning reference: it
// names the owning Table rather than pointing at it, so a Column never
// keeps a Table alive and there is no pointer cycle between Column and
// Table. It is set exactly once, when the column is appended.
type Column struct {
	Name        string
	Engine      typeengine.Type
	PrimaryKey  bool
	parentTable string
	hasParent   bool
}

// Parent returns the owning table's name. ok is false for a detached
// column that has not yet been appended to a Table.
func (c *Column) Parent() (name string, ok bool) {
	return c.parentTable, c.hasParent
}

func newColumn(name string, engine typeengine.Type, primaryKey bool) *Column {
	return &Column{Name: name, Engine: engine, PrimaryKey: primaryKey}
}

// ColumnCollection is an ordered, name-indexed set of columns. The only
// mutation entry point is Add; ReadOnly wraps a collection so every
// mutation attempt fails uniformly instead of duplicating storage.
type ColumnCollection struct {
	order  []string
	byName map[string]*Column
}

func newColumnCollection() *ColumnCollection {
	return &ColumnCollection{byName: make(map[string]*Column)}
}

// Add appends col under table, setting its parent exactly once. Fails
// KindDuplicateColumn if the name already exists in the collection.
func (cc *ColumnCollection) Add(table string, col *Column) error {
	if _, exists := cc.byName[col.Name]; exists {
		return nerr.Newf(nerr.KindDuplicateColumn, "ColumnCollection.Add", "duplicate column %q", col.Name)
	}
	col.parentTable = table
	col.hasParent = true
	cc.order = append(cc.order, col.Name)
	cc.byName[col.Name] = col
	return nil
}

func (cc *ColumnCollection) Get(name string) (*Column, bool) {
	c, ok := cc.byName[name]
	return c, ok
}

func (cc *ColumnCollection) At(i int) (*Column, bool) {
	if i < 0 || i >= len(cc.order) {
		return nil, false
	}
	return cc.byName[cc.order[i]], true
}

func (cc *ColumnCollection) Contains(name string) bool {
	_, ok := cc.byName[name]
	return ok
}

func (cc *ColumnCollection) Len() int { return len(cc.order) }

// Names returns column names in insertion order.
func (cc *ColumnCollection) Names() []string {
	out := make([]string, len(cc.order))
	copy(out, cc.order)
	return out
}

// Slice returns all columns in insertion order.
func (cc *ColumnCollection) Slice() []*Column {
	out := make([]*Column, len(cc.order))
	for i, n := range cc.order {
		out[i] = cc.byName[n]
	}
	return out
}

// ReadOnlyColumns borrows a ColumnCollection and exposes the same read
// accessors with no mutation surface. Add always fails so any caller
// holding a ReadOnlyColumns by interface gets one uniform failure instead
// of a second storage copy.
type ReadOnlyColumns struct {
	cc *ColumnCollection
}

func NewReadOnlyColumns(cc *ColumnCollection) ReadOnlyColumns {
	return ReadOnlyColumns{cc: cc}
}

func (r ReadOnlyColumns) Get(name string) (*Column, bool)  { return r.cc.Get(name) }
func (r ReadOnlyColumns) At(i int) (*Column, bool)         { return r.cc.At(i) }
func (r ReadOnlyColumns) Contains(name string) bool        { return r.cc.Contains(name) }
func (r ReadOnlyColumns) Len() int                         { return r.cc.Len() }
func (r ReadOnlyColumns) Names() []string                  { return r.cc.Names() }
func (r ReadOnlyColumns) Slice() []*Column                 { return r.cc.Slice() }

// Add always fails: ReadOnlyColumns exposes no mutation surface.
func (r ReadOnlyColumns) Add(*Column) error {
	return nerr.New(nerr.KindInvalidRequest, "ReadOnlyColumns.Add", nil)
}

// ColumnSpec is a user-declared column before it becomes part of a Table.
type ColumnSpec struct {
	Name       string
	Engine     typeengine.Type
	PrimaryKey bool
}

// Table is a named collection of columns plus the primary key constraint
// derived from them. Every Table built with NewTable carries the two
// implicit columns in addition to whatever the caller declared.
type Table struct {
	Name        string
	Dialect     string
	Columns     *ColumnCollection
	Constraints map[string]struct{}
	PrimaryKey  []*Column
	Populated   bool
	// RemoteID is the Notion database id backing this table, set once
	// the table's CREATE TABLE operation has committed.
	RemoteID string
}

// NewTable builds a Table from user-declared columns, appending the two
// implicit columns exactly once. Duplicate user column names fail
// KindDuplicateColumn.
func NewTable(name, dialect string, specs []ColumnSpec) (*Table, error) {
	t := &Table{
		Name:        name,
		Dialect:     dialect,
		Columns:     newColumnCollection(),
		Constraints: make(map[string]struct{}),
		Populated:   true,
	}
	for _, s := range specs {
		if err := t.Columns.Add(name, newColumn(s.Name, s.Engine, s.PrimaryKey)); err != nil {
			return nil, err
		}
	}
	if err := t.Columns.Add(name, newColumn(ImplicitIDColumn, typeengine.ObjectIdType{}, true)); err != nil {
		return nil, err
	}
	if err := t.Columns.Add(name, newColumn(ImplicitArchivedColumn, typeengine.ArchivalFlagType{}, false)); err != nil {
		return nil, err
	}
	t.PrimaryKey = t.computePrimaryKey()
	return t, nil
}

// NewStub registers a table name with no columns yet, for reflection to
// populate. It intentionally violates the "always has the implicit
// columns" invariant until Populate is called — callers must not treat a
// stub as a usable Table.
func NewStub(name, dialect string) *Table {
	return &Table{
		Name:        name,
		Dialect:     dialect,
		Columns:     newColumnCollection(),
		Constraints: make(map[string]struct{}),
		Populated:   false,
	}
}

// Populate fills a stub built with NewStub from reflected column rows. It
// fails if the table is already populated.
func (t *Table) Populate(specs []ColumnSpec) error {
	if t.Populated {
		return nerr.New(nerr.KindInvalidRequest, "Table.Populate", nil)
	}
	for _, s := range specs {
		if err := t.Columns.Add(t.Name, newColumn(s.Name, s.Engine, s.PrimaryKey)); err != nil {
			return err
		}
	}
	t.PrimaryKey = t.computePrimaryKey()
	t.Populated = true
	return nil
}

// computePrimaryKey walks columns in declaration order, collecting
// primary-key columns; since the implicit _no_id column is always
// appended last among the primary-key-bearing columns, it naturally lands
// last in the returned slice.
func (t *Table) computePrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns.Slice() {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// MetaData is the process-scoped name->Table registry.
type MetaData struct {
	mu     sync.RWMutex
	order  []string
	tables map[string]*Table
}

func NewMetaData() *MetaData {
	return &MetaData{tables: make(map[string]*Table)}
}

// Add registers t. Fails KindInvalidRequest if the name is already taken.
func (m *MetaData) Add(t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tables[t.Name]; exists {
		return nerr.Newf(nerr.KindInvalidRequest, "MetaData.Add", "table %q already registered", t.Name)
	}
	m.order = append(m.order, t.Name)
	m.tables[t.Name] = t
	return nil
}

func (m *MetaData) Contains(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[name]
	return ok
}

func (m *MetaData) Get(name string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	return t, ok
}

// Remove drops a table from the registry, used by DROP TABLE.
func (m *MetaData) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Tables returns all registered tables in registration order.
func (m *MetaData) Tables() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Table, len(m.order))
	for i, n := range m.order {
		out[i] = m.tables[n]
	}
	return out
}

// Unpopulated returns registered tables awaiting reflection.
func (m *MetaData) Unpopulated() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Table
	for _, n := range m.order {
		if t := m.tables[n]; !t.Populated {
			out = append(out, t)
		}
	}
	return out
}

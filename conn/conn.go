// Package conn is the top-level entry point tying parsing, cross
// compilation, staged transactions, and cursors together: Execute parses
// one statement, derives its resource id and lock mode, stages it on the
// connection's current transaction (opening one on first use), and
// returns a transaction-aware cursor immediately. Commit runs the
// two-phase protocol and assembles a composite cursor from every staged
// operation's result set, in staging order.
package conn

import (
	"log/slog"
	"sync"

	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/dbapi"
	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/lock"
	"github.com/gopherdb/notionsql/notion"
	"github.com/gopherdb/notionsql/parser"
	"github.com/gopherdb/notionsql/schema"
	"github.com/gopherdb/notionsql/txn"
)

// schemaResource is the lock table entry guarding CREATE TABLE: a table
// being created has no name of its own to lock on until it is already
// registered, so every CREATE TABLE contends on this one resource
// instead.
const schemaResource = "schema"

// Connection holds at most one open transaction at a time. Execute begins
// one on first use; Commit or Rollback resolves it and clears it, so the
// next Execute opens a fresh one.
type Connection struct {
	client   notion.Client
	compiler *crosscompiler.Compiler
	md       *schema.MetaData
	txns     *txn.Manager

	mu      sync.Mutex
	current *txn.Transaction
	pending []*dbapi.Cursor
	lastSet *dbapi.CompositeCursor
}

// New builds a Connection over an already-constructed schema registry and
// client. rootPageID is the Notion page every CREATE TABLE nests its new
// database under. Transaction and lock events log to slog.Default(); use
// NewWithLogger to inject a different one.
func New(client notion.Client, md *schema.MetaData, rootPageID string) *Connection {
	return NewWithLogger(client, md, rootPageID, slog.Default())
}

// NewWithLogger is New for a caller that wants this connection's
// transaction and lock events on its own logger.
func NewWithLogger(client notion.Client, md *schema.MetaData, rootPageID string, logger *slog.Logger) *Connection {
	return &Connection{
		client:   client,
		compiler: crosscompiler.New(md, rootPageID),
		md:       md,
		txns:     txn.NewManagerWithLogger(logger),
	}
}

// Execute parses sql, compiles it against the schema registry, binds
// params, and stages the resulting operation on the current transaction.
// The returned cursor starts with an empty, row-count -1 result set; it
// is populated in place the moment the owning transaction commits.
func (c *Connection) Execute(sql string, params map[string]any) (*dbapi.TxnCursor, error) {
	node, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}

	tx := c.ensureTransaction()

	desc, err := c.compiler.Compile(node)
	if err != nil {
		return nil, err
	}

	// compileCreateTable has already registered the table by this point;
	// compileDropTable has already removed it. Either way md.Get reflects
	// the post-compile state, which is exactly what BindParams and the
	// result shape below need.
	table, _ := c.md.Get(tableName(node))
	if err := crosscompiler.BindParams(desc, table, params); err != nil {
		return nil, err
	}

	inner, err := c.toOperation(desc, table)
	if err != nil {
		return nil, err
	}

	columns, returnsRows := resultShape(node, table)
	cursor := dbapi.NewCursor(c.client)
	wrapped := &execOperation{inner: inner, cursor: cursor, table: table, columns: columns, returnsRows: returnsRows}

	resourceID, mode := resourceAndMode(node)
	tx.Stage(resourceID, mode, wrapped)
	c.track(cursor)

	return dbapi.NewTxnCursor(cursor), nil
}

// Update stages a direct pages.update patch, bypassing SQL entirely: the
// grammar has no UPDATE production, but the transaction log still needs a
// StagedUpdate operation for callers driving updates programmatically.
// properties must already be bound through the owning column's type engine
// (typeengine.Fragment values), since there is no AST and therefore no
// column lookup to do it here.
func (c *Connection) Update(table, pageID string, properties map[string]any) (*dbapi.TxnCursor, error) {
	tx := c.ensureTransaction()
	payload := map[string]any{"page_id": pageID, "properties": properties}
	cursor := dbapi.NewCursor(c.client)
	wrapped := &execOperation{inner: txn.NewStagedUpdate(c.client, payload), cursor: cursor}
	tx.Stage(table, lock.Exclusive, wrapped)
	c.track(cursor)
	return dbapi.NewTxnCursor(cursor), nil
}

// Delete stages an archive of pageID under table's lock, the Go-level
// counterpart to DROP TABLE's own pages.update-as-delete extension.
func (c *Connection) Delete(table, pageID string) (*dbapi.TxnCursor, error) {
	tx := c.ensureTransaction()
	cursor := dbapi.NewCursor(c.client)
	wrapped := &execOperation{inner: txn.NewStagedDelete(c.client, pageID), cursor: cursor}
	tx.Stage(table, lock.Exclusive, wrapped)
	c.track(cursor)
	return dbapi.NewTxnCursor(cursor), nil
}

// InsertStmt stages a generative crosscompiler.Insert, the programmatic
// counterpart to Execute("INSERT INTO ..."). Its committed cursor exposes
// exactly the RETURNING tuple the builder accumulated (the two implicit
// columns plus anything appended via Insert.Returning).
func (c *Connection) InsertStmt(ins *crosscompiler.Insert) (*dbapi.TxnCursor, error) {
	table := ins.Table()
	desc, err := c.compiler.CompileInsert(ins)
	if err != nil {
		return nil, err
	}
	inner, err := c.toOperation(desc, table)
	if err != nil {
		return nil, err
	}

	tx := c.ensureTransaction()
	cursor := dbapi.NewCursor(c.client)
	wrapped := &execOperation{inner: inner, cursor: cursor, table: table, columns: ins.ReturningColumns(), returnsRows: true}
	tx.Stage(table.Name, lock.Exclusive, wrapped)
	c.track(cursor)
	return dbapi.NewTxnCursor(cursor), nil
}

// Commit runs the two-phase protocol on the current transaction and, on
// success, assembles a composite cursor from every staged operation's
// cursor in staging order. A transaction with no staged operations
// commits to an empty success with no composite cursor at all, since
// CompositeCursor refuses to wrap zero cursors.
func (c *Connection) Commit() (*dbapi.CompositeCursor, error) {
	c.mu.Lock()
	tx := c.current
	pending := c.pending
	c.current = nil
	c.pending = nil
	c.mu.Unlock()

	if tx == nil {
		return nil, nerr.New(nerr.KindTransaction, "conn.Connection.Commit", nil)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	composite := dbapi.NewCompositeCursor(pending)
	c.mu.Lock()
	c.lastSet = composite
	c.mu.Unlock()
	return composite, nil
}

// Rollback aborts the current transaction and closes every cursor staged
// against it. A composite cursor built by an earlier, already-committed
// transaction is untouched: LastCommitted keeps returning it, since it
// belongs to a transaction this Rollback was never part of.
func (c *Connection) Rollback() error {
	c.mu.Lock()
	tx := c.current
	pending := c.pending
	c.current = nil
	c.pending = nil
	c.mu.Unlock()

	if tx == nil {
		return nerr.New(nerr.KindTransaction, "conn.Connection.Rollback", nil)
	}
	err := tx.Rollback()
	for _, cur := range pending {
		cur.Close()
	}
	return err
}

// LastCommitted returns the composite cursor the most recent successful
// Commit built, or nil if no transaction on this connection has committed
// any operations yet.
func (c *Connection) LastCommitted() *dbapi.CompositeCursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSet
}

func (c *Connection) ensureTransaction() *txn.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		c.current = c.txns.Begin()
	}
	return c.current
}

func (c *Connection) track(cursor *dbapi.Cursor) {
	c.mu.Lock()
	c.pending = append(c.pending, cursor)
	c.mu.Unlock()
}

// toOperation picks the Operation variant matching desc's endpoint and
// request: the same (endpoint, request) pair the compiler always uses for
// that statement kind, so the switch is exhaustive over everything Compile
// can actually produce.
func (c *Connection) toOperation(desc *crosscompiler.CallDescriptor, table *schema.Table) (txn.Operation, error) {
	switch {
	case desc.Endpoint == crosscompiler.EndpointDatabases && desc.Request == crosscompiler.RequestCreate:
		return txn.NewStagedCreateTable(c.client, c.md, table, desc.Payload), nil
	case desc.Endpoint == crosscompiler.EndpointPages && desc.Request == crosscompiler.RequestCreate:
		return txn.NewStagedInsert(c.client, desc.Payload), nil
	case desc.Endpoint == crosscompiler.EndpointDatabases && desc.Request == crosscompiler.RequestQuery:
		return txn.NewStagedSelect(c.client, desc.Payload), nil
	case desc.Endpoint == crosscompiler.EndpointPages && desc.Request == crosscompiler.RequestUpdate:
		// The only SQL-level producer of pages.update is DROP TABLE's
		// archive-as-delete extension, so this is a StagedDelete, not a
		// StagedUpdate: its rollback should be the exact inverse
		// (un-archive), not a lossy best-effort re-archive.
		pageID, _ := desc.Payload["page_id"].(string)
		return txn.NewStagedDelete(c.client, pageID), nil
	default:
		return nil, nerr.Newf(nerr.KindInternal, "conn.Connection.toOperation", "unsupported call %s.%s", desc.Endpoint, desc.Request)
	}
}

// execOperation decorates a domain Operation with the placeholder cursor
// Execute already handed back to the caller. Once the inner DoCommit
// succeeds, it parses that same raw result into the cursor in place, so a
// TxnCursor returned before commit shows real rows the instant the
// transaction resolves.
type execOperation struct {
	inner       txn.Operation
	cursor      *dbapi.Cursor
	table       *schema.Table
	columns     []string
	returnsRows bool
}

func (e *execOperation) Stage() error { return e.inner.Stage() }

func (e *execOperation) DoCommit() error {
	if err := e.inner.DoCommit(); err != nil {
		return err
	}
	raw, err := e.inner.Result()
	if err != nil {
		return err
	}
	return e.cursor.Populate(raw, e.table, e.columns, e.returnsRows)
}

func (e *execOperation) DoRollback() error { return e.inner.DoRollback() }

func (e *execOperation) Result() (any, error) { return e.inner.Result() }

func tableName(node parser.Node) string {
	switch n := node.(type) {
	case *parser.CreateTable:
		return n.Table
	case *parser.DropTable:
		return n.Table
	case *parser.Insert:
		return n.Table
	case *parser.Select:
		return n.Table
	default:
		return ""
	}
}

// resourceAndMode derives the lock table entry and mode for one statement:
// CREATE TABLE locks the shared schema resource exclusively; SELECT locks
// its table shared; everything else (INSERT, DROP TABLE) locks its table
// exclusively. The Go-level Update/Delete/InsertStmt entry points do not
// come through here; they stage an exclusive table lock themselves.
func resourceAndMode(node parser.Node) (string, lock.Mode) {
	switch node.(type) {
	case *parser.CreateTable:
		return schemaResource, lock.Exclusive
	case *parser.Select:
		return tableName(node), lock.Shared
	default:
		return tableName(node), lock.Exclusive
	}
}

// resultShape reports which columns a statement's committed cursor should
// expose and whether it produces rows at all. SELECT's "*" resolves to
// every column the table declares. INSERT always returns rows too: the
// grammar has no RETURNING clause, so a parsed INSERT gets the default
// (_no_id, _no_archived) tuple every Insert exposes at minimum — widening
// that tuple requires the generative builder's own Returning method,
// staged through InsertStmt instead of Execute.
func resultShape(node parser.Node, table *schema.Table) ([]string, bool) {
	switch n := node.(type) {
	case *parser.Select:
		if (n.Star || len(n.Columns) == 0) && table != nil {
			return table.Columns.Names(), true
		}
		return n.Columns, true
	case *parser.Insert:
		return []string{schema.ImplicitIDColumn, schema.ImplicitArchivedColumn}, true
	default:
		return nil, false
	}
}

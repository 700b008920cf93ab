// Package txn implements the two-phase commit protocol that coordinates
// staged Operations against the per-resource lock table: begin, add staged
// work, commit (stage, lock, commit each in order, roll back on the first
// failure), or roll back directly while still active.
package txn

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/lock"
)

// State is one of a transaction's five lifecycle states.
type State int

const (
	Active State = iota
	PartiallyCommitted
	Committed
	Failed
	Aborted
)

func (s State) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case PartiallyCommitted:
		return "PARTIALLY_COMMITTED"
	case Committed:
		return "COMMITTED"
	case Failed:
		return "FAILED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

type stagedOp struct {
	resourceID string
	mode       lock.Mode
	op         Operation
}

// Transaction holds the ordered list of operations staged against it and
// the lock manager that guards them. Locks are acquired lazily, one
// operation at a time, during Commit — not eagerly when an operation is
// added — so a transaction that is built but never committed never touches
// the lock table at all.
type Transaction struct {
	TID         string
	mu          sync.Mutex
	state       State
	operations  []stagedOp
	lockManager *lock.Manager
	logger      *slog.Logger
}

func newTransaction(tid string, lm *lock.Manager, logger *slog.Logger) *Transaction {
	return &Transaction{TID: tid, state: Active, lockManager: lm, logger: logger}
}

func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stage appends an operation with its resource id and lock mode. It does
// not touch the lock table; that happens inside Commit.
func (t *Transaction) Stage(resourceID string, mode lock.Mode, op Operation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, stagedOp{resourceID: resourceID, mode: mode, op: op})
	t.logger.Debug("operation staged", slog.String("tx", t.TID), slog.String("resource", resourceID), slog.String("mode", mode.String()))
}

// Commit runs the two-phase protocol: ACTIVE -> PARTIALLY_COMMITTED, then
// for each staged operation in order, acquire its lock, stage it, and
// commit it. The first failure at any of those three steps sets FAILED,
// rolls back every operation already committed (in reverse order),
// releases every lock the transaction holds, and transitions to ABORTED.
// Success transitions to COMMITTED and releases locks once.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Active {
		return nerr.New(nerr.KindTransaction, "txn.Transaction.Commit", nil)
	}
	t.state = PartiallyCommitted

	committed := make([]stagedOp, 0, len(t.operations))
	for _, so := range t.operations {
		if err := t.lockManager.Acquire(so.resourceID, t.TID, so.mode); err != nil {
			t.logger.Error("commit aborted: lock acquire failed", slog.String("tx", t.TID), slog.String("resource", so.resourceID), slog.Any("err", err))
			t.abort(committed)
			return err
		}
		if err := so.op.Stage(); err != nil {
			t.logger.Error("commit aborted: stage failed", slog.String("tx", t.TID), slog.String("resource", so.resourceID), slog.Any("err", err))
			t.abort(committed)
			return err
		}
		if err := so.op.DoCommit(); err != nil {
			t.logger.Error("commit aborted: operation commit failed", slog.String("tx", t.TID), slog.String("resource", so.resourceID), slog.Any("err", err))
			t.abort(committed)
			return err
		}
		committed = append(committed, so)
	}

	t.state = Committed
	t.lockManager.Release(t.TID)
	t.logger.Info("transaction committed", slog.String("tx", t.TID), slog.Int("operations", len(t.operations)))
	return nil
}

// abort rolls back already-committed operations in reverse order,
// swallowing rollback errors (best effort, mirroring the per-operation
// rollback contract), then releases every lock the transaction holds.
func (t *Transaction) abort(committed []stagedOp) {
	t.state = Failed
	for i := len(committed) - 1; i >= 0; i-- {
		_ = committed[i].op.DoRollback()
	}
	t.lockManager.Release(t.TID)
	t.state = Aborted
}

// Rollback aborts a still-active transaction directly, without ever
// calling Commit. Calling it outside ACTIVE fails KindTransaction. No
// staged operation has reached DoCommit yet at this point — Commit is the
// only path that runs Stage/DoCommit — so, unlike abort, this never calls
// DoRollback on anything; there is nothing to undo.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Active {
		return nerr.New(nerr.KindTransaction, "txn.Transaction.Rollback", nil)
	}
	t.state = Failed
	t.state = Aborted
	t.lockManager.Release(t.TID)
	t.logger.Info("transaction rolled back", slog.String("tx", t.TID), slog.Int("operations", len(t.operations)))
	return nil
}

// Results returns every operation's Result(), in staging order, once the
// transaction has committed.
func (t *Transaction) Results() ([]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Committed {
		return nil, nerr.New(nerr.KindTransaction, "txn.Transaction.Results", nil)
	}
	out := make([]any, len(t.operations))
	for i, so := range t.operations {
		r, err := so.op.Result()
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Manager mints transactions with UUIDv4 ids and shares one lock table
// across every transaction it issues.
type Manager struct {
	mu          sync.Mutex
	lockManager *lock.Manager
	active      map[string]*Transaction
	logger      *slog.Logger
}

func NewManager() *Manager {
	return &Manager{lockManager: lock.NewManager(), active: make(map[string]*Transaction), logger: slog.Default()}
}

// NewManagerWithLogger is NewManager for a caller that wants transaction
// lifecycle events on its own logger rather than slog.Default().
func NewManagerWithLogger(logger *slog.Logger) *Manager {
	return &Manager{lockManager: lock.NewManagerWithLogger(logger), active: make(map[string]*Transaction), logger: logger}
}

// Begin mints a new ACTIVE transaction and tracks it in the active map.
func (m *Manager) Begin() *Transaction {
	tid := uuid.NewString()
	tx := newTransaction(tid, m.lockManager, m.logger)
	m.mu.Lock()
	m.active[tid] = tx
	m.mu.Unlock()
	m.logger.Debug("transaction begun", slog.String("tx", tid))
	return tx
}

func (m *Manager) Get(tid string) (*Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.active[tid]
	return tx, ok
}

// Package lock implements the non-blocking, per-resource shared/exclusive
// lock table that the transaction manager consults during two-phase
// commit. There are no suspension points here: every Acquire either
// succeeds immediately or fails with a conflict the caller can retry.
package lock

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gopherdb/notionsql/internal/nerr"
)

// Mode is a lock's access level on a resource.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "EXCLUSIVE"
	}
	return "SHARED"
}

// Holder is one (transaction, mode) pair recorded against a resource.
type Holder struct {
	TID  string
	Mode Mode
}

// ConflictError is the structured payload behind a KindAcquireLockFailed
// error: the resource that could not be acquired and who already holds it.
type ConflictError struct {
	Resource           string
	ConflictingHolders []Holder
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.ConflictingHolders))
	for i, h := range e.ConflictingHolders {
		parts[i] = fmt.Sprintf("%s:%s", h.TID, h.Mode)
	}
	return fmt.Sprintf("resource %q held by [%s]", e.Resource, strings.Join(parts, ", "))
}

// Manager tracks per-resource holder lists. The zero value is not usable;
// construct with NewManager.
type Manager struct {
	mu      sync.Mutex
	holders map[string][]Holder
	logger  *slog.Logger
}

func NewManager() *Manager {
	return &Manager{holders: make(map[string][]Holder), logger: slog.Default()}
}

// NewManagerWithLogger is NewManager for a caller that wants lock decisions
// on its own logger rather than slog.Default().
func NewManagerWithLogger(logger *slog.Logger) *Manager {
	return &Manager{holders: make(map[string][]Holder), logger: logger}
}

// Acquire grants tid a lock of mode on resource, or fails immediately with
// KindAcquireLockFailed wrapping a *ConflictError. Re-acquiring the same
// (tid, mode) pair is a no-op. A sole SHARED holder may upgrade itself to
// EXCLUSIVE; any other conflict fails.
func (m *Manager) Acquire(resource, tid string, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.holders[resource]
	for _, h := range list {
		if h.TID == tid && h.Mode == mode {
			return nil
		}
	}

	if mode == Exclusive {
		if len(list) == 1 && list[0].TID == tid {
			list[0].Mode = Exclusive
			m.logger.Debug("lock upgraded", slog.String("resource", resource), slog.String("tx", tid), slog.String("mode", mode.String()))
			return nil
		}
		if len(list) > 0 {
			m.logger.Warn("lock conflict", slog.String("resource", resource), slog.String("tx", tid), slog.String("mode", mode.String()))
			return acquireFailed(resource, list)
		}
		m.holders[resource] = append(list, Holder{TID: tid, Mode: mode})
		m.logger.Debug("lock acquired", slog.String("resource", resource), slog.String("tx", tid), slog.String("mode", mode.String()))
		return nil
	}

	for _, h := range list {
		if h.Mode == Exclusive && h.TID != tid {
			m.logger.Warn("lock conflict", slog.String("resource", resource), slog.String("tx", tid), slog.String("mode", mode.String()))
			return acquireFailed(resource, list)
		}
	}
	m.holders[resource] = append(list, Holder{TID: tid, Mode: mode})
	m.logger.Debug("lock acquired", slog.String("resource", resource), slog.String("tx", tid), slog.String("mode", mode.String()))
	return nil
}

// Release drops every entry owned by tid across every resource in one pass.
func (m *Manager) Release(tid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for resource, list := range m.holders {
		kept := list[:0]
		for _, h := range list {
			if h.TID != tid {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			delete(m.holders, resource)
		} else {
			m.holders[resource] = kept
		}
	}
}

// Holders returns a snapshot of resource's current holder list, for
// diagnostics and tests.
func (m *Manager) Holders(resource string) []Holder {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.holders[resource]
	out := make([]Holder, len(list))
	copy(out, list)
	return out
}

func acquireFailed(resource string, list []Holder) error {
	snapshot := make([]Holder, len(list))
	copy(snapshot, list)
	return nerr.New(nerr.KindAcquireLockFailed, "lock.Acquire", &ConflictError{
		Resource:           resource,
		ConflictingHolders: snapshot,
	})
}

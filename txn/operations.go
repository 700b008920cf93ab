package txn

import (
	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/notion"
	"github.com/gopherdb/notionsql/schema"
)

// Operation is the capability set every staged change implements: validate
// before committing, commit against the client, best-effort undo, and hand
// back whatever do_commit (or do_rollback) produced.
type Operation interface {
	Stage() error
	DoCommit() error
	DoRollback() error
	Result() (any, error)
}

// StagedInsert creates one page. Its rollback is an archive, not a true
// delete — Notion has no hard-delete endpoint in this dialect's capability
// set, so "undo a created row" means "archive it", the same extension
// crosscompiler's DROP TABLE already relies on.
type StagedInsert struct {
	client  notion.Client
	payload map[string]any
	pageID  string
	result  any
}

func NewStagedInsert(client notion.Client, payload map[string]any) *StagedInsert {
	return &StagedInsert{client: client, payload: payload}
}

func (s *StagedInsert) Stage() error {
	if s.payload["parent"] == nil {
		return nerr.New(nerr.KindInterface, "txn.StagedInsert.Stage", nil)
	}
	if s.payload["properties"] == nil {
		return nerr.New(nerr.KindInterface, "txn.StagedInsert.Stage", nil)
	}
	return nil
}

func (s *StagedInsert) DoCommit() error {
	result, err := s.client.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, s.payload)
	if err != nil {
		return err
	}
	obj, ok := result.(map[string]any)
	if !ok {
		return nerr.New(nerr.KindInternal, "txn.StagedInsert.DoCommit", nil)
	}
	s.result = obj
	s.pageID, _ = obj["id"].(string)
	return nil
}

// DoRollback archives the created page, best-effort: a failure here does
// not re-fail the transaction, matching the original's "best-effort
// rollback" comment for the same operation.
func (s *StagedInsert) DoRollback() error {
	if s.pageID == "" {
		return nil
	}
	_, _ = s.client.Enact(crosscompiler.EndpointPages, crosscompiler.RequestUpdate, map[string]any{
		"page_id":  s.pageID,
		"archived": true,
	})
	return nil
}

func (s *StagedInsert) Result() (any, error) { return s.result, nil }

// StagedSelect queries a database. It never mutates, so DoRollback is a
// no-op by construction.
type StagedSelect struct {
	client  notion.Client
	payload map[string]any
	result  any
}

func NewStagedSelect(client notion.Client, payload map[string]any) *StagedSelect {
	return &StagedSelect{client: client, payload: payload}
}

func (s *StagedSelect) Stage() error {
	if s.payload["database_id"] == nil {
		return nerr.New(nerr.KindInterface, "txn.StagedSelect.Stage", nil)
	}
	return nil
}

func (s *StagedSelect) DoCommit() error {
	result, err := s.client.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestQuery, s.payload)
	if err != nil {
		return err
	}
	s.result = result
	return nil
}

func (s *StagedSelect) DoRollback() error { return nil }

func (s *StagedSelect) Result() (any, error) { return s.result, nil }

// StagedCreateTable creates a database and, on success, fills in the
// already-registered schema.Table's RemoteID. Rolling back both archives
// the created database and un-registers the table, since nothing else has
// had a chance to reference it yet within the same transaction.
type StagedCreateTable struct {
	client  notion.Client
	md      *schema.MetaData
	table   *schema.Table
	payload map[string]any
	dbID    string
	result  any
}

func NewStagedCreateTable(client notion.Client, md *schema.MetaData, table *schema.Table, payload map[string]any) *StagedCreateTable {
	return &StagedCreateTable{client: client, md: md, table: table, payload: payload}
}

func (s *StagedCreateTable) Stage() error {
	if s.payload["parent"] == nil {
		return nerr.New(nerr.KindInterface, "txn.StagedCreateTable.Stage", nil)
	}
	if s.payload["properties"] == nil {
		return nerr.New(nerr.KindInterface, "txn.StagedCreateTable.Stage", nil)
	}
	return nil
}

func (s *StagedCreateTable) DoCommit() error {
	result, err := s.client.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestCreate, s.payload)
	if err != nil {
		return err
	}
	obj, ok := result.(map[string]any)
	if !ok {
		return nerr.New(nerr.KindInternal, "txn.StagedCreateTable.DoCommit", nil)
	}
	s.result = obj
	s.dbID, _ = obj["id"].(string)
	s.table.RemoteID = s.dbID
	return nil
}

func (s *StagedCreateTable) DoRollback() error {
	if s.dbID == "" {
		return nil
	}
	_, _ = s.client.Enact(crosscompiler.EndpointPages, crosscompiler.RequestUpdate, map[string]any{
		"page_id":  s.dbID,
		"archived": true,
	})
	s.md.Remove(s.table.Name)
	return nil
}

func (s *StagedCreateTable) Result() (any, error) { return s.result, nil }

// StagedUpdate patches an existing page's properties. There is no prior
// snapshot to restore, so DoRollback is best-effort: it archives the page
// rather than attempting an unknowable inverse patch.
type StagedUpdate struct {
	client  notion.Client
	payload map[string]any
	pageID  string
	result  any
}

func NewStagedUpdate(client notion.Client, payload map[string]any) *StagedUpdate {
	return &StagedUpdate{client: client, payload: payload}
}

func (s *StagedUpdate) Stage() error {
	if s.payload["page_id"] == nil && s.payload["id"] == nil {
		return nerr.New(nerr.KindInterface, "txn.StagedUpdate.Stage", nil)
	}
	return nil
}

func (s *StagedUpdate) DoCommit() error {
	result, err := s.client.Enact(crosscompiler.EndpointPages, crosscompiler.RequestUpdate, s.payload)
	if err != nil {
		return err
	}
	obj, _ := result.(map[string]any)
	s.result = obj
	s.pageID, _ = obj["id"].(string)
	return nil
}

func (s *StagedUpdate) DoRollback() error {
	if s.pageID == "" {
		return nil
	}
	_, _ = s.client.Enact(crosscompiler.EndpointPages, crosscompiler.RequestUpdate, map[string]any{
		"page_id":  s.pageID,
		"archived": true,
	})
	return nil
}

func (s *StagedUpdate) Result() (any, error) { return s.result, nil }

// StagedDelete archives a page — this dialect's only notion of "delete".
// Its rollback is the exact inverse: un-archive.
type StagedDelete struct {
	client notion.Client
	pageID string
	result any
}

func NewStagedDelete(client notion.Client, pageID string) *StagedDelete {
	return &StagedDelete{pageID: pageID, client: client}
}

func (s *StagedDelete) Stage() error {
	if s.pageID == "" {
		return nerr.New(nerr.KindInterface, "txn.StagedDelete.Stage", nil)
	}
	return nil
}

func (s *StagedDelete) DoCommit() error {
	result, err := s.client.Enact(crosscompiler.EndpointPages, crosscompiler.RequestUpdate, map[string]any{
		"page_id":  s.pageID,
		"archived": true,
	})
	if err != nil {
		return err
	}
	s.result, _ = result.(map[string]any)
	return nil
}

func (s *StagedDelete) DoRollback() error {
	_, err := s.client.Enact(crosscompiler.EndpointPages, crosscompiler.RequestUpdate, map[string]any{
		"page_id":  s.pageID,
		"archived": false,
	})
	return err
}

func (s *StagedDelete) Result() (any, error) { return s.result, nil }

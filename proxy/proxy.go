// Package proxy is a thin net/http adapter over the transaction manager:
// begin, insert, commit, rollback, plus a liveness route. It holds no
// domain logic of its own — every route is a direct call into txn and
// notion. The four transaction routes answer in the same
// {transaction_id?, state, data?, error?} response envelope; /health
// answers {status, message}.
package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gopherdb/notionsql/lock"
	"github.com/gopherdb/notionsql/notion"
	"github.com/gopherdb/notionsql/txn"
)

// envelope is the JSON shape every transaction route responds with.
type envelope struct {
	TransactionID string `json:"transaction_id,omitempty"`
	State         string `json:"state"`
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
}

const stateNotActive = "NOT_ACTIVE"

// Server wires a shared notion.Client and txn.Manager behind the four
// transaction routes plus /health.
type Server struct {
	client notion.Client
	txns   *txn.Manager
	logger *slog.Logger
	mux    *http.ServeMux
}

// New builds a Server routing over client. Requests log to slog.Default()
// unless logger is non-nil.
func New(client notion.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{client: client, txns: txn.NewManagerWithLogger(logger), logger: logger}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /transactions", s.handleBegin)
	s.mux.HandleFunc("POST /transactions/{id}/insert", s.handleInsert)
	s.mux.HandleFunc("POST /transactions/{id}/commit", s.handleCommit)
	s.mux.HandleFunc("POST /transactions/{id}/rollback", s.handleRollback)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": "proxy server is alive"})
}

func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	tx := s.txns.Begin()
	writeJSON(w, http.StatusOK, envelope{TransactionID: tx.TID, State: tx.State().String()})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	tid := r.PathValue("id")
	tx, ok := s.txns.Get(tid)
	if !ok {
		writeJSON(w, http.StatusNotFound, envelope{State: stateNotActive, Error: "transaction not found"})
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{TransactionID: tid, State: tx.State().String(), Error: "malformed JSON body"})
		return
	}

	parent, _ := payload["parent"].(map[string]any)
	databaseID, _ := parent["database_id"].(string)
	if databaseID == "" {
		writeJSON(w, http.StatusBadRequest, envelope{TransactionID: tid, State: tx.State().String(), Error: `missing "parent.database_id" in payload`})
		return
	}

	tx.Stage(databaseID, lock.Exclusive, txn.NewStagedInsert(s.client, payload))
	writeJSON(w, http.StatusAccepted, envelope{TransactionID: tid, State: tx.State().String()})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	tid := r.PathValue("id")
	tx, ok := s.txns.Get(tid)
	if !ok {
		writeJSON(w, http.StatusNotFound, envelope{State: stateNotActive, Error: "transaction not found"})
		return
	}

	if err := tx.Commit(); err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{TransactionID: tid, State: tx.State().String(), Error: err.Error()})
		return
	}

	data, err := tx.Results()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{TransactionID: tid, State: tx.State().String(), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{TransactionID: tid, State: tx.State().String(), Data: data})
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	tid := r.PathValue("id")
	tx, ok := s.txns.Get(tid)
	if !ok {
		writeJSON(w, http.StatusNotFound, envelope{State: stateNotActive, Error: "transaction not found"})
		return
	}

	if err := tx.Rollback(); err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{TransactionID: tid, State: tx.State().String(), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{TransactionID: tid, State: tx.State().String()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

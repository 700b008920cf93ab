package main

import (
	"log/slog"

	"github.com/gopherdb/notionsql/conn"
	"github.com/gopherdb/notionsql/dsn"
	"github.com/gopherdb/notionsql/engine/config"
	"github.com/gopherdb/notionsql/notion"
	"github.com/gopherdb/notionsql/schema"
)

// openConnection resolves a connection URI and optional config file into a
// ready-to-use Connection. A KindFile DSN persists to disk via
// notion.FileClient; every other kind runs against an in-memory store,
// which is also the fallback for the two normlite+auth shapes since this
// dialect never actually reaches a live Notion OAuth endpoint.
func openConnection(dsnURI, configPath string) (*conn.Connection, func() error, error) {
	logger := slog.Default()

	cfg, err := config.Load(configPath, logger)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := dsn.Parse(dsnURI)
	if err != nil {
		return nil, nil, err
	}

	rootPageID := cfg.RootPageID
	if rootPageID == "" {
		rootPageID = notion.RootPageID
	}

	closeFn := func() error { return nil }
	var client notion.Client
	switch parsed.Kind {
	case dsn.KindFile:
		fc, err := notion.OpenFileClient(parsed.Path)
		if err != nil {
			return nil, nil, err
		}
		client = fc
		closeFn = fc.Close
	default:
		client = notion.NewInMemoryClient()
	}

	md := schema.NewMetaData()
	c := conn.NewWithLogger(client, md, rootPageID, logger)
	return c, closeFn, nil
}

// Package notion implements the pluggable Notion API client contract:
// (endpoint, request, payload) -> JSON. InMemoryClient simulates the
// Notion store for deterministic tests; FileClient adds gzip-compressed
// on-disk persistence around the same store.
package notion

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/internal/nerr"
)

// RootPageID is the stable id of the bootstrap root page every
// InMemoryClient creates, so schema-creation tests never depend on a
// randomly generated parent id.
const RootPageID = "66666666-6666-6666-6666-666666666666"

// Client enacts one Notion API call and returns the resulting JSON: a
// map[string]any for a single object, or a []map[string]any for
// databases.query. Unknown endpoint/request pairs fail KindDatabase.
type Client interface {
	Enact(endpoint crosscompiler.Endpoint, request crosscompiler.Request, payload map[string]any) (any, error)
}

// InMemoryClient is a process-wide, mutex-guarded simulation of the Notion
// store. All mutation passes through Enact, except BlocksChildrenAppend,
// which appends children to a stored block directly.
type InMemoryClient struct {
	mu    sync.Mutex
	store []map[string]any
}

// NewInMemoryClient returns a client seeded with the stable root page.
func NewInMemoryClient() *InMemoryClient {
	c := &InMemoryClient{}
	c.store = []map[string]any{rootPage()}
	return c
}

func rootPage() map[string]any {
	return map[string]any{
		"object":     "page",
		"id":         RootPageID,
		"archived":   false,
		"in_trash":   false,
		"properties": map[string]any{},
	}
}

func (c *InMemoryClient) Enact(endpoint crosscompiler.Endpoint, request crosscompiler.Request, payload map[string]any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case endpoint == crosscompiler.EndpointPages && request == crosscompiler.RequestCreate:
		return c.pagesCreate(payload)
	case endpoint == crosscompiler.EndpointPages && request == crosscompiler.RequestRetrieve:
		return c.pagesRetrieve(payload)
	case endpoint == crosscompiler.EndpointPages && request == crosscompiler.RequestUpdate:
		return c.pagesUpdate(payload)
	case endpoint == crosscompiler.EndpointDatabases && request == crosscompiler.RequestCreate:
		return c.databasesCreate(payload)
	case endpoint == crosscompiler.EndpointDatabases && request == crosscompiler.RequestRetrieve:
		return c.databasesRetrieve(payload)
	case endpoint == crosscompiler.EndpointDatabases && request == crosscompiler.RequestQuery:
		return c.databasesQuery(payload)
	default:
		return nil, nerr.Newf(nerr.KindDatabase, "notion.Enact", "unknown or unsupported operation: %s.%s", endpoint, request)
	}
}

// BlocksChildrenAppend implements the remaining member of C6's named
// capability set. No AST lowering in this dialect emits a blocks call yet,
// so it is reachable directly but not through Enact's endpoint/request
// dispatch.
func (c *InMemoryClient) BlocksChildrenAppend(blockID string, children []map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	block := c.find(blockID)
	if block == nil {
		return nil, nerr.Newf(nerr.KindDatabase, "notion.BlocksChildrenAppend", "block %q not found", blockID)
	}
	results, _ := block["children"].([]map[string]any)
	results = append(results, children...)
	block["children"] = results
	return block, nil
}

func (c *InMemoryClient) find(id string) map[string]any {
	for _, o := range c.store {
		if o["id"] == id {
			return o
		}
	}
	return nil
}

// add builds a new object of the given type, requiring a "parent" key in
// payload, assigns a fresh random id, and tags every property with its
// own type key the way Notion's wire objects do.
func (c *InMemoryClient) add(objType string, payload map[string]any) (map[string]any, error) {
	if payload["parent"] == nil {
		return nil, nerr.Newf(nerr.KindDatabase, "notion.add", "missing \"parent\" object in payload")
	}
	obj := map[string]any{
		"object":   objType,
		"id":       uuid.NewString(),
		"archived": false,
		"in_trash": false,
	}
	for k, v := range payload {
		obj[k] = v
	}
	if objType == "database" {
		obj["is_inline"] = false
	}
	if props, ok := obj["properties"].(map[string]any); ok {
		for name, raw := range props {
			prop, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if _, hasType := prop["type"]; !hasType {
				for typeKey := range prop {
					prop["type"] = typeKey
					break
				}
			}
			if _, hasID := prop["id"]; !hasID {
				prop["id"] = uuid.NewString()[:4]
			}
			props[name] = prop
		}
	}
	c.store = append(c.store, obj)
	return obj, nil
}

func (c *InMemoryClient) pagesCreate(payload map[string]any) (any, error) {
	return c.add("page", payload)
}

func (c *InMemoryClient) pagesRetrieve(payload map[string]any) (any, error) {
	id, _ := payload["id"].(string)
	obj := c.find(id)
	if obj == nil || obj["object"] != "page" {
		return map[string]any{}, nil
	}
	return obj, nil
}

// pagesUpdate accepts either "page_id" (the shape crosscompiler's DROP
// TABLE/UPDATE payloads use) or "id", and applies any of "archived",
// "in_trash", "properties" present alongside it. The id may name a page or
// a database object; DROP TABLE archives its database this way.
func (c *InMemoryClient) pagesUpdate(payload map[string]any) (any, error) {
	id, _ := payload["page_id"].(string)
	if id == "" {
		id, _ = payload["id"].(string)
	}
	if id == "" {
		return nil, nerr.New(nerr.KindDatabase, "notion.pagesUpdate", fmt.Errorf("missing page_id"))
	}
	obj := c.find(id)
	if obj == nil || (obj["object"] != "page" && obj["object"] != "database") {
		return nil, nerr.Newf(nerr.KindDatabase, "notion.pagesUpdate", "object %q not found or not a page or database", id)
	}
	if archived, ok := payload["archived"].(bool); ok {
		obj["archived"] = archived
	}
	if inTrash, ok := payload["in_trash"].(bool); ok {
		obj["in_trash"] = inTrash
	}
	if props, ok := payload["properties"].(map[string]any); ok {
		existing, ok := obj["properties"].(map[string]any)
		if !ok {
			existing = map[string]any{}
		}
		for k, v := range props {
			existing[k] = v
		}
		obj["properties"] = existing
	}
	return obj, nil
}

func (c *InMemoryClient) databasesCreate(payload map[string]any) (any, error) {
	return c.add("database", payload)
}

func (c *InMemoryClient) databasesRetrieve(payload map[string]any) (any, error) {
	id, _ := payload["id"].(string)
	if id == "" {
		return nil, nerr.New(nerr.KindDatabase, "notion.databasesRetrieve", fmt.Errorf("missing \"id\""))
	}
	obj := c.find(id)
	if obj == nil {
		return map[string]any{}, nil
	}
	return obj, nil
}

func (c *InMemoryClient) databasesQuery(payload map[string]any) (any, error) {
	dbID, _ := payload["database_id"].(string)
	if dbID == "" {
		return nil, nerr.New(nerr.KindDatabase, "notion.databasesQuery", fmt.Errorf("missing \"database_id\""))
	}
	filter, hasFilter := payload["filter"].(map[string]any)

	results := []map[string]any{}
	for _, obj := range c.store {
		if obj["object"] != "page" {
			continue
		}
		parent, ok := obj["parent"].(map[string]any)
		if !ok || parent["database_id"] != dbID {
			continue
		}
		if hasFilter {
			match, err := evalFilter(obj, filter)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		results = append(results, obj)
	}
	return results, nil
}

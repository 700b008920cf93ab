// Package row flattens parsed Notion page/database JSON objects into
// ordered tuples, and defines the read-only Row/ResultMetadata types the
// DBAPI cursor builds its result sets from.
package row

import (
	"sort"

	"github.com/gopherdb/notionsql/internal/nerr"
)

// NotionObject is the parse-side tagged variant over Page, Database, and
// Property, dispatched by Go type switch rather than a visitor interface.
type NotionObject interface {
	ObjectKind() string
}

// Property is one entry of a page's or database's "properties" object.
// Value holds the raw sub-fragment under the type key (e.g. the number
// itself, or the []any of rich_text runs) — unwrapping it into a native
// value is the type engine's job, not this package's.
type Property struct {
	Name  string
	ID    string
	Type  string
	Value any
}

func (Property) ObjectKind() string { return "property" }

// Page mirrors a Notion page object.
type Page struct {
	ID         string
	Archived   bool
	InTrash    bool
	Properties []Property
}

func (Page) ObjectKind() string { return "page" }

// Database mirrors a Notion database object.
type Database struct {
	ID         string
	Title      string
	Archived   bool
	InTrash    bool
	Properties []Property
}

func (Database) ObjectKind() string { return "database" }

// Parse dispatches on obj["object"] and builds the matching NotionObject.
// order, when non-empty, fixes the property iteration order (typically the
// owning schema.Table's column order); otherwise properties are emitted in
// sorted-key order for determinism, since a Go map carries no JSON
// declaration order once decoded.
func Parse(obj map[string]any, order []string) (NotionObject, error) {
	kind, _ := obj["object"].(string)
	switch kind {
	case "page":
		return parsePage(obj, order)
	case "database":
		return parseDatabase(obj, order)
	default:
		return nil, nerr.Newf(nerr.KindInternal, "row.Parse", "unrecognized object kind %q", kind)
	}
}

func parsePage(obj map[string]any, order []string) (*Page, error) {
	id, _ := obj["id"].(string)
	archived, _ := obj["archived"].(bool)
	inTrash, _ := obj["in_trash"].(bool)
	props, err := parseProperties(obj, order)
	if err != nil {
		return nil, err
	}
	return &Page{ID: id, Archived: archived, InTrash: inTrash, Properties: props}, nil
}

func parseDatabase(obj map[string]any, order []string) (*Database, error) {
	id, _ := obj["id"].(string)
	archived, _ := obj["archived"].(bool)
	inTrash, _ := obj["in_trash"].(bool)
	title := titleText(obj["title"])
	props, err := parseProperties(obj, order)
	if err != nil {
		return nil, err
	}
	return &Database{ID: id, Title: title, Archived: archived, InTrash: inTrash, Properties: props}, nil
}

func titleText(raw any) string {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return ""
	}
	entry, ok := arr[0].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := entry["text"].(map[string]any)
	content, _ := text["content"].(string)
	return content
}

func parseProperties(obj map[string]any, order []string) ([]Property, error) {
	raw, _ := obj["properties"].(map[string]any)
	if raw == nil {
		return nil, nil
	}
	names := order
	if len(names) == 0 {
		names = make([]string, 0, len(raw))
		for name := range raw {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	props := make([]Property, 0, len(names))
	for _, name := range names {
		entry, ok := raw[name].(map[string]any)
		if !ok {
			continue
		}
		typeKey, _ := entry["type"].(string)
		id, _ := entry["id"].(string)
		props = append(props, Property{
			Name:  name,
			ID:    id,
			Type:  typeKey,
			Value: entry[typeKey],
		})
	}
	return props, nil
}

// Flatten cross-compiles a NotionObject into the positional tuple shape:
// page -> ("page", id, archived, in_trash, (name, pid, type, value)*)
// database -> ("database", id, title, archived, in_trash, (name, pid, type, value)*)
func Flatten(obj NotionObject) ([]any, error) {
	switch o := obj.(type) {
	case *Page:
		tuple := []any{"page", o.ID, o.Archived, o.InTrash}
		return appendProperties(tuple, o.Properties), nil
	case *Database:
		tuple := []any{"database", o.ID, o.Title, o.Archived, o.InTrash}
		return appendProperties(tuple, o.Properties), nil
	default:
		return nil, nerr.Newf(nerr.KindInternal, "row.Flatten", "unsupported NotionObject %T", obj)
	}
}

func appendProperties(tuple []any, props []Property) []any {
	for _, p := range props {
		tuple = append(tuple, p.Name, p.ID, p.Type, p.Value)
	}
	return tuple
}

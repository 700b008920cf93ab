package notion_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/notion"
)

func TestRootPageIDStableAcrossResets(t *testing.T) {
	a := notion.NewInMemoryClient()
	b := notion.NewInMemoryClient()
	pageA, err := a.Enact(crosscompiler.EndpointPages, crosscompiler.RequestRetrieve, map[string]any{"id": notion.RootPageID})
	require.NoError(t, err)
	pageB, err := b.Enact(crosscompiler.EndpointPages, crosscompiler.RequestRetrieve, map[string]any{"id": notion.RootPageID})
	require.NoError(t, err)
	require.Equal(t, notion.RootPageID, pageA.(map[string]any)["id"])
	require.Equal(t, notion.RootPageID, pageB.(map[string]any)["id"])
}

func TestPagesCreateRequiresParent(t *testing.T) {
	c := notion.NewInMemoryClient()
	_, err := c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, map[string]any{
		"properties": map[string]any{},
	})
	require.Error(t, err)
}

func TestPagesCreateAndRetrieveRoundTrip(t *testing.T) {
	c := notion.NewInMemoryClient()
	created, err := c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, map[string]any{
		"parent":     map[string]any{"page_id": notion.RootPageID},
		"properties": map[string]any{"Name": map[string]any{"title": []any{map[string]any{"text": map[string]any{"content": "hi"}}}}},
	})
	require.NoError(t, err)
	id := created.(map[string]any)["id"].(string)
	require.NotEmpty(t, id)

	retrieved, err := c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestRetrieve, map[string]any{"id": id})
	require.NoError(t, err)
	require.Equal(t, id, retrieved.(map[string]any)["id"])
	props := retrieved.(map[string]any)["properties"].(map[string]any)
	require.Equal(t, "title", props["Name"].(map[string]any)["type"])
}

func TestPagesUpdateArchivesPage(t *testing.T) {
	c := notion.NewInMemoryClient()
	created, err := c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, map[string]any{
		"parent":     map[string]any{"database_id": "db-1"},
		"properties": map[string]any{},
	})
	require.NoError(t, err)
	id := created.(map[string]any)["id"].(string)

	_, err = c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestUpdate, map[string]any{
		"page_id":  id,
		"archived": true,
	})
	require.NoError(t, err)

	retrieved, err := c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestRetrieve, map[string]any{"id": id})
	require.NoError(t, err)
	require.Equal(t, true, retrieved.(map[string]any)["archived"])
}

func TestDatabasesCreateAndQueryNoFilter(t *testing.T) {
	c := notion.NewInMemoryClient()
	db, err := c.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestCreate, map[string]any{
		"title":      []any{map[string]any{"text": map[string]any{"content": "students"}}},
		"properties": map[string]any{"id": map[string]any{"number": map[string]any{"format": "number"}}},
		"parent":     map[string]any{"page_id": notion.RootPageID},
	})
	require.NoError(t, err)
	dbID := db.(map[string]any)["id"].(string)

	_, err = c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, map[string]any{
		"parent":     map[string]any{"database_id": dbID},
		"properties": map[string]any{"id": map[string]any{"number": 1}},
	})
	require.NoError(t, err)
	_, err = c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, map[string]any{
		"parent":     map[string]any{"database_id": dbID},
		"properties": map[string]any{"id": map[string]any{"number": 2}},
	})
	require.NoError(t, err)

	rows, err := c.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestQuery, map[string]any{"database_id": dbID})
	require.NoError(t, err)
	require.Len(t, rows.([]map[string]any), 2)
}

func TestDatabasesQueryWithAndFilter(t *testing.T) {
	c := notion.NewInMemoryClient()
	db, err := c.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestCreate, map[string]any{
		"title":      []any{map[string]any{"text": map[string]any{"content": "students"}}},
		"properties": map[string]any{},
		"parent":     map[string]any{"page_id": notion.RootPageID},
	})
	require.NoError(t, err)
	dbID := db.(map[string]any)["id"].(string)

	for _, row := range []struct {
		id    int
		grade string
	}{{1, "B"}, {2, "A"}, {3, "B"}} {
		_, err := c.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, map[string]any{
			"parent": map[string]any{"database_id": dbID},
			"properties": map[string]any{
				"id":    map[string]any{"number": row.id},
				"grade": map[string]any{"rich_text": []any{map[string]any{"text": map[string]any{"content": row.grade}}}},
			},
		})
		require.NoError(t, err)
	}

	filter := map[string]any{"and": []any{
		map[string]any{"property": "grade", "rich_text": map[string]any{"equals": "B"}},
		map[string]any{"property": "id", "number": map[string]any{"greater_than": 1}},
	}}
	rows, err := c.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestQuery, map[string]any{
		"database_id": dbID,
		"filter":      filter,
	})
	require.NoError(t, err)
	result := rows.([]map[string]any)
	require.Len(t, result, 1)
	props := result[0]["properties"].(map[string]any)
	require.Equal(t, 3, props["id"].(map[string]any)["number"])
}

func TestUnknownOperationFails(t *testing.T) {
	c := notion.NewInMemoryClient()
	_, err := c.Enact(crosscompiler.EndpointBlocks, crosscompiler.RequestCreate, map[string]any{})
	require.Error(t, err)
}

func TestDatabasesQueryMissingDatabaseIDFails(t *testing.T) {
	c := notion.NewInMemoryClient()
	_, err := c.Enact(crosscompiler.EndpointDatabases, crosscompiler.RequestQuery, map[string]any{})
	require.Error(t, err)
}

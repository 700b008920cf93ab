package notion_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/crosscompiler"
	"github.com/gopherdb/notionsql/notion"
)

func TestFileClientOpenMissingFileSeedsRootPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json.gz")
	fc, err := notion.OpenFileClient(path)
	require.NoError(t, err)

	page, err := fc.Enact(crosscompiler.EndpointPages, crosscompiler.RequestRetrieve, map[string]any{"id": notion.RootPageID})
	require.NoError(t, err)
	require.Equal(t, notion.RootPageID, page.(map[string]any)["id"])
}

func TestFileClientDumpAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json.gz")

	fc, err := notion.OpenFileClient(path)
	require.NoError(t, err)
	created, err := fc.Enact(crosscompiler.EndpointPages, crosscompiler.RequestCreate, map[string]any{
		"parent":     map[string]any{"page_id": notion.RootPageID},
		"properties": map[string]any{},
	})
	require.NoError(t, err)
	id := created.(map[string]any)["id"].(string)
	require.NoError(t, fc.Close())

	reopened, err := notion.OpenFileClient(path)
	require.NoError(t, err)
	retrieved, err := reopened.Enact(crosscompiler.EndpointPages, crosscompiler.RequestRetrieve, map[string]any{"id": id})
	require.NoError(t, err)
	require.Equal(t, id, retrieved.(map[string]any)["id"])
}

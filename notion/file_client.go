package notion

import (
	"encoding/json"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/gopherdb/notionsql/internal/nerr"
)

// FileClient adds gzip-compressed on-disk persistence around an
// InMemoryClient's store: load on open, overwrite atomically on close.
// The wire format is the same JSON object list either way.
type FileClient struct {
	*InMemoryClient
	path string
}

// OpenFileClient loads path if it exists, or seeds a fresh store (with the
// stable root page) if it does not.
func OpenFileClient(path string) (*FileClient, error) {
	fc := &FileClient{InMemoryClient: NewInMemoryClient(), path: path}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return nil, nerr.New(nerr.KindOperational, "notion.OpenFileClient", err)
	}
	if err := fc.load(); err != nil {
		return nil, err
	}
	return fc, nil
}

func (fc *FileClient) load() error {
	f, err := os.Open(fc.path)
	if err != nil {
		return nerr.New(nerr.KindOperational, "notion.FileClient.load", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nerr.New(nerr.KindOperational, "notion.FileClient.load", err)
	}
	defer zr.Close()

	var store []map[string]any
	if err := json.NewDecoder(zr).Decode(&store); err != nil {
		return nerr.New(nerr.KindOperational, "notion.FileClient.load", err)
	}

	fc.InMemoryClient.mu.Lock()
	fc.InMemoryClient.store = store
	fc.InMemoryClient.mu.Unlock()
	return nil
}

// Close dumps the current store to path, overwriting it atomically via a
// temp-file-then-rename to avoid leaving a half-written file on failure.
func (fc *FileClient) Close() error {
	tmp := fc.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nerr.New(nerr.KindOperational, "notion.FileClient.Close", err)
	}

	zw := gzip.NewWriter(f)
	fc.InMemoryClient.mu.Lock()
	store := fc.InMemoryClient.store
	fc.InMemoryClient.mu.Unlock()

	encErr := json.NewEncoder(zw).Encode(store)
	closeErr := zw.Close()
	fileErr := f.Close()
	if encErr != nil {
		os.Remove(tmp)
		return nerr.New(nerr.KindOperational, "notion.FileClient.Close", encErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return nerr.New(nerr.KindOperational, "notion.FileClient.Close", closeErr)
	}
	if fileErr != nil {
		os.Remove(tmp)
		return nerr.New(nerr.KindOperational, "notion.FileClient.Close", fileErr)
	}
	if err := os.Rename(tmp, fc.path); err != nil {
		return nerr.New(nerr.KindOperational, "notion.FileClient.Close", err)
	}
	return nil
}

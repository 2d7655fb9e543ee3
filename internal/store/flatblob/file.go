package flatblob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// FileBlob stores the collection in one JSON file on local disk.
type FileBlob struct {
	Path string
}

func (f *FileBlob) Load(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// Save writes through a temp file and a rename so readers never see a
// half-written array.
func (f *FileBlob) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

// MemoryBlob keeps the collection in process memory.
type MemoryBlob struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryBlob) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBlob) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

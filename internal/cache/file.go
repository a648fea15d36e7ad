package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FileBackend keeps each stage in <Dir>/<key>.csv. The file existing is the
// hit test.
type FileBackend struct {
	Dir string
}

// NewFileBackend returns a FileBackend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

// Path returns the file that holds key.
func (f *FileBackend) Path(key string) string {
	return filepath.Join(f.Dir, key+".csv")
}

func (f *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: read %s", f.Path(key))
	}
	return data, true, nil
}

func (f *FileBackend) Put(_ context.Context, key string, payload []byte) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "cache: create dir %s", f.Dir)
	}
	if err := os.WriteFile(f.Path(key), payload, 0o644); err != nil {
		return eris.Wrapf(err, "cache: write %s", f.Path(key))
	}
	return nil
}

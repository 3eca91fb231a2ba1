package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Disk stores assets as files in a single directory served statically.
// Uploads are staged in a hidden sibling directory on the same filesystem
// and renamed into place once complete.
type Disk struct {
	dir     string
	tmpDir  string
	baseURL string
}

// NewDisk creates dir if needed. baseURL is the public prefix the
// directory is served under, e.g. http://localhost:4000/images.
func NewDisk(dir, baseURL string) (*Disk, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	tmpDir := filepath.Join(filepath.Dir(dir), "."+filepath.Base(dir)+"-staging")
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Disk{dir: dir, tmpDir: tmpDir, baseURL: baseURL}, nil
}

func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Save(ctx context.Context, name, _ string, r io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.tmpDir, "upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.dir, name))
}

func (d *Disk) Delete(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (d *Disk) URL(name string) string {
	return joinURL(d.baseURL, name)
}

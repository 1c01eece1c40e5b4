package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// dirPublisher copies files into a local directory (file:// targets).
type dirPublisher struct {
	dir string
}

func newDir(t Target) (*dirPublisher, error) {
	if err := os.MkdirAll(t.Prefix, 0o755); err != nil {
		return nil, fmt.Errorf("create publish directory: %w", err)
	}
	return &dirPublisher{dir: t.Prefix}, nil
}

func (p *dirPublisher) Put(_ context.Context, name string, r io.Reader) error {
	dst := filepath.Join(p.dir, name)
	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func (p *dirPublisher) Close() error { return nil }

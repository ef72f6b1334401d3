// Package disksink writes reports under a local directory.
package disksink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/sink"
)

// Compile-time check that Sink implements sink.Sink.
var _ sink.Sink = (*Sink)(nil)

// Sink is a filesystem report sink.
type Sink struct {
	root  string
	codec codec.Codec
}

// New creates a disk sink rooted at the given directory, creating it if
// needed. The codec compresses every report.
func New(root string, c codec.Codec) (*Sink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Sink{root: root, codec: c}, nil
}

// Put compresses data and writes it atomically to name under the root.
func (s *Sink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}

	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming report: %w", err)
	}
	return nil
}

// Close is a no-op for the disk sink.
func (s *Sink) Close() error {
	return nil
}

// path returns the filesystem path of a report.
func (s *Sink) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(codec.FileName(name, s.codec)))
}

// Package gcssink writes reports to a Google Cloud Storage bucket.
package gcssink

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/sink"
)

// Compile-time check that Sink implements sink.Sink.
var _ sink.Sink = (*Sink)(nil)

// writerFunc opens a writer for one object.
type writerFunc func(ctx context.Context, key, contentEncoding string) io.WriteCloser

// Sink is a Google Cloud Storage report sink.
type Sink struct {
	client    *storage.Client
	prefix    string
	codec     codec.Codec
	newWriter writerFunc
}

// Option configures a Sink.
type Option func(*Sink)

// WithPrefix sets a key prefix for all reports.
func WithPrefix(prefix string) Option {
	return func(s *Sink) {
		s.prefix = sink.NormalizePrefix(prefix)
	}
}

// New creates a GCS sink. The bucket must already exist.
// Credentials come from Application Default Credentials.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Sink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	bucket := client.Bucket(bucketName)
	s := &Sink{
		client: client,
		codec:  c,
		newWriter: func(ctx context.Context, key, contentEncoding string) io.WriteCloser {
			w := bucket.Object(key).NewWriter(ctx)
			w.ContentType = "application/json"
			w.ContentEncoding = contentEncoding
			return w
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Put compresses data and uploads it. The object only becomes visible once
// the writer is closed without error.
func (s *Sink) Put(ctx context.Context, name string, data []byte) error {
	encoded, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}

	w := s.newWriter(ctx, s.key(name), s.codec.ContentEncoding())
	if _, err := w.Write(encoded); err != nil {
		w.Close()
		return fmt.Errorf("uploading report %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing report %s: %w", name, err)
	}
	return nil
}

// Close releases resources.
func (s *Sink) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// key returns the full object key for a report.
func (s *Sink) key(name string) string {
	return s.prefix + codec.FileName(name, s.codec)
}

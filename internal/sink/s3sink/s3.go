// Package s3sink writes reports to an AWS S3 (or S3-compatible) bucket.
package s3sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/sink"
)

// Compile-time check that Sink implements sink.Sink.
var _ sink.Sink = (*Sink)(nil)

// putter is the subset of *s3.Client used by the sink.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Sink is an S3 report sink.
type Sink struct {
	client putter
	bucket string
	prefix string
	codec  codec.Codec
}

type options struct {
	prefix   string
	region   string
	endpoint string
}

// Option configures a Sink.
type Option func(*options)

// WithPrefix sets a key prefix for all reports.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
// Path-style addressing is used.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// New creates an S3 sink. The bucket must already exist.
// Credentials come from the default AWS configuration chain.
func New(ctx context.Context, bucket string, c codec.Codec, opts ...Option) (*Sink, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})

	return newSink(client, bucket, c, o.prefix), nil
}

func newSink(client putter, bucket string, c codec.Codec, prefix string) *Sink {
	return &Sink{
		client: client,
		bucket: bucket,
		prefix: sink.NormalizePrefix(prefix),
		codec:  c,
	}
}

// Put compresses data and uploads it as a single object.
func (s *Sink) Put(ctx context.Context, name string, data []byte) error {
	encoded, err := codec.Encode(s.codec, data)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(encoded),
		ContentType: aws.String("application/json"),
	}
	if enc := s.codec.ContentEncoding(); enc != "" {
		input.ContentEncoding = aws.String(enc)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("uploading report %s: %w", name, err)
	}
	return nil
}

// Close releases resources.
func (s *Sink) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

// key returns the full object key for a report.
func (s *Sink) key(name string) string {
	return s.prefix + codec.FileName(name, s.codec)
}

// Package sinkurl opens a report sink from a destination URL.
package sinkurl

import (
	"context"
	"fmt"
	"strings"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/codec/gzipcodec"
	"github.com/discochess/gamereview/internal/codec/noopcodec"
	"github.com/discochess/gamereview/internal/codec/zstdcodec"
	"github.com/discochess/gamereview/internal/sink"
	"github.com/discochess/gamereview/internal/sink/disksink"
	"github.com/discochess/gamereview/internal/sink/gcssink"
	"github.com/discochess/gamereview/internal/sink/s3sink"
)

// Open returns the sink addressed by dest:
//
//	s3://bucket/prefix   AWS S3 (default credential chain)
//	gs://bucket/prefix   Google Cloud Storage
//	file:///dir or dir   local directory
func Open(ctx context.Context, dest string, c codec.Codec) (sink.Sink, error) {
	switch {
	case strings.HasPrefix(dest, "s3://"):
		bucket, prefix, err := parseBucketURL(dest, "s3://")
		if err != nil {
			return nil, err
		}
		return s3sink.New(ctx, bucket, c, s3sink.WithPrefix(prefix))
	case strings.HasPrefix(dest, "gs://"):
		bucket, prefix, err := parseBucketURL(dest, "gs://")
		if err != nil {
			return nil, err
		}
		return gcssink.New(ctx, bucket, c, gcssink.WithPrefix(prefix))
	case strings.HasPrefix(dest, "file://"):
		return disksink.New(strings.TrimPrefix(dest, "file://"), c)
	case strings.Contains(dest, "://"):
		return nil, fmt.Errorf("unsupported destination %q", dest)
	default:
		return disksink.New(dest, c)
	}
}

// parseBucketURL parses "scheme://bucket/prefix" into bucket and prefix.
func parseBucketURL(dest, scheme string) (bucket, prefix string, err error) {
	path := strings.TrimPrefix(dest, scheme)
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid destination %q: missing bucket name", dest)
	}

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = sink.NormalizePrefix(parts[1])
	}
	return bucket, prefix, nil
}

// Codec returns the codec registered under name: "zstd", "gzip" or "none".
func Codec(name string) (codec.Codec, error) {
	switch strings.ToLower(name) {
	case "zstd", "zst":
		return zstdcodec.New(), nil
	case "gzip", "gz":
		return gzipcodec.New(), nil
	case "none", "":
		return noopcodec.New(), nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}

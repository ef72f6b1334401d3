package sinkurl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/discochess/gamereview/internal/codec/noopcodec"
	"github.com/discochess/gamereview/internal/sink/disksink"
)

func TestParseBucketURL(t *testing.T) {
	tests := []struct {
		dest       string
		scheme     string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"gs://bucket", "gs://", "bucket", "", false},
		{"gs://bucket/", "gs://", "bucket", "", false},
		{"gs://bucket/reports", "gs://", "bucket", "reports/", false},
		{"s3://bucket/a/b/", "s3://", "bucket", "a/b/", false},
		{"s3://", "s3://", "", "", true},
		{"gs:///prefix", "gs://", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			bucket, prefix, err := parseBucketURL(tt.dest, tt.scheme)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBucketURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || prefix != tt.wantPrefix {
				t.Errorf("parseBucketURL() = %q, %q, want %q, %q", bucket, prefix, tt.wantBucket, tt.wantPrefix)
			}
		})
	}
}

func TestOpen_Disk(t *testing.T) {
	ctx := context.Background()
	for _, dest := range []string{
		filepath.Join(t.TempDir(), "plain"),
		"file://" + filepath.Join(t.TempDir(), "url"),
	} {
		s, err := Open(ctx, dest, noopcodec.New())
		if err != nil {
			t.Fatalf("Open(%q) error = %v", dest, err)
		}
		if _, ok := s.(*disksink.Sink); !ok {
			t.Errorf("Open(%q) = %T, want *disksink.Sink", dest, s)
		}
		if err := s.Put(ctx, "r.json", []byte("{}")); err != nil {
			t.Errorf("Put() error = %v", err)
		}
		s.Close()
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	for _, dest := range []string{"ftp://host/dir", "gs://", "s3:///x"} {
		if _, err := Open(ctx, dest, noopcodec.New()); err == nil {
			t.Errorf("Open(%q) should fail", dest)
		}
	}
}

func TestOpen_FileNotDirectory(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "file")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if _, err := Open(context.Background(), f.Name(), noopcodec.New()); err == nil {
		t.Error("Open() on a regular file should fail")
	}
}

func TestCodec(t *testing.T) {
	tests := []struct {
		name    string
		wantExt string
		wantErr bool
	}{
		{"zstd", "zst", false},
		{"ZSTD", "zst", false},
		{"gzip", "gz", false},
		{"none", "", false},
		{"", "", false},
		{"brotli", "", true},
	}
	for _, tt := range tests {
		c, err := Codec(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Codec(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && c.Extension() != tt.wantExt {
			t.Errorf("Codec(%q).Extension() = %q, want %q", tt.name, c.Extension(), tt.wantExt)
		}
	}
}

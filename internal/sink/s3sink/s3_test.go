package s3sink

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/discochess/gamereview/internal/codec"
	"github.com/discochess/gamereview/internal/codec/noopcodec"
	"github.com/discochess/gamereview/internal/codec/zstdcodec"
)

// fakeS3 records uploaded objects.
type fakeS3 struct {
	objects map[string][]byte
	inputs  []*s3.PutObjectInput
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	f.inputs = append(f.inputs, in)
	return &s3.PutObjectOutput{}, nil
}

func TestSink_key(t *testing.T) {
	tests := []struct {
		prefix string
		codec  codec.Codec
		want   string
	}{
		{"", zstdcodec.New(), "alice/2024-03/0-1001.json.zst"},
		{"reports", zstdcodec.New(), "reports/alice/2024-03/0-1001.json.zst"},
		{"data/v1/", noopcodec.New(), "data/v1/alice/2024-03/0-1001.json"},
	}

	for _, tt := range tests {
		s := newSink(&fakeS3{}, "bucket", tt.codec, tt.prefix)
		if got := s.key("alice/2024-03/0-1001.json"); got != tt.want {
			t.Errorf("key() = %q, want %q", got, tt.want)
		}
	}
}

func TestSink_Put(t *testing.T) {
	fake := &fakeS3{}
	c := zstdcodec.New()
	s := newSink(fake, "reports-bucket", c, "gamereview")

	data := []byte(`{"opening":"Italian Game"}`)
	if err := s.Put(context.Background(), "alice/2024-03/0-1001.json", data); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	raw, ok := fake.objects["reports-bucket/gamereview/alice/2024-03/0-1001.json.zst"]
	if !ok {
		t.Fatalf("object not uploaded; have %v", fake.objects)
	}
	got, err := codec.Decode(c, raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("object = %q, want %q", got, data)
	}

	in := fake.inputs[0]
	if aws.ToString(in.ContentType) != "application/json" {
		t.Errorf("ContentType = %q", aws.ToString(in.ContentType))
	}
	if aws.ToString(in.ContentEncoding) != "zstd" {
		t.Errorf("ContentEncoding = %q, want zstd", aws.ToString(in.ContentEncoding))
	}
}

func TestSink_PutUncompressedHasNoEncoding(t *testing.T) {
	fake := &fakeS3{}
	s := newSink(fake, "b", noopcodec.New(), "")

	if err := s.Put(context.Background(), "r.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if fake.inputs[0].ContentEncoding != nil {
		t.Errorf("ContentEncoding = %q, want unset", aws.ToString(fake.inputs[0].ContentEncoding))
	}
}

func TestSink_PutError(t *testing.T) {
	boom := errors.New("access denied")
	s := newSink(&fakeS3{err: boom}, "b", noopcodec.New(), "")

	if err := s.Put(context.Background(), "r.json", []byte("{}")); !errors.Is(err, boom) {
		t.Errorf("Put() error = %v, want %v", err, boom)
	}
}

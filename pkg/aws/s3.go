package aws

import (
	"context"
	"fmt"
	"io"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FileArchiver stores uploaded source files.
type FileArchiver interface {
	Archive(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// S3Archiver uploads files to a bucket under a fixed prefix.
type S3Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Client creates an S3 client using path-style addressing, which
// LocalStack requires.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

func NewS3Archiver(client *s3.Client, bucket, prefix string) *S3Archiver {
	return &S3Archiver{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// Archive streams body to s3://bucket/prefix+key and returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	fullKey := strings.TrimLeft(a.prefix+key, "/")
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(a.bucket),
		Key:    sdkaws.String(fullKey),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}
	if _, err := a.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}
	return fullKey, nil
}

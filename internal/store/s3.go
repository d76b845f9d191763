package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// BlobStore uploads capture artifacts (the original upload and exported
// failing-call pcaps) to S3. All uploads are best-effort from the caller's
// perspective; a nil BlobStore is valid and uploads nothing.
type BlobStore struct {
	bucket string
	prefix string
	region string
	log    logrus.FieldLogger
}

// NewBlobStore parses an s3://bucket/prefix URI. An empty URI disables blob
// storage and returns nil without error.
func NewBlobStore(s3URI, region string) (*BlobStore, error) {
	if s3URI == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s3URI, "s3://") {
		return nil, fmt.Errorf("invalid S3 URI prefix: %s", s3URI)
	}

	uriWithoutScheme := strings.TrimPrefix(s3URI, "s3://")
	parts := strings.SplitN(uriWithoutScheme, "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("invalid S3 URI format: %s", s3URI)
	}

	b := &BlobStore{
		bucket: parts[0],
		region: region,
		log:    logrus.WithField("component", "blobstore"),
	}
	if len(parts) > 1 && parts[1] != "" {
		b.prefix = strings.TrimSuffix(parts[1], "/") + "/"
	}
	return b, nil
}

// Location returns the s3:// URI an object key maps to.
func (b *BlobStore) Location(key string) string {
	return fmt.Sprintf("s3://%s/%s%s", b.bucket, b.prefix, key)
}

// Upload streams body to the configured bucket under prefix+key and returns
// the full S3 location.
func (b *BlobStore) Upload(ctx context.Context, key string, body io.Reader) (string, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(b.region))
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	objectKey := b.prefix + key
	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &b.bucket,
		Key:    &objectKey,
		Body:   body,
	}); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return b.Location(key), nil
}

// UploadFile uploads a local file under prefix+key and returns the S3
// location.
func (b *BlobStore) UploadFile(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer f.Close()
	return b.Upload(ctx, key, f)
}

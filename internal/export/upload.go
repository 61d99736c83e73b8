package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
)

// Uploader stores a finished workbook and returns its URI.
type Uploader interface {
	Upload(ctx context.Context, objectName string, r io.Reader) (string, error)
}

// GCSUploader writes exports to a Cloud Storage bucket. It assumes
// Application Default Credentials are configured.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader creates a storage client for bucket.
func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSUploader: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSUploader: create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, objectName string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = ContentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy export to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return GCSURI(u.bucket, objectName), nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// ObjectName is where a user's export made at t is stored.
func ObjectName(userID string, t time.Time) string {
	return path.Join("exports", userID, Filename(t))
}

// GCSURI builds gs://bucket/object.
func GCSURI(bucket, objectName string) string {
	return "gs://" + bucket + "/" + objectName
}

var _ Uploader = (*GCSUploader)(nil)

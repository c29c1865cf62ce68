// Package storage mirrors downloaded exhibit documents to a Google Cloud
// Storage bucket. The relay is optional: when no bucket is configured the
// pipeline keeps documents on local disk only.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/absdata/absidx/internal/config"
)

// ErrCheckFailed distinguishes an unreachable relay from a missing object.
// Callers count it against the download failure budget instead of
// re-uploading blindly.
var ErrCheckFailed = errors.New("object existence check failed")

// Relay copies exhibit documents into a GCS bucket keyed by their local
// relative path.
type Relay struct {
	client *gcs.Client
	bucket string
}

// NewRelay creates a Relay for the configured bucket. Returns (nil, nil)
// when no bucket is configured. Explicit JSON credentials take precedence;
// otherwise application default credentials apply.
func NewRelay(ctx context.Context, cfg *config.AppConfig) (*Relay, error) {
	bucket := strings.TrimSpace(cfg.GCSBucket())
	if bucket == "" {
		return nil, nil
	}

	var opts []option.ClientOption
	if credJSON := strings.TrimSpace(cfg.GCSCredentialsJSON()); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Relay{client: client, bucket: bucket}, nil
}

// Bucket returns the configured bucket name.
func (r *Relay) Bucket() string {
	return r.bucket
}

// Exists reports whether an object is already in the bucket. A probe that
// fails for any reason other than the object being absent returns
// ErrCheckFailed.
func (r *Relay) Exists(ctx context.Context, objectName string) (bool, error) {
	_, err := r.client.Bucket(r.bucket).Object(objectName).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCheckFailed, objectName, err)
	}
	return true, nil
}

// Upload streams src into the bucket under objectName.
func (r *Relay) Upload(ctx context.Context, objectName string, src io.Reader) error {
	wc := r.client.Bucket(r.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/xml"
	if _, err := io.Copy(wc, src); err != nil {
		wc.Close()
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finish upload of %s: %w", objectName, err)
	}
	return nil
}

// Fetch streams an object's content into w.
func (r *Relay) Fetch(ctx context.Context, objectName string, w io.Writer) error {
	rc, err := r.client.Bucket(r.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open %s: %w", objectName, err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("read %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Relay) Close() error {
	return r.client.Close()
}

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"google.golang.org/api/option"
)

// GCSStore keeps the snapshot in a Cloud Storage object.
// It assumes Application Default Credentials unless a credentials option is given.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSStore creates a store for a gs://bucket/object URI.
func NewGCSStore(ctx context.Context, uri string, opts ...option.ClientOption) (*GCSStore, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: creating storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, object: object}, nil
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object path.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Load implements Store.
func (s *GCSStore) Load(ctx context.Context) (ledger.State, error) {
	rc, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ledger.State{}, nil
	}
	if err != nil {
		return ledger.State{}, fmt.Errorf("GCSStore.Load: reading object %s/%s: %w", s.bucket, s.object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return ledger.State{}, fmt.Errorf("GCSStore.Load: reading bytes: %w", err)
	}
	return decode(data)
}

// Save implements Store.
func (s *GCSStore) Save(ctx context.Context, state ledger.State) error {
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("GCSStore.Save: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSStore.Save: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSStore.Save: finalize upload: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

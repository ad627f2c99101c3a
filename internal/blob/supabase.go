package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
	// PublicURL overrides the host used in returned object URLs, e.g. a CDN.
	PublicURL string
}

// SupabaseStore uploads into one public bucket with upsert enabled, so
// re-uploading the same plate or nim replaces the object.
type SupabaseStore struct {
	client    *storage.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

func NewSupabaseStore(cfg SupabaseConfig, logger *slog.Logger) (*SupabaseStore, error) {
	if cfg.URL == "" || cfg.Key == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("supabase storage requires url, key and bucket")
	}
	base := strings.TrimRight(cfg.URL, "/")
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = base
	}
	return &SupabaseStore{
		client:    storage.NewClient(base+"/storage/v1", cfg.Key, nil),
		bucket:    cfg.Bucket,
		publicURL: public,
		logger:    logger,
	}, nil
}

// Put ignores ctx beyond an early cancellation check; the storage client has
// no context support.
func (s *SupabaseStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), options); err != nil {
		s.logger.Error("supabase upload failed", "bucket", s.bucket, "path", objectPath, "error", err)
		return "", fmt.Errorf("upload %s/%s: %w", s.bucket, objectPath, err)
	}

	s.logger.Debug("supabase upload complete", "bucket", s.bucket, "path", objectPath, "bytes", len(data))
	return s.PublicURL(objectPath), nil
}

func (s *SupabaseStore) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.publicURL, s.bucket, objectPath)
}

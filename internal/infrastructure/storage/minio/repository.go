package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Store reads and writes document objects in the configured bucket.  It
// satisfies the object store port of the document application service.
type Store struct {
	client *Client
	logger logging.Logger
}

// NewStore returns a Store backed by an established Client.
func NewStore(client *Client, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		client: client,
		logger: logger.Named("minio_store"),
	}
}

// Put stores one object under key.  An empty content type is sniffed from
// the first bytes of the payload.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.NewValidation("object key is required")
	}
	if contentType == "" {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}

	info, err := s.client.api.PutObject(ctx, s.client.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeDocumentStoreFailed, "failed to store object %s", key)
	}

	s.logger.Debug("stored object",
		logging.String("key", info.Key),
		logging.Int64("size", int64(len(data))),
		logging.String("content_type", contentType))
	return nil
}

// Get reads one object fully into memory.  Missing objects map to a
// not-found error so callers can distinguish them from transport failures.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.NewValidation("object key is required")
	}

	obj, err := s.client.api.GetObject(ctx, s.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeDocumentStoreFailed, "failed to open object %s", key)
	}
	defer obj.Close()

	// GetObject defers the request; missing keys surface on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.Newf(errors.ErrCodeDocumentNotFound, "object %s not found", key)
		}
		return nil, errors.Wrapf(err, errors.ErrCodeDocumentStoreFailed, "failed to read object %s", key)
	}
	return data, nil
}

// Remove deletes one object.  Removing a key that no longer exists is not
// an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return errors.NewValidation("object key is required")
	}
	if err := s.client.api.RemoveObject(ctx, s.client.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, errors.ErrCodeDocumentStoreFailed, "failed to remove object %s", key)
	}
	s.logger.Debug("removed object", logging.String("key", key))
	return nil
}

// PresignedGetURL returns a time-limited URL for downloading the object
// directly from the store.  A non-positive expiry falls back to the
// configured default.
func (s *Store) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", errors.NewValidation("object key is required")
	}
	if expiry <= 0 {
		expiry = s.client.presignExpiry
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.client.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeDocumentStoreFailed, "failed to presign url for %s", key)
	}
	return u.String(), nil
}

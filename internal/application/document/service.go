// Package document provides the application-level service for uploading,
// extracting and managing contract documents.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/internal/intelligence/doc_extractor"
	"github.com/turtacn/ClauseLens/pkg/errors"
	"github.com/turtacn/ClauseLens/pkg/types/common"
)

// ObjectStore persists original uploads.  The minio repository in
// internal/infrastructure/storage/minio satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// UploadInput carries one file upload.
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Validate checks the upload for the obvious defects.
func (in *UploadInput) Validate() error {
	if strings.TrimSpace(in.FileName) == "" {
		return errors.NewValidation("file name is required")
	}
	if len(in.Data) == 0 {
		return errors.NewValidation("document content is empty")
	}
	return nil
}

// ListInput carries filtering and pagination parameters for listing
// documents.
type ListInput struct {
	Page     int
	PageSize int
	Status   string
	Query    string
}

// ListResult is a page of documents.
type ListResult struct {
	Documents  []*contract.Document `json:"documents"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// Config carries the tunables of the document service.
type Config struct {
	// MaxUploadBytes rejects uploads above this size before anything is
	// stored.  Zero disables the check.
	MaxUploadBytes int64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{MaxUploadBytes: 20 << 20}
}

// Service is the application-level contract for document management.
type Service interface {
	// Upload stores the original file, extracts its text and persists the
	// document.  When extraction fails the document is persisted with
	// status failed and returned together with the error, so callers can
	// still reach its ID and failure reason.
	Upload(ctx context.Context, input *UploadInput) (*contract.Document, error)

	// Get returns a single document by ID.
	Get(ctx context.Context, id string) (*contract.Document, error)

	// Download returns a document together with its original file bytes.
	Download(ctx context.Context, id string) (*contract.Document, []byte, error)

	// List returns a filtered page of documents.
	List(ctx context.Context, input *ListInput) (*ListResult, error)

	// Delete removes the stored object and the document row.
	Delete(ctx context.Context, id string) error

	// Stats returns document counts per status.
	Stats(ctx context.Context) (map[contract.DocumentStatus]int64, error)
}

// serviceImpl is the concrete Service implementation.
type serviceImpl struct {
	docs      contract.DocumentRepository
	store     ObjectStore
	extractor doc_extractor.Extractor
	cfg       Config
	logger    logging.Logger
}

// NewService constructs the document service.  A nil extractor falls back to
// the plain-text extractor.
func NewService(
	docs contract.DocumentRepository,
	store ObjectStore,
	extractor doc_extractor.Extractor,
	cfg Config,
	logger logging.Logger,
) Service {
	if extractor == nil {
		extractor = doc_extractor.NewPlainTextExtractor()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		docs:      docs,
		store:     store,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger.Named("document_service"),
	}
}

func (s *serviceImpl) Upload(ctx context.Context, input *UploadInput) (*contract.Document, error) {
	if input == nil {
		return nil, errors.NewValidation("upload input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(input.Data)) > s.cfg.MaxUploadBytes {
		return nil, errors.New(errors.ErrCodeDocumentTooLarge,
			"upload exceeds the size limit").
			WithDetail(input.FileName)
	}

	doc, err := contract.NewDocument(input.FileName, input.ContentType, int64(len(input.Data)))
	if err != nil {
		return nil, err
	}
	doc.StorageKey = storageKey(doc.ID, input.FileName)

	if err := s.store.Put(ctx, doc.StorageKey, input.Data, input.ContentType); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentStoreFailed, "failed to store document object")
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if rerr := s.store.Remove(ctx, doc.StorageKey); rerr != nil {
			s.logger.Warn("failed to remove orphaned object",
				logging.String("storage_key", doc.StorageKey), logging.Err(rerr))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create document")
	}

	if err := s.extract(ctx, doc, input.Data); err != nil {
		return doc, err
	}

	s.logger.Info("document uploaded",
		logging.String("document_id", doc.ID),
		logging.String("file_name", doc.FileName),
		logging.Int64("size_bytes", doc.SizeBytes))
	return doc, nil
}

// extract runs text extraction for a freshly stored document and records the
// outcome on the document row.
func (s *serviceImpl) extract(ctx context.Context, doc *contract.Document, data []byte) error {
	doc.MarkProcessing()
	if err := s.docs.Update(ctx, doc); err != nil {
		s.logger.Warn("failed to record processing state",
			logging.String("document_id", doc.ID), logging.Err(err))
	}

	text, err := s.extractor.Extract(ctx, data, doc.ContentType)
	if err != nil {
		doc.MarkFailed(err.Error())
		if uerr := s.docs.Update(ctx, doc); uerr != nil {
			s.logger.Error("failed to record extraction failure",
				logging.String("document_id", doc.ID), logging.Err(uerr))
		}
		s.logger.Warn("document extraction failed",
			logging.String("document_id", doc.ID),
			logging.String("content_type", doc.ContentType),
			logging.Err(err))
		return err
	}

	digest := textDigest(text)
	if existing, derr := s.docs.GetByDigest(ctx, digest); derr == nil && existing != nil && existing.ID != doc.ID {
		s.logger.Info("duplicate document content",
			logging.String("document_id", doc.ID),
			logging.String("existing_document_id", existing.ID))
	}

	doc.MarkReady(text, digest)
	if err := s.docs.Update(ctx, doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update document")
	}
	return nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*contract.Document, error) {
	if id == "" {
		return nil, errors.NewValidation("document id is required")
	}
	return s.docs.GetByID(ctx, id)
}

func (s *serviceImpl) Download(ctx context.Context, id string) (*contract.Document, []byte, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeDocumentStoreFailed, "failed to fetch document object")
	}
	return doc, data, nil
}

func (s *serviceImpl) List(ctx context.Context, input *ListInput) (*ListResult, error) {
	if input == nil {
		input = &ListInput{}
	}
	page := common.Pagination{Page: input.Page, PageSize: input.PageSize}.Normalize()

	filter := contract.DocumentFilter{Query: input.Query}
	if input.Status != "" {
		status := contract.DocumentStatus(input.Status)
		if !status.Valid() {
			return nil, errors.NewValidation("unknown document status %q", input.Status)
		}
		filter.Status = status
	}

	docs, total, err := s.docs.List(ctx, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list documents")
	}

	return &ListResult{
		Documents:  docs,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: common.TotalPages(total, page.PageSize),
	}, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, doc.StorageKey); err != nil {
		return errors.Wrap(err, errors.ErrCodeDocumentStoreFailed, "failed to remove document object")
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete document")
	}
	s.logger.Info("document deleted", logging.String("document_id", doc.ID))
	return nil
}

func (s *serviceImpl) Stats(ctx context.Context) (map[contract.DocumentStatus]int64, error) {
	counts, err := s.docs.CountByStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count documents")
	}
	return counts, nil
}

// storageKey derives the object key for an upload, keeping the original
// extension so downloads carry a sensible name.
func storageKey(id, fileName string) string {
	return "documents/" + id + strings.ToLower(path.Ext(fileName))
}

// textDigest is the hex SHA-256 of the extracted text; it keys the
// comparison result cache.
func textDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

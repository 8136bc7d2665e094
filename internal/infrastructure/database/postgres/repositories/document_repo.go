package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/ClauseLens/pkg/errors"
)

const documentColumns = `id, file_name, content_type, size_bytes, storage_key,
       status, text, text_digest, error_msg, created_at, updated_at`

// DocumentRepository is the PostgreSQL implementation of
// contract.DocumentRepository.
type DocumentRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ contract.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository constructs a ready-to-use DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool, logger logging.Logger) *DocumentRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DocumentRepository{pool: pool, logger: logger.Named("document_repo")}
}

// Create inserts a new document row.
func (r *DocumentRepository) Create(ctx context.Context, doc *contract.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		doc.ID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.StorageKey,
		doc.Status, doc.Text, doc.TextDigest, doc.ErrorMsg, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Newf(appErrors.ErrCodeDocumentAlreadyExists, "document %s already exists", doc.ID)
		}
		r.logger.Error("failed to insert document", logging.Err(err), logging.String("document_id", doc.ID))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to insert document")
	}
	return nil
}

// Update overwrites all mutable columns of an existing document.
func (r *DocumentRepository) Update(ctx context.Context, doc *contract.Document) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET file_name = $2, content_type = $3, size_bytes = $4, storage_key = $5,
		    status = $6, text = $7, text_digest = $8, error_msg = $9, updated_at = $10
		WHERE id = $1`,
		doc.ID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.StorageKey,
		doc.Status, doc.Text, doc.TextDigest, doc.ErrorMsg, doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to update document", logging.Err(err), logging.String("document_id", doc.ID))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to update document")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.Newf(appErrors.ErrCodeDocumentNotFound, "document %s not found", doc.ID)
	}
	return nil
}

// Delete removes a document row.  Dependent comparison runs are removed by
// the schema's cascade rules.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return appErrors.Newf(appErrors.ErrCodeDocumentNotFound, "document %s not found", id)
		}
		r.logger.Error("failed to delete document", logging.Err(err), logging.String("document_id", id))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to delete document")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.Newf(appErrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	return nil
}

// GetByID loads one document by primary key.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*contract.Document, error) {
	doc, err := scanDocument(r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, appErrors.Newf(appErrors.ErrCodeDocumentNotFound, "document %s not found", id)
		}
		r.logger.Error("failed to query document", logging.Err(err), logging.String("document_id", id))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query document")
	}
	return doc, nil
}

// GetByDigest returns the most recently uploaded document whose extracted
// text hashes to digest.
func (r *DocumentRepository) GetByDigest(ctx context.Context, digest string) (*contract.Document, error) {
	doc, err := scanDocument(r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE text_digest = $1
		ORDER BY created_at DESC
		LIMIT 1`, digest))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.Newf(appErrors.ErrCodeDocumentNotFound, "no document with digest %s", digest)
		}
		r.logger.Error("failed to query document by digest", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query document by digest")
	}
	return doc, nil
}

// List returns one page of documents matching filter, newest first, together
// with the unpaged total.
func (r *DocumentRepository) List(ctx context.Context, filter contract.DocumentFilter, limit, offset int) ([]*contract.Document, int64, error) {
	var (
		conditions []string
		args       []interface{}
	)
	nextArg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conditions = append(conditions, "status = "+nextArg(filter.Status))
	}
	if filter.Query != "" {
		conditions = append(conditions, "file_name ILIKE "+nextArg("%"+escapeLike(filter.Query)+"%"))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents"+where, args...).Scan(&total); err != nil {
		r.logger.Error("failed to count documents", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to count documents")
	}

	query := "SELECT " + documentColumns + " FROM documents" + where +
		" ORDER BY created_at DESC LIMIT " + nextArg(limit) + " OFFSET " + nextArg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list documents", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list documents")
	}
	defer rows.Close()

	var docs []*contract.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan document")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to read document rows")
	}
	return docs, total, nil
}

// CountByStatus returns document counts grouped by extraction status.
func (r *DocumentRepository) CountByStatus(ctx context.Context) (map[contract.DocumentStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		r.logger.Error("failed to count documents by status", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to count documents by status")
	}
	defer rows.Close()

	counts := make(map[contract.DocumentStatus]int64)
	for rows.Next() {
		var (
			status contract.DocumentStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan status count")
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to read status counts")
	}
	return counts, nil
}

func scanDocument(row pgx.Row) (*contract.Document, error) {
	var doc contract.Document
	if err := row.Scan(
		&doc.ID, &doc.FileName, &doc.ContentType, &doc.SizeBytes, &doc.StorageKey,
		&doc.Status, &doc.Text, &doc.TextDigest, &doc.ErrorMsg, &doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}

package contract

import "context"

// DocumentFilter narrows document listings.  Zero values match everything.
type DocumentFilter struct {
	Status DocumentStatus
	Query  string // substring match against file name
}

// DocumentRepository defines the persistence contract for documents.
type DocumentRepository interface {
	// Lifecycle
	Create(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error

	// Lookup
	GetByID(ctx context.Context, id string) (*Document, error)
	GetByDigest(ctx context.Context, digest string) (*Document, error)
	List(ctx context.Context, filter DocumentFilter, limit, offset int) ([]*Document, int64, error)

	// Stats
	CountByStatus(ctx context.Context) (map[DocumentStatus]int64, error)
}

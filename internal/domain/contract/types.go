package contract

import (
	"strings"
	"time"

	"github.com/turtacn/ClauseLens/pkg/errors"
	"github.com/turtacn/ClauseLens/pkg/types/common"
)

// Section is a contiguous region of a contract produced by segmentation.
// Order is the zero-based position of the section within its document.
type Section struct {
	Number  string `json:"number"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Clause is a classified Section together with its atomic obligations.
type Clause struct {
	Section     `json:"section"`
	Type        ClauseType `json:"type"`
	Obligations []string   `json:"obligations,omitempty"`
}

// DocumentStatus tracks a stored document through text extraction.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

func (s DocumentStatus) String() string { return string(s) }

// Valid reports whether s is a known status value.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusReady, DocumentStatusFailed:
		return true
	}
	return false
}

// Document is an uploaded contract file and its extraction state.  Text is
// the extracted plain text, populated once Status reaches ready; TextDigest
// is the hex SHA-256 of Text and keys the comparison result cache.
type Document struct {
	ID          string         `json:"id"`
	FileName    string         `json:"file_name"`
	ContentType string         `json:"content_type"`
	SizeBytes   int64          `json:"size_bytes"`
	StorageKey  string         `json:"storage_key"`
	Status      DocumentStatus `json:"status"`
	Text        string         `json:"-"`
	TextDigest  string         `json:"text_digest,omitempty"`
	ErrorMsg    string         `json:"error_msg,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewDocument creates a pending document record for an uploaded file.
func NewDocument(fileName, contentType string, sizeBytes int64) (*Document, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, errors.NewValidation("file name is required")
	}
	if sizeBytes <= 0 {
		return nil, errors.NewValidation("document size must be positive, got %d", sizeBytes)
	}
	now := time.Now().UTC()
	return &Document{
		ID:          common.NewID(),
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		Status:      DocumentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkProcessing transitions the document into extraction.
func (d *Document) MarkProcessing() {
	d.Status = DocumentStatusProcessing
	d.UpdatedAt = time.Now().UTC()
}

// MarkReady records the extracted text and its digest.
func (d *Document) MarkReady(text, digest string) {
	d.Status = DocumentStatusReady
	d.Text = text
	d.TextDigest = digest
	d.ErrorMsg = ""
	d.UpdatedAt = time.Now().UTC()
}

// MarkFailed records an extraction failure.
func (d *Document) MarkFailed(reason string) {
	d.Status = DocumentStatusFailed
	d.ErrorMsg = reason
	d.UpdatedAt = time.Now().UTC()
}

// Extracted reports whether the document has usable text.
func (d *Document) Extracted() bool {
	return d.Status == DocumentStatusReady && d.Text != ""
}

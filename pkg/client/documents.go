package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"
)

// Document is an uploaded contract document.  Status is one of "pending",
// "processing", "ready" or "failed"; ErrorMsg is set when extraction failed.
type Document struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	Status      string    `json:"status"`
	TextDigest  string    `json:"text_digest,omitempty"`
	ErrorMsg    string    `json:"error_msg,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DocumentList is one page of documents.
type DocumentList struct {
	Documents  []Document `json:"documents"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// DocumentListQuery filters and paginates a document listing.  Zero values
// fall back to server defaults.
type DocumentListQuery struct {
	Page     int
	PageSize int
	Status   string
	Query    string
}

// UploadRequest carries one file to upload.
type UploadRequest struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DownloadResult is the original file content of a stored document.
type DownloadResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DocumentsClient provides access to the document endpoints.
type DocumentsClient struct {
	client *Client
}

// Upload stores a contract document and triggers text extraction.
// POST /api/v1/documents
func (dc *DocumentsClient) Upload(ctx context.Context, req *UploadRequest) (*Document, error) {
	if req == nil || req.FileName == "" {
		return nil, invalidArg("file name is required")
	}
	if len(req.Data) == 0 {
		return nil, invalidArg("file data is required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.FileName))
	if req.ContentType != "" {
		hdr.Set("Content-Type", req.ContentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("clauselens: failed to build multipart body: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, fmt.Errorf("clauselens: failed to build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("clauselens: failed to build multipart body: %w", err)
	}

	respBody, _, err := dc.client.doRequest(ctx, http.MethodPost, "/api/v1/documents", mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("clauselens: failed to decode response: %w", err)
	}
	return &doc, nil
}

// Get retrieves a document's metadata.
// GET /api/v1/documents/{documentID}
func (dc *DocumentsClient) Get(ctx context.Context, documentID string) (*Document, error) {
	if documentID == "" {
		return nil, invalidArg("documentID is required")
	}
	var doc Document
	if err := dc.client.get(ctx, "/api/v1/documents/"+url.PathEscape(documentID), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List retrieves one page of documents.  A nil query uses server defaults.
// GET /api/v1/documents?page=&page_size=&status=&q=
func (dc *DocumentsClient) List(ctx context.Context, q *DocumentListQuery) (*DocumentList, error) {
	path := "/api/v1/documents"
	if q != nil {
		params := url.Values{}
		if q.Page > 0 {
			params.Set("page", strconv.Itoa(q.Page))
		}
		if q.PageSize > 0 {
			params.Set("page_size", strconv.Itoa(q.PageSize))
		}
		if q.Status != "" {
			params.Set("status", q.Status)
		}
		if q.Query != "" {
			params.Set("q", q.Query)
		}
		if encoded := params.Encode(); encoded != "" {
			path += "?" + encoded
		}
	}

	var list DocumentList
	if err := dc.client.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Delete removes a document and its stored file.
// DELETE /api/v1/documents/{documentID}
func (dc *DocumentsClient) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return invalidArg("documentID is required")
	}
	return dc.client.delete(ctx, "/api/v1/documents/"+url.PathEscape(documentID))
}

// Download retrieves the original uploaded file.
// GET /api/v1/documents/{documentID}/download
func (dc *DocumentsClient) Download(ctx context.Context, documentID string) (*DownloadResult, error) {
	if documentID == "" {
		return nil, invalidArg("documentID is required")
	}
	respBody, header, err := dc.client.doRequest(ctx, http.MethodGet,
		"/api/v1/documents/"+url.PathEscape(documentID)+"/download", "", nil)
	if err != nil {
		return nil, err
	}

	result := &DownloadResult{
		ContentType: header.Get("Content-Type"),
		Data:        respBody,
	}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		result.FileName = params["filename"]
	}
	return result, nil
}

// Stats reports document counts grouped by status.
// GET /api/v1/documents/stats
func (dc *DocumentsClient) Stats(ctx context.Context) (map[string]int64, error) {
	var stats map[string]int64
	if err := dc.client.get(ctx, "/api/v1/documents/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

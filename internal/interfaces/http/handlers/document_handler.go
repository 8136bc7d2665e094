package handlers

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ClauseLens/internal/application/document"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// DocumentHandler handles HTTP requests for contract documents.
type DocumentHandler struct {
	documents document.Service
	maxUpload int64
	logger    logging.Logger
}

// NewDocumentHandler creates a DocumentHandler.  maxUploadBytes bounds the
// request body of uploads; zero disables the transport-level check.
func NewDocumentHandler(documents document.Service, maxUploadBytes int64, logger logging.Logger) *DocumentHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DocumentHandler{
		documents: documents,
		maxUpload: maxUploadBytes,
		logger:    logger.Named("document_handler"),
	}
}

// Upload handles POST /api/v1/documents.  The contract file arrives as the
// multipart form field "file".  When extraction fails the document is still
// created with status failed, so the response is 201 either way and callers
// read the outcome from the status field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		// Slack on top of the document limit covers multipart framing;
		// the service enforces the exact size.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			writeAppError(w, errors.New(errors.ErrCodeDocumentTooLarge, "upload exceeds the size limit"))
			return
		}
		writeValidationError(w, `multipart form field "file" is required`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			writeAppError(w, errors.New(errors.ErrCodeDocumentTooLarge, "upload exceeds the size limit"))
			return
		}
		writeValidationError(w, "failed to read uploaded file")
		return
	}

	input := &document.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	doc, err := h.documents.Upload(r.Context(), input)
	if err != nil {
		if doc == nil {
			h.logger.Error("document upload failed", logging.Err(err),
				logging.String("file_name", header.Filename))
			writeAppError(w, err)
			return
		}
		// Stored but not extractable; the document carries the reason.
		h.logger.Warn("document stored without extractable text",
			logging.String("document_id", doc.ID), logging.Err(err))
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Get handles GET /api/v1/documents/{documentID}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")

	doc, err := h.documents.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// List handles GET /api/v1/documents with page, page_size, status and q
// query parameters.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	input := &document.ListInput{
		Page:     page,
		PageSize: pageSize,
		Status:   r.URL.Query().Get("status"),
		Query:    r.URL.Query().Get("q"),
	}

	result, err := h.documents.List(r.Context(), input)
	if err != nil {
		h.logger.Error("failed to list documents", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/v1/documents/{documentID}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")

	if err := h.documents.Delete(r.Context(), id); err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Error("failed to delete document", logging.Err(err),
				logging.String("document_id", id))
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Download handles GET /api/v1/documents/{documentID}/download and streams
// the original upload back.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")

	doc, data, err := h.documents.Download(r.Context(), id)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Error("failed to download document", logging.Err(err),
				logging.String("document_id", id))
		}
		writeAppError(w, err)
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Stats handles GET /api/v1/documents/stats and returns document counts per
// status.
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.documents.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to load document stats", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// isBodyTooLarge reports whether err came from the MaxBytesReader guard.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return stderrors.As(err, &maxErr)
}

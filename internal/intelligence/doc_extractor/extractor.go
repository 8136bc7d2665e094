package doc_extractor

import (
	"bytes"
	"context"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Extractor turns an uploaded document into plain text for segmentation.
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

// PlainTextExtractor handles documents that already are text: it validates
// encoding, strips a UTF-8 BOM and normalizes line endings.  Binary payloads
// are rejected rather than mangled.
type PlainTextExtractor struct{}

// NewPlainTextExtractor returns a PlainTextExtractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract returns the normalized text content of data.
func (e *PlainTextExtractor) Extract(_ context.Context, data []byte, contentType string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0x00) >= 0 || !utf8.Valid(data) {
		return "", errors.New(errors.ErrCodeDocumentFormatUnsupported,
			"document is not valid text").WithDetail(contentType)
	}

	text := string(data)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		return "", errors.ErrNoExtractableText
	}
	return text, nil
}

// textContentTypes lists non-text/* media types still served by the plain
// extractor.
var textContentTypes = map[string]struct{}{
	"application/json":     {},
	"application/xml":      {},
	"application/x-ndjson": {},
}

// IsTextContentType reports whether a media type can skip the remote
// extraction service.  An empty type is treated as text and left to the
// plain extractor's own validation.
func IsTextContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if strings.HasPrefix(mt, "text/") {
		return true
	}
	_, ok := textContentTypes[mt]
	return ok
}

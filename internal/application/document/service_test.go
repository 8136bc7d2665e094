package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

type mockDocumentRepository struct {
	mock.Mock
}

func (m *mockDocumentRepository) Create(ctx context.Context, doc *contract.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockDocumentRepository) Update(ctx context.Context, doc *contract.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDocumentRepository) GetByID(ctx context.Context, id string) (*contract.Document, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*contract.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentRepository) GetByDigest(ctx context.Context, digest string) (*contract.Document, error) {
	args := m.Called(ctx, digest)
	if doc, ok := args.Get(0).(*contract.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentRepository) List(ctx context.Context, filter contract.DocumentFilter, limit, offset int) ([]*contract.Document, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	docs, _ := args.Get(0).([]*contract.Document)
	return docs, args.Get(1).(int64), args.Error(2)
}

func (m *mockDocumentRepository) CountByStatus(ctx context.Context) (map[contract.DocumentStatus]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[contract.DocumentStatus]int64)
	return counts, args.Error(1)
}

// stubStore is an in-memory ObjectStore with injectable failures.
type stubStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	removed []string
	puts    int
	putErr  error
	getErr  error
	rmErr   error
}

func newStubStore() *stubStore {
	return &stubStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *stubStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return nil
}

func (s *stubStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, stderrors.New("object not found")
	}
	return data, nil
}

func (s *stubStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rmErr != nil {
		return s.rmErr
	}
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

// stubExtractor runs a scripted extraction.
type stubExtractor struct {
	fn func(data []byte, contentType string) (string, error)
}

func (s *stubExtractor) Extract(_ context.Context, data []byte, contentType string) (string, error) {
	if s.fn != nil {
		return s.fn(data, contentType)
	}
	return string(data), nil
}

func hexDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func TestServiceUpload(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()

	raw := "1. Payment Terms\r\nPayment due within 30 days of invoice date."
	normalized := "1. Payment Terms\nPayment due within 30 days of invoice date."

	docs.On("Create", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil)
	var updates []contract.DocumentStatus
	docs.On("Update", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil).
		Run(func(args mock.Arguments) {
			updates = append(updates, args.Get(1).(*contract.Document).Status)
		})
	docs.On("GetByDigest", mock.Anything, hexDigest(normalized)).
		Return(nil, errors.NewNotFound("no document with digest"))

	svc := NewService(docs, store, nil, Config{}, nil)

	doc, err := svc.Upload(context.Background(), &UploadInput{
		FileName:    "client.txt",
		ContentType: "text/plain",
		Data:        []byte(raw),
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, contract.DocumentStatusReady, doc.Status)
	assert.Equal(t, normalized, doc.Text)
	assert.Equal(t, hexDigest(normalized), doc.TextDigest)
	assert.Equal(t, "documents/"+doc.ID+".txt", doc.StorageKey)
	assert.Equal(t, []contract.DocumentStatus{
		contract.DocumentStatusProcessing,
		contract.DocumentStatusReady,
	}, updates)

	assert.Equal(t, []byte(raw), store.objects[doc.StorageKey], "the original bytes are stored, not the normalized text")
	assert.Equal(t, "text/plain", store.types[doc.StorageKey])

	docs.AssertExpectations(t)
}

func TestServiceUploadValidation(t *testing.T) {
	store := newStubStore()
	svc := NewService(new(mockDocumentRepository), store, nil, Config{}, nil)

	tests := []struct {
		name  string
		input *UploadInput
	}{
		{"nil input", nil},
		{"blank file name", &UploadInput{FileName: "   ", Data: []byte("text")}},
		{"empty content", &UploadInput{FileName: "client.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
	assert.Zero(t, store.puts, "nothing is stored for invalid uploads")
}

func TestServiceUploadSizeLimit(t *testing.T) {
	store := newStubStore()
	svc := NewService(new(mockDocumentRepository), store, nil, Config{MaxUploadBytes: 4}, nil)

	_, err := svc.Upload(context.Background(), &UploadInput{
		FileName: "client.txt",
		Data:     []byte("12345"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentTooLarge))
	assert.Zero(t, store.puts)
}

func TestServiceUploadNoExtractableText(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()

	docs.On("Create", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil)
	docs.On("Update", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil)

	svc := NewService(docs, store, nil, Config{}, nil)

	doc, err := svc.Upload(context.Background(), &UploadInput{
		FileName:    "blank.txt",
		ContentType: "text/plain",
		Data:        []byte("   \n\t  \n"),
	})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNoExtractableText))
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentEmpty))

	require.NotNil(t, doc, "the failed document is still returned")
	assert.Equal(t, contract.DocumentStatusFailed, doc.Status)
	assert.NotEmpty(t, doc.ErrorMsg)
	assert.Contains(t, store.objects, doc.StorageKey, "the original stays stored for inspection")
}

func TestServiceUploadExtractorFailure(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()
	extractor := &stubExtractor{fn: func([]byte, string) (string, error) {
		return "", errors.New(errors.ErrCodeDocumentExtractFailed, "extraction service returned status 500")
	}}

	docs.On("Create", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil)
	docs.On("Update", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil)

	svc := NewService(docs, store, extractor, Config{}, nil)

	doc, err := svc.Upload(context.Background(), &UploadInput{
		FileName:    "scan.pdf",
		ContentType: "application/pdf",
		Data:        []byte{0x25, 0x50, 0x44, 0x46},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentExtractFailed))
	require.NotNil(t, doc)
	assert.Equal(t, contract.DocumentStatusFailed, doc.Status)
}

func TestServiceUploadStoreFailure(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()
	store.putErr = stderrors.New("object store unreachable")

	svc := NewService(docs, store, nil, Config{}, nil)

	_, err := svc.Upload(context.Background(), &UploadInput{
		FileName: "client.txt",
		Data:     []byte("1. Payment Terms\nPayment due within 30 days."),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentStoreFailed))
	docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestServiceUploadCreateFailureCleansUpObject(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()

	docs.On("Create", mock.Anything, mock.AnythingOfType("*contract.Document")).
		Return(stderrors.New("connection refused"))

	svc := NewService(docs, store, nil, Config{}, nil)

	_, err := svc.Upload(context.Background(), &UploadInput{
		FileName: "client.txt",
		Data:     []byte("1. Payment Terms\nPayment due within 30 days."),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	require.Len(t, store.removed, 1, "the stored object is removed when the row cannot be created")
	assert.Empty(t, store.objects)
}

func TestServiceUploadDuplicateContentStillStored(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()

	text := "1. Payment Terms\nPayment due within 30 days of invoice date."
	existing := &contract.Document{ID: "doc-existing", Status: contract.DocumentStatusReady}

	docs.On("Create", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil)
	docs.On("Update", mock.Anything, mock.AnythingOfType("*contract.Document")).Return(nil)
	docs.On("GetByDigest", mock.Anything, hexDigest(text)).Return(existing, nil)

	svc := NewService(docs, store, nil, Config{}, nil)

	doc, err := svc.Upload(context.Background(), &UploadInput{
		FileName: "copy.txt",
		Data:     []byte(text),
	})
	require.NoError(t, err, "duplicate content is allowed; the pair cache makes re-comparison cheap")
	assert.Equal(t, contract.DocumentStatusReady, doc.Status)
	assert.NotEqual(t, existing.ID, doc.ID)
}

func TestServiceDownload(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()
	store.objects["documents/doc-1.txt"] = []byte("original bytes")

	doc := &contract.Document{ID: "doc-1", StorageKey: "documents/doc-1.txt", Status: contract.DocumentStatusReady}
	docs.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)

	svc := NewService(docs, store, nil, Config{}, nil)

	got, data, err := svc.Download(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.Equal(t, []byte("original bytes"), data)
}

func TestServiceDownloadStoreFailure(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()
	store.getErr = stderrors.New("object store unreachable")

	docs.On("GetByID", mock.Anything, "doc-1").
		Return(&contract.Document{ID: "doc-1", StorageKey: "documents/doc-1.txt"}, nil)

	svc := NewService(docs, store, nil, Config{}, nil)

	_, _, err := svc.Download(context.Background(), "doc-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentStoreFailed))
}

func TestServiceGetValidatesID(t *testing.T) {
	svc := NewService(new(mockDocumentRepository), newStubStore(), nil, Config{}, nil)

	_, err := svc.Get(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestServiceListClampsAndFilters(t *testing.T) {
	docs := new(mockDocumentRepository)
	page := []*contract.Document{
		{ID: "doc-1", Status: contract.DocumentStatusReady},
		{ID: "doc-2", Status: contract.DocumentStatusReady},
	}
	docs.On("List", mock.Anything,
		contract.DocumentFilter{Status: contract.DocumentStatusReady, Query: "nda"}, 20, 0).
		Return(page, int64(41), nil)

	svc := NewService(docs, newStubStore(), nil, Config{}, nil)

	result, err := svc.List(context.Background(), &ListInput{Status: "ready", Query: "nda"})
	require.NoError(t, err)
	assert.Equal(t, page, result.Documents)
	assert.Equal(t, int64(41), result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.PageSize)
	assert.Equal(t, 3, result.TotalPages)

	_, err = svc.List(context.Background(), &ListInput{Status: "bogus"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestServiceDelete(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()
	store.objects["documents/doc-1.txt"] = []byte("original")

	docs.On("GetByID", mock.Anything, "doc-1").
		Return(&contract.Document{ID: "doc-1", StorageKey: "documents/doc-1.txt"}, nil)
	docs.On("Delete", mock.Anything, "doc-1").Return(nil)

	svc := NewService(docs, store, nil, Config{}, nil)

	require.NoError(t, svc.Delete(context.Background(), "doc-1"))
	assert.Equal(t, []string{"documents/doc-1.txt"}, store.removed)
	assert.Empty(t, store.objects)
	docs.AssertExpectations(t)
}

func TestServiceDeleteObjectFailureKeepsRow(t *testing.T) {
	docs := new(mockDocumentRepository)
	store := newStubStore()
	store.rmErr = stderrors.New("object store unreachable")

	docs.On("GetByID", mock.Anything, "doc-1").
		Return(&contract.Document{ID: "doc-1", StorageKey: "documents/doc-1.txt"}, nil)

	svc := NewService(docs, store, nil, Config{}, nil)

	err := svc.Delete(context.Background(), "doc-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentStoreFailed))
	docs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestServiceStats(t *testing.T) {
	docs := new(mockDocumentRepository)
	counts := map[contract.DocumentStatus]int64{
		contract.DocumentStatusReady:  12,
		contract.DocumentStatusFailed: 2,
	}
	docs.On("CountByStatus", mock.Anything).Return(counts, nil)

	svc := NewService(docs, newStubStore(), nil, Config{}, nil)

	got, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counts, got)
}

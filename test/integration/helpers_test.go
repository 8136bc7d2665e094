//go:build integration

// Package integration exercises the application services against real
// backing stores: PostgreSQL in a disposable container and an in-process
// Redis.  Run with: go test -tags integration ./test/integration/...
package integration

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	appComparison "github.com/turtacn/ClauseLens/internal/application/comparison"
	appDocument "github.com/turtacn/ClauseLens/internal/application/document"
	"github.com/turtacn/ClauseLens/internal/config"
	domainComparison "github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/redis"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
	"github.com/turtacn/ClauseLens/internal/testutil"
)

const migrationsPath = "file://../../migrations"

const clientContract = `1. Payment Terms
The Client shall pay all undisputed invoices within thirty (30) days of receipt of a correct invoice.

2. Confidentiality
Each party shall keep the other party's Confidential Information secret and use it solely for the purposes of this Agreement.

3. Limitation of Liability
Neither party's aggregate liability under this Agreement shall exceed the fees paid in the twelve (12) months preceding the claim.
`

const vendorContract = `1. Payment Terms
The Client shall pay all undisputed invoices within thirty (30) days of receipt of a correct invoice.

2. Confidentiality
The Vendor will protect Confidential Information using no less than reasonable care and disclose it only to employees with a need to know.
`

// env bundles the services under test with their real backing stores.
type env struct {
	documents   appDocument.Service
	comparisons appComparison.Service
	store       *memoryStore
	metrics     *recordingMetrics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	db, err := postgres.Connect(ctx, testutil.StartPostgres(t), nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(migrationsPath))

	mr := miniredis.RunT(t)
	redisCfg := config.RedisConfig{Addr: mr.Addr()}
	redisClient, err := redis.NewClient(redisCfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { redisClient.Close() })

	store := newMemoryStore()
	metrics := newRecordingMetrics()

	docRepo := repositories.NewDocumentRepository(db.Pool(), nil)
	runRepo := repositories.NewRunRepository(db.Pool(), nil)

	engine := appComparison.NewOrchestrator(counsel_gpt.NewHeuristicAnalyzer(), 0, metrics, nil)

	return &env{
		documents: appDocument.NewService(docRepo, store, nil, appDocument.Config{}, nil),
		comparisons: appComparison.NewService(
			docRepo,
			runRepo,
			engine,
			redis.NewCache(redisClient, redisCfg, logging.NewNopLogger()),
			nil,
			nil,
			metrics,
			appComparison.Config{CacheTTL: time.Hour},
			nil,
		),
		store:   store,
		metrics: metrics,
	}
}

func uploadDocument(t *testing.T, e *env, name, content string) *contract.Document {
	t.Helper()

	doc, err := e.documents.Upload(context.Background(), &appDocument.UploadInput{
		FileName:    name,
		ContentType: "text/plain",
		Data:        []byte(content),
	})
	require.NoError(t, err)
	require.Equal(t, contract.DocumentStatusReady, doc.Status)
	return doc
}

// memoryStore is an in-memory ObjectStore standing in for MinIO.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, stderrors.New("object not found")
	}
	return data, nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// recordingMetrics captures pipeline measurements for assertions.
type recordingMetrics struct {
	mu           sync.Mutex
	runs         []domainComparison.RunStatus
	cacheLookups []bool
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{}
}

func (m *recordingMetrics) ObserveRun(status domainComparison.RunStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, status)
}

func (m *recordingMetrics) AddClauses(string, int) {}

func (m *recordingMetrics) ObserveAnalysis(string) {}

func (m *recordingMetrics) ObserveCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheLookups = append(m.cacheLookups, hit)
}

func (m *recordingMetrics) CacheLookups() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.cacheLookups...)
}

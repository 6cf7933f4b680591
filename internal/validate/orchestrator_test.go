package validate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/docvalidator/internal/classify"
	"github.com/clearhaul/docvalidator/internal/extract"
	"github.com/clearhaul/docvalidator/internal/match"
	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/internal/notify"
	"github.com/clearhaul/docvalidator/internal/repository"
	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/queue"
	"github.com/clearhaul/docvalidator/pkg/storage"
)

// fakeStorage serves blobs from a map; missing keys fail the fetch.
type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (s *fakeStorage) put(key, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = []byte(content)
}

func (s *fakeStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = content
	return key, nil
}

func (s *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *fakeStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	return nil
}

// passthroughExtractor treats blob bytes as already-plain text, standing in
// for the format adapters.
type passthroughExtractor struct{}

func (p *passthroughExtractor) CanExtract(mimeType string) bool { return true }

func (p *passthroughExtractor) Extract(ctx context.Context, reader io.Reader) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// fakeQueue records enqueued notifications.
type fakeQueue struct {
	mu            sync.Mutex
	notifications []*queue.EntryNotification
}

func (q *fakeQueue) EnqueueEntryNotification(ctx context.Context, n *queue.EntryNotification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifications = append(q.notifications, n)
	return nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notifications)
}

type testEngine struct {
	repo    *repository.MemoryRepo
	storage *fakeStorage
	queue   *fakeQueue
	orch    *Orchestrator
	batch   *Batch
}

func testRules() *classify.Rules {
	return &classify.Rules{
		Categories: []classify.CategoryRule{
			{
				Name: "invoice",
				PositiveKeywords: map[string]float64{
					"invoice":        3.0,
					"invoice number": 2.0,
					"total":          1.0,
				},
				NegativeKeywords: []string{"packing list"},
			},
			{
				Name: "packing_list",
				PositiveKeywords: map[string]float64{
					"packing list": 3.0,
					"gross weight": 2.0,
				},
				NegativeKeywords: []string{"invoice"},
			},
		},
	}
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	log := logger.NewTestLogger()

	repo := repository.NewMemoryRepo()
	store := newFakeStorage()
	q := &fakeQueue{}

	notifier := notify.NewNotifier(repo, notify.NewMemoryGuard(), q, 10*time.Minute, log)
	orch := NewOrchestrator(
		repo,
		repo,
		store,
		extract.NewService(log, &passthroughExtractor{}),
		classify.NewClassifier(testRules(), log),
		match.NewMatcher(log),
		notifier,
		30*time.Second,
		log,
	)

	return &testEngine{
		repo:    repo,
		storage: store,
		queue:   q,
		orch:    orch,
		batch:   NewBatch(repo, orch, log),
	}
}

// rebuild wires a fresh orchestrator over the engine's repository and queue,
// swapping the storage, matcher and extraction deadline.
func (e *testEngine) rebuild(store storage.Storage, matcher FieldMatcher, extractTimeout time.Duration) *Orchestrator {
	log := logger.NewTestLogger()
	notifier := notify.NewNotifier(e.repo, notify.NewMemoryGuard(), e.queue, 10*time.Minute, log)
	return NewOrchestrator(
		e.repo,
		e.repo,
		store,
		extract.NewService(log, &passthroughExtractor{}),
		classify.NewClassifier(testRules(), log),
		matcher,
		notifier,
		extractTimeout,
		log,
	)
}

// blockingStorage parks every fetch until the caller's context expires.
type blockingStorage struct{}

func (blockingStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	return key, nil
}

func (blockingStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStorage) Delete(ctx context.Context, key string) error { return nil }

func (blockingStorage) CleanupBefore(ctx context.Context, threshold time.Time) error { return nil }

// panicMatcher stands in for a scoring bug inside the matcher.
type panicMatcher struct{}

func (panicMatcher) Match(text string, fields []models.KeyField) (map[string]models.FieldMatch, float64) {
	panic("span index out of range")
}

const submittedInvoice = `Commercial Invoice
Invoice Number: INV-2024-001
Total: 2,050.50`

const sampleInvoice = `Commercial Invoice
Invoice Number: SAMPLE-000
Total: 0.00`

func (e *testEngine) seed(doc *models.SubmittedDocument, sc *models.SampleDocumentConfig) {
	if sc != nil {
		e.repo.PutSampleConfig(sc)
	}
	e.repo.PutDocument(doc)
}

func invoiceConfig() *models.SampleDocumentConfig {
	return &models.SampleDocumentConfig{
		DocTypeID:                  "dt-invoice",
		SampleKey:                  "samples/invoice.pdf",
		ConfidenceThreshold:        60,
		ContentSimilarityThreshold: 80,
		AIValidateEnabled:          true,
		KeyFields: []models.KeyField{
			{Name: "invoice_number", Section: models.SectionHeader},
			{Name: "total", Section: models.SectionFooter},
		},
	}
}

func pendingDoc(id, entryID string) *models.SubmittedDocument {
	return &models.SubmittedDocument{
		ID:         id,
		EntryID:    entryID,
		DocTypeID:  "dt-invoice",
		StorageKey: "documents/" + id + ".pdf",
		FileName:   id + ".pdf",
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}
}

func TestRunAcceptsMatchingDocument(t *testing.T) {
	e := newTestEngine(t)
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, invoiceConfig())
	e.storage.put(doc.StorageKey, submittedInvoice)
	e.storage.put("samples/invoice.pdf", sampleInvoice)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, status)

	persisted, err := e.repo.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, persisted.Status)
	require.NotNil(t, persisted.MatchPercentage)
	assert.Equal(t, 100.0, *persisted.MatchPercentage)
	require.NotNil(t, persisted.Results)
	require.NotNil(t, persisted.Results.DocumentType)
	assert.True(t, persisted.Results.DocumentType.IsValid)
	assert.Equal(t, "invoice", persisted.Results.DocumentType.DetectedType)
	assert.NotEmpty(t, persisted.ExtractedContent)
}

func TestRunRejectsBelowContentThreshold(t *testing.T) {
	e := newTestEngine(t)
	sc := invoiceConfig()
	// Two required fields, only one present in the document.
	sc.KeyFields = []models.KeyField{
		{Name: "invoice_number", Section: models.SectionHeader},
		{Name: "gross_weight", Section: models.SectionFooter},
	}
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, sc)
	e.storage.put(doc.StorageKey, submittedInvoice)
	e.storage.put("samples/invoice.pdf", sampleInvoice)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	require.NotNil(t, persisted.MatchPercentage)
	assert.Equal(t, 50.0, *persisted.MatchPercentage)
	assert.Contains(t, persisted.Message, "below the required")
}

func TestRunNoSampleConfig(t *testing.T) {
	e := newTestEngine(t)
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, nil)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusNoSampleAvailable, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	assert.Contains(t, persisted.Message, "No sample document available")
	assert.Nil(t, persisted.Results)
}

func TestRunEmptySampleKey(t *testing.T) {
	e := newTestEngine(t)
	sc := invoiceConfig()
	sc.SampleKey = ""
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, sc)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusNoSampleAvailable, status)
}

func TestRunDisabledLeavesPendingAndWritesNothing(t *testing.T) {
	e := newTestEngine(t)
	sc := invoiceConfig()
	sc.AIValidateEnabled = false
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, sc)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	assert.Equal(t, models.StatusPending, persisted.Status)
	assert.Nil(t, persisted.Results)
	assert.Empty(t, persisted.Message)
	assert.Zero(t, e.queue.count())
}

func TestRunExtractionFailureBranches(t *testing.T) {
	tests := []struct {
		name          string
		submittedText string
		sampleText    string
		want          models.ValidationStatus
	}{
		{"both empty", "", "", models.StatusBothExtractionFailed},
		{"submitted empty", "", sampleInvoice, models.StatusSubmittedExtractionFailed},
		{"sample empty", submittedInvoice, "", models.StatusSampleExtractionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			doc := pendingDoc("doc-1", "entry-1")
			e.seed(doc, invoiceConfig())
			if tt.submittedText != "" {
				e.storage.put(doc.StorageKey, tt.submittedText)
			}
			if tt.sampleText != "" {
				e.storage.put("samples/invoice.pdf", tt.sampleText)
			}

			status, err := e.orch.Run(context.Background(), doc)

			require.NoError(t, err)
			assert.Equal(t, tt.want, status)

			persisted, _ := e.repo.Get(context.Background(), doc.ID)
			assert.Equal(t, tt.want, persisted.Status)
			assert.NotEmpty(t, persisted.Message)
		})
	}
}

func TestRunExtractionTimeoutIsOtherError(t *testing.T) {
	e := newTestEngine(t)
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, invoiceConfig())
	orch := e.rebuild(blockingStorage{}, match.NewMatcher(logger.NewTestLogger()), 20*time.Millisecond)

	status, err := orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusOtherError, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	assert.Equal(t, models.StatusOtherError, persisted.Status)
	assert.Contains(t, persisted.Message, "internal error")
}

func TestRunScoringPanicIsOtherError(t *testing.T) {
	e := newTestEngine(t)
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, invoiceConfig())
	e.storage.put(doc.StorageKey, submittedInvoice)
	e.storage.put("samples/invoice.pdf", sampleInvoice)
	orch := e.rebuild(e.storage, panicMatcher{}, 30*time.Second)

	status, err := orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusOtherError, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	assert.Equal(t, models.StatusOtherError, persisted.Status)
	assert.NotNil(t, persisted.DocSimilarity)
	assert.Contains(t, persisted.Message, "internal error")
}

func TestRunTypeMismatchSkipsFieldMatching(t *testing.T) {
	e := newTestEngine(t)
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, invoiceConfig())
	e.storage.put(doc.StorageKey, "Packing List\nGross Weight: 120kg")
	e.storage.put("samples/invoice.pdf", sampleInvoice)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusTypeMismatch, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	require.NotNil(t, persisted.Results)
	require.NotNil(t, persisted.Results.DocumentType)
	assert.False(t, persisted.Results.DocumentType.IsValid)
	assert.NotEmpty(t, persisted.Results.DocumentType.Message)
	// Field diagnostics must be absent on a type mismatch.
	assert.Empty(t, persisted.Results.Fields)
	assert.Nil(t, persisted.MatchPercentage)
}

func TestRunLowConfidenceIsTypeMismatch(t *testing.T) {
	e := newTestEngine(t)
	sc := invoiceConfig()
	sc.ConfidenceThreshold = 90
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, sc)
	// Only "invoice" hits: 3.0 of 6.0 weight = 0.5 confidence, below 0.9.
	e.storage.put(doc.StorageKey, "invoice shipment reference")
	e.storage.put("samples/invoice.pdf", sampleInvoice)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusTypeMismatch, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	assert.Contains(t, persisted.Message, "confidence")
}

func TestRunUndeterminedTypeIsTypeMismatch(t *testing.T) {
	e := newTestEngine(t)
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, invoiceConfig())
	e.storage.put(doc.StorageKey, "nothing recognizable in this text")
	e.storage.put("samples/invoice.pdf", sampleInvoice)

	status, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, models.StatusTypeMismatch, status)

	persisted, _ := e.repo.Get(context.Background(), doc.ID)
	assert.Contains(t, persisted.Message, "could not be determined")
}

func TestRunTriggersEntryNotificationWhenComplete(t *testing.T) {
	e := newTestEngine(t)
	doc := pendingDoc("doc-1", "entry-1")
	e.seed(doc, invoiceConfig())
	e.storage.put(doc.StorageKey, submittedInvoice)
	e.storage.put("samples/invoice.pdf", sampleInvoice)

	_, err := e.orch.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 1, e.queue.count())
	assert.Equal(t, "entry-1", e.queue.notifications[0].EntryID)
	require.Len(t, e.queue.notifications[0].Outcomes, 1)
	assert.Equal(t, models.StatusAccepted, e.queue.notifications[0].Outcomes[0].Status)
}

func TestRunNoNotificationWhileEntryIncomplete(t *testing.T) {
	e := newTestEngine(t)
	doc1 := pendingDoc("doc-1", "entry-1")
	doc2 := pendingDoc("doc-2", "entry-1")
	e.seed(doc1, invoiceConfig())
	e.seed(doc2, nil)
	e.storage.put(doc1.StorageKey, submittedInvoice)
	e.storage.put("samples/invoice.pdf", sampleInvoice)

	_, err := e.orch.Run(context.Background(), doc1)

	require.NoError(t, err)
	assert.Zero(t, e.queue.count())
}

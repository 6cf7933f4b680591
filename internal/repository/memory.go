package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clearhaul/docvalidator/internal/models"
)

// MemoryRepo is an in-memory Documents + SampleConfigs implementation used
// by tests and local development.
type MemoryRepo struct {
	mu      sync.RWMutex
	docs    map[string]*models.SubmittedDocument
	configs map[string]*models.SampleDocumentConfig
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:    make(map[string]*models.SubmittedDocument),
		configs: make(map[string]*models.SampleDocumentConfig),
	}
}

// PutDocument seeds a document.
func (r *MemoryRepo) PutDocument(doc *models.SubmittedDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.ID] = &cp
}

// PutSampleConfig seeds a sample config.
func (r *MemoryRepo) PutSampleConfig(sc *models.SampleDocumentConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sc
	r.configs[sc.DocTypeID] = &cp
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (*models.SubmittedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *MemoryRepo) ListPending(ctx context.Context) ([]*models.SubmittedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*models.SubmittedDocument
	for _, doc := range r.docs {
		if doc.Status != models.StatusPending {
			continue
		}
		sc, ok := r.configs[doc.DocTypeID]
		if !ok || !sc.AIValidateEnabled {
			continue
		}
		cp := *doc
		docs = append(docs, &cp)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (r *MemoryRepo) ListByEntry(ctx context.Context, entryID string) ([]*models.SubmittedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*models.SubmittedDocument
	for _, doc := range r.docs {
		if doc.EntryID == entryID {
			cp := *doc
			docs = append(docs, &cp)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (r *MemoryRepo) UpdateValidation(ctx context.Context, id string, update ValidationUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = update.Status
	doc.Results = update.Results
	doc.ExtractedContent = update.ExtractedContent
	doc.MatchPercentage = update.MatchPercentage
	doc.DocSimilarity = update.DocSimilarity
	doc.Message = update.Message
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepo) Resubmit(ctx context.Context, id, newStorageKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.StorageKey = newStorageKey
	doc.Status = models.StatusPending
	doc.Results = nil
	doc.ExtractedContent = ""
	doc.MatchPercentage = nil
	doc.DocSimilarity = nil
	doc.Message = ""
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepo) EntryProgress(ctx context.Context, entryID string) (*models.EntryProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	progress := &models.EntryProgress{EntryID: entryID}
	for _, doc := range r.docs {
		if doc.EntryID != entryID {
			continue
		}
		progress.TotalCount++
		if doc.Status != models.StatusPending {
			progress.ResolvedCount++
		}
	}
	return progress, nil
}

func (r *MemoryRepo) GetByDocType(ctx context.Context, docTypeID string) (*models.SampleDocumentConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sc, ok := r.configs[docTypeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

package validation

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	cfg "github.com/clearhaul/docvalidator/config"
	"github.com/clearhaul/docvalidator/internal/classify"
	"github.com/clearhaul/docvalidator/internal/extract"
	"github.com/clearhaul/docvalidator/internal/match"
	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/internal/notify"
	"github.com/clearhaul/docvalidator/internal/repository"
	"github.com/clearhaul/docvalidator/internal/validate"
	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/queue"
	"github.com/clearhaul/docvalidator/pkg/storage"
)

type Service struct {
	docs    repository.Documents
	storage storage.Storage
	orch    *validate.Orchestrator
	batch   *validate.Batch
	logger  logger.Logger
}

func NewService(
	docs repository.Documents,
	store storage.Storage,
	orch *validate.Orchestrator,
	batch *validate.Batch,
	log logger.Logger,
) *Service {
	return &Service{
		docs:    docs,
		storage: store,
		orch:    orch,
		batch:   batch,
		logger:  log,
	}
}

// GetService wires the full engine from configuration: storage, repository,
// classifier rules, extraction adapters, queue and dedup guard.
func GetService(ctx context.Context, log logger.Logger) (ValidationService, error) {
	engineCfg := cfg.GetEngineConfig()

	store, err := storage.NewStorage(log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	repo, err := repository.Open(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	rules, err := classify.LoadRules(engineCfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier rules: %w", err)
	}

	var ocr extract.Extractor
	if engineCfg.OCRBackend == "textract" {
		ocr, err = extract.NewTextractExtractor(ctx, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize textract: %w", err)
		}
	} else {
		ocr = extract.NewOCRExtractor(log)
	}

	extractor := extract.NewService(log,
		extract.NewPDFExtractor(log),
		extract.NewDocxExtractor(log),
		ocr,
	)

	notifier := notify.NewNotifier(
		repo,
		notify.NewRedisGuard(),
		queue.NewAsynqQueue(),
		engineCfg.NotifyDedupWindow,
		log,
	)

	orch := validate.NewOrchestrator(
		repo,
		repo,
		store,
		extractor,
		classify.NewClassifier(rules, log),
		match.NewMatcher(log),
		notifier,
		engineCfg.ExtractTimeout,
		log,
	)

	batch := validate.NewBatch(repo, orch, log)

	return NewService(repo, store, orch, batch, log), nil
}

func (s *Service) ValidateOne(ctx context.Context, documentID string) (*ValidateOneResult, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	status, err := s.orch.Run(ctx, doc)
	if err != nil {
		s.logger.Error("Validation run failed",
			logger.String("documentId", documentID),
			logger.Error(err),
		)
		return &ValidateOneResult{Success: false, Status: status, Message: err.Error()}, nil
	}

	result := &ValidateOneResult{
		Success: true,
		Status:  status,
	}
	if updated, err := s.docs.Get(ctx, documentID); err == nil {
		result.MatchPercentage = updated.MatchPercentage
		result.DocumentSimilarity = updated.DocSimilarity
		result.Message = updated.Message
		if updated.Results != nil {
			result.FieldDiagnostics = updated.Results.Fields
		}
	}
	return result, nil
}

func (s *Service) ValidatePending(ctx context.Context) (*validate.BatchResult, error) {
	return s.batch.RunPending(ctx)
}

func (s *Service) GetDocument(ctx context.Context, documentID string) (*models.SubmittedDocument, error) {
	return s.docs.Get(ctx, documentID)
}

func (s *Service) Resubmit(ctx context.Context, documentID string, file io.Reader, filename string) error {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return err
	}

	newKey := fmt.Sprintf("documents/%s%s", uuid.New().String(), filepath.Ext(filename))
	if _, err := s.storage.Store(ctx, file, newKey); err != nil {
		return fmt.Errorf("failed to store resubmitted blob: %w", err)
	}

	oldKey := doc.StorageKey
	if err := s.docs.Resubmit(ctx, documentID, newKey); err != nil {
		return err
	}

	if oldKey != "" && oldKey != newKey {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("Failed to delete replaced blob",
				logger.String("key", oldKey),
				logger.Error(err),
			)
		}
	}

	s.logger.Info("Document resubmitted",
		logger.String("documentId", documentID),
		logger.String("storageKey", newKey),
	)
	return nil
}

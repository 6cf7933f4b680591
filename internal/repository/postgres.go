package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cfg "github.com/clearhaul/docvalidator/config"
	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/pkg/logger"
)

// PostgresRepo implements Documents and SampleConfigs on pgx.
type PostgresRepo struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// Open creates the pgx pool from configuration.
func Open(ctx context.Context, log logger.Logger) (*PostgresRepo, error) {
	pgCfg := cfg.GetPostgresConfig()

	pc, err := pgxpool.ParseConfig(pgCfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	pc.MaxConns = pgCfg.MaxConns
	pc.MinConns = pgCfg.MinConns
	pc.MaxConnLifetime = pgCfg.MaxConnLifetime
	pc.ConnConfig.RuntimeParams["application_name"] = "docvalidator"

	ctx, cancel := context.WithTimeout(ctx, pgCfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	log.Info("Connected to postgres")
	return &PostgresRepo{pool: pool, logger: log}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

const documentColumns = `id, entry_id, doc_type_id, storage_key, file_name, status,
	validation_results, extracted_content, match_percentage,
	document_similarity_percentage, message, created_at, updated_at`

func (r *PostgresRepo) Get(ctx context.Context, id string) (*models.SubmittedDocument, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM submitted_documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (r *PostgresRepo) ListPending(ctx context.Context) ([]*models.SubmittedDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT d.id, d.entry_id, d.doc_type_id, d.storage_key, d.file_name, d.status,
		        d.validation_results, d.extracted_content, d.match_percentage,
		        d.document_similarity_percentage, d.message, d.created_at, d.updated_at
		 FROM submitted_documents d
		 JOIN sample_document_configs c ON c.doc_type_id = d.doc_type_id
		 WHERE d.status = $1 AND c.ai_validate_enabled
		 ORDER BY d.created_at`, int(models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *PostgresRepo) ListByEntry(ctx context.Context, entryID string) ([]*models.SubmittedDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM submitted_documents
		 WHERE entry_id = $1 ORDER BY created_at`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entry documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *PostgresRepo) UpdateValidation(ctx context.Context, id string, update ValidationUpdate) error {
	var resultsJSON []byte
	if update.Results != nil {
		var err error
		resultsJSON, err = json.Marshal(update.Results)
		if err != nil {
			return fmt.Errorf("failed to marshal validation results: %w", err)
		}
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE submitted_documents
		 SET status = $2, validation_results = $3, extracted_content = $4,
		     match_percentage = $5, document_similarity_percentage = $6,
		     message = $7, updated_at = now()
		 WHERE id = $1`,
		id, int(update.Status), resultsJSON, nullable(update.ExtractedContent),
		update.MatchPercentage, update.DocSimilarity, nullable(update.Message))
	if err != nil {
		return fmt.Errorf("failed to update validation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Resubmit(ctx context.Context, id, newStorageKey string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submitted_documents
		 SET storage_key = $2, status = $3, validation_results = NULL,
		     extracted_content = NULL, match_percentage = NULL,
		     document_similarity_percentage = NULL, message = NULL,
		     updated_at = now()
		 WHERE id = $1`,
		id, newStorageKey, int(models.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to resubmit document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) EntryProgress(ctx context.Context, entryID string) (*models.EntryProgress, error) {
	progress := &models.EntryProgress{EntryID: entryID}
	err := r.pool.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE status <> $2)
		 FROM submitted_documents WHERE entry_id = $1`,
		entryID, int(models.StatusPending)).
		Scan(&progress.TotalCount, &progress.ResolvedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute entry progress: %w", err)
	}
	return progress, nil
}

func (r *PostgresRepo) GetByDocType(ctx context.Context, docTypeID string) (*models.SampleDocumentConfig, error) {
	sc := &models.SampleDocumentConfig{}
	var keyFieldsJSON []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc_type_id, sample_key, confidence_threshold,
		        content_similarity_threshold, ai_validate_enabled, key_fields
		 FROM sample_document_configs WHERE doc_type_id = $1`, docTypeID).
		Scan(&sc.DocTypeID, &sc.SampleKey, &sc.ConfidenceThreshold,
			&sc.ContentSimilarityThreshold, &sc.AIValidateEnabled, &keyFieldsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sample config: %w", err)
	}

	if len(keyFieldsJSON) > 0 {
		if err := json.Unmarshal(keyFieldsJSON, &sc.KeyFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key fields: %w", err)
		}
	}
	return sc, nil
}

func scanDocument(row pgx.Row) (*models.SubmittedDocument, error) {
	doc := &models.SubmittedDocument{}
	var status int
	var resultsJSON []byte
	var extracted, message *string

	err := row.Scan(&doc.ID, &doc.EntryID, &doc.DocTypeID, &doc.StorageKey,
		&doc.FileName, &status, &resultsJSON, &extracted,
		&doc.MatchPercentage, &doc.DocSimilarity, &message,
		&doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.Status = models.ValidationStatus(status)
	if extracted != nil {
		doc.ExtractedContent = *extracted
	}
	if message != nil {
		doc.Message = *message
	}
	if len(resultsJSON) > 0 {
		doc.Results = &models.ValidationResult{}
		if err := json.Unmarshal(resultsJSON, doc.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal validation results: %w", err)
		}
	}
	return doc, nil
}

func collectDocuments(rows pgx.Rows) ([]*models.SubmittedDocument, error) {
	var docs []*models.SubmittedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

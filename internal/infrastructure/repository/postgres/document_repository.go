package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

type DocumentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// OpenDB opens a pgx-backed pool and verifies it within ctx.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	hintsJSON, err := json.Marshal(doc.Hints)
	if err != nil {
		return fmt.Errorf("marshal hints: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, storage_path, file_size, content_hash, hints, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, doc.FileSize, doc.ContentHash, hintsJSON,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const selectDocument = `
SELECT id, filename, mime_type, storage_path, file_size, content_hash, hints, status, error_message,
	classification, client_name, text_length, extraction_confidence, processing_ms, processed_at,
	created_at, updated_at
FROM documents
`

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx, selectDocument+`WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc            domain.Document
		hintsRaw       []byte
		classification []byte
		status         string
		processedAt    sql.NullTime
	)
	if err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &doc.FileSize, &doc.ContentHash,
		&hintsRaw, &status, &doc.Error, &classification, &doc.ClientName, &doc.TextLength,
		&doc.ExtractionConfidence, &doc.ProcessingMillis, &processedAt, &doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(hintsRaw) > 0 {
		if err := json.Unmarshal(hintsRaw, &doc.Hints); err != nil {
			return nil, fmt.Errorf("decode hints: %w", err)
		}
	}
	if len(classification) > 0 {
		var result domain.ClassificationResult
		if err := json.Unmarshal(classification, &result); err != nil {
			return nil, fmt.Errorf("decode classification: %w", err)
		}
		doc.Classification = &result
	}
	if processedAt.Valid {
		ts := processedAt.Time
		doc.ProcessedAt = &ts
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, r.now())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return ensureAffected(res, "update document status", id)
}

// SaveClassification stores the full result as JSON plus the columns used
// for filtering, and moves the document to classified.
func (r *DocumentRepository) SaveClassification(ctx context.Context, id string, record domain.ClassificationRecord) error {
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = r.now()
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET classification = $2, case_type = $3, urgency = $4, client_name = $5, text_length = $6,
	extraction_confidence = $7, processing_ms = $8, processed_at = $9, status = $10,
	error_message = '', updated_at = $11
WHERE id = $1
`,
		id, resultJSON, string(record.Result.CaseType), string(record.Result.Urgency), record.ClientName,
		record.TextLength, record.ExtractionConfidence, record.ProcessingTime.Milliseconds(), processedAt,
		string(domain.StatusClassified), r.now(),
	)
	if err != nil {
		return fmt.Errorf("save classification: %w", err)
	}
	return ensureAffected(res, "save classification", id)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return ensureAffected(res, "delete document", id)
}

func ensureAffected(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}

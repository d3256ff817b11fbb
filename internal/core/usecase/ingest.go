package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
)

const DefaultMaxUploadBytes int64 = 25 << 20

// DefaultAllowedExtensions are the formats the text extractor can read.
var DefaultAllowedExtensions = []string{".pdf", ".docx", ".txt", ".md"}

type IngestOptions struct {
	MaxBytes          int64
	AllowedExtensions []string
	Logger            *zap.Logger
}

type IngestDocumentUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	maxBytes int64
	allowed  map[string]struct{}
	logger   *zap.Logger
	now      func() time.Time
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	options IngestOptions,
) *IngestDocumentUseCase {
	maxBytes := options.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	extensions := options.AllowedExtensions
	if len(extensions) == 0 {
		extensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestDocumentUseCase{
		repo:     repo,
		storage:  storage,
		queue:    queue,
		maxBytes: maxBytes,
		allowed:  allowed,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *IngestDocumentUseCase) Upload(ctx context.Context, req domain.UploadRequest, body io.Reader) (*domain.Document, error) {
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("filename is required"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := uc.allowed[ext]; !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "upload", fmt.Errorf("extension %q is not supported", ext))
	}
	hints, err := req.Hints.Normalize()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))

	hasher := sha256.New()
	counter := &countingWriter{}
	limited := io.LimitReader(body, uc.maxBytes+1)
	if err := uc.storage.Save(ctx, storageKey, io.TeeReader(limited, io.MultiWriter(hasher, counter))); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	switch {
	case counter.n == 0:
		uc.discard(ctx, storageKey)
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("file is empty"))
	case counter.n > uc.maxBytes:
		uc.discard(ctx, storageKey)
		return nil, domain.WrapError(domain.ErrPayloadTooLarge, "upload", fmt.Errorf("file exceeds %d bytes", uc.maxBytes))
	}

	now := uc.now()
	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    req.MimeType,
		StoragePath: storageKey,
		FileSize:    counter.n,
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
		Hints:       hints,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		uc.discard(ctx, storageKey)
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		if statusErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, "enqueue: "+err.Error()); statusErr != nil {
			uc.logger.Error("mark_failed_after_publish_error", zap.String("document_id", doc.ID), zap.Error(statusErr))
		}
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	uc.logger.Info("document_uploaded",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int64("bytes", doc.FileSize),
	)
	return doc, nil
}

func (uc *IngestDocumentUseCase) discard(ctx context.Context, key string) {
	if err := uc.storage.Delete(ctx, key); err != nil {
		uc.logger.Warn("discard_upload_failed", zap.String("storage_key", key), zap.Error(err))
	}
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}

package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusClassified DocumentStatus = "classified"
	StatusIndexed    DocumentStatus = "indexed"
	StatusFailed     DocumentStatus = "failed"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusClassified, StatusIndexed, StatusFailed:
		return true
	default:
		return false
	}
}

type Document struct {
	ID          string              `json:"id"`
	Filename    string              `json:"filename"`
	MimeType    string              `json:"mime_type"`
	StoragePath string              `json:"storage_path"`
	FileSize    int64               `json:"file_size"`
	ContentHash string              `json:"content_hash,omitempty"`
	Hints       ClassificationHints `json:"hints"`
	Status      DocumentStatus      `json:"status"`
	Error       string              `json:"error,omitempty"`

	// Populated once the worker has classified the document.
	Classification       *ClassificationResult `json:"classification,omitempty"`
	ClientName           string                `json:"client_name,omitempty"`
	TextLength           int                   `json:"text_length,omitempty"`
	ExtractionConfidence float64               `json:"extraction_confidence,omitempty"`
	ProcessingMillis     int64                 `json:"processing_ms,omitempty"`
	ProcessedAt          *time.Time            `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadRequest carries a file plus the uploader's advisory hints.
type UploadRequest struct {
	Filename string
	MimeType string
	Hints    ClassificationHints
}

// ExtractedText is the output of the text-extraction collaborator.
type ExtractedText struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ClassificationRecord is what the worker persists for a processed document.
type ClassificationRecord struct {
	Result               ClassificationResult
	ClientName           string
	TextLength           int
	ExtractionConfidence float64
	ProcessingTime       time.Duration
	ProcessedAt          time.Time
}

package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
)

const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"

	MaxExportRecords = 1000
	exportSheet      = "Documents"
)

var exportColumns = []string{
	"document_id", "filename", "status", "case_type", "case_type_confidence", "urgency",
	"urgency_confidence", "client_name", "client_names", "tags", "summary", "created_at", "processed_at",
}

type ExportUseCase struct {
	index ports.DocumentIndex
	now   func() time.Time
}

func NewExportUseCase(index ports.DocumentIndex) *ExportUseCase {
	return &ExportUseCase{index: index, now: func() time.Time { return time.Now().UTC() }}
}

// Export renders up to MaxExportRecords matching records, newest first.
func (uc *ExportUseCase) Export(ctx context.Context, query domain.SearchQuery, format string) (*domain.Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatJSON
	}
	switch format {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatXLSX:
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "export", fmt.Errorf("unsupported format %q", format))
	}

	records, err := uc.collect(ctx, query)
	if err != nil {
		return nil, err
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case ExportFormatJSON:
		data, err = json.MarshalIndent(records, "", "  ")
		contentType = "application/json"
	case ExportFormatCSV:
		data, err = renderCSV(records)
		contentType = "text/csv"
	case ExportFormatXLSX:
		data, err = renderXLSX(records)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}

	return &domain.Export{
		Filename:    fmt.Sprintf("documents-%s.%s", uc.now().Format("20060102-150405"), format),
		ContentType: contentType,
		Data:        data,
		Count:       len(records),
	}, nil
}

func (uc *ExportUseCase) collect(ctx context.Context, query domain.SearchQuery) ([]domain.IndexRecord, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}
	query.Limit = domain.MaxSearchLimit
	query.Offset = 0

	records := make([]domain.IndexRecord, 0)
	for len(records) < MaxExportRecords {
		page, err := uc.index.Search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("search export page: %w", err)
		}
		records = append(records, page.Records...)
		if !page.HasMore || len(page.Records) == 0 {
			break
		}
		query.Offset += len(page.Records)
	}
	if len(records) > MaxExportRecords {
		records = records[:MaxExportRecords]
	}
	return records, nil
}

func exportRow(r domain.IndexRecord) []string {
	processed := ""
	if !r.ProcessedAt.IsZero() {
		processed = r.ProcessedAt.Format(time.RFC3339)
	}
	return []string{
		r.DocumentID,
		r.Filename,
		string(r.Status),
		string(r.CaseType),
		strconv.FormatFloat(r.CaseTypeConfidence, 'f', 4, 64),
		string(r.Urgency),
		strconv.FormatFloat(r.UrgencyConfidence, 'f', 4, 64),
		r.ClientName,
		strings.Join(r.ClientNames, "; "),
		strings.Join(r.Tags, "; "),
		r.Summary,
		r.CreatedAt.Format(time.RFC3339),
		processed,
	}
}

func renderCSV(records []domain.IndexRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write(exportRow(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(records []domain.IndexRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, 1, exportColumns); err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := setRow(f, i+2, exportRow(r)); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "K", "K", 80); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(exportSheet, cell, &values)
}

package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/classification"
	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
)

const defaultEntityConfidence = 0.8

// EntityAnalyzer asks an Ollama model for entities and takes sentences and
// noun chunks from a local analyzer. When the model is unavailable it falls
// back to the local entities.
type EntityAnalyzer struct {
	client *Client
	base   ports.TextAnalyzer
	logger *zap.Logger
}

func NewEntityAnalyzer(client *Client, base ports.TextAnalyzer, logger *zap.Logger) *EntityAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityAnalyzer{client: client, base: base, logger: logger}
}

func (a *EntityAnalyzer) Analyze(ctx context.Context, text string) (domain.ParsedText, error) {
	parsed, err := a.base.Analyze(ctx, text)
	if err != nil {
		return domain.ParsedText{}, err
	}

	entities, err := a.entities(ctx, text)
	if err != nil {
		a.logger.Warn("ollama_entities_fallback", zap.Error(err))
		return parsed, nil
	}
	parsed.Entities = entities
	return parsed, nil
}

func (a *EntityAnalyzer) entities(ctx context.Context, text string) ([]domain.RawEntity, error) {
	system, prompt := buildEntityPrompt(text)
	raw, err := a.client.generateJSON(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Entities []struct {
			Text       string   `json:"text"`
			Label      string   `json:"label"`
			Confidence *float64 `json:"confidence"`
		} `json:"entities"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse entities json: %w", err)
	}

	out := make([]domain.RawEntity, 0, len(payload.Entities))
	cursor := 0
	for _, ent := range payload.Entities {
		entText := strings.TrimSpace(ent.Text)
		if entText == "" {
			continue
		}
		start, end := classification.LocateSpan(text, entText, cursor)
		if start < 0 {
			// Hallucinated span.
			continue
		}
		cursor = end
		confidence := defaultEntityConfidence
		if ent.Confidence != nil {
			confidence = *ent.Confidence
		}
		out = append(out, domain.RawEntity{
			Text:       text[start:end],
			Label:      strings.ToUpper(strings.TrimSpace(ent.Label)),
			Start:      start,
			End:        end,
			Confidence: confidence,
		})
	}
	return out, nil
}

package classification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
)

// Degraded component names reported in ClassificationResult.Degraded.
const (
	ComponentCaseType   = "case_type"
	ComponentUrgency    = "urgency"
	ComponentNLP        = "nlp"
	ComponentEntities   = "entities"
	ComponentClients    = "clients"
	ComponentSummarizer = "summarizer"
	ComponentTags       = "tags"
)

// Observer receives one callback per classification.
type Observer interface {
	ObserveClassification(result domain.ClassificationResult, duration time.Duration)
}

type Option func(*Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(p *Pipeline) { p.observer = observer }
}

// Pipeline runs every classification component over one text. It holds no
// per-call state and may be shared across goroutines.
type Pipeline struct {
	analyzer ports.TextAnalyzer
	params   Params

	caseTypes  *CaseTypeClassifier
	urgency    *UrgencyClassifier
	clients    *ClientExtractor
	summarizer *Summarizer
	tags       *TagExtractor

	logger   *zap.Logger
	observer Observer
}

func NewPipeline(analyzer ports.TextAnalyzer, lexicon *Lexicon, params Params, opts ...Option) *Pipeline {
	if analyzer == nil {
		panic("classification: nil text analyzer")
	}
	if lexicon == nil {
		panic("classification: nil lexicon")
	}
	params = params.normalize()
	p := &Pipeline{
		analyzer:   analyzer,
		params:     params,
		caseTypes:  NewCaseTypeClassifier(lexicon, params),
		urgency:    NewUrgencyClassifier(lexicon, params),
		clients:    NewClientExtractor(lexicon, params),
		summarizer: NewSummarizer(lexicon, params),
		tags:       NewTagExtractor(lexicon, params),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EmptyResult is the classification of a text with no usable content.
func EmptyResult() domain.ClassificationResult {
	return domain.ClassificationResult{
		CaseType:           domain.CaseTypeOther,
		CaseTypeConfidence: 0,
		Urgency:            domain.UrgencyMedium,
		UrgencyConfidence:  neutralUrgencyConfidence,
		Entities:           []domain.NamedEntity{},
		EntityMap:          domain.EntityMap{},
		ClientNames:        []string{},
		Tags:               []string{},
	}
}

func (p *Pipeline) Classify(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	start := time.Now()

	result, urgencyMatched := p.classify(ctx, input.Text)
	result = p.applyHints(result, urgencyMatched, input.Hints)

	if len(result.Degraded) > 0 {
		p.logger.Warn("classification_degraded",
			zap.Strings("components", result.Degraded),
			zap.Int("text_length", result.SummaryMetrics.OriginalLength),
		)
	}
	if p.observer != nil {
		p.observer.ObserveClassification(result, time.Since(start))
	}
	return result
}

func (p *Pipeline) classify(ctx context.Context, text string) (domain.ClassificationResult, bool) {
	result := EmptyResult()
	if strings.TrimSpace(text) == "" {
		result.SummaryMetrics = NewSummaryMetrics(text, "")
		return result, false
	}

	var (
		wg             sync.WaitGroup
		caseTypeOK     bool
		urgencyOK      bool
		urgencyMatched bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		caseTypeOK = p.guard(ComponentCaseType, func() error {
			result.CaseType, result.CaseTypeConfidence = p.caseTypes.Classify(text)
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		urgencyOK = p.guard(ComponentUrgency, func() error {
			urgencyMatched = len(p.urgency.Scores(text)) > 0
			result.Urgency, result.UrgencyConfidence = p.urgency.Classify(text)
			return nil
		})
	}()

	var degraded []string
	var parsed domain.ParsedText
	nlpOK := p.guard(ComponentNLP, func() error {
		var err error
		parsed, err = p.analyzer.Analyze(ctx, text)
		return err
	})

	if nlpOK {
		degraded = append(degraded, p.fillFromParsed(&result, text, parsed)...)
	} else {
		degraded = append(degraded, ComponentNLP)
		result.Summary = p.summarizer.Fallback(text, 0)
	}
	result.SummaryMetrics = NewSummaryMetrics(text, result.Summary)

	wg.Wait()
	if !caseTypeOK {
		result.CaseType, result.CaseTypeConfidence = domain.CaseTypeOther, 0
		degraded = append([]string{ComponentCaseType}, degraded...)
	}
	if !urgencyOK {
		result.Urgency, result.UrgencyConfidence = domain.UrgencyMedium, neutralUrgencyConfidence
		urgencyMatched = false
		degraded = append([]string{ComponentUrgency}, degraded...)
	}
	result.Degraded = degraded
	return result, urgencyMatched
}

// fillFromParsed runs the components that consume NLP output and returns the
// names of those that failed.
func (p *Pipeline) fillFromParsed(result *domain.ClassificationResult, text string, parsed domain.ParsedText) []string {
	var degraded []string

	entitiesOK := p.guard(ComponentEntities, func() error {
		entityMap, entities := ExtractEntities(parsed.Entities)
		result.EntityMap, result.Entities = entityMap, entities
		return nil
	})
	if !entitiesOK {
		degraded = append(degraded, ComponentEntities)
		result.EntityMap, result.Entities = domain.EntityMap{}, []domain.NamedEntity{}
	}

	if !p.guard(ComponentClients, func() error {
		result.ClientNames = p.clients.Extract(result.EntityMap)
		return nil
	}) {
		degraded = append(degraded, ComponentClients)
		result.ClientNames = []string{}
	}

	if !p.guard(ComponentSummarizer, func() error {
		summary, err := p.summarizer.Summarize(parsed.Sentences, 0)
		if err != nil {
			return err
		}
		result.Summary = summary
		return nil
	}) {
		degraded = append(degraded, ComponentSummarizer)
		result.Summary = p.summarizer.Fallback(text, 0)
	}

	if !p.guard(ComponentTags, func() error {
		result.Tags = p.tags.Extract(parsed, 0)
		return nil
	}) {
		degraded = append(degraded, ComponentTags)
		result.Tags = []string{}
	}
	return degraded
}

// guard runs fn, converting errors and panics into a false return.
func (p *Pipeline) guard(component string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("classification_component_panic",
				zap.String("component", component),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()
	if err := fn(); err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Warn("classification_component_failed",
				zap.String("component", component),
				zap.Error(err),
			)
		}
		return false
	}
	return true
}

// applyHints uses uploader hints only where the heuristics found nothing.
func (p *Pipeline) applyHints(result domain.ClassificationResult, urgencyMatched bool, hints domain.ClassificationHints) domain.ClassificationResult {
	if hints.Empty() {
		return result
	}

	if ct, ok := domain.ParseCaseType(hints.CaseType); ok && ct != domain.CaseTypeOther &&
		result.CaseType == domain.CaseTypeOther && result.CaseTypeConfidence == 0 {
		result.CaseType = ct
		result.HintsApplied = append(result.HintsApplied, "case_type")
	}

	if level, ok := domain.ParseUrgencyLevel(hints.Urgency); ok && !urgencyMatched {
		result.Urgency = level
		result.HintsApplied = append(result.HintsApplied, "urgency")
	}

	if name := strings.TrimSpace(hints.ClientName); name != "" && p.clients.Accept(name) && !containsFold(result.ClientNames, name) {
		result.ClientNames = append([]string{name}, result.ClientNames...)
		result.HintsApplied = append(result.HintsApplied, "client_name")
	}
	return result
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// Explanation exposes raw scores for diagnostics.
type Explanation struct {
	CaseTypes []CaseTypeScore `json:"case_types"`
	Urgency   []UrgencyScore  `json:"urgency"`
}

func (p *Pipeline) Explain(text string) Explanation {
	return Explanation{
		CaseTypes: p.caseTypes.Scores(text),
		Urgency:   p.urgency.Scores(text),
	}
}

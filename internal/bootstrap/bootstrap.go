package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/config"
	"github.com/kirillkom/docuscan/internal/core/classification"
	"github.com/kirillkom/docuscan/internal/core/ports"
	"github.com/kirillkom/docuscan/internal/core/usecase"
	memorycache "github.com/kirillkom/docuscan/internal/infrastructure/cache/memory"
	rediscache "github.com/kirillkom/docuscan/internal/infrastructure/cache/redis"
	"github.com/kirillkom/docuscan/internal/infrastructure/extractor"
	bleveindex "github.com/kirillkom/docuscan/internal/infrastructure/index/bleve"
	"github.com/kirillkom/docuscan/internal/infrastructure/nlp/ollama"
	"github.com/kirillkom/docuscan/internal/infrastructure/nlp/prose"
	natsqueue "github.com/kirillkom/docuscan/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docuscan/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docuscan/internal/infrastructure/resilience"
	"github.com/kirillkom/docuscan/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docuscan/internal/observability/metrics"
)

// Role selects which process is assembled. Providers are resolved lazily, so
// a worker never opens the search index and the API never builds a processor.
type Role int

const (
	RoleAPI Role = iota
	RoleWorker
)

func (r Role) String() string {
	if r == RoleWorker {
		return "worker"
	}
	return "api"
}

type Options struct {
	Role   Role
	Logger *zap.Logger
	// Registerer receives classification metrics. Nil uses a private registry.
	Registerer prometheus.Registerer
}

type App struct {
	Config config.Config
	Logger *zap.Logger

	Queue      *natsqueue.Queue
	Repo       ports.DocumentReader
	Index      *bleveindex.Index
	Classifier ports.DocumentClassifier
	Executor   *resilience.Executor

	IngestUC  ports.DocumentIngestor
	QueryUC   ports.DocumentQueryService
	ExportUC  ports.DocumentExporter
	ProcessUC ports.DocumentProcessor

	closers *closers
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registerer := opts.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	cl := &closers{}
	container, err := buildContainer(ctx, cfg, opts.Role, logger, registerer, cl)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, closers: cl}
	switch opts.Role {
	case RoleWorker:
		err = container.Invoke(func(
			queue *natsqueue.Queue,
			repo ports.DocumentRepository,
			process *usecase.ProcessDocumentUseCase,
			executor *resilience.Executor,
		) {
			app.Executor = executor
			app.Queue = queue
			app.Repo = repo
			app.ProcessUC = process
		})
	default:
		err = container.Invoke(func(
			queue *natsqueue.Queue,
			repo ports.DocumentRepository,
			index *bleveindex.Index,
			pipeline *classification.Pipeline,
			ingest *usecase.IngestDocumentUseCase,
			query *usecase.QueryUseCase,
			export *usecase.ExportUseCase,
			executor *resilience.Executor,
		) {
			app.Executor = executor
			app.Queue = queue
			app.Repo = repo
			app.Index = index
			app.Classifier = pipeline
			app.IngestUC = ingest
			app.QueryUC = query
			app.ExportUC = export
		})
	}
	if err != nil {
		cl.closeAll()
		return nil, fmt.Errorf("assemble %s: %w", opts.Role, dig.RootCause(err))
	}

	logger.Info("bootstrap_complete",
		zap.String("role", opts.Role.String()),
		zap.String("nlp_backend", cfg.NLP.Backend),
		zap.String("cache_backend", cfg.Cache.Backend),
	)
	return app, nil
}

// SyncIndex applies index records published by workers until ctx is done.
// Only the API role owns an index.
func (a *App) SyncIndex(ctx context.Context) error {
	if a.Index == nil {
		return fmt.Errorf("sync index: no index in %s role", RoleWorker)
	}
	return a.Queue.SubscribeIndexRecords(ctx, a.Config.NATS.IndexSubject, a.Index.Index)
}

func (a *App) Close() {
	if a.closers != nil {
		a.closers.closeAll()
	}
}

type closers struct {
	fns []func()
}

func (c *closers) add(fn func()) {
	c.fns = append(c.fns, fn)
}

// closeAll releases resources in reverse acquisition order.
func (c *closers) closeAll() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
	c.fns = nil
}

func buildContainer(
	ctx context.Context,
	cfg config.Config,
	role Role,
	logger *zap.Logger,
	registerer prometheus.Registerer,
	cl *closers,
) (*dig.Container, error) {
	container := dig.New()
	providers := []any{
		func() context.Context { return ctx },
		func() config.Config { return cfg },
		func() Role { return role },
		func() *zap.Logger { return logger },
		func() prometheus.Registerer { return registerer },
		func() *closers { return cl },
		provideExecutor,
		provideDB,
		provideRepository,
		provideStorage,
		provideQueue,
		provideSearchIndex,
		provideCache,
		provideAnalyzer,
		provideLexicon,
		providePipeline,
		provideIngest,
		provideQuery,
		provideExport,
		provideProcess,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, fmt.Errorf("register provider: %w", err)
		}
	}
	return container, nil
}

// provideExecutor shares one set of breakers between the queue and the NLP
// backend of a process, keyed by operation name.
func provideExecutor(cfg config.Config, role Role, logger *zap.Logger, registerer prometheus.Registerer) *resilience.Executor {
	observer := metrics.NewBreakerMetrics(role.String(), registerer)
	return resilience.NewExecutor(cfg.Resilience, logger, resilience.WithStateObserver(observer))
}

func provideDB(ctx context.Context, cfg config.Config, cl *closers) (*sql.DB, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	cl.add(func() { _ = db.Close() })
	return db, nil
}

func provideRepository(ctx context.Context, db *sql.DB) (ports.DocumentRepository, error) {
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

func provideStorage(cfg config.Config) (ports.ObjectStorage, error) {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	return storage, nil
}

func provideQueue(cfg config.Config, executor *resilience.Executor, logger *zap.Logger, cl *closers) (*natsqueue.Queue, error) {
	queue, err := natsqueue.NewWithOptions(cfg.NATS.URL, cfg.NATS.Subject, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	cl.add(queue.Close)
	return queue, nil
}

func provideSearchIndex(cfg config.Config, cl *closers) (*bleveindex.Index, error) {
	index, err := bleveindex.Open(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("init search index: %w", err)
	}
	cl.add(func() { _ = index.Close() })
	return index, nil
}

// classificationCache wraps the optional cache so "none" can be provided.
type classificationCache struct {
	cache ports.ClassificationCache
}

func provideCache(ctx context.Context, cfg config.Config, logger *zap.Logger, cl *closers) classificationCache {
	switch cfg.Cache.Backend {
	case "redis":
		cache := rediscache.New(rediscache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		})
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("redis_cache_unavailable", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}
		cl.add(func() { _ = cache.Close() })
		return classificationCache{cache: cache}
	case "none":
		return classificationCache{}
	default:
		return classificationCache{cache: memorycache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)}
	}
}

func provideAnalyzer(cfg config.Config, executor *resilience.Executor, logger *zap.Logger) ports.TextAnalyzer {
	base := prose.New()
	if cfg.NLP.Backend != "ollama" {
		return base
	}
	client := ollama.NewWithOptions(cfg.NLP.OllamaURL, cfg.NLP.OllamaModel, ollama.Options{
		Timeout:            cfg.NLP.Timeout,
		ResilienceExecutor: executor,
	})
	return ollama.NewEntityAnalyzer(client, base, logger)
}

func provideLexicon(cfg config.Config, logger *zap.Logger) (*classification.Lexicon, error) {
	lexicon, err := classification.LoadLexiconFile(cfg.Classification.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	if cfg.Classification.LexiconPath != "" {
		logger.Info("lexicon_loaded", zap.String("path", cfg.Classification.LexiconPath))
	}
	return lexicon, nil
}

func providePipeline(
	cfg config.Config,
	role Role,
	analyzer ports.TextAnalyzer,
	lexicon *classification.Lexicon,
	logger *zap.Logger,
	registerer prometheus.Registerer,
) *classification.Pipeline {
	return classification.NewPipeline(analyzer, lexicon, cfg.Classification.Params,
		classification.WithLogger(logger),
		classification.WithObserver(metrics.NewClassificationMetrics(role.String(), registerer)),
	)
}

func provideIngest(
	cfg config.Config,
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue *natsqueue.Queue,
	logger *zap.Logger,
) *usecase.IngestDocumentUseCase {
	return usecase.NewIngestDocumentUseCase(repo, storage, queue, usecase.IngestOptions{
		MaxBytes: cfg.HTTP.MaxUploadBytes,
		Logger:   logger,
	})
}

func provideQuery(
	repo ports.DocumentRepository,
	index *bleveindex.Index,
	storage ports.ObjectStorage,
	logger *zap.Logger,
) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(repo, index, storage, logger)
}

func provideExport(index *bleveindex.Index) *usecase.ExportUseCase {
	return usecase.NewExportUseCase(index)
}

// provideProcess publishes index records instead of writing the index
// directly; the API process applies them.
func provideProcess(
	cfg config.Config,
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	pipeline *classification.Pipeline,
	queue *natsqueue.Queue,
	cache classificationCache,
	logger *zap.Logger,
) *usecase.ProcessDocumentUseCase {
	return usecase.NewProcessDocumentUseCase(
		repo,
		extractor.New(storage),
		pipeline,
		natsqueue.NewIndexPublisher(queue, cfg.NATS.IndexSubject),
		usecase.ProcessOptions{Cache: cache.cache, Logger: logger},
	)
}

// NewClassifier assembles only the classification pipeline, for offline use.
// No database, queue or index is opened.
func NewClassifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (*classification.Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	container, err := buildContainer(ctx, cfg, RoleWorker, logger, prometheus.NewRegistry(), &closers{})
	if err != nil {
		return nil, err
	}
	var pipeline *classification.Pipeline
	if err := container.Invoke(func(p *classification.Pipeline) { pipeline = p }); err != nil {
		return nil, fmt.Errorf("assemble classifier: %w", dig.RootCause(err))
	}
	return pipeline, nil
}

package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/notesqa/internal/config"
	"github.com/cloo-solutions/notesqa/internal/database"
	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/openai"
	"github.com/cloo-solutions/notesqa/internal/repository"
	"github.com/cloo-solutions/notesqa/internal/service"
	"github.com/cloo-solutions/notesqa/internal/storage"
	"github.com/cloo-solutions/notesqa/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
)

// app holds the wired dependency graph shared by the daemon's commands
type app struct {
	cfg  *config.Config
	pool *pgxpool.Pool

	documents *repository.DocumentRepository
	chunks    *repository.DocumentChunkRepository
	indexJobs *repository.IndexJobRepository

	llm         *openai.Client
	documentSvc *service.DocumentService
	indexer     *service.IndexingService
	retriever   *service.Retriever
	synthesizer *service.AnswerSynthesizer
	qa          *service.QAService
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.EmbeddingDimensions != domain.EmbeddingDimensions {
		return nil, fmt.Errorf("NOTESQA_EMBEDDING_DIMENSIONS=%d does not match the chunk store's vector(%d) column",
			cfg.EmbeddingDimensions, domain.EmbeddingDimensions)
	}
	return cfg, nil
}

// initTelemetry starts Sentry when a DSN is configured. The returned func is
// always safe to call.
func initTelemetry(cfg *config.Config) func() {
	if !cfg.HasSentry() {
		return func() {}
	}

	// 10% in production, everything elsewhere
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DatabaseMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	splitter, err := service.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, nil)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		pool:      pool,
		documents: repository.NewDocumentRepository(pool),
		chunks:    repository.NewDocumentChunkRepository(pool),
		indexJobs: repository.NewIndexJobRepository(pool),
		llm: openai.NewClientWithConfig(openai.Config{
			BaseURL:             cfg.LLMBaseURL,
			APIKey:              cfg.LLMAPIKey,
			EmbeddingModel:      cfg.EmbeddingModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
			ChatModel:           cfg.ChatModel,
		}),
	}

	a.documentSvc = service.NewDocumentServiceWithTx(a.documents, a.indexJobs, repository.NewTxRunner(pool))
	a.indexer = service.NewIndexingService(a.documents, a.llm, a.chunks, splitter)
	a.retriever = service.NewRetriever(a.llm, a.chunks, service.RetrievalConfig{
		StrictThreshold:  cfg.StrictThreshold,
		RelaxedThreshold: cfg.RelaxedThreshold,
		Limit:            cfg.RetrievalLimit,
	})
	a.synthesizer = service.NewAnswerSynthesizer(a.llm, cfg.GenerationTimeout)
	a.qa = service.NewQAService(a.retriever, a.documents, a.synthesizer)

	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
}

// s3Config maps daemon configuration onto the storage client, letting a
// --bucket flag override NOTESQA_S3_BUCKET.
func s3Config(cfg *config.Config, bucket string) storage.S3ClientConfig {
	if bucket == "" {
		bucket = cfg.S3Bucket
	}
	return storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          bucket,
		UsePathStyle:    true,
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/app"
	"docqa-backend/internal/cache"
	"docqa-backend/internal/config"
	"docqa-backend/internal/pkg/pdfextract"
	"docqa-backend/internal/pkg/textsplit"
	postgresClient "docqa-backend/internal/platform/postgres"
	rabbitmqClient "docqa-backend/internal/platform/rabbitmq"
	redisClient "docqa-backend/internal/platform/redis"
	"docqa-backend/internal/repository"
	"docqa-backend/internal/storage/object"
	"docqa-backend/internal/telemetry"
	"docqa-backend/internal/worker"
)

// Services groups the use cases the HTTP layer exposes.
type Services struct {
	Auth         *app.AuthService
	Organization *app.OrganizationService
	Document     *app.DocumentService
	Answer       *app.AnswerService
}

type App struct {
	Config        *config.Config
	Logger        zerolog.Logger
	Postgres      *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Store         object.Store
	Services      Services
	ReindexWorker *worker.ReindexWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger := telemetry.Setup(cfg.App.Env, cfg.App.LogLevel)

	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	a.Postgres = db
	if cfg.App.AutoMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get postgres sql db failed: %w", err)
		}
		if err := postgresClient.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
		a.Logger.Info().Msg("database migrations applied")
	}

	a.Redis, err = redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ReindexQueue)
	if err != nil {
		return err
	}

	a.Store, err = newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db, cfg.RAG.InsertBatchSize)
	auditRepo := repository.NewAuditLogRepository(db)

	embedder := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
	})
	chat := ai.NewChatClient(ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}, ai.DefaultUsageExtractor())

	splitter, err := textsplit.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("build chunker failed: %w", err)
	}
	vectorizer := app.NewVectorizer(embedder, cfg.Embedding.Dimensions)
	lock := cache.NewDocumentLock(a.Redis, time.Duration(cfg.Redis.IngestLockTTLSeconds)*time.Second)
	ingest := app.NewIngestService(
		pdfextract.NewExtractor(a.Store, os.TempDir()),
		splitter,
		vectorizer,
		chunkRepo,
		lock,
	)
	retrieval := app.NewRetrievalService(vectorizer, chunkRepo, cfg.RAG.TopK)
	publisher := rabbitmqClient.NewReindexPublisher(a.MQConn, cfg.RabbitMQ.ReindexQueue)

	a.Services = Services{
		Auth: app.NewAuthService(
			userRepo,
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		),
		Organization: app.NewOrganizationService(orgRepo, docRepo, a.Store),
		Document:     app.NewDocumentService(docRepo, a.Store, ingest, publisher, cfg.MaxUploadBytes()),
		Answer:       app.NewAnswerService(orgRepo, retrieval, chat, auditRepo, cfg.RAG.SnippetChars),
	}

	a.ReindexWorker = worker.NewReindexWorker(a.MQConn, a.Services.Document, cfg.RabbitMQ.ReindexQueue, a.Logger)
	if err := a.ReindexWorker.Start(ctx); err != nil {
		return fmt.Errorf("start reindex worker failed: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.ReindexWorker != nil {
		a.ReindexWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		sqlDB, err := a.Postgres.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

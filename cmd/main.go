package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sheorananshul/contract-analyzer/api"
	"github.com/sheorananshul/contract-analyzer/api/handler"
	"github.com/sheorananshul/contract-analyzer/config"
	"github.com/sheorananshul/contract-analyzer/internal/cache"
	"github.com/sheorananshul/contract-analyzer/internal/database"
	"github.com/sheorananshul/contract-analyzer/internal/document"
	"github.com/sheorananshul/contract-analyzer/internal/embedding"
	"github.com/sheorananshul/contract-analyzer/internal/evaluator"
	"github.com/sheorananshul/contract-analyzer/internal/evidence"
	"github.com/sheorananshul/contract-analyzer/internal/llm"
	"github.com/sheorananshul/contract-analyzer/internal/repository"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
	"github.com/sheorananshul/contract-analyzer/internal/scorer"
	"github.com/sheorananshul/contract-analyzer/internal/services"
	"github.com/sheorananshul/contract-analyzer/internal/vectordb"
	"github.com/sheorananshul/contract-analyzer/pkg/storage"
	"github.com/sheorananshul/contract-analyzer/pkg/taskqueue"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// .env holds API keys in local development
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)
	logger.Info("Starting contract analyzer")

	if err := database.Setup(&database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	store, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	embedder, err := setupEmbedding(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}

	index, err := setupVectorDB(cfg.VectorDB, embedder, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize vector index: %v", err)
	}
	defer index.Close()

	llmClient, err := llm.NewClient("openai",
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithModel(cfg.LLM.Model),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
		llm.WithTimeout(cfg.LLM.Timeout()),
	)
	if err != nil {
		logger.Fatalf("Failed to initialize model client: %v", err)
	}

	chunker, err := document.NewChunker(document.ChunkerConfig{
		MinTokens:     cfg.Chunker.MinTokens,
		MaxTokens:     cfg.Chunker.MaxTokens,
		OverlapTokens: cfg.Chunker.OverlapTokens,
	})
	if err != nil {
		logger.Fatalf("Invalid chunker configuration: %v", err)
	}

	ret, err := retriever.New(embedder, index, retriever.Config{
		TopK:            cfg.Retriever.TopK,
		SimilarityFloor: cfg.Retriever.SimilarityFloor,
		DedupRatio:      cfg.Retriever.DedupRatio,
	})
	if err != nil {
		logger.Fatalf("Invalid retriever configuration: %v", err)
	}

	eval, err := evaluator.New(llmClient, scorerWeights(cfg.Scorer), cfg.LLM.Timeout())
	if err != nil {
		logger.Fatalf("Invalid scorer configuration: %v", err)
	}

	docService := services.NewDocumentService(
		store,
		repository.NewDocumentRepository(),
		chunker,
		embedding.NewBatchProcessor(embedder, cfg.Embedding.BatchSize, cfg.Embedding.MaxWorkers),
		index,
		services.WithDocumentLogger(logger),
	)
	analysisService := services.NewAnalysisService(
		docService,
		ret,
		evidence.NewAggregator(cfg.Evidence.ProximityWindow),
		eval,
		repository.NewAnalysisRepository(),
		services.WithConcurrency(cfg.Analysis.Concurrency),
		services.WithAnalysisLogger(logger),
	)

	var queue taskqueue.Queue
	var worker taskqueue.Worker
	var taskHandler *handler.TaskHandler
	if cfg.Queue.Enable {
		queue, worker, err = setupQueue(cfg.Queue, docService, analysisService, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		taskHandler = handler.NewTaskHandler(queue)
		logger.Info("Task queue enabled")
	}

	router := api.SetupRouter(
		handler.NewDocumentHandler(docService, queue),
		handler.NewAnalysisHandler(analysisService, queue),
		taskHandler,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	if worker != nil {
		go func() {
			if err := worker.Start(); err != nil {
				logger.Fatalf("Failed to start task worker: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	if worker != nil {
		worker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger builds the application logger, optionally with file rotation.
func setupLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	return logger
}

func setupStorage(cfg config.StorageConfig) (storage.Storage, error) {
	if cfg.Type == "minio" {
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	}
	return storage.NewLocalStorage(storage.LocalConfig{Path: cfg.Path})
}

func setupEmbedding(cfg *config.Config, logger *logrus.Logger) (embedding.Client, error) {
	client, err := embedding.NewClient("openai",
		embedding.WithAPIKey(cfg.Embedding.APIKey),
		embedding.WithBaseURL(cfg.Embedding.BaseURL),
		embedding.WithModel(cfg.Embedding.Model),
		embedding.WithDimensions(cfg.Embedding.Dimensions),
		embedding.WithBatchSize(cfg.Embedding.BatchSize),
		embedding.WithMaxRetries(cfg.Embedding.MaxRetries),
		embedding.WithTimeout(cfg.Embedding.Timeout()),
	)
	if err != nil {
		return nil, err
	}

	if !cfg.Embedding.EnableCache || !cfg.Cache.Enable {
		return client, nil
	}

	vectorCache, err := cache.NewCache(cache.Config{
		Type:          cfg.Cache.Type,
		RedisAddr:     cfg.Cache.Address,
		RedisPassword: cfg.Cache.Password,
		RedisDB:       cfg.Cache.DB,
		DefaultTTL:    cfg.Cache.TTL(),
	})
	if err != nil {
		logger.Warnf("Embedding cache disabled: %v", err)
		return client, nil
	}
	return embedding.NewCachedClient(client, vectorCache, cfg.Cache.TTL()), nil
}

// setupVectorDB builds the configured index backend, falling back to the
// in-memory index when faiss is unavailable.
func setupVectorDB(cfg config.VectorDBConfig, embedder embedding.Client, logger *logrus.Logger) (vectordb.Repository, error) {
	vcfg := vectordb.Config{
		Type:              cfg.Type,
		Path:              cfg.Path,
		Dimension:         embedder.Dimensions(),
		DistanceType:      vectordb.DistanceType(cfg.Distance),
		EmbeddingModel:    embedder.Name(),
		CreateIfNotExists: true,
	}

	if cfg.Type == "faiss" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		repo, err := vectordb.NewRepository(vcfg)
		if err == nil {
			return repo, nil
		}
		logger.Warnf("Faiss index unavailable, using in-memory index: %v", err)
	}

	vcfg.Type = "memory"
	vcfg.Path = ""
	return vectordb.NewRepository(vcfg)
}

func setupQueue(
	cfg config.QueueConfig,
	docService *services.DocumentService,
	analysisService *services.AnalysisService,
	logger *logrus.Logger,
) (taskqueue.Queue, taskqueue.Worker, error) {
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Concurrency:   cfg.Concurrency,
		RetryLimit:    cfg.RetryLimit,
		RetryDelay:    time.Duration(cfg.RetryDelay) * time.Second,
		Queues:        map[string]int{"default": 1},
	}

	queue, err := taskqueue.NewRedisQueue(queueConfig)
	if err != nil {
		return nil, nil, err
	}

	worker := taskqueue.NewRedisWorker(queue, queueConfig)
	worker.RegisterHandler(taskqueue.TaskIndexDocument,
		taskqueue.NewIndexHandler(docService, queue, logger))
	worker.RegisterHandler(taskqueue.TaskAnalyzeDocument,
		taskqueue.NewAnalyzeHandler(analysisService, queue, logger))

	return queue, worker, nil
}

func scorerWeights(cfg config.ScorerConfig) scorer.Weights {
	return scorer.Weights{
		Cap:                  cfg.Cap,
		Similarity:           cfg.Similarity,
		Coverage:             cfg.Coverage,
		Diversity:            cfg.Diversity,
		Agreement:            cfg.Agreement,
		ContradictionPenalty: cfg.ContradictionPenalty,
		InsufficientCeiling:  cfg.InsufficientCeiling,
		ModerateThreshold:    cfg.ModerateThreshold,
		HighThreshold:        cfg.HighThreshold,
		MinEvidenceTokens:    cfg.MinEvidenceTokens,
	}
}

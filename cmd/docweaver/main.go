// Package main starts the docweaver service: a webhook-driven
// documentation generator for pull requests, backed by a vector index
// of prior documentation and an OpenAI-compatible model API.
//
// Usage:
//
//	GITHUB_TOKEN=ghp_xxx \
//	OPENAI_API_KEY=sk-xxx \
//	docweaver -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docweaver/internal/config"
	"github.com/fyrsmithlabs/docweaver/internal/embeddings"
	httpserver "github.com/fyrsmithlabs/docweaver/internal/http"
	"github.com/fyrsmithlabs/docweaver/internal/logging"
	"github.com/fyrsmithlabs/docweaver/internal/pipeline"
	"github.com/fyrsmithlabs/docweaver/internal/scm"
	"github.com/fyrsmithlabs/docweaver/internal/secrets"
	"github.com/fyrsmithlabs/docweaver/internal/synthesis"
	"github.com/fyrsmithlabs/docweaver/internal/telemetry"
	"github.com/fyrsmithlabs/docweaver/internal/vectorstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional, env vars override)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Fields: map[string]string{"service": "docweaver"},
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "docweaver starting",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("target_branch", cfg.GitHub.TargetBranch),
	)

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "telemetry shutdown error", zap.Error(err))
		}
	}()

	scmClient, err := scm.NewClient(ctx, scm.ClientConfig{
		Token:          cfg.GitHub.Token,
		BaseURL:        cfg.GitHub.BaseURL,
		RequestTimeout: cfg.GitHub.RequestTimeout.Duration(),
	}, logger)
	if err != nil {
		return fmt.Errorf("creating GitHub client: %w", err)
	}

	extractor, err := scm.NewExtractor(scmClient, scm.Mode(cfg.GitHub.ExtractionMode), logger)
	if err != nil {
		return fmt.Errorf("creating extractor: %w", err)
	}

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.EmbeddingModel,
		APIKey:         cfg.OpenAI.APIKey,
		RequestTimeout: cfg.OpenAI.RequestTimeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}

	store, err := vectorstore.NewStore(vectorstore.Config{
		Provider: cfg.VectorStore.Provider,
		Qdrant: vectorstore.QdrantConfig{
			Host:       cfg.VectorStore.Qdrant.Host,
			Port:       cfg.VectorStore.Qdrant.Port,
			UseTLS:     cfg.VectorStore.Qdrant.UseTLS,
			Collection: cfg.VectorStore.Collection,
			VectorSize: uint64(cfg.VectorStore.VectorSize),
		},
		Chromem: vectorstore.ChromemConfig{
			Collection: cfg.VectorStore.Collection,
			Path:       cfg.VectorStore.Chromem.Path,
			Compress:   cfg.VectorStore.Chromem.Compress,
		},
	})
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	synthesizer, err := synthesis.NewSynthesizer(synthesis.Config{
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.CompletionModel,
		APIKey:         cfg.OpenAI.APIKey,
		Temperature:    cfg.OpenAI.Temperature,
		RequestTimeout: cfg.OpenAI.RequestTimeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("creating synthesizer: %w", err)
	}

	scrubber, err := secrets.New(secrets.DefaultConfig())
	if err != nil {
		return fmt.Errorf("creating scrubber: %w", err)
	}

	retriever := pipeline.NewRetriever(embedder, store, cfg.VectorStore.TopK, cfg.VectorStore.MinScore)
	docs := pipeline.NewDocumentation(
		extractor, embedder, store, synthesizer, scmClient, scrubber, retriever,
		logger.Named("pipeline"),
	)
	assistant := pipeline.NewAssistant(synthesizer, retriever, logger.Named("assistant"))

	server, err := httpserver.NewServer(docs, assistant, logger.Named("http"), httpserver.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		TargetBranch: cfg.GitHub.TargetBranch,
		RateLimit:    cfg.Server.RateLimit,
		RateBurst:    cfg.Server.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown error", zap.Error(err))
		return err
	}

	logger.Info(context.Background(), "server stopped gracefully")
	return nil
}

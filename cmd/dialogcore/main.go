package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/dialogcore/server/internal/agent/corpus"
	"github.com/dialogcore/server/internal/agent/graph"
	"github.com/dialogcore/server/internal/agent/model"
	"github.com/dialogcore/server/internal/agent/nlu"
	"github.com/dialogcore/server/internal/agent/observe"
	"github.com/dialogcore/server/internal/agent/repo"
	"github.com/dialogcore/server/internal/api"
	"github.com/dialogcore/server/internal/core"
	logx "github.com/dialogcore/server/pkg/logger"
	pkgredis "github.com/dialogcore/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis   pkgredis.Config
	Storage model.StorageConfig

	// Pipeline
	Pipeline model.PipelineConfig
	Corpus   model.CorpusConfig

	// HTTP surface
	Server model.ServerConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	env := core.ParseEnvironment(envCfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise redis client")
	}
	defer rdb.Close()

	db, err := repo.OpenSQLite(envCfg.Storage.SQLitePath)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to open sqlite database")
	}
	defer db.Close()

	messages := repo.NewSQLiteMessageRepository(db)
	if err := messages.EnsureSchema(ctx); err != nil {
		logx.Fatal().Err(err).Msg("failed to ensure database schema")
	}

	notifier := observe.NewLogNotifier()

	// Corpus trouble is recovered with the built-in default intent set; an
	// untrainable classifier is the one condition fatal to the process.
	var provider model.CorpusProvider
	if envCfg.Corpus.Path != "" {
		provider = corpus.NewFileProvider(envCfg.Corpus.Path)
	}
	definitions := corpus.LoadOrDefault(ctx, provider, notifier)

	classifier := nlu.NewClassifier(envCfg.Pipeline.ConfidenceThreshold)
	if err := classifier.Train(definitions); err != nil {
		logx.Fatal().Err(err).Msg("failed to train intent model")
	}

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		Pipeline:   envCfg.Pipeline,
		Corpus:     definitions,
		Classifier: classifier,
		Sessions:   repo.NewRedisSessionStore(rdb),
		Messages:   messages,
		Notifier:   notifier,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build turn graph")
	}

	server := api.NewServer(runner, env)
	httpServer := &http.Server{
		Addr:         envCfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(envCfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(envCfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logx.Info().Str("addr", envCfg.Server.Addr).Str("env", env.String()).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(envCfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}

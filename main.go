package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depositform/config"
	"depositform/db"
	qhttp "depositform/http"
	"depositform/logging"
	"depositform/ml"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("exiting")
}

// loadConfig falls back to defaults when the default config file is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == "config.yaml" {
		return config.Default(), nil
	}
	return cfg, err
}

func run(cfg *config.Config, logger *zap.Logger) error {
	schema := ml.DefaultSchema()

	// 2. Model loader
	var loader ml.Loader = &ml.FileLoader{Path: cfg.Model.Path, Schema: schema}
	if cfg.Model.Cache {
		cached, err := ml.NewCachedLoader(cfg.Model.Path, schema, logger)
		if err != nil {
			return err
		}
		defer cached.Close()
		loader = cached
	}
	if _, err := os.Stat(cfg.Model.Path); err != nil {
		logger.Warn("model artifact not readable yet, predictions will fail until it is", zap.String("path", cfg.Model.Path), zap.Error(err))
	}

	deps := qhttp.Deps{
		Loader:        loader,
		Schema:        schema,
		PositiveLabel: cfg.Model.PositiveLabel,
		Logger:        logger,
	}

	// 3. Optional prediction history
	if cfg.Database.Path != "" {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.History = store
		logger.Info("prediction history enabled", zap.String("path", cfg.Database.Path))
	}

	// 4. Start HTTP server
	server, err := qhttp.NewServer(qhttp.ServerConfig{
		Port:         cfg.Http.Port,
		Timeout:      cfg.Http.Timeout,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	}, deps)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(ctx)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptregistry/config"
	"promptregistry/config/database"
	"promptregistry/internal/prompt/repository"
	"promptregistry/internal/prompt/service"
	"promptregistry/pkg/logger"
	"promptregistry/router"
)

func main() {
	// Config loading logs too; LOG_LEVEL is re-read from the loaded config.
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Sugar.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)

	store, closeStore := openStore(cfg)
	defer closeStore()

	promptService := service.NewPromptService(store)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(cfg, promptService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("Prompt registry listening on :%s (storage: %s, prefix: %q)", cfg.Port, cfg.StorageDriver, cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}

func openStore(cfg *config.Config) (repository.Store, func()) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Sugar.Warn("Using in-memory storage; prompts are lost on restart")
		return repository.NewMemoryStore(), func() {}
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Sugar.Fatalf("%v. Check your database settings.", err)
	}
	if cfg.MigrateOnStart {
		if err := database.Migrate(db); err != nil {
			db.Close()
			logger.Sugar.Fatalf("Failed to migrate database: %v", err)
		}
	}
	return repository.NewPromptRepository(db), func() { db.Close() }
}

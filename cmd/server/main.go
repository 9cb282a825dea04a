// Package main is the entry point. It only reads configuration, builds
// the shared dependencies (logger, blob storage) and starts the server;
// all behavior lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shossain/streamtube/internal/config"
	"github.com/shossain/streamtube/internal/server"
	"github.com/shossain/streamtube/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(cfg.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	blobs, err := storage.NewS3Storage(context.Background(), storage.S3Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to create blob storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, blobs, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

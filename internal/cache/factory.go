package cache

import (
	"log/slog"

	"suvai/internal/config"
)

func MakeCache(cfg config.StorageConfig) (ListCache, error) {
	if cfg.RedisAddr != "" {
		slog.Info("Using redis for cache", "addr", cfg.RedisAddr)
		return NewRedisCache(cfg.RedisAddr, "suvai")
	}

	if cfg.BlobAccount != "" {
		slog.Info("Using Azure Blob Storage for cache", "container", cfg.BlobContainer)
		return NewBlobCache(cfg.BlobAccount, cfg.BlobKey, cfg.BlobContainer)
	}

	slog.Info("Using file cache", "dir", cfg.Dir)
	return NewFileCache(cfg.Dir), nil
}

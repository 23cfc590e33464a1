package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/callumgare/media-finder-cli/internal/adapter/cache/memory"
	redisadapter "github.com/callumgare/media-finder-cli/internal/adapter/cache/redis"
	natsadapter "github.com/callumgare/media-finder-cli/internal/adapter/events/nats"
	s3adapter "github.com/callumgare/media-finder-cli/internal/adapter/storage/s3"
	"github.com/callumgare/media-finder-cli/internal/config"
	"github.com/callumgare/media-finder-cli/internal/port"
	"github.com/callumgare/media-finder-cli/internal/secrets"
	"github.com/callumgare/media-finder-cli/mediafinder"
)

type Container struct {
	Config *config.Config

	Secrets   *secrets.Store
	Cache     mediafinder.Cache
	Publisher port.QueryPublisher
	// Archive is nil when no archive bucket is configured.
	Archive port.ArchiveStorage
	// Transport replaces the network transport of queries.
	Transport http.RoundTripper

	closers []func()
}

// NewContainer wires the adapters selected by cfg. Redis and NATS are
// optional: when they cannot be reached the container falls back to the
// in-process cache and drops events.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:    cfg,
		Secrets:   secrets.NewStore(cfg.SecretsSetsPath),
		Cache:     memory.NewCache(),
		Publisher: port.NopPublisher{},
	}

	if cfg.RedisAddr != "" {
		client := redisadapter.NewClient(redisadapter.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cache := redisadapter.NewCache(client)
		if err := cache.Ping(ctx); err != nil {
			slog.Warn("redis unavailable, using in-process cache", "addr", cfg.RedisAddr, "error", err)
			_ = client.Close()
		} else {
			c.Cache = cache
			c.closers = append(c.closers, func() { _ = client.Close() })
		}
	}

	if cfg.NATSURL != "" {
		nc, err := natsadapter.NewClient(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			slog.Warn("nats unavailable, query events disabled", "url", cfg.NATSURL, "error", err)
		} else {
			c.Publisher = nc
			c.closers = append(c.closers, nc.Close)
		}
	}

	if cfg.ArchiveBucket != "" {
		archive, err := s3adapter.New(ctx, cfg.ArchiveRegion, cfg.ArchiveBucket, cfg.ArchiveEndpoint)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Archive = archive
	}

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

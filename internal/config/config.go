package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string `env:"MEDIA_FINDER_LOG_LEVEL" env-default:"warn"`
	LogFormat string `env:"MEDIA_FINDER_LOG_FORMAT" env-default:"text"`
	LogFile   string `env:"MEDIA_FINDER_LOG_FILE"`

	SecretsSetsPath string        `env:"MEDIA_FINDER_SECRETS_SETS" env-default:"./.secrets-sets.json"`
	HTTPTimeout     time.Duration `env:"MEDIA_FINDER_HTTP_TIMEOUT" env-default:"30s"`

	WebUIAddr string `env:"MEDIA_FINDER_WEB_UI_ADDR" env-default:":4000"`
	ViewerURL string `env:"MEDIA_FINDER_VIEWER_URL" env-default:"https://mediafinderviewer.cals.cafe/api/output"`

	RedisAddr     string `env:"MEDIA_FINDER_REDIS_ADDR"`
	RedisPassword string `env:"MEDIA_FINDER_REDIS_PASSWORD"`
	RedisDB       int    `env:"MEDIA_FINDER_REDIS_DB" env-default:"0"`

	NATSURL     string `env:"MEDIA_FINDER_NATS_URL"`
	NATSSubject string `env:"MEDIA_FINDER_NATS_SUBJECT" env-default:"media-finder.queries"`

	ArchiveBucket     string        `env:"MEDIA_FINDER_ARCHIVE_BUCKET"`
	ArchiveRegion     string        `env:"MEDIA_FINDER_ARCHIVE_REGION" env-default:"us-east-1"`
	ArchiveEndpoint   string        `env:"MEDIA_FINDER_ARCHIVE_ENDPOINT"`
	ArchivePresignTTL time.Duration `env:"MEDIA_FINDER_ARCHIVE_PRESIGN_TTL" env-default:"1h"`

	OTLPEndpoint string `env:"MEDIA_FINDER_OTLP_ENDPOINT"`
}

func Load() (*Config, error) {
	var cfg Config

	// Environment only; the CLI has no config file.
	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return &cfg, nil
}

package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port         int
	NatsURL      string
	NatsToken    string
	DatabaseURL  string
	LogLevel     string
	APIToken     string
	MediaWorkers int
	// MaxArchiveMB caps the size of an uploaded archive.
	MaxArchiveMB int
}

func Load() Config {
	return Config{
		Port:         envInt("CHATARCHIVE_PORT", 8760),
		NatsURL:      envStr("NATS_URL", ""),
		NatsToken:    envStr("NATS_TOKEN", ""),
		DatabaseURL:  envStr("DATABASE_URL", ""),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		APIToken:     envStr("CHATARCHIVE_API_TOKEN", ""),
		MediaWorkers: envInt("CHATARCHIVE_MEDIA_WORKERS", 4),
		MaxArchiveMB: envInt("CHATARCHIVE_MAX_ARCHIVE_MB", 512),
	}
}

// MaxArchiveBytes is MaxArchiveMB in bytes.
func (c Config) MaxArchiveBytes() int64 {
	return int64(c.MaxArchiveMB) << 20
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

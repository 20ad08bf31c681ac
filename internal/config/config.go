package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EventsCfg struct {
	Enabled   bool
	Brokers   string
	Topic     string
	QueueSize int
}

type Config struct {
	Addr           string
	LogLevel       string
	ArtifactsDir   string
	CacheBackend   string
	RedisAddr      string
	CacheTTL       time.Duration
	CacheOpTimeout time.Duration
	PredictTimeout time.Duration
	MemCacheSize   int
	Events         EventsCfg
}

func FromEnv() Config {
	return Config{
		Addr:           getenv("ADDR", ":8000"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		ArtifactsDir:   getenv("ARTIFACTS_DIR", "artifacts"),
		CacheBackend:   strings.ToLower(getenv("CACHE_BACKEND", "redis")),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:       time.Duration(getint("CACHE_TTL_SECONDS", 60)) * time.Second,
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		PredictTimeout: getduration("PREDICT_TIMEOUT", 2*time.Second),
		MemCacheSize:   getint("MEM_CACHE_SIZE", 4096),
		Events: EventsCfg{
			Enabled:   getbool("EVENTS_ENABLED", false),
			Brokers:   getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:     getenv("KAFKA_TOPIC", "triage-decisions"),
			QueueSize: getint("EVENTS_QUEUE", 1024),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

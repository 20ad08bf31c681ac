package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RaparthiSrikar/CityAssist/internal/cache"
	"github.com/RaparthiSrikar/CityAssist/internal/cache/memstore"
	"github.com/RaparthiSrikar/CityAssist/internal/cache/redisstore"
	"github.com/RaparthiSrikar/CityAssist/internal/config"
	"github.com/RaparthiSrikar/CityAssist/internal/events"
	"github.com/RaparthiSrikar/CityAssist/internal/gateway"
	"github.com/RaparthiSrikar/CityAssist/internal/httpapi"
	"github.com/RaparthiSrikar/CityAssist/internal/imaging"
	"github.com/RaparthiSrikar/CityAssist/internal/logger"
	"github.com/RaparthiSrikar/CityAssist/internal/observability"
	"github.com/RaparthiSrikar/CityAssist/internal/predictor"
	"github.com/RaparthiSrikar/CityAssist/internal/predictor/artifact"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "gateway",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting gateway",
		"addr", cfg.Addr,
		"version", Version,
		"cache_backend", cfg.CacheBackend,
		"artifacts_dir", cfg.ArtifactsDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// cache backend; a connect failure degrades to no cache rather than
	// failing startup
	var store cache.Store
	switch cfg.CacheBackend {
	case "redis":
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Warn("redis not available, running without cache", "addr", cfg.RedisAddr, "err", err)
		} else {
			store = rc
		}
	case "memory":
		store = memstore.New(cfg.MemCacheSize)
	case "none":
	default:
		appLog.Warn("unknown cache backend, running without cache", "backend", cfg.CacheBackend)
	}
	rcache := cache.New(store, appLog, cfg.CacheOpTimeout, cfg.CacheTTL)
	defer func() { _ = rcache.Close() }()

	// model artifacts; absence per domain is non-fatal
	reg := predictor.NewRegistry(appLog, cfg.PredictTimeout)
	for domain, m := range artifact.LoadDir(cfg.ArtifactsDir, appLog) {
		reg.Register(domain, m, m.Kind)
	}

	var sink gateway.Sink
	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(strings.Split(cfg.Events.Brokers, ","), cfg.Events.Topic, cfg.Events.QueueSize, appLog)
		if err != nil {
			appLog.Warn("event publisher unavailable, decisions will not be published", "err", err)
		} else {
			sink = pub
			defer func() { _ = pub.Close() }()
		}
	}

	gw := gateway.New(appLog, rcache, reg, sink)
	api := httpapi.New(appLog, gw, reg, imaging.StdDecoder{})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		appLog.Info("server stopped")
		return 0
	case err := <-errCh:
		appLog.Error("server exited with error", "err", err)
		return 1
	}
}

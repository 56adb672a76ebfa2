package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/api"
	"github.com/immoleads/contact-discovery/internal/cache"
	"github.com/immoleads/contact-discovery/internal/config"
	"github.com/immoleads/contact-discovery/internal/crawl"
	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/engine"
	"github.com/immoleads/contact-discovery/internal/extract/tesseract"
	"github.com/immoleads/contact-discovery/internal/fetch"
	"github.com/immoleads/contact-discovery/internal/metrics"
	"github.com/immoleads/contact-discovery/internal/pkg/logger"
	"github.com/immoleads/contact-discovery/internal/repository/postgres"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
	"github.com/immoleads/contact-discovery/internal/validate"
	"github.com/immoleads/contact-discovery/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Persistence is optional; without a database URL the server still
	// discovers, it just cannot store.
	var db *sql.DB
	var svc *contacts.Service
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			zlog.Fatal("opening database", zap.Error(err))
		}
		defer db.Close()
		if cfg.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		}
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			zlog.Fatal("pinging database", zap.Error(err))
		}
		zlog.Info("connected to database")

		svc = contacts.NewService(postgres.NewContactRepo(db), zlog)
	} else {
		zlog.Warn("no database configured, running without persistence")
	}

	resultCache, err := cache.New(cache.Options{
		Backend:  cfg.Cache.Backend,
		RedisURL: cfg.Cache.RedisURL,
		TTL:      cfg.Cache.TTL(),
	})
	if err != nil {
		zlog.Fatal("building result cache", zap.Error(err))
	}
	defer resultCache.Close()

	m := metrics.New()

	client := fetch.NewClient(fetch.Options{
		Timeout:       cfg.Fetcher.Timeout(),
		RateLimit:     cfg.Fetcher.RateLimit(),
		MaxBodyBytes:  cfg.Fetcher.MaxBodyBytes,
		UserAgent:     cfg.Fetcher.UserAgent,
		RespectRobots: cfg.Discovery.RespectRobots,
	}, m, zlog)

	validator := validate.New(validate.Options{
		RateLimit:   cfg.Validation.RateLimit(),
		ProbeFrom:   cfg.Validation.ProbeFrom,
		HTTPTimeout: cfg.Validation.HTTPTimeout(),
	}, m, zlog)

	var extras []engine.Option
	if cfg.OCR.Enabled {
		extras = append(extras, engine.WithOCR(tesseract.New(), strings.Join(cfg.OCR.DefaultLanguages(), "+")))
	}
	if cfg.PDF.Enabled {
		extras = append(extras, engine.WithPDF())
	}

	eng, err := engine.New(client, validator, resultCache, m, zlog, engine.Options{
		Defaults: domain.DiscoveryOptions{
			EnableCrawling:      domain.Bool(cfg.Discovery.EnableCrawling),
			EnableValidation:    domain.Bool(cfg.Discovery.EnableValidation),
			ConfidenceThreshold: domain.ConfidenceLevel(cfg.Discovery.ConfidenceThreshold),
			Language:            cfg.Discovery.Language,
			CulturalContext:     cfg.Discovery.CulturalContext,
			MaxDepth:            cfg.Discovery.MaxDepth,
			RespectRobots:       domain.Bool(cfg.Discovery.RespectRobots),
			UserAgent:           cfg.Fetcher.UserAgent,
		},
		Concurrency: cfg.Discovery.Concurrency,
		Crawl: crawl.Options{
			MaxLinksPerPage: cfg.Crawler.MaxLinksPerPage,
			MaxPages:        cfg.Crawler.MaxPages,
		},
		ValidationLevel: domain.ValidationLevel(cfg.Discovery.ValidationLevel),
	}, extras...)
	if err != nil {
		zlog.Fatal("building engine", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if svc != nil {
		cleanup := worker.NewCleanupWorker(svc, worker.CleanupOptions{
			Interval:  cfg.Retention.Interval(),
			Retention: cfg.Retention.Window(),
			BatchSize: cfg.Retention.BatchSize,
		}, zlog)
		go cleanup.Start(ctx)
	}

	srv := api.NewServer(eng, svc, validator, resultCache, m, zlog)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Server.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		zlog.Fatal("http server failed", zap.Error(err))
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown incomplete", zap.Error(err))
	}
	zlog.Info("server stopped")
}

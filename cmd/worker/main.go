// The worker command runs batch discovery over a list of seed URLs: one
// discovery per URL, results upserted into the store, a summary at the end.
// URLs come from a file (one per line, # comments) or from the arguments.
package main

import (
	"bufio"
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

	"github.com/immoleads/contact-discovery/internal/config"
	"github.com/immoleads/contact-discovery/internal/crawl"
	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/engine"
	"github.com/immoleads/contact-discovery/internal/fetch"
	"github.com/immoleads/contact-discovery/internal/pkg/logger"
	"github.com/immoleads/contact-discovery/internal/repository/postgres"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
	"github.com/immoleads/contact-discovery/internal/validate"
	"github.com/immoleads/contact-discovery/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	urlsPath := flag.String("urls", "", "file with seed URLs, one per line")
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

	urls := flag.Args()
	if *urlsPath != "" {
		fromFile, err := readURLs(*urlsPath)
		if err != nil {
			zlog.Fatal("reading url file", zap.Error(err))
		}
		urls = append(fromFile, urls...)
	}
	if len(urls) == 0 {
		zlog.Fatal("no seed URLs given (use -urls or arguments)")
	}

	var svc *contacts.Service
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			zlog.Fatal("opening database", zap.Error(err))
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			zlog.Fatal("pinging database", zap.Error(err))
		}
		svc = contacts.NewService(postgres.NewContactRepo(db), zlog)
	} else {
		zlog.Warn("no database configured, results are not stored")
	}

	client := fetch.NewClient(fetch.Options{
		Timeout:       cfg.Fetcher.Timeout(),
		RateLimit:     cfg.Fetcher.RateLimit(),
		MaxBodyBytes:  cfg.Fetcher.MaxBodyBytes,
		UserAgent:     cfg.Fetcher.UserAgent,
		RespectRobots: cfg.Discovery.RespectRobots,
	}, nil, zlog)

	validator := validate.New(validate.Options{
		RateLimit:   cfg.Validation.RateLimit(),
		ProbeFrom:   cfg.Validation.ProbeFrom,
		HTTPTimeout: cfg.Validation.HTTPTimeout(),
	}, nil, zlog)

	opts := domain.DiscoveryOptions{
		EnableCrawling:      domain.Bool(cfg.Discovery.EnableCrawling),
		EnableValidation:    domain.Bool(cfg.Discovery.EnableValidation),
		ConfidenceThreshold: domain.ConfidenceLevel(cfg.Discovery.ConfidenceThreshold),
		Language:            cfg.Discovery.Language,
		CulturalContext:     cfg.Discovery.CulturalContext,
		MaxDepth:            cfg.Discovery.MaxDepth,
		RespectRobots:       domain.Bool(cfg.Discovery.RespectRobots),
		UserAgent:           cfg.Fetcher.UserAgent,
	}

	eng, err := engine.New(client, validator, nil, nil, zlog, engine.Options{
		Defaults:    opts,
		Concurrency: cfg.Discovery.Concurrency,
		Crawl: crawl.Options{
			MaxLinksPerPage: cfg.Crawler.MaxLinksPerPage,
			MaxPages:        cfg.Crawler.MaxPages,
		},
		ValidationLevel: domain.ValidationLevel(cfg.Discovery.ValidationLevel),
	})
	if err != nil {
		zlog.Fatal("building engine", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		zlog.Info("interrupted, finishing in-flight discoveries", zap.String("signal", sig.String()))
		cancel()
	}()

	runner := worker.NewBatchRunner(eng, svc, opts, zlog)
	summary, err := runner.Run(ctx, urls)
	if err != nil {
		zlog.Fatal("batch run failed", zap.Error(err))
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

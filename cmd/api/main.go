package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/vision-relay/internal/application"
	appanalyses "github.com/bryanwahyu/vision-relay/internal/application/analyses"
	"github.com/bryanwahyu/vision-relay/internal/config"
	domain "github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	openaiclient "github.com/bryanwahyu/vision-relay/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/vision-relay/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/vision-relay/internal/infra/db/postgres"
	"github.com/bryanwahyu/vision-relay/internal/infra/httpserver"
	"github.com/bryanwahyu/vision-relay/internal/infra/remote"
	minioStore "github.com/bryanwahyu/vision-relay/internal/infra/storage"
	"github.com/bryanwahyu/vision-relay/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database
	db, repo, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init analyzer
	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		log.Fatalf("analyzer init error: %v", err)
	}

	// init service
	svc := &appanalyses.Service{
		Analyzer: analyzer,
		Repo:     repo,
		Images:   store,
		Clock:    application.SystemClock{},
		Source:   cfg.Remote.Provider,
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	// probes stay outside auth and rate limiting
	mux.Get("/healthz", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"endpoint": &middleware.EndpointHealthChecker{State: svc.Status},
	}))
	mux.Get("/livez", middleware.LivenessHandler)

	mux.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
		r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
		r.Mount("/", httpserver.NewRouter(svc))
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s (provider=%s)", addr, cfg.Remote.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, domain.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := postgresp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, postgresp.NewAnalysisRepository(db), nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, mysqlp.NewAnalysisRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func buildAnalyzer(cfg *config.Config) (domain.Analyzer, error) {
	switch cfg.Remote.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil
	case "gradio":
		if err := middleware.ValidateEndpointURL(cfg.Remote.Endpoint); err != nil {
			return nil, err
		}
		return remote.New(cfg.Remote.Endpoint, cfg.RemoteTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown remote provider %q", cfg.Remote.Provider)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bbn-nutrition/storefront/internal/config"
	"github.com/bbn-nutrition/storefront/internal/db"
	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/httpserver"
	"github.com/bbn-nutrition/storefront/internal/logging"
	authmw "github.com/bbn-nutrition/storefront/internal/middleware/auth"
	"github.com/bbn-nutrition/storefront/internal/realtime"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/search"
	"github.com/bbn-nutrition/storefront/internal/service"
	"github.com/bbn-nutrition/storefront/internal/tokens"
)

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	hub := realtime.NewHub(cfg.CORSOrigins...)
	go hub.Run(runCtx)

	pubs := events.Multi{hub}
	var kafka *events.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err = events.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		pubs = append(pubs, kafka)
	} else {
		logger.Info("kafka disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index search.Index
	if cfg.ESURL != "" {
		es, err := search.NewElastic(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			logger.Warn("elasticsearch unavailable, using database search", "error", err)
		} else {
			index = es
		}
	}

	r := repo.New(gdb)
	issuer := &tokens.Issuer{AccessSecret: cfg.JWTAccessSecret, RefreshSecret: cfg.JWTRefreshSecret}
	authSvc := &service.AuthService{Repo: r, Issuer: issuer, Events: pubs}

	deps := &httpserver.Deps{
		DB:             gdb,
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc, CookieSecure: cfg.CookieSecure},
		UsersHandler:   &httpserver.UsersHTTP{Svc: &service.UserService{Repo: r, Events: pubs}},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Index: index, Events: pubs}, Uploads: &service.UploadService{Dir: cfg.UploadDir}},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Shop: cfg.Shop, Events: pubs}},
		AdminHandler:   &httpserver.AdminHTTP{Svc: &service.AdminService{Repo: r, Shop: cfg.Shop}, Hub: hub},
		AuthMW: &authmw.Middleware{
			AccessSecret:    cfg.JWTAccessSecret,
			Auth:            authSvc,
			AllowMockTokens: cfg.AllowMockTokens,
			CookieSecure:    cfg.CookieSecure,
		},
		UploadDir:    cfg.UploadDir,
		CORSOrigins:  cfg.CORSOrigins,
		CSRFEnabled:  cfg.CSRFEnabled,
		CookieSecure: cfg.CookieSecure,
	}
	e := httpserver.New(deps, logger)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	stopRun()

	if kafka != nil {
		if err := kafka.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}

	logger.Info("storefront stopped")
}

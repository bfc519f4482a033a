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

	"github.com/Skotchmaster/shopcart/internal/cache"
	"github.com/Skotchmaster/shopcart/internal/config"
	"github.com/Skotchmaster/shopcart/internal/db"
	"github.com/Skotchmaster/shopcart/internal/es"
	"github.com/Skotchmaster/shopcart/internal/httpserver"
	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/mykafka"
	"github.com/Skotchmaster/shopcart/internal/repo"
	"github.com/Skotchmaster/shopcart/internal/search"
	"github.com/Skotchmaster/shopcart/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	Repo := &repo.GormRepo{DB: gdb}

	cartService := &service.CartService{Repo: Repo}
	catalogService := &service.CatalogService{Repo: Repo}
	accountService := &service.AccountService{
		Repo:      Repo,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}

	var closers []func() error

	if cfg.RedisAddr != "" {
		client, err := cache.Connect(initCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		totals := cache.NewRedisTotals(client, cfg.CartCacheTTL)
		cartService.Cache = totals
		catalogService.Cache = totals
		closers = append(closers, client.Close)
		logger.Info("cart totals cache enabled", "addr", cfg.RedisAddr)
	}

	if cfg.ESURL != "" {
		client, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		catalogService.Index = search.NewProductIndex(client, cfg.ESIndex)
		logger.Info("product search enabled", "index", cfg.ESIndex)
	}

	cartHandler := &httpserver.CartHTTP{Svc: cartService}
	catalogHandler := &httpserver.CatalogHTTP{Svc: catalogService}
	accountHandler := &httpserver.AccountHTTP{Svc: accountService}

	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
		cartHandler.Events = prod
		catalogHandler.Events = prod
		accountHandler.Events = prod
		closers = append(closers, prod.Close)
		logger.Info("event publishing enabled", "brokers", cfg.KafkaBrokers)
	}

	e := httpserver.NewEcho(logger, &httpserver.Deps{
		DB:             gdb,
		CartHandler:    cartHandler,
		CatalogHandler: catalogHandler,
		AccountHandler: accountHandler,
	})

	addr := ":" + strconv.Itoa(cfg.ServerPort)
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Warn("close dependency", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Warn("close db", "error", err)
	}

	logger.Info("server stopped")
}

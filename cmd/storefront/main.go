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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/kv"
	"github.com/Skotchmaster/storefront/internal/logging"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/tracking"
)

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var store kv.Store = kv.NewMemory()
	var redisStore *kv.Redis
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err = kv.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ServiceName+":")
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = redisStore
		logger.Info("redis_enabled", "addr", cfg.RedisAddr)
	}

	r := &repo.GormRepo{DB: gdb}
	catalog := &service.CatalogService{Repo: r, Cache: store, Events: publisher, Index: search.NopIndexer{}}
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := search.NewElastic(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
		if err == nil {
			err = es.EnsureIndex(ctx)
		}
		cancel()
		if err != nil {
			logger.Error("elasticsearch_unavailable", "error", err)
		} else {
			catalog.Index = es
			catalog.Search = es
			logger.Info("elasticsearch_enabled", "index", cfg.ESIndex)
		}
	}

	files, err := storage.NewLocal(cfg.UploadDir, cfg.UploadURL, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}
	hub := tracking.NewHub(logger, cfg.CORSOrigins)
	carts := cart.NewStore(store)

	users := &service.UserService{Repo: r, Events: publisher, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.AccessTokenTTL}
	cartSvc := &service.CartService{Repo: r, Carts: carts}
	orders := &service.OrderService{Repo: r, Carts: carts, Events: publisher, Notifier: hub}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			logger.Info("admin_created", "email", cfg.AdminEmail)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, httpserver.GuestHeader},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(strconv.FormatInt((cfg.MaxUploadBytes>>20)*10+1, 10) + "M"))
	e.Static(cfg.UploadURL, cfg.UploadDir)

	httpserver.Register(e, &httpserver.Deps{
		Catalog:   &httpserver.CatalogHTTP{Svc: catalog, Files: files},
		Users:     &httpserver.UserHTTP{Svc: users, Carts: cartSvc, SecureCookie: os.Getenv("COOKIE_SECURE") == "true"},
		Cart:      &httpserver.CartHTTP{Svc: cartSvc},
		Orders:    &httpserver.OrderHTTP{Svc: orders, Hub: hub},
		Wishlist:  &httpserver.WishlistHTTP{Svc: &service.WishlistService{Repo: r}},
		Reviews:   &httpserver.ReviewHTTP{Svc: &service.ReviewService{Repo: r}},
		Returns:   &httpserver.ReturnHTTP{Svc: &service.ReturnService{Repo: r, Events: publisher}, Files: files},
		JWTSecret: cfg.JWTSecret,
		DB:        gdb,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_failed", "error", err)
	}
	if redisStore != nil {
		_ = redisStore.Close()
	}
	_ = db.Close(gdb)

	logger.Info("stopped")
}

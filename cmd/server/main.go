package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/mongorepo"
	"github.com/Skotchmaster/storefront/internal/ratelimit"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

type storage interface {
	service.UserRepo
	service.ProductRepo
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store   storage
		ready   func(context.Context) error
		closers []func() error
	)

	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := mongorepo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			fatal(logger, "mongo_connect_failed", err)
		}
		ms := mongorepo.New(client.Database(cfg.MongoDB))
		if err := ms.EnsureIndexes(ctx); err != nil {
			fatal(logger, "mongo_indexes_failed", err)
		}
		store = ms
		ready = mongoReady(client)
		closers = append(closers, func() error { return client.Disconnect(context.Background()) })
	default:
		gdb, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal(logger, "db_open_failed", err)
		}
		if err := db.Migrate(gdb); err != nil {
			fatal(logger, "db_migrate_failed", err)
		}
		store = repo.New(gdb)
		ready = sqlReady(gdb)
		closers = append(closers, func() error { return db.Close(gdb) })
	}

	var publisher service.EventPublisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			fatal(logger, "kafka_init_failed", err)
		}
		if err := events.EnsureTopics(ctx, cfg.KafkaBrokers, events.Topics...); err != nil {
			logger.Warn("kafka_topics_not_created", "error", err)
		}
		publisher = kp
		closers = append(closers, kp.Close)
	} else {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS not set")
	}

	var (
		indexer       service.ProductIndexer = search.Noop{}
		searchHandler *httpserver.SearchHTTP
	)
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(ctx, search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			fatal(logger, "elasticsearch_init_failed", err)
		}
		if err := esClient.EnsureIndex(ctx); err != nil {
			fatal(logger, "elasticsearch_index_failed", err)
		}
		indexer = esClient
		searchHandler = &httpserver.SearchHTTP{Svc: &service.SearchService{Searcher: esClient}}
	} else {
		logger.Info("search_disabled", "reason", "ES_URL not set")
	}

	var limiter service.LoginLimiter = ratelimit.Noop{}
	if cfg.RedisAddr != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fatal(logger, "redis_init_failed", err)
		}
		limiter = ratelimit.NewRedisLimiter(rdb, ratelimit.LoginPrefix, cfg.LoginWindow, cfg.LoginMaxAttempts)
		closers = append(closers, rdb.Close)
	}

	issuer := tokens.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)

	deps := &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Users:   store,
			Tokens:  issuer,
			Events:  publisher,
			Limiter: limiter,
		}},
		ProductHandler: &httpserver.ProductHTTP{Svc: &service.ProductService{
			Repo:    store,
			Events:  publisher,
			Indexer: indexer,
		}},
		SearchHandler: searchHandler,
		Gate:          authmw.NewGate(issuer, store),
		Ready:         ready,
	}

	e := httpserver.New(deps, logger, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http_server_started", "addr", srv.Addr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Error("resource_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}

func fatal(l *slog.Logger, msg string, err error) {
	l.Error(msg, "error", err)
	os.Exit(1)
}

func sqlReady(gdb *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	}
}

func mongoReady(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	}
}

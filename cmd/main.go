package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petalframe/catalog-backend/internal/app"
	redisclient "github.com/petalframe/catalog-backend/internal/clients/redis"
	dataagg "github.com/petalframe/catalog-backend/internal/data/aggregates"
	catalogrepos "github.com/petalframe/catalog-backend/internal/data/repos/catalog"
	"github.com/petalframe/catalog-backend/internal/db"
	"github.com/petalframe/catalog-backend/internal/handlers"
	"github.com/petalframe/catalog-backend/internal/observability"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
	"github.com/petalframe/catalog-backend/internal/server"
	"github.com/petalframe/catalog-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	// Database
	postgresService, err := db.NewPostgresService(log, cfg.DBDriver)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	categoryRepo := catalogrepos.NewCategoryRepo(thePG, log)
	productRepo := catalogrepos.NewProductRepo(thePG, log)
	slugEntryRepo := catalogrepos.NewSlugEntryRepo(thePG, log)
	visibilityRepo := catalogrepos.NewVisibilityRepo(thePG, log)

	// Optional slug cache
	var slugCache redisclient.SlugCache
	if os.Getenv("REDIS_ADDR") != "" {
		slugCache, err = redisclient.NewSlugCache(log)
		if err != nil {
			log.Warn("Slug cache init failed, continuing without it", "error", err)
			slugCache = nil
		}
	}

	// Aggregates
	log.Info("Setting up aggregates from main...")
	baseDeps := dataagg.BaseDeps{
		DB:    thePG,
		Log:   log,
		Hooks: dataagg.NewLoggingHooks(log),
	}
	categoryAggregate := dataagg.NewCategoryAggregate(dataagg.CategoryAggregateDeps{
		Base:       baseDeps,
		Categories: categoryRepo,
		Products:   productRepo,
		Slugs:      slugEntryRepo,
		Cache:      slugCache,
	})
	productAggregate := dataagg.NewProductAggregate(dataagg.ProductAggregateDeps{
		Base:       baseDeps,
		Products:   productRepo,
		Categories: categoryRepo,
		Slugs:      slugEntryRepo,
		Cache:      slugCache,
	})

	// Services
	log.Info("Setting up services from main...")
	resolverService := services.NewResolverService(thePG, log, slugEntryRepo, categoryRepo, productRepo, visibilityRepo, slugCache)
	browseService := services.NewBrowseService(thePG, log, categoryRepo, productRepo, visibilityRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	categoryHandler := handlers.NewCategoryHandler(log, categoryAggregate, browseService)
	productHandler := handlers.NewProductHandler(log, productAggregate, browseService)
	resolveHandler := handlers.NewResolveHandler(log, resolverService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:     cfg.ServiceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		CategoryHandler: categoryHandler,
		ProductHandler:  productHandler,
		ResolveHandler:  resolveHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if slugCache != nil {
			_ = slugCache.Close()
		}
		if otelShutdown != nil {
			_ = otelShutdown(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped cleanly")
}

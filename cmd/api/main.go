package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"headshotlab/internal/adapter/repo"
	"headshotlab/internal/cache"
	"headshotlab/internal/db"
	"headshotlab/internal/domain"
	"headshotlab/internal/http/handlers"
	httpapi "headshotlab/internal/http/httpapi"
	"headshotlab/internal/infra"
	"headshotlab/internal/infra/geoip"
	"headshotlab/internal/middleware"
	"headshotlab/internal/poller"
	"headshotlab/internal/reconcile"
	"headshotlab/internal/replicate"
	"headshotlab/internal/shoot"
	"headshotlab/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema migration failed")
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
	}

	provider := replicate.NewClient(replicate.Options{
		BaseURL:  cfg.ReplicateBaseURL,
		APIToken: cfg.ReplicateAPIToken,
	})

	predictions := repo.NewPredictionRepository(pool)
	reconciler := reconcile.New(predictions, provider, uploader, logger)

	// In-process polling backstop for the webhook path.
	p := poller.New(cfg.PollInterval, func(ctx context.Context, id string) (domain.PredictionStatus, error) {
		outcome, err := reconciler.Reconcile(ctx, id)
		if err != nil {
			return "", err
		}
		return outcome.Status, nil
	}, logger)
	defer p.Close()

	galleryCache, err := cache.NewGalleryCache(ctx, cfg.RedisAddr, cfg.GalleryCacheTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis init failed")
	}
	defer galleryCache.Close()

	app := handlers.NewApp(cfg, logger)
	app.Users = repo.NewUserRepository(pool)
	app.Studios = repo.NewStudioRepository(pool)
	app.Predictions = predictions
	app.Favorites = repo.NewFavoriteRepository(pool)
	app.Gallery = repo.NewGalleryRepository(pool)
	app.Launcher = shoot.NewLauncher(app.Studios, predictions, provider, p, cfg.AppBaseURL, logger)
	app.Reconciler = reconciler
	app.Cache = galleryCache

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newUploader(ctx context.Context, cfg *infra.Config) (storage.Uploader, error) {
	if cfg.MinIOEndpoint != "" {
		return storage.NewMinIOStore(ctx, storage.MinIOOptions{
			Endpoint:       cfg.MinIOEndpoint,
			AccessKey:      cfg.MinIOAccessKey,
			SecretKey:      cfg.MinIOSecretKey,
			Bucket:         cfg.MinIOBucket,
			UseSSL:         cfg.MinIOUseSSL,
			PublicBaseURL:  cfg.StoragePublicBase,
			ThumbnailWidth: cfg.ThumbnailMaxWidth,
		})
	}
	path := cfg.StoragePath
	if path == "" {
		path = "./storage"
	}
	return storage.NewFileStore(path, cfg.StoragePublicBase, cfg.ThumbnailMaxWidth)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"headshotlab/internal/adapter/repo"
	"headshotlab/internal/db"
	"headshotlab/internal/domain"
	"headshotlab/internal/infra"
	"headshotlab/internal/poller"
	"headshotlab/internal/reconcile"
	"headshotlab/internal/replicate"
	"headshotlab/internal/storage"
)

// The poller daemon picks up predictions whose webhooks never arrived. It
// seeds from the database at boot, then rescans periodically so predictions
// submitted by other processes are tracked too.
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
		logger.Fatal().Err(err).Msg("poller: db connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("poller: schema migration failed")
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("poller: storage init failed")
	}

	provider := replicate.NewClient(replicate.Options{
		BaseURL:  cfg.ReplicateBaseURL,
		APIToken: cfg.ReplicateAPIToken,
	})

	predictions := repo.NewPredictionRepository(pool)
	reconciler := reconcile.New(predictions, provider, uploader, logger)

	p := poller.New(cfg.PollInterval, func(ctx context.Context, id string) (domain.PredictionStatus, error) {
		outcome, err := reconciler.Reconcile(ctx, id)
		if err != nil {
			return "", err
		}
		return outcome.Status, nil
	}, logger)
	defer p.Close()

	seed(ctx, predictions, p, logger)

	rescan := time.NewTicker(cfg.RescanInterval)
	defer rescan.Stop()

	logger.Info().Dur("interval", cfg.PollInterval).Dur("rescan", cfg.RescanInterval).Msg("poller running")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("poller stopped")
			return
		case <-rescan.C:
			seed(ctx, predictions, p, logger)
		}
	}
}

func seed(ctx context.Context, predictions domain.PredictionRepository, p *poller.Poller, logger infra.Logger) {
	open, err := predictions.ListProcessing(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("poller: listing open predictions failed")
		return
	}
	added := 0
	for i := range open {
		if p.Track(open[i].ID) {
			added++
		}
	}
	if added > 0 {
		logger.Info().Int("tracked", added).Msg("poller: picked up open predictions")
	}
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

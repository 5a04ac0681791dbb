package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nutriweek/backend/config"
	httpDelivery "github.com/nutriweek/backend/internal/delivery/http"
	"github.com/nutriweek/backend/internal/domain"
	"github.com/nutriweek/backend/internal/infrastructure/cache"
	"github.com/nutriweek/backend/internal/infrastructure/refdata"
	"github.com/nutriweek/backend/internal/infrastructure/sources"
	"github.com/nutriweek/backend/internal/infrastructure/storage"
	"github.com/nutriweek/backend/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "nutriweek: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := newLogger(cfg.Server.Environment)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	log.Infow("starting nutriweek backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
	)

	bundle, err := refdata.Load(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}
	log.Infow("reference data loaded",
		"dir", cfg.Data.Dir,
		"foods", len(bundle.Foods),
		"stages", len(bundle.Goals),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	foodSources := buildSources(cfg, log)

	memoryCache := cache.NewMemoryCache()
	merger := usecase.NewMerger(bundle.Limits.ConfidenceWeights)
	searchService := usecase.NewSearchService(foodSources, merger, memoryCache, log, usecase.SearchServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	store, audit, err := buildShareStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing share storage: %w", err)
	}
	log.Infow("share storage ready", "type", cfg.Share.Storage)

	shareService := usecase.NewShareService(usecase.ShareConfig{
		Secret:  cfg.Share.Secret,
		BaseURL: cfg.Share.BaseURL + "/share",
		LinkTTL: cfg.Share.TTL,
		Storage: store,
		Audit:   audit,
	})

	handler := httpDelivery.NewHandler(bundle, searchService, shareService, log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(environment string) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error
	if environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// buildSources assembles the configured providers in barcode priority
// order. Providers without credentials are skipped, not errors.
func buildSources(cfg *config.Config, log *zap.SugaredLogger) []domain.FoodSource {
	var list []domain.FoodSource

	if cfg.Sources.NutritionixAppID != "" && cfg.Sources.NutritionixAppKey != "" {
		list = append(list, sources.NewNutritionixClient(
			cfg.Sources.NutritionixAppID,
			cfg.Sources.NutritionixAppKey,
			cfg.Sources.NutritionixBaseURL,
			log,
		))
	} else {
		log.Warn("nutritionix credentials not configured, source disabled")
	}

	list = append(list, sources.NewOFFClient(cfg.Sources.OFFBaseURL, log))

	if cfg.Sources.FDCAPIKey != "" {
		list = append(list, sources.NewFDCClient(cfg.Sources.FDCAPIKey, cfg.Sources.FDCBaseURL, log))
	} else {
		log.Warn("fdc api key not configured, source disabled")
	}

	return list
}

func buildShareStorage(ctx context.Context, cfg *config.Config) (domain.ObjectStore, domain.AuditLog, error) {
	switch cfg.Share.Storage {
	case "memory":
		return storage.NewMemoryStore(), storage.NewMemoryAuditLog(), nil
	case "filesystem":
		store, err := storage.NewFilesystemStore(cfg.Share.Dir)
		if err != nil {
			return nil, nil, err
		}
		audit, err := storage.NewFilesystemAuditLog(cfg.Share.AuditDir)
		if err != nil {
			return nil, nil, err
		}
		return store, audit, nil
	case "s3":
		store, err := storage.NewS3Store(ctx, cfg.Share.S3Bucket, cfg.Share.S3Prefix, cfg.Share.S3Region)
		if err != nil {
			return nil, nil, err
		}
		audit, err := storage.NewFilesystemAuditLog(cfg.Share.AuditDir)
		if err != nil {
			return nil, nil, err
		}
		return store, audit, nil
	default:
		return nil, nil, fmt.Errorf("unknown share storage type %q", cfg.Share.Storage)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"winequality/config"
	"winequality/db"
	qhttp "winequality/http"
	"winequality/ml"
	"winequality/monitoring"
	"winequality/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if servePort != 0 {
			a.config.Http.Port = servePort
			if err := a.config.Validate(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, a.config, a.logger)
	},
}

// loadPipeline never fails on missing artifacts; the service then starts
// unhealthy and answers /predict with a model error.
func loadPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	artifacts, err := ml.LoadArtifacts(cfg.Model.ScalerPath, cfg.Model.ModelPath)
	if err != nil {
		logger.Error("failed to load model artifacts",
			zap.String("scaler_path", cfg.Model.ScalerPath),
			zap.String("model_path", cfg.Model.ModelPath),
			zap.Error(err))
	} else {
		logger.Info("model artifacts loaded",
			zap.String("scaler_path", cfg.Model.ScalerPath),
			zap.String("model_path", cfg.Model.ModelPath))
	}
	return pipeline.FromArtifacts(artifacts, pipeline.WithCache(cfg.Model.CacheSize))
}

func warnOnArtifactChange(watcher *ml.ArtifactWatcher, logger *zap.Logger) {
	for path := range watcher.Changes() {
		logger.Warn("model artifact changed on disk; restart to load it", zap.String("path", path))
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	defer logger.Sync()

	p, err := loadPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Model.Watch {
		watcher, err := ml.WatchArtifacts(logger, cfg.Model.ScalerPath, cfg.Model.ModelPath)
		if err != nil {
			logger.Warn("artifact watching disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			go warnOnArtifactChange(watcher, logger)
		}
	}

	opts := []qhttp.Option{qhttp.WithMetrics(monitoring.NewMetricsCollector())}
	if cfg.Database.Path != "" {
		store, err := db.Open(cfg.Database.Path, logger)
		if err != nil {
			return fmt.Errorf("open prediction store: %w", err)
		}
		defer store.Close()
		logger.Info("prediction store opened", zap.String("path", cfg.Database.Path))
		opts = append(opts, qhttp.WithStore(store))
	}
	if cfg.Monitoring.Websocket {
		feed := monitoring.NewWebSocketHub(logger)
		go feed.Start()
		defer feed.Stop()
		opts = append(opts, qhttp.WithFeed(feed))
	}

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, qhttp.NewHandler(p, logger, opts...), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}
	logger.Info("exiting")
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override http.port")
	rootCmd.AddCommand(serveCmd)
}

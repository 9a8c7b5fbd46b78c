package main

import (
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"artifact-sifter/config"
	"artifact-sifter/internal/container"
	"artifact-sifter/internal/domain/orientation"
	"artifact-sifter/internal/domain/port"
	"artifact-sifter/internal/infrastructure/inference"
	"artifact-sifter/internal/infrastructure/metrics"
	"artifact-sifter/internal/infrastructure/storage"
	"artifact-sifter/internal/infrastructure/vision"
)

// modelDownloadTimeout ограничение на скачивание модели по URL
const modelDownloadTimeout = 5 * time.Minute

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// environment конфигурация и логгер, общие для всех команд
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

func rootCommand() *cobra.Command {
	env := &environment{}

	rootCmd := &cobra.Command{
		Use:          "artifact-sifter",
		Short:        "Снимки раскопа с тепловой картой вероятных находок",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			level, _ := cfg.SlogLevel()

			env.cfg = cfg
			env.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(env.logger)
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCommand(env),
		captureCommand(env),
		modelsCommand(env),
	)
	return rootCmd
}

func (e *environment) openStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(e.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", e.cfg.DBPath, err)
	}
	return store, nil
}

// newContainer собирает сервисы приложения. locator, camera и m могут быть nil.
func (e *environment) newContainer(store *storage.SQLiteStore, locator port.Locator, camera port.Camera, m *metrics.Metrics) *container.Container {
	cfg := e.cfg

	// Значения уже проверены в config.Load
	geometry, _ := vision.ParseGeometry(cfg.Geometry)
	scheme, _ := vision.ParseColorScheme(cfg.HeatmapScheme)
	policy, _ := orientation.ParsePolicy(cfg.CapturePolicy)

	return container.New(container.Deps{
		Users:      storage.NewMemoryUserRepository(),
		Models:     store,
		Captures:   store,
		Loader:     inference.NewTFLiteLoader(cfg.ModelThreads, e.logger),
		Locator:    locator,
		Camera:     camera,
		Metrics:    m,
		HTTPClient: &http.Client{Timeout: modelDownloadTimeout},
		Logger:     e.logger,
	}, container.Options{
		InputSize:   image.Pt(cfg.InputWidth, cfg.InputHeight),
		Geometry:    geometry,
		Normalize:   cfg.Normalize,
		Scheme:      scheme,
		Translucent: cfg.HeatmapTranslucent,
		Policy:      policy,
		GPSTimeout:  cfg.GPSTimeout,
	})
}

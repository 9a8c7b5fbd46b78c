package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	telegram "artifact-sifter/internal/api"
	"artifact-sifter/internal/domain/port"
	"artifact-sifter/internal/infrastructure/metrics"
	"artifact-sifter/internal/infrastructure/sensor"
	"artifact-sifter/internal/infrastructure/vision"
)

func serveCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить Telegram-бота",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), env)
		},
	}
}

func serve(ctx context.Context, env *environment) error {
	cfg, logger := env.cfg, env.logger
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()

	// Датчики: MQTT даёт наклон и координаты, последовательный порт — только наклон
	var (
		source  port.OrientationSource
		locator port.Locator
	)
	if cfg.MQTT.Broker != "" {
		mq := sensor.NewMQTTSource(sensor.MQTTConfig{
			Broker:           cfg.MQTT.Broker,
			ClientID:         cfg.MQTT.ClientID,
			Username:         cfg.MQTT.Username,
			Password:         cfg.MQTT.Password,
			OrientationTopic: cfg.MQTT.OrientationTopic,
			GPSTopic:         cfg.MQTT.GPSTopic,
		}, logger)
		if err := mq.Connect(ctx); err != nil {
			// Без брокера снимаем без датчика
			logger.Warn("mqtt broker is not available", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			defer mq.Close()
			source, locator = mq, mq
		}
	}
	if cfg.SerialPort != "" {
		source = sensor.NewSerialSource(cfg.SerialPort, cfg.SerialBaud, logger)
	}

	var camera port.Camera
	if cfg.CameraDevice != "" {
		cam, err := vision.NewGoCVCamera(cfg.CameraDevice)
		if err != nil {
			logger.Warn("camera is not available", "device", cfg.CameraDevice, "error", err)
		} else {
			defer cam.Close()
			camera = cam
		}
	}

	c := env.newContainer(store, locator, camera, m)
	defer func() {
		if err := c.ModelService.Deactivate(c.Session); err != nil {
			logger.Warn("failed to release model", "error", err)
		}
	}()

	go func() {
		if err := c.Session.Watch(ctx, source); err != nil {
			logger.Warn("orientation sensor stopped", "error", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics endpoint started", "addr", cfg.MetricsAddr)
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, c, logger.With("component", "telegram"))
	if err != nil {
		return err
	}

	logger.Info("bot is running", "session", c.Session.ID, "policy", c.Session.Policy())
	return bot.Run(ctx)
}

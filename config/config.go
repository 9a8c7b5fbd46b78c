package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"artifact-sifter/internal/domain/orientation"
	"artifact-sifter/internal/infrastructure/vision"
)

// MQTTConfig подключение к брокеру с данными датчиков
type MQTTConfig struct {
	Broker           string
	ClientID         string
	Username         string
	Password         string
	OrientationTopic string
	GPSTopic         string
}

type Config struct {
	TelegramToken string
	DBPath        string

	// Модель и тепловая карта
	InputWidth         int
	InputHeight        int
	Geometry           string
	Normalize          bool
	HeatmapScheme      string
	HeatmapTranslucent bool
	ModelThreads       int

	// Съёмка
	CapturePolicy string
	GPSTimeout    time.Duration
	CameraDevice  string

	// Датчики
	MQTT       MQTTConfig
	SerialPort string
	SerialBaud int

	MetricsAddr string
	LogLevel    string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		TelegramToken: v.GetString("telegram_token"),
		DBPath:        v.GetString("db_path"),

		InputWidth:         v.GetInt("model_input_width"),
		InputHeight:        v.GetInt("model_input_height"),
		Geometry:           v.GetString("model_geometry"),
		Normalize:          v.GetBool("model_normalize"),
		HeatmapScheme:      v.GetString("heatmap_scheme"),
		HeatmapTranslucent: v.GetBool("heatmap_translucent"),
		ModelThreads:       v.GetInt("model_threads"),

		CapturePolicy: v.GetString("capture_policy"),
		GPSTimeout:    v.GetDuration("gps_timeout"),
		CameraDevice:  v.GetString("camera_device"),

		MQTT: MQTTConfig{
			Broker:           v.GetString("mqtt_broker"),
			ClientID:         v.GetString("mqtt_client_id"),
			Username:         v.GetString("mqtt_username"),
			Password:         v.GetString("mqtt_password"),
			OrientationTopic: v.GetString("mqtt_orientation_topic"),
			GPSTopic:         v.GetString("mqtt_gps_topic"),
		},
		SerialPort: v.GetString("serial_port"),
		SerialBaud: v.GetInt("serial_baud"),

		MetricsAddr: v.GetString("metrics_addr"),
		LogLevel:    v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "artifact_sifter.db")
	v.SetDefault("model_input_width", 256)
	v.SetDefault("model_input_height", 256)
	v.SetDefault("model_geometry", string(vision.GeometryCenterCrop))
	v.SetDefault("model_normalize", true)
	v.SetDefault("heatmap_scheme", string(vision.SchemeRamp))
	v.SetDefault("heatmap_translucent", false)
	v.SetDefault("model_threads", 2)
	v.SetDefault("capture_policy", string(orientation.PolicyLenient))
	v.SetDefault("gps_timeout", 4*time.Second)
	v.SetDefault("mqtt_client_id", "artifact-sifter")
	v.SetDefault("mqtt_orientation_topic", "sifter/orientation")
	v.SetDefault("mqtt_gps_topic", "sifter/gps")
	v.SetDefault("serial_baud", 115200)
	v.SetDefault("log_level", "info")
}

// Validate проверяет значения перечислений и размеры.
func (c *Config) Validate() error {
	var errs []error

	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		errs = append(errs, fmt.Errorf("model input size must be positive, got %dx%d", c.InputWidth, c.InputHeight))
	}
	if _, err := vision.ParseGeometry(c.Geometry); err != nil {
		errs = append(errs, err)
	}
	if _, err := vision.ParseColorScheme(c.HeatmapScheme); err != nil {
		errs = append(errs, err)
	}
	if _, err := orientation.ParsePolicy(c.CapturePolicy); err != nil {
		errs = append(errs, err)
	}
	if c.GPSTimeout < 0 {
		errs = append(errs, fmt.Errorf("gps timeout must not be negative, got %s", c.GPSTimeout))
	}
	if c.ModelThreads < 0 {
		errs = append(errs, fmt.Errorf("model threads must not be negative, got %d", c.ModelThreads))
	}
	if c.SerialPort != "" && c.SerialBaud <= 0 {
		errs = append(errs, fmt.Errorf("serial baud must be positive, got %d", c.SerialBaud))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel переводит LOG_LEVEL в уровень slog.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

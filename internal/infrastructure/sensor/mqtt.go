package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
)

const (
	connectTimeout   = 30 * time.Second
	subscribeTimeout = 10 * time.Second
	sampleBuffer     = 16
)

// MQTTConfig настройки подключения к брокеру
type MQTTConfig struct {
	Broker           string
	ClientID         string
	Username         string
	Password         string
	OrientationTopic string
	GPSTopic         string
}

// MQTTSource отсчёты ориентации и координаты из топиков MQTT
type MQTTSource struct {
	config MQTTConfig
	client mqtt.Client
	fixes  *FixCache
	logger *slog.Logger
}

// NewMQTTSource создаёт источник. Подключение — в Connect.
func NewMQTTSource(config MQTTConfig, logger *slog.Logger) *MQTTSource {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	return newMQTTSource(config, mqtt.NewClient(opts), logger)
}

func newMQTTSource(config MQTTConfig, client mqtt.Client, logger *slog.Logger) *MQTTSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTSource{
		config: config,
		client: client,
		fixes:  NewFixCache(DefaultFixMaxAge),
		logger: logger.With(slog.String("component", "mqtt")),
	}
}

// Connect подключается к брокеру и подписывается на координаты.
func (s *MQTTSource) Connect(ctx context.Context) error {
	token := s.client.Connect()
	if err := waitToken(ctx, token, connectTimeout); err != nil {
		return fmt.Errorf("connect to %s: %w", s.config.Broker, err)
	}
	s.logger.Info("connected to broker", slog.String("broker", s.config.Broker))

	if s.config.GPSTopic == "" {
		return nil
	}

	token = s.client.Subscribe(s.config.GPSTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fix, err := ParseFix(msg.Payload())
		if err != nil {
			s.logger.Warn("skip gps message", slog.String("topic", msg.Topic()), slog.Any("error", err))
			return
		}
		s.fixes.Put(fix)
	})
	if err := waitToken(ctx, token, subscribeTimeout); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.config.GPSTopic, err)
	}
	return nil
}

// Samples подписывается на топик ориентации. Канал закрывается при отмене ctx.
func (s *MQTTSource) Samples(ctx context.Context) (<-chan entity.OrientationSample, error) {
	if s.config.OrientationTopic == "" {
		return nil, port.ErrSensorUnavailable
	}

	out := make(chan entity.OrientationSample, sampleBuffer)
	var (
		mu     sync.Mutex
		closed bool
	)

	token := s.client.Subscribe(s.config.OrientationTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		sample, err := ParseSample(msg.Payload())
		if err != nil {
			s.logger.Warn("skip orientation message", slog.String("topic", msg.Topic()), slog.Any("error", err))
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- sample:
		default:
			// потребитель не успевает — старые отсчёты всё равно устарели
		}
	})
	if err := waitToken(ctx, token, subscribeTimeout); err != nil {
		return nil, fmt.Errorf("%w: subscribe %s: %v", port.ErrSensorUnavailable, s.config.OrientationTopic, err)
	}

	go func() {
		<-ctx.Done()
		s.client.Unsubscribe(s.config.OrientationTopic)

		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}

// Locate возвращает свежие координаты из топика GPS.
func (s *MQTTSource) Locate(ctx context.Context) (*entity.GPSFix, error) {
	if s.config.GPSTopic == "" {
		return nil, port.ErrGeolocationUnavailable
	}
	return s.fixes.Locate(ctx)
}

// Close отключается от брокера.
func (s *MQTTSource) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}

func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errors.New("timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	_ port.OrientationSource = (*MQTTSource)(nil)
	_ port.Locator           = (*MQTTSource)(nil)
)

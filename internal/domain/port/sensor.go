package port

import (
	"context"
	"errors"
	"image"

	"artifact-sifter/internal/domain/entity"
)

var (
	// ErrSensorUnavailable датчика ориентации нет. Не ошибка съёмки.
	ErrSensorUnavailable = errors.New("orientation sensor unavailable")

	// ErrGeolocationUnavailable координаты получить не удалось
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
)

// OrientationSource поток отсчётов ориентации
type OrientationSource interface {
	// Samples возвращает канал отсчётов, который закрывается при завершении ctx.
	// ErrSensorUnavailable, если датчика нет.
	Samples(ctx context.Context) (<-chan entity.OrientationSample, error)
}

// Locator однократный запрос координат
type Locator interface {
	Locate(ctx context.Context) (*entity.GPSFix, error)
}

// Camera источник живых кадров
type Camera interface {
	// Grab возвращает текущий кадр
	Grab(ctx context.Context) (image.Image, error)

	Close() error
}

package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.bug.st/serial"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
)

// DefaultBaudRate скорость порта IMU по умолчанию
const DefaultBaudRate = 115200

// SerialSource отсчёты ориентации построчно из последовательного порта IMU
type SerialSource struct {
	path   string
	open   func() (io.ReadCloser, error)
	logger *slog.Logger
}

// NewSerialSource создаёт источник для порта path.
func NewSerialSource(path string, baud int, logger *slog.Logger) *SerialSource {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	return newSerialSource(path, func() (io.ReadCloser, error) {
		return serial.Open(path, mode)
	}, logger)
}

func newSerialSource(path string, open func() (io.ReadCloser, error), logger *slog.Logger) *SerialSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialSource{
		path:   path,
		open:   open,
		logger: logger.With(slog.String("component", "serial"), slog.String("port", path)),
	}
}

// Samples открывает порт и читает отсчёты до отмены ctx или конца потока.
func (s *SerialSource) Samples(ctx context.Context) (<-chan entity.OrientationSample, error) {
	if s.path == "" {
		return nil, port.ErrSensorUnavailable
	}

	rc, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", port.ErrSensorUnavailable, s.path, err)
	}

	out := make(chan entity.OrientationSample, sampleBuffer)
	done := make(chan struct{})

	// Закрытие порта прерывает блокирующее чтение.
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		rc.Close()
	}()

	go func() {
		defer close(out)
		defer close(done)

		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			sample, err := ParseSample(scanner.Bytes())
			if err != nil {
				s.logger.Debug("skip serial line", slog.Any("error", err))
				continue
			}
			select {
			case out <- sample:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			s.logger.Warn("serial read failed", slog.Any("error", err))
		}
	}()

	return out, nil
}

var _ port.OrientationSource = (*SerialSource)(nil)

//go:build !tflite
// +build !tflite

package inference

import (
	"context"
	"errors"
	"log/slog"

	"artifact-sifter/internal/domain/port"
)

// TFLiteLoader заглушка загрузчика (без TensorFlow Lite).
type TFLiteLoader struct {
	Threads int
	Logger  *slog.Logger
}

// NewTFLiteLoader создаёт загрузчик-заглушку.
func NewTFLiteLoader(threads int, logger *slog.Logger) *TFLiteLoader {
	return &TFLiteLoader{Threads: threads, Logger: logger}
}

// Load возвращает ошибку, если сборка без тега tflite.
func (l *TFLiteLoader) Load(ctx context.Context, blob []byte) (port.Runtime, error) {
	_ = ctx
	_ = blob
	return nil, errors.New("tflite build tag is not enabled")
}

var _ port.RuntimeLoader = (*TFLiteLoader)(nil)

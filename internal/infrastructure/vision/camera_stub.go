//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// GoCVCamera заглушка камеры (без OpenCV).
type GoCVCamera struct{}

// NewGoCVCamera возвращает ошибку, если сборка без тега gocv.
func NewGoCVCamera(device string) (*GoCVCamera, error) {
	_ = device
	return nil, errNoGoCV
}

// Grab возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCamera) Grab(ctx context.Context) (image.Image, error) {
	_ = ctx
	return nil, errNoGoCV
}

// Close ничего не делает.
func (c *GoCVCamera) Close() error {
	return nil
}

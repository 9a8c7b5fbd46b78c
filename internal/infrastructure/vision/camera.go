//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// GoCVCamera живые кадры с камеры через OpenCV
type GoCVCamera struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// NewGoCVCamera открывает камеру по номеру устройства или URL потока.
func NewGoCVCamera(device string) (*GoCVCamera, error) {
	var source interface{} = device
	if id, err := strconv.Atoi(device); err == nil {
		source = id
	}

	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", device, err)
	}

	return &GoCVCamera{
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// Grab читает текущий кадр.
func (c *GoCVCamera) Grab(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, errors.New("failed to read camera frame")
	}

	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert camera frame: %w", err)
	}
	return img, nil
}

// Close освобождает камеру.
func (c *GoCVCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mat.Close()
	return c.capture.Close()
}

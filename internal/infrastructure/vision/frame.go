package vision

import (
	"image"

	"golang.org/x/image/draw"

	"artifact-sifter/internal/domain/entity"
)

const (
	// Соотношение сторон сохраняемого кадра 4:3
	aspectW = 4
	aspectH = 3

	fallbackWidth  = 1280
	fallbackHeight = 720
)

// FrameCrop вычисляет область кадра с соотношением 4:3 по центру.
// Все деления целочисленные (округление вниз), сторона не меньше 1 пикселя.
func FrameCrop(width, height int) image.Rectangle {
	if width <= 0 || height <= 0 {
		width, height = fallbackWidth, fallbackHeight
	}

	// Слишком широкий кадр — обрезаем по ширине.
	if width*aspectH > height*aspectW {
		targetW := max(1, height*aspectW/aspectH)
		offsetX := (width - targetW) / 2
		return image.Rect(offsetX, 0, offsetX+targetW, height)
	}

	targetH := max(1, width*aspectH/aspectW)
	offsetY := (height - targetH) / 2
	return image.Rect(0, offsetY, width, offsetY+targetH)
}

// CaptureFrame вырезает из живого кадра область 4:3.
// nominalW и nominalH — размеры, которые сообщает устройство; при нулях берётся 1280x720.
// Пиксели вне живого кадра остаются прозрачными.
func CaptureFrame(live image.Image, nominalW, nominalH int) entity.Frame {
	crop := FrameCrop(nominalW, nominalH)
	frame := entity.NewFrame(crop.Dx(), crop.Dy())
	if live == nil {
		return frame
	}

	dst := frame.RGBA()
	sp := live.Bounds().Min.Add(crop.Min)
	draw.Draw(dst, dst.Bounds(), live, sp, draw.Src)
	return frame
}

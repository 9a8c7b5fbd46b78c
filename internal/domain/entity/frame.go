package entity

import "image"

// Frame кадр после кадрирования. Pix — RGBA построчно, шаг 4*Width.
// После создания не изменяется.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// NewFrame выделяет пустой кадр заданного размера.
func NewFrame(width, height int) Frame {
	return Frame{
		Pix:    make([]byte, 4*width*height),
		Width:  width,
		Height: height,
	}
}

// FrameFromRGBA копирует изображение в новый кадр.
func FrameFromRGBA(img *image.RGBA) Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(f.Pix[y*4*f.Width:(y+1)*4*f.Width], src[:4*f.Width])
	}
	return f
}

// RGBA возвращает изображение поверх тех же пикселей (без копирования).
func (f Frame) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: 4 * f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Empty сообщает, что в кадре нет пикселей
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0
}

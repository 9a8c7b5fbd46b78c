package vision

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"artifact-sifter/internal/domain/entity"
)

var (
	// ErrInvalidInputSize размер входа модели должен быть положительным
	ErrInvalidInputSize = errors.New("invalid model input size")

	// ErrEmptyFrame в кадре нет пикселей
	ErrEmptyFrame = errors.New("empty frame")
)

// Статистики ImageNet для нормализации по каналам R, G, B
var (
	imageNetMean = [3]float64{0.485, 0.456, 0.406}
	imageNetStd  = [3]float64{0.229, 0.224, 0.225}
)

// Geometry способ подготовки кадра для модели
type Geometry string

const (
	// GeometryCenterCrop центральный квадрат, затем масштаб. Сохраняет выравнивание с фото.
	GeometryCenterCrop Geometry = "center_crop"

	// GeometryDirect весь кадр растягивается до входа модели (старые модели).
	GeometryDirect Geometry = "direct"
)

// ParseGeometry разбирает значение из конфигурации.
func ParseGeometry(s string) (Geometry, error) {
	switch Geometry(s) {
	case GeometryCenterCrop, GeometryDirect:
		return Geometry(s), nil
	case "":
		return GeometryCenterCrop, nil
	default:
		return "", fmt.Errorf("unknown preprocessing geometry %q", s)
	}
}

// Layout порядок осей входного тензора
type Layout string

const (
	LayoutNCHW Layout = "nchw" // планарный [1,3,H,W]
	LayoutNHWC Layout = "nhwc" // чередующийся [1,H,W,3], обычный для TFLite
)

// Prepared вход модели и геометрия обратного отображения
type Prepared struct {
	Tensor   entity.Tensor
	Geometry entity.CropGeometry
	Aligned  bool // true, если Geometry описывает реально вырезанный квадрат
}

// Preprocessor готовит кадр для модели
type Preprocessor struct {
	Geometry     Geometry
	Normalize    bool
	Interpolator draw.Interpolator
}

// NewPreprocessor создаёт препроцессор с билинейным масштабированием.
func NewPreprocessor(geometry Geometry, normalize bool) *Preprocessor {
	return &Preprocessor{
		Geometry:     geometry,
		Normalize:    normalize,
		Interpolator: draw.BiLinear,
	}
}

// Prepare вырезает и масштабирует кадр и переводит его в тензор [1,3,H,W].
func (p *Preprocessor) Prepare(frame entity.Frame, size image.Point) (Prepared, error) {
	return p.PrepareLayout(frame, size, LayoutNCHW)
}

// PrepareLayout как Prepare, но с заданным порядком осей тензора.
func (p *Preprocessor) PrepareLayout(frame entity.Frame, size image.Point, layout Layout) (Prepared, error) {
	if size.X <= 0 || size.Y <= 0 {
		return Prepared{}, fmt.Errorf("%w: %dx%d", ErrInvalidInputSize, size.X, size.Y)
	}
	if frame.Empty() {
		return Prepared{}, ErrEmptyFrame
	}

	geom := SquareCrop(frame.Width, frame.Height)
	src := image.Rect(0, 0, frame.Width, frame.Height)
	aligned := p.Geometry != GeometryDirect
	if aligned {
		src = geom.Rect()
	} else {
		geom.OffsetX, geom.OffsetY = 0, 0
	}

	resized := p.resize(frame.RGBA(), src, size)
	return Prepared{
		Tensor:   ToTensorLayout(resized, p.Normalize, layout),
		Geometry: geom,
		Aligned:  aligned,
	}, nil
}

func (p *Preprocessor) resize(src *image.RGBA, sr image.Rectangle, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))

	// Размер совпадает — копируем без интерполяции.
	if sr.Size() == size {
		draw.Draw(dst, dst.Bounds(), src, sr.Min, draw.Src)
		return dst
	}

	interp := p.Interpolator
	if interp == nil {
		interp = draw.BiLinear
	}
	interp.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return dst
}

// SquareCrop возвращает максимальный квадрат по центру кадра.
func SquareCrop(width, height int) entity.CropGeometry {
	side := min(width, height)
	return entity.CropGeometry{
		Side:      side,
		OffsetX:   (width - side) / 2,
		OffsetY:   (height - side) / 2,
		SrcWidth:  width,
		SrcHeight: height,
	}
}

// ToTensor переводит RGBA в планарный float32 [1,3,H,W]. Альфа отбрасывается.
func ToTensor(img *image.RGBA, normalize bool) entity.Tensor {
	return ToTensorLayout(img, normalize, LayoutNCHW)
}

// ToTensorLayout переводит RGBA в float32 тензор с порядком осей layout.
func ToTensorLayout(img *image.RGBA, normalize bool, layout Layout) entity.Tensor {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	data := make([]float32, 3*plane)
	nhwc := layout == LayoutNHWC

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			i := y*w + x
			for c := 0; c < 3; c++ {
				v := Component(img.Pix[off+c], c, normalize)
				if nhwc {
					data[3*i+c] = v
				} else {
					data[c*plane+i] = v
				}
			}
		}
	}

	dims := []int{1, 3, h, w}
	if nhwc {
		dims = []int{1, h, w, 3}
	}
	return entity.Tensor{
		DType: entity.DTypeFloat32,
		Dims:  dims,
		Data:  data,
	}
}

// Component переводит 8-битную компоненту канала c в значение тензора.
func Component(v uint8, c int, normalize bool) float32 {
	f := float64(v) / 255
	if normalize {
		f = (f - imageNetMean[c]) / imageNetStd[c]
	}
	return float32(f)
}

package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"artifact-sifter/internal/domain/entity"
)

var (
	// ErrInvalidGeometry геометрия не описывает квадрат внутри кадра
	ErrInvalidGeometry = errors.New("invalid crop geometry")

	// ErrEmptyMap в карте вероятностей нет значений
	ErrEmptyMap = errors.New("empty probability map")
)

// NeutralFill цвет вне области, которую видела модель
var NeutralFill = color.RGBA{A: 255}

// ColorScheme цветовая шкала тепловой карты
type ColorScheme string

const (
	// SchemeRamp дискретная шкала из 16 ступеней, яркость растёт с вероятностью
	SchemeRamp ColorScheme = "ramp"

	// SchemeDiverging синий → пурпурный → красный
	SchemeDiverging ColorScheme = "diverging"
)

// ParseColorScheme разбирает значение из конфигурации.
func ParseColorScheme(s string) (ColorScheme, error) {
	switch ColorScheme(s) {
	case SchemeRamp, SchemeDiverging:
		return ColorScheme(s), nil
	case "":
		return SchemeRamp, nil
	default:
		return "", fmt.Errorf("unknown heatmap color scheme %q", s)
	}
}

// rampStops шкала в духе inferno, от низкой вероятности к высокой
var rampStops = [...]color.RGBA{
	{0, 0, 4, 255},
	{12, 8, 38, 255},
	{36, 12, 79, 255},
	{66, 10, 104, 255},
	{93, 18, 110, 255},
	{120, 28, 109, 255},
	{147, 38, 103, 255},
	{174, 48, 92, 255},
	{199, 62, 76, 255},
	{221, 81, 58, 255},
	{237, 105, 37, 255},
	{248, 133, 15, 255},
	{252, 165, 10, 255},
	{250, 198, 45, 255},
	{242, 230, 97, 255},
	{252, 255, 164, 255},
}

// Compositor раскрашивает карту вероятностей и возвращает её в координаты кадра
type Compositor struct {
	Scheme      ColorScheme
	Translucent bool // альфа 180+75v для наложения на фото
}

// NewCompositor создаёт компоновщик.
func NewCompositor(scheme ColorScheme, translucent bool) *Compositor {
	return &Compositor{Scheme: scheme, Translucent: translucent}
}

// Color возвращает цвет для вероятности v.
func (c *Compositor) Color(v float64) color.RGBA {
	v = clamp01(v)

	var out color.RGBA
	switch c.Scheme {
	case SchemeDiverging:
		out = divergingColor(v)
	default:
		idx := int(v * float64(len(rampStops)))
		if idx >= len(rampStops) {
			idx = len(rampStops) - 1
		}
		out = rampStops[idx]
	}

	out.A = 255
	if c.Translucent {
		out.A = uint8(math.Round(180 + 75*v))
	}
	return out
}

func divergingColor(v float64) color.RGBA {
	if v < 0.5 {
		t := v / 0.5
		return color.RGBA{R: uint8(math.Round(255 * t)), B: 255}
	}
	t := (v - 0.5) / 0.5
	return color.RGBA{R: 255, B: uint8(math.Round(255 * (1 - t)))}
}

// Colorize раскрашивает карту в изображение её собственного размера.
func (c *Compositor) Colorize(m entity.ProbabilityMap) (*image.RGBA, error) {
	if m.Width <= 0 || m.Height <= 0 || len(m.Values) < m.Width*m.Height {
		return nil, ErrEmptyMap
	}

	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Values[:m.Width*m.Height] {
		col := c.Color(v)
		img.Pix[4*i+0] = col.R
		img.Pix[4*i+1] = col.G
		img.Pix[4*i+2] = col.B
		img.Pix[4*i+3] = col.A
	}
	return img, nil
}

// Composite раскрашивает карту и вклеивает её в квадрат geom кадра исходного размера.
// Остальная часть кадра заливается NeutralFill. Без геометрии карта возвращается как есть.
func (c *Compositor) Composite(m entity.ProbabilityMap, geom *entity.CropGeometry) (*image.RGBA, error) {
	colored, err := c.Colorize(m)
	if err != nil {
		return nil, err
	}
	if geom == nil {
		return colored, nil
	}
	if !geom.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidGeometry, *geom)
	}

	out := image.NewRGBA(image.Rect(0, 0, geom.SrcWidth, geom.SrcHeight))
	draw.Draw(out, out.Bounds(), image.NewUniform(NeutralFill), image.Point{}, draw.Src)

	// Ближайший сосед — без размытия границ классов.
	draw.NearestNeighbor.Scale(out, geom.Rect(), colored, colored.Bounds(), draw.Src, nil)
	return out, nil
}

// Overlay накладывает тепловую карту на фото с учётом её альфы.
// Карта растягивается до размера кадра.
func Overlay(frame entity.Frame, heatmap image.Image) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	draw.Draw(out, out.Bounds(), frame.RGBA(), image.Point{}, draw.Src)
	draw.NearestNeighbor.Scale(out, out.Bounds(), heatmap, heatmap.Bounds(), draw.Over, nil)
	return out
}

// Compare собирает изображение для сравнения: слева от split тепловая карта, справа фото.
// split — доля ширины в [0,1].
func Compare(frame entity.Frame, heatmap image.Image, split float64) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	draw.Draw(out, out.Bounds(), frame.RGBA(), image.Point{}, draw.Src)

	scaled := image.NewRGBA(out.Bounds())
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), heatmap, heatmap.Bounds(), draw.Src, nil)

	cut := int(math.Round(clamp01(split) * float64(frame.Width)))
	left := image.Rect(0, 0, cut, frame.Height)
	draw.Draw(out, left, scaled, image.Point{}, draw.Over)
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

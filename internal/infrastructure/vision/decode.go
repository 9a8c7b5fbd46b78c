package vision

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"artifact-sifter/internal/domain/entity"
)

// ErrUnsupportedOutputShape форма выхода модели не поддерживается
var ErrUnsupportedOutputShape = errors.New("unsupported output shape")

// Decode выбирает поверхность логитов из выхода модели и применяет сигмоиду.
//
// Поддерживаемые формы: [n,c,h,w] (c=1 или c=2), [c,h,w] / [n,h,w], [n,w].
// При двух каналах берётся второй (передний план).
func Decode(out entity.Tensor) (entity.ProbabilityMap, error) {
	dims := out.Dims
	for _, d := range dims {
		if d <= 0 {
			return entity.ProbabilityMap{}, fmt.Errorf("%w: %v", ErrUnsupportedOutputShape, dims)
		}
	}

	var h, w, plane int
	switch len(dims) {
	case 4:
		h, w = dims[2], dims[3]
		switch dims[1] {
		case 1:
		case 2:
			plane = 1
		default:
			return entity.ProbabilityMap{}, fmt.Errorf("%w: %d channels", ErrUnsupportedOutputShape, dims[1])
		}
	case 3:
		h, w = dims[1], dims[2]
		if dims[0] == 2 {
			plane = 1
		}
	case 2:
		h, w = 1, dims[1]
	default:
		return entity.ProbabilityMap{}, fmt.Errorf("%w: rank %d", ErrUnsupportedOutputShape, len(dims))
	}

	size := h * w
	start := plane * size
	if len(out.Data) < start+size {
		return entity.ProbabilityMap{}, fmt.Errorf("%w: %v needs %d values, got %d",
			ErrUnsupportedOutputShape, dims, start+size, len(out.Data))
	}

	values := make([]float64, size)
	for i, x := range out.Data[start : start+size] {
		values[i] = Sigmoid(float64(x))
	}

	return entity.ProbabilityMap{Width: w, Height: h, Values: values}, nil
}

// Sigmoid численно устойчивая логистическая функция. NaN считается фоном.
func Sigmoid(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Summary сводка по карте вероятностей
type Summary struct {
	Peak     float64 // максимальная вероятность
	Mean     float64 // средняя вероятность
	Coverage float64 // доля пикселей с вероятностью >= 0.5
}

// Summarize считает сводку по карте.
func Summarize(m entity.ProbabilityMap) Summary {
	if len(m.Values) == 0 {
		return Summary{}
	}

	hot := 0
	for _, v := range m.Values {
		if v >= 0.5 {
			hot++
		}
	}

	return Summary{
		Peak:     floats.Max(m.Values),
		Mean:     stat.Mean(m.Values, nil),
		Coverage: float64(hot) / float64(len(m.Values)),
	}
}

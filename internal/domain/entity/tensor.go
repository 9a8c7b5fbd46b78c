package entity

// DTypeFloat32 единственный тип данных, с которым работает конвейер
const DTypeFloat32 = "float32"

// Tensor плотный буфер с размерностями
type Tensor struct {
	DType string
	Dims  []int
	Data  []float32
}

// Size возвращает произведение размерностей
func (t Tensor) Size() int {
	if len(t.Dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// ProbabilityMap карта вероятностей [Height][Width], значения в [0,1]
type ProbabilityMap struct {
	Width  int
	Height int
	Values []float64
}

// At возвращает вероятность в точке (x, y)
func (m ProbabilityMap) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

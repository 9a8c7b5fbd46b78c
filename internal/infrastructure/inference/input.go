package inference

import (
	"errors"
	"fmt"
	"slices"

	"artifact-sifter/internal/domain/entity"
)

// ErrInputShapeMismatch форма входа не совпадает с ожидаемой моделью
var ErrInputShapeMismatch = errors.New("input shape mismatch")

// checkInput сверяет форму и размер входного тензора с формой входа модели.
// Совпадения числа элементов мало: [1,3,H,W] и [1,H,W,3] одного размера.
func checkInput(name string, want []int, in entity.Tensor) error {
	if !slices.Equal(want, in.Dims) {
		return fmt.Errorf("%w: input %q expects %v, got %v", ErrInputShapeMismatch, name, want, in.Dims)
	}
	if size := in.Size(); len(in.Data) != size {
		return fmt.Errorf("%w: input %q has %d values for shape %v", ErrInputShapeMismatch, name, len(in.Data), in.Dims)
	}
	return nil
}

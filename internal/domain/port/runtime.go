package port

import (
	"context"

	"artifact-sifter/internal/domain/entity"
)

// Runtime среда выполнения модели
type Runtime interface {
	// InputNames возвращает имена входных тензоров
	InputNames() []string

	// OutputNames возвращает имена выходных тензоров
	OutputNames() []string

	// Run выполняет модель на именованных входах
	Run(ctx context.Context, inputs map[string]entity.Tensor) (map[string]entity.Tensor, error)

	// Close освобождает ресурсы
	Close() error
}

// InputShaper реализуется средами, которые знают форму входа модели.
type InputShaper interface {
	InputDims() []int
}

// RuntimeLoader загружает модель из бинарного представления
type RuntimeLoader interface {
	Load(ctx context.Context, model []byte) (Runtime, error)
}

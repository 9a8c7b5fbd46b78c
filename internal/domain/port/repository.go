package port

import (
	"context"

	"artifact-sifter/internal/domain/entity"
)

// ModelRepository хранилище моделей
type ModelRepository interface {
	// AddModel сохраняет модель и возвращает присвоенный ID
	AddModel(ctx context.Context, model entity.ModelRecord) (int64, error)

	// GetModel возвращает модель или nil, если её нет
	GetModel(ctx context.Context, id int64) (*entity.ModelRecord, error)

	// ListModels возвращает все модели без сортировки
	ListModels(ctx context.Context) ([]entity.ModelRecord, error)

	// DeleteModel удаляет модель
	DeleteModel(ctx context.Context, id int64) error
}

// CaptureRepository хранилище снимков
type CaptureRepository interface {
	// AddCapture сохраняет снимок и возвращает присвоенный ID
	AddCapture(ctx context.Context, capture entity.CaptureRecord) (int64, error)

	// GetCapture возвращает снимок или nil, если его нет
	GetCapture(ctx context.Context, id int64) (*entity.CaptureRecord, error)

	// ListCaptures возвращает все снимки без сортировки
	ListCaptures(ctx context.Context) ([]entity.CaptureRecord, error)

	// DeleteCapture удаляет снимок
	DeleteCapture(ctx context.Context, id int64) error
}

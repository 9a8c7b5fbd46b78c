package app

import "errors"

var (
	// ErrCaptureNotPermitted политика съёмки запрещает снимок при текущем наклоне
	ErrCaptureNotPermitted = errors.New("capture is not permitted in current orientation")

	// ErrCaptureInProgress предыдущий снимок ещё обрабатывается
	ErrCaptureInProgress = errors.New("capture is already in progress")

	// ErrInferenceFailure инференс не удался, снимок сохранён без тепловой карты
	ErrInferenceFailure = errors.New("inference failed")

	// ErrModelNotFound модели с таким id нет в хранилище
	ErrModelNotFound = errors.New("model not found")

	// ErrModelLoadFailure модель не удалось загрузить в среду выполнения
	ErrModelLoadFailure = errors.New("failed to load model")
)

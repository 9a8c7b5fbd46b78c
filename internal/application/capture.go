package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sort"
	"time"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
	"artifact-sifter/internal/infrastructure/metrics"
	"artifact-sifter/internal/infrastructure/vision"
)

const (
	// MaxGPSWait верхняя граница ожидания координат
	MaxGPSWait = 4 * time.Second

	// CompareSplit доля ширины, занятая картой в режиме сравнения
	CompareSplit = 0.5

	filenameLayout = "20060102_150405"
)

// CaptureConfig параметры конвейера съёмки
type CaptureConfig struct {
	InputSize  image.Point   // вход модели, если среда не сообщает свой
	GPSTimeout time.Duration // ограничивается MaxGPSWait
}

// CaptureResult результат съёмки
type CaptureResult struct {
	Record  entity.CaptureRecord
	Frame   entity.Frame
	Heatmap *image.RGBA     // nil, если карты нет
	Summary *vision.Summary // nil, если карты нет
	Warning error           // оборачивает ErrInferenceFailure, если фото сохранено без карты
}

// CaptureOption настраивает отдельный снимок
type CaptureOption func(*captureOptions)

type captureOptions struct {
	locator port.Locator
}

// WithLocator задаёт источник координат для этого снимка.
func WithLocator(l port.Locator) CaptureOption {
	return func(o *captureOptions) {
		o.locator = l
	}
}

// CaptureService снимает кадр, прогоняет модель и сохраняет результат.
type CaptureService struct {
	captures   port.CaptureRepository
	locator    port.Locator
	pre        *vision.Preprocessor
	compositor *vision.Compositor
	cfg        CaptureConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewCaptureService создаёт сервис съёмки. locator и m могут быть nil.
func NewCaptureService(
	captures port.CaptureRepository,
	locator port.Locator,
	pre *vision.Preprocessor,
	compositor *vision.Compositor,
	cfg CaptureConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CaptureService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureService{
		captures:   captures,
		locator:    locator,
		pre:        pre,
		compositor: compositor,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Assemble собирает запись о снимке. Имя файла по локальному времени.
func Assemble(now time.Time, imageBlob, heatmapBlob []byte, gps *entity.GPSFix, model *ActiveModel) entity.CaptureRecord {
	record := entity.CaptureRecord{
		Timestamp:   now,
		Filename:    now.Local().Format(filenameLayout),
		ImageBlob:   imageBlob,
		HeatmapBlob: heatmapBlob,
	}
	if gps != nil {
		fix := *gps
		record.Metadata.GPS = &fix
	}
	if model != nil {
		id, name := model.ID, model.Name
		record.Metadata.ModelID = &id
		record.Metadata.ModelName = &name
	}
	return record
}

// Capture снимает кадр и сохраняет его. Начатую съёмку отмена ctx не прерывает.
// Ошибка инференса не теряет фото: запись сохраняется без карты, а ошибка
// возвращается в CaptureResult.Warning.
func (s *CaptureService) Capture(ctx context.Context, sess *Session, live image.Image, nominalW, nominalH int, opts ...CaptureOption) (*CaptureResult, error) {
	if !sess.CanCapture() {
		return nil, fmt.Errorf("%w: %s", ErrCaptureNotPermitted, sess.Readiness())
	}
	if !sess.tryBegin() {
		return nil, ErrCaptureInProgress
	}
	defer sess.finish()

	o := captureOptions{locator: s.locator}
	for _, opt := range opts {
		opt(&o)
	}

	ctx = context.WithoutCancel(ctx)
	now := s.now()

	frame := vision.CaptureFrame(live, nominalW, nominalH)
	if frame.Empty() {
		s.metrics.ObserveCapture(metrics.ResultFailed)
		return nil, vision.ErrEmptyFrame
	}

	imageBlob, err := vision.EncodeJPEG(frame.RGBA())
	if err != nil {
		s.metrics.ObserveCapture(metrics.ResultFailed)
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}

	gps := s.locate(ctx, o.locator)
	result := &CaptureResult{Frame: frame}

	active := sess.Active()
	var heatmapBlob []byte
	if active != nil {
		heatmap, summary, err := s.infer(ctx, active.Runtime, frame)
		if err == nil {
			heatmapBlob, err = vision.EncodePNG(heatmap)
		}
		if err != nil {
			result.Warning = fmt.Errorf("%w: %v", ErrInferenceFailure, err)
			s.logger.Warn("inference failed, saving photo without heatmap",
				"session", sess.ID, "model", active.Name, "error", err)
		} else {
			result.Heatmap = heatmap
			result.Summary = &summary
		}
	}

	record := Assemble(now, imageBlob, heatmapBlob, gps, active)
	id, err := s.captures.AddCapture(ctx, record)
	if err != nil {
		s.metrics.ObserveCapture(metrics.ResultFailed)
		return nil, fmt.Errorf("failed to save capture: %w", err)
	}
	record.ID = id
	result.Record = record

	if record.HasHeatmap() {
		s.metrics.ObserveCapture(metrics.ResultWithHeatmap)
	} else {
		s.metrics.ObserveCapture(metrics.ResultImageOnly)
	}

	s.logger.Info("capture saved",
		"session", sess.ID, "id", id, "filename", record.Filename,
		"heatmap", record.HasHeatmap(), "gps", gps != nil)
	return result, nil
}

// infer прогоняет кадр через модель и возвращает карту в координатах кадра.
func (s *CaptureService) infer(ctx context.Context, rt port.Runtime, frame entity.Frame) (heatmap *image.RGBA, summary vision.Summary, err error) {
	start := time.Now()
	defer func() {
		// Паника в нативной среде не должна стоить пользователю снимка
		if r := recover(); r != nil {
			err = fmt.Errorf("runtime panic: %v", r)
		}
		s.metrics.ObserveInference(time.Since(start), err)
	}()

	size, layout := s.inputShape(rt)
	prepared, err := s.pre.PrepareLayout(frame, size, layout)
	if err != nil {
		return nil, summary, err
	}

	inputs := rt.InputNames()
	if len(inputs) == 0 {
		return nil, summary, errors.New("model has no inputs")
	}

	outputs, err := rt.Run(ctx, map[string]entity.Tensor{inputs[0]: prepared.Tensor})
	if err != nil {
		return nil, summary, err
	}

	out, err := firstOutput(rt.OutputNames(), outputs)
	if err != nil {
		return nil, summary, err
	}

	probs, err := vision.Decode(out)
	if err != nil {
		return nil, summary, err
	}

	var geom *entity.CropGeometry
	if prepared.Aligned {
		g := prepared.Geometry
		geom = &g
	}

	heatmap, err = s.compositor.Composite(probs, geom)
	if err != nil {
		return nil, summary, err
	}
	return heatmap, vision.Summarize(probs), nil
}

// inputShape берёт размер и порядок осей у модели (NCHW или NHWC),
// иначе размер из конфигурации и планарный порядок.
func (s *CaptureService) inputShape(rt port.Runtime) (image.Point, vision.Layout) {
	fallback := s.cfg.InputSize
	shaper, ok := rt.(port.InputShaper)
	if !ok {
		return fallback, vision.LayoutNCHW
	}
	dims := shaper.InputDims()
	if len(dims) != 4 {
		return fallback, vision.LayoutNCHW
	}
	switch {
	case dims[1] == 3 && dims[2] > 0 && dims[3] > 0:
		return image.Pt(dims[3], dims[2]), vision.LayoutNCHW
	case dims[3] == 3 && dims[1] > 0 && dims[2] > 0:
		return image.Pt(dims[2], dims[1]), vision.LayoutNHWC
	}
	return fallback, vision.LayoutNCHW
}

func firstOutput(names []string, outputs map[string]entity.Tensor) (entity.Tensor, error) {
	if len(names) > 0 {
		if out, ok := outputs[names[0]]; ok {
			return out, nil
		}
	}
	if len(outputs) == 1 {
		for _, out := range outputs {
			return out, nil
		}
	}
	return entity.Tensor{}, errors.New("model produced no usable output")
}

// locate ждёт координаты не дольше min(GPSTimeout, MaxGPSWait). Ошибка — снимок без GPS.
func (s *CaptureService) locate(ctx context.Context, locator port.Locator) *entity.GPSFix {
	if locator == nil {
		return nil
	}

	timeout := s.cfg.GPSTimeout
	if timeout <= 0 || timeout > MaxGPSWait {
		timeout = MaxGPSWait
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fix, err := locator.Locate(ctx)
	if err != nil {
		s.logger.Debug("geolocation unavailable", "error", err)
		return nil
	}
	return fix
}

// ListCaptures возвращает снимки, новые первыми.
func (s *CaptureService) ListCaptures(ctx context.Context) ([]entity.CaptureRecord, error) {
	records, err := s.captures.ListCaptures(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// GetCapture возвращает снимок или ошибку, если его нет.
func (s *CaptureService) GetCapture(ctx context.Context, id int64) (*entity.CaptureRecord, error) {
	record, err := s.captures.GetCapture(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("capture %d not found", id)
	}
	return record, nil
}

// DeleteCapture удаляет снимок.
func (s *CaptureService) DeleteCapture(ctx context.Context, id int64) error {
	return s.captures.DeleteCapture(ctx, id)
}

// CompareView собирает JPEG «карта | фото» для сохранённого снимка.
// Без карты возвращается само фото.
func (s *CaptureService) CompareView(record entity.CaptureRecord) ([]byte, error) {
	if len(record.HeatmapBlob) == 0 {
		return record.ImageBlob, nil
	}

	photo, err := vision.DecodeImage(record.ImageBlob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	heatmap, err := vision.DecodeImage(record.HeatmapBlob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode heatmap: %w", err)
	}

	return vision.EncodeJPEG(vision.Compare(toFrame(photo), heatmap, CompareSplit))
}

func toFrame(img image.Image) entity.Frame {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return entity.FrameFromRGBA(rgba)
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return entity.FrameFromRGBA(rgba)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
)

// MaxModelSize ограничение на размер скачиваемой модели
const MaxModelSize = 512 << 20

// ModelService импорт, хранение и активация моделей.
type ModelService struct {
	models port.ModelRepository
	loader port.RuntimeLoader
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewModelService создаёт сервис моделей. client по умолчанию http.DefaultClient.
func NewModelService(models port.ModelRepository, loader port.RuntimeLoader, client *http.Client, logger *slog.Logger) *ModelService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelService{
		models: models,
		loader: loader,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// ImportFromURL скачивает модель и сохраняет её вместе с адресом источника.
func (s *ModelService) ImportFromURL(ctx context.Context, name, url string) (int64, error) {
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if name == "" || url == "" {
		return 0, errors.New("model name and url are required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid model url: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("failed to download model: %s", resp.Status)
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, MaxModelSize+1))
	if err != nil {
		return 0, fmt.Errorf("failed to read model: %w", err)
	}
	if len(blob) > MaxModelSize {
		return 0, fmt.Errorf("model is larger than %d bytes", MaxModelSize)
	}

	return s.store(ctx, name, blob, url)
}

// Import сохраняет модель из локального файла.
func (s *ModelService) Import(ctx context.Context, name string, blob []byte) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("model name is required")
	}
	return s.store(ctx, name, blob, "")
}

func (s *ModelService) store(ctx context.Context, name string, blob []byte, source string) (int64, error) {
	if len(blob) == 0 {
		return 0, errors.New("model file is empty")
	}

	id, err := s.models.AddModel(ctx, entity.ModelRecord{
		Name:      name,
		CreatedAt: s.now(),
		SourceURL: source,
		Blob:      blob,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save model: %w", err)
	}

	s.logger.Info("model imported", "id", id, "name", name, "bytes", len(blob), "source", source)
	return id, nil
}

// ListModels возвращает модели в порядке импорта.
func (s *ModelService) ListModels(ctx context.Context) ([]entity.ModelRecord, error) {
	models, err := s.models.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].CreatedAt.Equal(models[j].CreatedAt) {
			return models[i].ID < models[j].ID
		}
		return models[i].CreatedAt.Before(models[j].CreatedAt)
	})
	return models, nil
}

// Activate загружает модель и делает её активной в сессии.
// При любой ошибке у сессии не остаётся активной модели.
func (s *ModelService) Activate(ctx context.Context, sess *Session, id int64) (*ActiveModel, error) {
	if err := s.Deactivate(sess); err != nil {
		return nil, err
	}

	record, err := s.models.GetModel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoadFailure, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: id %d", ErrModelNotFound, id)
	}

	rt, err := s.loader.Load(ctx, record.Blob)
	if err != nil {
		s.logger.Warn("model load failed", "id", id, "name", record.Name, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrModelLoadFailure, err)
	}

	active := &ActiveModel{ID: record.ID, Name: record.Name, Runtime: rt}
	prev, err := sess.swapActive(active)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	closeRuntime(prev, s.logger)

	s.logger.Info("model activated", "session", sess.ID, "id", id, "name", record.Name)
	result := *active
	return &result, nil
}

// Deactivate снимает активную модель и освобождает её ресурсы.
func (s *ModelService) Deactivate(sess *Session) error {
	prev, err := sess.swapActive(nil)
	if err != nil {
		return err
	}
	closeRuntime(prev, s.logger)
	return nil
}

// DeleteModel удаляет модель. Если она активна в сессии, сессия остаётся без модели.
func (s *ModelService) DeleteModel(ctx context.Context, sess *Session, id int64) error {
	if sess != nil {
		if active := sess.Active(); active != nil && active.ID == id {
			if err := s.Deactivate(sess); err != nil {
				return err
			}
		}
	}
	return s.models.DeleteModel(ctx, id)
}

func closeRuntime(m *ActiveModel, logger *slog.Logger) {
	if m == nil || m.Runtime == nil {
		return
	}
	if err := m.Runtime.Close(); err != nil {
		logger.Warn("failed to release model runtime", "id", m.ID, "error", err)
	}
}

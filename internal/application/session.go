package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/orientation"
	"artifact-sifter/internal/domain/port"
	"artifact-sifter/internal/infrastructure/metrics"
)

var allReadiness = []string{
	entity.ReadinessUnknown.String(),
	entity.ReadinessAligned.String(),
	entity.ReadinessAlmostAligned.String(),
	entity.ReadinessMisaligned.String(),
}

// ActiveModel загруженная модель текущей сессии
type ActiveModel struct {
	ID      int64
	Name    string
	Runtime port.Runtime
}

// Session контекст съёмки: фильтр ориентации, активная модель и флаг съёмки.
type Session struct {
	ID string

	policy  orientation.Policy
	metrics *metrics.Metrics

	mu     sync.Mutex
	gate   *orientation.Gate
	active *ActiveModel

	busy atomic.Bool
}

// NewSession создаёт сессию с заданной политикой съёмки.
func NewSession(policy orientation.Policy, m *metrics.Metrics) *Session {
	return &Session{
		ID:      uuid.NewString(),
		policy:  policy,
		metrics: m,
		gate:    orientation.NewGate(),
	}
}

// Observe передаёт отсчёт в фильтр.
func (s *Session) Observe(sample entity.OrientationSample) entity.Readiness {
	s.mu.Lock()
	state := s.gate.Update(sample)
	s.mu.Unlock()

	s.metrics.SetReadiness(state.String(), allReadiness)
	return state
}

// MarkSensorUnavailable включает режим без датчика (всегда Aligned).
func (s *Session) MarkSensorUnavailable() {
	s.mu.Lock()
	s.gate.MarkUnavailable()
	s.mu.Unlock()

	s.metrics.SetReadiness(entity.ReadinessAligned.String(), allReadiness)
}

// End сбрасывает фильтр по окончании сессии.
func (s *Session) End() {
	s.mu.Lock()
	s.gate.Reset()
	s.mu.Unlock()

	s.metrics.SetReadiness(entity.ReadinessUnknown.String(), allReadiness)
}

// Readiness возвращает текущее состояние готовности.
func (s *Session) Readiness() entity.Readiness {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.State()
}

// Hints возвращает подсказки по наклону.
func (s *Session) Hints() []entity.Hint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Hints()
}

// SensorUnavailable сообщает, что сессия работает без датчика.
func (s *Session) SensorUnavailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Unavailable()
}

// Policy возвращает политику съёмки.
func (s *Session) Policy() orientation.Policy {
	return s.policy
}

// CanCapture сообщает, разрешает ли политика съёмку сейчас.
func (s *Session) CanCapture() bool {
	return s.policy.Permits(s.Readiness())
}

// Watch читает отсчёты из source до отмены ctx и сбрасывает фильтр в конце.
// Нет датчика — сессия переходит в режим без датчика, это не ошибка.
// Поток оборвался раньше отмены ctx (датчик отключили) — тоже режим без датчика.
func (s *Session) Watch(ctx context.Context, source port.OrientationSource) error {
	if source == nil {
		s.MarkSensorUnavailable()
		return nil
	}

	samples, err := source.Samples(ctx)
	if err != nil {
		s.MarkSensorUnavailable()
		if errors.Is(err, port.ErrSensorUnavailable) {
			return nil
		}
		return err
	}
	for sample := range samples {
		s.Observe(sample)
	}

	if ctx.Err() != nil {
		s.End()
	} else {
		s.MarkSensorUnavailable()
	}
	return nil
}

// Active возвращает активную модель или nil.
func (s *Session) Active() *ActiveModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	active := *s.active
	return &active
}

// swapActive заменяет активную модель и возвращает прежнюю.
// Во время съёмки модель менять нельзя.
func (s *Session) swapActive(next *ActiveModel) (*ActiveModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy.Load() {
		return nil, ErrCaptureInProgress
	}
	prev := s.active
	s.active = next
	return prev, nil
}

func (s *Session) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy.CompareAndSwap(false, true)
}

func (s *Session) finish() {
	s.busy.Store(false)
}

// Busy сообщает, что идёт съёмка.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

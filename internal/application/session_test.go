package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/orientation"
	"artifact-sifter/internal/domain/port"
)

type chanSource struct {
	ch  chan entity.OrientationSample
	err error
}

func (s *chanSource) Samples(ctx context.Context) (<-chan entity.OrientationSample, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

func TestSession_NewIsUnknownAndBlocksCapture(t *testing.T) {
	sess := NewSession(orientation.PolicyLenient, nil)

	require.NotEmpty(t, sess.ID)
	require.Equal(t, entity.ReadinessUnknown, sess.Readiness())
	require.False(t, sess.CanCapture())
}

func TestSession_WatchWithoutSensor(t *testing.T) {
	sess := NewSession(orientation.PolicyStrict, nil)
	require.NoError(t, sess.Watch(context.Background(), nil))
	require.True(t, sess.SensorUnavailable())
	require.True(t, sess.CanCapture())

	sess = NewSession(orientation.PolicyStrict, nil)
	err := sess.Watch(context.Background(), &chanSource{err: port.ErrSensorUnavailable})
	require.NoError(t, err)
	require.Equal(t, entity.ReadinessAligned, sess.Readiness())
}

func TestSession_WatchConsumesStreamAndResets(t *testing.T) {
	defer goleak.VerifyNone(t)

	sess := NewSession(orientation.PolicyLenient, nil)
	src := &chanSource{ch: make(chan entity.OrientationSample)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sess.Watch(ctx, src) }()

	// Второй отсчёт принимается только после обработки первого
	src.ch <- entity.NewOrientationSample(90, 0)
	src.ch <- entity.NewOrientationSample(90, 0)
	require.Equal(t, entity.ReadinessAligned, sess.Readiness())

	// Источник закрывает канал после отмены ctx
	cancel()
	close(src.ch)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not return")
	}
	require.Equal(t, entity.ReadinessUnknown, sess.Readiness())
	require.False(t, sess.CanCapture())
}

func TestSession_LostSensorFallsBackToSensorless(t *testing.T) {
	defer goleak.VerifyNone(t)

	sess := NewSession(orientation.PolicyStrict, nil)
	src := &chanSource{ch: make(chan entity.OrientationSample)}

	done := make(chan error, 1)
	go func() { done <- sess.Watch(context.Background(), src) }()

	// Наклон 30°, затем датчик отключается
	src.ch <- entity.NewOrientationSample(60, 0)
	src.ch <- entity.NewOrientationSample(60, 0)
	require.False(t, sess.CanCapture())

	close(src.ch)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not return")
	}
	require.True(t, sess.SensorUnavailable())
	require.Equal(t, entity.ReadinessAligned, sess.Readiness())
	require.True(t, sess.CanCapture())
}

func TestSession_PolicyDecidesAlmostAligned(t *testing.T) {
	lenient := NewSession(orientation.PolicyLenient, nil)
	strict := NewSession(orientation.PolicyStrict, nil)

	// Первый отсчёт инициализирует фильтр: наклон 8°
	sample := entity.NewOrientationSample(90, 8)
	require.Equal(t, entity.ReadinessAlmostAligned, lenient.Observe(sample))
	require.Equal(t, entity.ReadinessAlmostAligned, strict.Observe(sample))

	require.True(t, lenient.CanCapture())
	require.False(t, strict.CanCapture())
	require.NotEmpty(t, lenient.Hints())
}

func TestSession_ActiveIsCopy(t *testing.T) {
	sess := NewSession(orientation.PolicyLenient, nil)
	require.Nil(t, sess.Active())

	_, err := sess.swapActive(&ActiveModel{ID: 1, Name: "a"})
	require.NoError(t, err)

	active := sess.Active()
	active.Name = "changed"
	require.Equal(t, "a", sess.Active().Name)
}

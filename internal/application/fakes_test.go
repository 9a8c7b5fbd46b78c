package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
	"artifact-sifter/internal/infrastructure/storage"
)

// fakeRuntime возвращает заранее заданный выход
type fakeRuntime struct {
	mu      sync.Mutex
	dims    []int
	output  entity.Tensor
	err     error
	panics  bool
	started chan struct{} // закрывается при первом Run
	release chan struct{} // Run ждёт, пока канал не закроют
	inputs  []entity.Tensor
	closed  bool
}

func (r *fakeRuntime) InputNames() []string  { return []string{"input"} }
func (r *fakeRuntime) OutputNames() []string { return []string{"output"} }

func (r *fakeRuntime) InputDims() []int { return r.dims }

func (r *fakeRuntime) Run(ctx context.Context, inputs map[string]entity.Tensor) (map[string]entity.Tensor, error) {
	r.mu.Lock()
	r.inputs = append(r.inputs, inputs["input"])
	r.mu.Unlock()

	if r.started != nil {
		close(r.started)
		r.started = nil
	}
	if r.release != nil {
		<-r.release
	}
	if r.panics {
		panic("native runtime crashed")
	}
	if r.err != nil {
		return nil, r.err
	}
	return map[string]entity.Tensor{"output": r.output}, nil
}

func (r *fakeRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeRuntime) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// fakeLoader отдаёт runtimes по очереди
type fakeLoader struct {
	runtimes []*fakeRuntime
	err      error
	loaded   [][]byte
}

func (l *fakeLoader) Load(ctx context.Context, model []byte) (port.Runtime, error) {
	l.loaded = append(l.loaded, model)
	if l.err != nil {
		return nil, l.err
	}
	if len(l.runtimes) == 0 {
		return nil, errors.New("no runtime prepared")
	}
	rt := l.runtimes[0]
	l.runtimes = l.runtimes[1:]
	return rt, nil
}

type fixedLocator struct {
	fix *entity.GPSFix
}

func (l fixedLocator) Locate(ctx context.Context) (*entity.GPSFix, error) {
	return l.fix, nil
}

// blockingLocator ждёт отмены контекста
type blockingLocator struct{}

func (blockingLocator) Locate(ctx context.Context) (*entity.GPSFix, error) {
	<-ctx.Done()
	return nil, port.ErrGeolocationUnavailable
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "sifter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// twoChannelOutput выход [1,2,h,w]: фон с логитом -10, передний план с логитом fg
func twoChannelOutput(w, h int, fg float32) entity.Tensor {
	data := make([]float32, 2*w*h)
	for i := 0; i < w*h; i++ {
		data[i] = -10
		data[w*h+i] = fg
	}
	return entity.Tensor{DType: entity.DTypeFloat32, Dims: []int{1, 2, h, w}, Data: data}
}

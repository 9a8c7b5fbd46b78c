//go:build tflite
// +build tflite

package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/tphakala/go-tflite"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
)

// TFLiteLoader загружает модели TensorFlow Lite
type TFLiteLoader struct {
	Threads int
	Logger  *slog.Logger
}

// NewTFLiteLoader создаёт загрузчик. threads <= 0 — по числу ядер.
func NewTFLiteLoader(threads int, logger *slog.Logger) *TFLiteLoader {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TFLiteLoader{Threads: threads, Logger: logger}
}

// Load создаёт интерпретатор из бинарной модели.
func (l *TFLiteLoader) Load(ctx context.Context, blob []byte) (port.Runtime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, errors.New("empty model")
	}

	model := tflite.NewModel(blob)
	if model == nil {
		return nil, errors.New("cannot load TensorFlow Lite model")
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(l.Threads)
	options.SetErrorReporter(func(msg string, _ any) {
		l.Logger.Error("tflite error", slog.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, errors.New("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("tensor allocation failed: %v", status)
	}

	return &tfliteRuntime{
		model:       model,
		options:     options,
		interpreter: interpreter,
	}, nil
}

// tfliteRuntime интерпретатор не потокобезопасен, поэтому Run под мьютексом.
type tfliteRuntime struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
}

func (r *tfliteRuntime) InputNames() []string {
	names := make([]string, r.interpreter.GetInputTensorCount())
	for i := range names {
		names[i] = r.interpreter.GetInputTensor(i).Name()
	}
	return names
}

func (r *tfliteRuntime) OutputNames() []string {
	names := make([]string, r.interpreter.GetOutputTensorCount())
	for i := range names {
		names[i] = r.interpreter.GetOutputTensor(i).Name()
	}
	return names
}

// InputDims форма первого входа модели.
func (r *tfliteRuntime) InputDims() []int {
	return tensorDims(r.interpreter.GetInputTensor(0))
}

func (r *tfliteRuntime) Run(ctx context.Context, inputs map[string]entity.Tensor) (map[string]entity.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < r.interpreter.GetInputTensorCount(); i++ {
		tensor := r.interpreter.GetInputTensor(i)
		in, ok := inputs[tensor.Name()]
		if !ok {
			return nil, fmt.Errorf("missing input %q", tensor.Name())
		}
		if err := checkInput(tensor.Name(), tensorDims(tensor), in); err != nil {
			return nil, err
		}
		dst := tensor.Float32s()
		if len(dst) != len(in.Data) {
			return nil, fmt.Errorf("%w: input %q expects %d values, got %d", ErrInputShapeMismatch, tensor.Name(), len(dst), len(in.Data))
		}
		copy(dst, in.Data)
	}

	if status := r.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tensor invoke failed: %v", status)
	}

	outputs := make(map[string]entity.Tensor, r.interpreter.GetOutputTensorCount())
	for i := 0; i < r.interpreter.GetOutputTensorCount(); i++ {
		tensor := r.interpreter.GetOutputTensor(i)
		src := tensor.Float32s()
		data := make([]float32, len(src))
		copy(data, src)
		outputs[tensor.Name()] = entity.Tensor{
			DType: entity.DTypeFloat32,
			Dims:  tensorDims(tensor),
			Data:  data,
		}
	}
	return outputs, nil
}

func (r *tfliteRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.interpreter.Delete()
	r.options.Delete()
	r.model.Delete()
	return nil
}

func tensorDims(t *tflite.Tensor) []int {
	dims := make([]int, t.NumDims())
	for i := range dims {
		dims[i] = t.Dim(i)
	}
	return dims
}

var _ port.RuntimeLoader = (*TFLiteLoader)(nil)

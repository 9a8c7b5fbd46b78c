package container

import (
	"image"
	"log/slog"
	"net/http"
	"time"

	app "artifact-sifter/internal/application"
	"artifact-sifter/internal/domain/orientation"
	"artifact-sifter/internal/domain/port"
	"artifact-sifter/internal/infrastructure/metrics"
	"artifact-sifter/internal/infrastructure/vision"
)

// Options параметры конвейера
type Options struct {
	InputSize   image.Point
	Geometry    vision.Geometry
	Normalize   bool
	Scheme      vision.ColorScheme
	Translucent bool
	Policy      orientation.Policy
	GPSTimeout  time.Duration
}

// Deps внешние зависимости. Locator, Camera, Metrics и HTTPClient необязательны.
type Deps struct {
	Users      port.UserRepository
	Models     port.ModelRepository
	Captures   port.CaptureRepository
	Loader     port.RuntimeLoader
	Locator    port.Locator
	Camera     port.Camera
	Metrics    *metrics.Metrics
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Container struct {
	UserService    *app.UserService
	CaptureService *app.CaptureService
	ModelService   *app.ModelService
	Session        *app.Session
	Camera         port.Camera
	Metrics        *metrics.Metrics
}

func New(deps Deps, opts Options) *Container {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userService := app.NewUserService(deps.Users)
	captureService := app.NewCaptureService(
		deps.Captures,
		deps.Locator,
		vision.NewPreprocessor(opts.Geometry, opts.Normalize),
		vision.NewCompositor(opts.Scheme, opts.Translucent),
		app.CaptureConfig{InputSize: opts.InputSize, GPSTimeout: opts.GPSTimeout},
		deps.Metrics,
		logger.With("component", "capture"),
	)
	modelService := app.NewModelService(deps.Models, deps.Loader, deps.HTTPClient, logger.With("component", "models"))

	return &Container{
		UserService:    userService,
		CaptureService: captureService,
		ModelService:   modelService,
		Session:        app.NewSession(opts.Policy, deps.Metrics),
		Camera:         deps.Camera,
		Metrics:        deps.Metrics,
	}
}

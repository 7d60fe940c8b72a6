package engine

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-starter/common"
	"github.com/Carmen-Shannon/oxy-starter/config"
	"github.com/Carmen-Shannon/oxy-starter/engine/camera"
	"github.com/Carmen-Shannon/oxy-starter/engine/profiler"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer"
	"github.com/Carmen-Shannon/oxy-starter/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// maxConsecutiveFrameErrors is how many frames in a row may fail before the loop gives up.
// A single failure is usually a surface that went stale during a resize.
const maxConsecutiveFrameErrors = 3

// ErrTooManyFrameErrors wraps the last frame error once the loop stops on repeated failures.
var ErrTooManyFrameErrors = errors.New("too many consecutive frame errors")

// engine implements the Engine interface.
// Everything runs on the thread that called Run: window events, camera updates and rendering.
type engine struct {
	cfg config.Config

	window     window.Window
	renderer   renderer.Renderer
	controller camera.CameraController
	projection mgl32.Mat4

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameErrors int
	err         error
	released    bool
}

// Engine is the main entry point for the starter.
// It owns the window, the renderer and the arcball camera, and drives one frame per window loop iteration.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer drawing the triangle.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Controller returns the camera controller fed by window input.
	//
	// Returns:
	//   - camera.CameraController: the controller and, through it, the camera
	Controller() camera.CameraController

	// Projection returns the current perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection for the current window aspect
	Projection() mgl32.Mat4

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Run runs the window loop until the window closes, rendering one frame per iteration,
	// then releases GPU resources and the window.
	//
	// Returns:
	//   - error: the error that stopped the loop, or nil on a normal close
	Run() error

	// Quit asks the window to close, which ends Run after the current iteration.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates the window, renderer, camera and controller described by cfg.
// A window or renderer supplied through options is used instead of creating one.
//
// Parameters:
//   - cfg: the validated runtime configuration
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if the window or GPU setup fails
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:              cfg,
		profilingEnabled: cfg.Profile,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if e.window == nil {
		w, err := window.NewWindow(
			window.WithTitle(cfg.Title()),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		)
		if err != nil {
			return nil, fmt.Errorf("create window: %w", err)
		}
		e.window = w
	}

	if e.renderer == nil {
		opts, err := rendererOptions(cfg)
		if err != nil {
			_ = e.window.Close()
			return nil, err
		}
		r, err := renderer.NewRenderer(e.window, opts...)
		if err != nil {
			_ = e.window.Close()
			return nil, fmt.Errorf("create renderer: %w", err)
		}
		e.renderer = r
	}

	if err := e.renderer.InitTriangle(); err != nil {
		e.release()
		return nil, fmt.Errorf("init triangle: %w", err)
	}

	var camOpts []camera.ArcballCameraBuilderOption
	if cfg.Camera.MinDistance > 0 {
		camOpts = append(camOpts, camera.WithMinDistance(cfg.Camera.MinDistance))
	}
	cam := camera.NewArcballCamera(cfg.CameraEye(), cfg.CameraCenter(), cfg.CameraUp(), camOpts...)

	width, height := e.window.Width(), e.window.Height()
	e.controller = camera.NewCameraController(cam,
		camera.WithViewport(width, height),
		camera.WithZoomScale(cfg.Camera.ZoomScale),
	)
	e.projection = e.buildProjection(width, height)

	e.window.SetCursorMoveCallback(e.controller.CursorMove)
	e.window.SetCursorLeaveCallback(e.controller.ResetCursor)
	e.window.SetScrollCallback(e.controller.Scroll)
	e.window.SetResizeCallback(e.resize)
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		log.WithField("key", keyCode).Debug("key down")
	})
	e.window.SetUpdateCallback(e.frame)

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Controller() camera.CameraController {
	return e.controller
}

func (e *engine) Projection() mgl32.Mat4 {
	return e.projection
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) Run() error {
	e.window.ProcessMessages()
	e.release()
	return e.err
}

func (e *engine) Quit() {
	e.window.RequestClose()
}

// frame renders one frame. The view uniform is only rebuilt when the controller reports a change.
func (e *engine) frame() {
	var viewParams []byte
	changed := e.controller.ConsumeChanged()
	if changed {
		params := camera.NewGPUViewParams(e.projection, e.controller.Camera())
		viewParams = params.Marshal()
	}

	if err := e.renderer.RenderFrame(viewParams); err != nil {
		if changed {
			// The upload may not have happened; retry it next frame.
			e.controller.MarkChanged()
		}
		e.frameErrors++
		log.WithError(err).WithField("consecutive", e.frameErrors).Error("render frame")
		if e.frameErrors >= maxConsecutiveFrameErrors {
			e.err = fmt.Errorf("%w: %w", ErrTooManyFrameErrors, err)
			e.Quit()
		}
		return
	}
	e.frameErrors = 0

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
}

// resize reconfigures the surface and rebuilds the projection. A zero size (minimized window) is ignored.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := e.renderer.Resize(width, height); err != nil {
		log.WithError(err).Error("resize surface")
		return
	}
	e.projection = e.buildProjection(width, height)
	e.controller.Resize(width, height)
	e.controller.MarkChanged()
	log.WithFields(log.Fields{"width": width, "height": height}).Debug("resized")
}

func (e *engine) buildProjection(width, height int) mgl32.Mat4 {
	aspect := float32(width) / float32(common.Coalesce(height, 1))
	return common.Perspective(e.cfg.FovYRadians(), aspect, e.cfg.Camera.Near, e.cfg.Camera.Far)
}

// release frees GPU resources before the window whose surface they render to. Runs once.
func (e *engine) release() {
	if e.released {
		return
	}
	e.released = true
	if e.renderer != nil {
		e.renderer.Release()
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			log.WithError(err).Warn("close window")
		}
	}
}

// rendererOptions maps the renderer settings onto renderer builder options.
func rendererOptions(cfg config.Config) ([]renderer.RendererBuilderOption, error) {
	mode, err := config.ParsePresentMode(cfg.Renderer.PresentMode)
	if err != nil {
		return nil, err
	}
	backend, err := config.ParseBackend(cfg.Renderer.Backend)
	if err != nil {
		return nil, err
	}

	presentMode := renderer.PresentModeVSync
	if mode == config.PresentModeImmediate {
		presentMode = renderer.PresentModeUncapped
	}

	return []renderer.RendererBuilderOption{
		renderer.WithPresentMode(presentMode),
		renderer.WithGraphicsAPI(graphicsAPIs[backend]),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceFallback),
	}, nil
}

var graphicsAPIs = map[config.Backend]renderer.GraphicsAPI{
	config.BackendAuto:   renderer.GraphicsAPIAuto,
	config.BackendVulkan: renderer.GraphicsAPIVulkan,
	config.BackendMetal:  renderer.GraphicsAPIMetal,
	config.BackendD3D12:  renderer.GraphicsAPID3D12,
	config.BackendOpenGL: renderer.GraphicsAPIOpenGL,
}

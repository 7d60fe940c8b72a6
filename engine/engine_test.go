package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-starter/common"
	"github.com/Carmen-Shannon/oxy-starter/config"
	"github.com/Carmen-Shannon/oxy-starter/engine/camera"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-starter/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow drives the engine's callbacks without a display.
type fakeWindow struct {
	width, height int
	closed        bool
	iterations    int

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onCursorMove  func(x, y float64, buttons common.MouseButtons)
	onCursorLeave func()
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(cb func())                    { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int))   { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32))       { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(func(keyCode uint32))        {}
func (w *fakeWindow) SetKeyUpCallback(func(keyCode uint32))          {}
func (w *fakeWindow) SetCursorLeaveCallback(cb func())               { w.onCursorLeave = cb }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor     { return nil }
func (w *fakeWindow) IsRunning() bool                                { return !w.closed }
func (w *fakeWindow) Width() int                                     { return w.width }
func (w *fakeWindow) Height() int                                    { return w.height }
func (w *fakeWindow) Buttons() common.MouseButtons                   { return 0 }
func (w *fakeWindow) SetCursorMoveCallback(cb func(x, y float64, buttons common.MouseButtons)) {
	w.onCursorMove = cb
}

func (w *fakeWindow) RequestClose() { w.closed = true }

func (w *fakeWindow) Close() error {
	w.closed = true
	return nil
}

// ProcessMessages runs the configured number of iterations or until closed.
func (w *fakeWindow) ProcessMessages() {
	for i := 0; i < w.iterations && !w.closed; i++ {
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

// fakeRenderer records the calls the engine makes.
type fakeRenderer struct {
	initErr   error
	frameErr  error
	frames    [][]byte
	resizes   [][2]int
	released  bool
	triangles int
}

var _ renderer.Renderer = &fakeRenderer{}

func (r *fakeRenderer) Pipeline(string) pipeline.Pipeline             { return nil }
func (r *fakeRenderer) RegisterPipelines(...pipeline.Pipeline) error { return nil }
func (r *fakeRenderer) SetPresentMode(renderer.PresentMode)          {}
func (r *fakeRenderer) InitVertexBuffer(bind_group_provider.BindGroupProvider, []byte, uint32) error {
	return nil
}
func (r *fakeRenderer) InitBindGroup(bind_group_provider.BindGroupProvider, string) error { return nil }
func (r *fakeRenderer) WriteBuffers([]bind_group_provider.BufferWrite) error             { return nil }
func (r *fakeRenderer) BeginFrame() error                                                { return nil }
func (r *fakeRenderer) DrawCall(string, bind_group_provider.BindGroupProvider, []bind_group_provider.BindGroupProvider) error {
	return nil
}
func (r *fakeRenderer) EndFrame() error { return nil }
func (r *fakeRenderer) Present()        {}
func (r *fakeRenderer) Release()        { r.released = true }

func (r *fakeRenderer) Resize(width, height int) error {
	r.resizes = append(r.resizes, [2]int{width, height})
	return nil
}

func (r *fakeRenderer) InitTriangle() error {
	r.triangles++
	return r.initErr
}

func (r *fakeRenderer) RenderFrame(viewParams []byte) error {
	r.frames = append(r.frames, viewParams)
	return r.frameErr
}

func newTestEngine(t *testing.T, cfg config.Config) (*engine, *fakeWindow, *fakeRenderer) {
	t.Helper()
	w := &fakeWindow{width: 640, height: 480}
	r := &fakeRenderer{}
	e, err := NewEngine(cfg, WithWindow(w), WithRenderer(r))
	require.NoError(t, err)
	return e.(*engine), w, r
}

func TestNewEngineWiresCallbacks(t *testing.T) {
	e, w, r := newTestEngine(t, config.Default())

	assert.Equal(t, 1, r.triangles)
	assert.NotNil(t, w.onUpdate)
	assert.NotNil(t, w.onResize)
	assert.NotNil(t, w.onScroll)
	assert.NotNil(t, w.onCursorMove)
	assert.NotNil(t, w.onCursorLeave)

	cam := e.Controller().Camera()
	assert.InDelta(t, 2.5, cam.Distance(), 1e-5)
	assert.InDelta(t, 0.05, e.Controller().ZoomScale(), 1e-7)

	want := common.Perspective(mgl32.DegToRad(50), 640.0/480.0, 0.1, 100)
	got := e.Projection()
	assert.InDeltaSlice(t, want[:], got[:], 1e-6)
}

func TestFirstFrameUploadsThenSkips(t *testing.T) {
	e, w, r := newTestEngine(t, config.Default())
	w.iterations = 3

	require.NoError(t, e.Run())
	require.Len(t, r.frames, 3)

	params := camera.NewGPUViewParams(e.Projection(), e.Controller().Camera())
	assert.Equal(t, params.Marshal(), r.frames[0])
	assert.Nil(t, r.frames[1])
	assert.Nil(t, r.frames[2])

	assert.True(t, r.released)
	assert.True(t, w.closed)
}

func TestInputMarksChanged(t *testing.T) {
	e, w, r := newTestEngine(t, config.Default())

	w.onUpdate()
	require.NotNil(t, r.frames[0])

	w.onScroll(1)
	w.onUpdate()
	require.Len(t, r.frames, 2)
	assert.NotNil(t, r.frames[1])
	assert.InDelta(t, 2.45, e.Controller().Camera().Distance(), 1e-5)

	// Dragging needs a previous position before it rotates.
	w.onCursorMove(320, 240, common.MouseButtonLeft)
	w.onUpdate()
	assert.Nil(t, r.frames[2])

	w.onCursorMove(400, 240, common.MouseButtonLeft)
	w.onUpdate()
	assert.NotNil(t, r.frames[3])

	w.onCursorLeave()
	w.onCursorMove(100, 100, common.MouseButtonLeft)
	w.onUpdate()
	assert.Nil(t, r.frames[4])
}

func TestResize(t *testing.T) {
	e, w, r := newTestEngine(t, config.Default())
	w.onUpdate()

	w.onResize(0, 0)
	assert.Empty(t, r.resizes)

	w.onResize(800, 400)
	require.Equal(t, [][2]int{{800, 400}}, r.resizes)

	want := common.Perspective(mgl32.DegToRad(50), 2, 0.1, 100)
	got := e.Projection()
	assert.InDeltaSlice(t, want[:], got[:], 1e-6)

	w.onUpdate()
	assert.NotNil(t, r.frames[1])
}

func TestFrameErrorsStopLoop(t *testing.T) {
	e, w, r := newTestEngine(t, config.Default())
	frameErr := errors.New("surface lost")
	r.frameErr = frameErr
	w.iterations = 10

	err := e.Run()
	require.ErrorIs(t, err, ErrTooManyFrameErrors)
	assert.ErrorIs(t, err, frameErr)
	assert.Len(t, r.frames, maxConsecutiveFrameErrors)

	// The failed upload is retried on every frame.
	for _, f := range r.frames {
		assert.NotNil(t, f)
	}
}

func TestFrameErrorRecovers(t *testing.T) {
	e, w, r := newTestEngine(t, config.Default())
	r.frameErr = errors.New("outdated")
	w.onUpdate()
	assert.Equal(t, 1, e.frameErrors)

	r.frameErr = nil
	w.onUpdate()
	assert.Zero(t, e.frameErrors)
	assert.NotNil(t, r.frames[1], "the failed upload is retried")
	assert.False(t, w.closed)
}

func TestInitTriangleFailureReleases(t *testing.T) {
	w := &fakeWindow{width: 640, height: 480}
	r := &fakeRenderer{initErr: errors.New("no pipeline")}

	_, err := NewEngine(config.Default(), WithWindow(w), WithRenderer(r))
	require.Error(t, err)
	assert.True(t, r.released)
	assert.True(t, w.closed)
}

func TestMinDistanceFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.MinDistance = 2.4
	e, w, _ := newTestEngine(t, cfg)

	w.onScroll(10)
	assert.InDelta(t, 2.4, e.Controller().Camera().Distance(), 1e-5)
}

func TestRendererOptions(t *testing.T) {
	cfg := config.Default()
	opts, err := rendererOptions(cfg)
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	cfg.Renderer.Backend = "directx9"
	_, err = rendererOptions(cfg)
	assert.ErrorIs(t, err, config.ErrUnknownValue)

	cfg = config.Default()
	cfg.Renderer.PresentMode = "mailbox"
	_, err = rendererOptions(cfg)
	assert.ErrorIs(t, err, config.ErrUnknownValue)

	assert.Len(t, graphicsAPIs, 5)
}

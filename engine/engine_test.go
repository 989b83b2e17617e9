package engine

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/prism/engine/actor"
	"github.com/Carmen-Shannon/prism/engine/asset"
	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/renderer"
	"github.com/Carmen-Shannon/prism/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow runs its message loop until stop is closed.
type fakeWindow struct {
	onResize func(width, height int)
	stop     chan struct{}
	closed   atomic.Bool
	title    string
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{stop: make(chan struct{})}
}

func (w *fakeWindow) SetUpdateCallback(func()) {}
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(func(float32)) {}
func (w *fakeWindow) SetKeyDownCallback(func(uint32)) {}
func (w *fakeWindow) SetKeyUpCallback(func(uint32)) {}
func (w *fakeWindow) SetTitle(title string) { w.title = title }
func (w *fakeWindow) Title() string { return w.title }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool { return !w.closed.Load() }
func (w *fakeWindow) Width() int { return 640 }
func (w *fakeWindow) Height() int { return 480 }
func (w *fakeWindow) Close() error {
	w.closed.Store(true)
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	select {
	case <-w.stop:
	case <-time.After(5 * time.Second):
	}
}

// fakeRenderer records the calls the engine makes; everything else panics through the nil embed.
type fakeRenderer struct {
	renderer.Renderer
	mu       sync.Mutex
	resized  [][2]int
	released bool
}

func (r *fakeRenderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resized = append(r.resized, [2]int{width, height})
}

func (r *fakeRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestEngine(t *testing.T, opts ...EngineBuilderOption) (*engine, *fakeWindow, *fakeRenderer) {
	t.Helper()
	w := newFakeWindow()
	r := &fakeRenderer{}
	base := []EngineBuilderOption{
		WithLogger(quietLogger()),
		WithWindow(w),
		WithRenderer(r),
		WithAssets(asset.NewManager(asset.WithRoot(t.TempDir()), asset.WithLogger(quietLogger()))),
	}
	e, err := NewEngine(config.Default(), append(base, opts...)...)
	require.NoError(t, err)
	return e.(*engine), w, r
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.MSAA = 2
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestEngineResizeForwardsToRendererAndCameras(t *testing.T) {
	cam := camera.NewCamera()
	_, w, r := newTestEngine(t, WithScene(0, scene.NewScene("main", scene.WithCamera(cam))))

	w.onResize(800, 400)
	w.onResize(0, 600)

	assert.Equal(t, [][2]int{{800, 400}}, r.resized)
	assert.Equal(t, float32(2), cam.Aspect())
}

// emptyActor returns an actor whose only component has no mesh, so it contributes no draws.
func emptyActor(t *testing.T) actor.Actor {
	t.Helper()
	c, err := actor.NewStaticMeshComponent()
	require.NoError(t, err)
	return actor.NewActor(actor.WithComponent(c))
}

type countingScene struct {
	scene.Scene
	items []scene.DrawItem
}

func (s *countingScene) DrawCommands() []scene.DrawItem {
	return s.items
}

func TestEngineFrameGathersActiveScenesInKeyOrder(t *testing.T) {
	first := &actor.MeshDrawCommand{Pass: "first"}
	second := &actor.MeshDrawCommand{Pass: "second"}
	skipped := &actor.MeshDrawCommand{Pass: "skipped"}

	back := &countingScene{Scene: scene.NewScene("back", scene.WithActive(true)), items: []scene.DrawItem{{Command: first}}}
	front := &countingScene{Scene: scene.NewScene("front", scene.WithActive(true)), items: []scene.DrawItem{{Command: second}}}
	hidden := &countingScene{Scene: scene.NewScene("hidden"), items: []scene.DrawItem{{Command: skipped}}}

	var got []string
	e, _, _ := newTestEngine(t,
		WithScene(10, front),
		WithScene(-1, back),
		WithFrameCallback(func(_ float32, draws []scene.DrawItem) {
			for _, d := range draws {
				got = append(got, d.Command.Pass)
			}
		}),
	)
	e.AddScene(5, hidden)

	assert.Equal(t, 2, e.frame(0.016))
	assert.Equal(t, []string{"first", "second"}, got)

	e.RemoveScene(10)
	got = nil
	assert.Equal(t, 1, e.frame(0.016))
	assert.Len(t, e.Scenes(), 2)
	assert.Nil(t, e.Scene(10))
}

func TestEngineFrameWithRealScene(t *testing.T) {
	s := scene.NewScene("level", scene.WithActive(true), scene.WithActors(emptyActor(t)))
	e, _, _ := newTestEngine(t, WithScene(0, s))
	assert.Zero(t, e.frame(0.016))
}

func TestEngineRunShutsDown(t *testing.T) {
	frames := make(chan struct{}, 1)
	e, w, r := newTestEngine(t, WithRenderFrameLimit(500), WithFrameCallback(func(float32, []scene.DrawItem) {
		select {
		case frames <- struct{}{}:
		default:
		}
	}))
	e.SetTickRate(120)

	go func() {
		<-frames
		close(w.stop)
	}()
	require.NoError(t, e.Run())

	assert.True(t, w.closed.Load())
	r.mu.Lock()
	assert.True(t, r.released)
	r.mu.Unlock()

	_, err := e.Assets().MakeTexture("x.png")
	assert.ErrorIs(t, err, asset.ErrManagerClosed)

	e.Quit()
}

func TestEngineTickRate(t *testing.T) {
	e, _, _ := newTestEngine(t, WithTickRate(30))
	assert.Equal(t, time.Second/30, e.engineTickRate)

	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)

	e.SetRenderFrameLimit(100)
	assert.Equal(t, 10*time.Millisecond, e.renderFrameLimit)
	e.SetRenderFrameLimit(-1)
	assert.Zero(t, e.renderFrameLimit)
}

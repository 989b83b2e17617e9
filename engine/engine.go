package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/prism/engine/asset"
	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/profiler"
	"github.com/Carmen-Shannon/prism/engine/renderer"
	"github.com/Carmen-Shannon/prism/engine/scene"
	"github.com/Carmen-Shannon/prism/engine/window"
)

// FrameCallback receives the draw list assembled from every active scene each render frame.
// Submitting the commands to the GPU is the callback's job.
type FrameCallback func(deltaTime float32, draws []scene.DrawItem)

// engine implements the Engine interface.
// Coordinates the tick and frame goroutines with the window's message loop.
type engine struct {
	mu     *sync.Mutex
	cfg    config.Config
	logger *slog.Logger

	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	renderer renderer.Renderer
	assets   asset.Manager

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  FrameCallback

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine owns the window, renderer and asset manager of a prism program and drives the loop:
// a fixed-rate tick for game logic and a frame loop that gathers draw commands from the
// active scenes.
type Engine interface {
	// Config returns the configuration the engine was built from.
	Config() config.Config

	// Logger returns the engine's structured logger.
	Logger() *slog.Logger

	// Window returns the underlying window.
	Window() window.Window

	// Renderer returns the renderer that finalizes pipelines and uploads assets.
	Renderer() renderer.Renderer

	// Assets returns the asset manager.
	Assets() asset.Manager

	// EnableProfiler enables frame statistics logging.
	EnableProfiler()

	// DisableProfiler disables frame statistics logging.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function that receives each frame's draw list.
	//
	// Parameters:
	//   - callback: the frame callback
	SetFrameCallback(callback FrameCallback)

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Draw lists are gathered in ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining draw order (lower first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key, or nil.
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	Scenes() map[int]scene.Scene

	// Run preloads the configured assets, starts the tick and frame goroutines and runs the
	// window message loop on the calling goroutine. It blocks until the window closes or Quit
	// is called, then releases the asset manager, renderer and window.
	//
	// Returns:
	//   - error: a shutdown error from the window
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine from a configuration. Collaborators not supplied through options
// are created from cfg: a glfw window, a wgpu renderer on that window, and an asset manager
// uploading through the renderer.
//
// Parameters:
//   - cfg: the application configuration
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: a configuration validation error
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &engine{
		mu:              &sync.Mutex{},
		cfg:             cfg,
		logger:          slog.Default(),
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	if e.window == nil {
		e.window = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
			window.WithResizable(cfg.Window.Resizable),
		)
	}
	if e.renderer == nil {
		e.renderer = renderer.NewRenderer(renderer.BackendTypeWGPU, e.window,
			renderer.WithLogger(e.logger),
			renderer.WithPresentMode(presentMode(cfg.Renderer.PresentMode)),
			renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.MSAA)),
			renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceSoftware),
		)
	}
	if e.assets == nil {
		e.assets = asset.NewManager(
			asset.WithRoot(cfg.Assets.Root),
			asset.WithUploader(e.renderer),
			asset.WithWorkers(cfg.Assets.Workers),
			asset.WithDefaultTechnique(cfg.Assets.DefaultTechnique),
			asset.WithLogger(e.logger),
		)
	}

	e.window.SetResizeCallback(func(width, height int) {
		if width == 0 || height == 0 {
			return
		}
		e.renderer.Resize(width, height)
		for _, s := range e.Scenes() {
			if c := s.Camera(); c != nil {
				c.SetAspect(float32(width) / float32(height))
			}
		}
	})

	return e, nil
}

// presentMode maps a validated config string to a renderer PresentMode.
func presentMode(s string) renderer.PresentMode {
	if s == "uncapped" {
		return renderer.PresentModeUncapped
	}
	return renderer.PresentModeVSync
}

func (e *engine) Config() config.Config {
	return e.cfg
}

func (e *engine) Logger() *slog.Logger {
	return e.logger
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Assets() asset.Manager {
	return e.assets
}

func (e *engine) Run() error {
	if paths := e.cfg.Assets.Preload; len(paths) > 0 {
		if err := e.assets.Preload(context.Background(), paths...); err != nil {
			e.logger.Warn("preload incomplete", "error", err)
		}
	}

	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	return e.shutdown()
}

// shutdown releases collaborators in reverse creation order.
func (e *engine) shutdown() error {
	e.assets.Close()
	e.renderer.Release()
	if err := e.window.Close(); err != nil {
		return fmt.Errorf("engine: close window: %w", err)
	}
	return nil
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the tick and frame goroutines, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleTick()
	go e.handleFrames()
}

// handleTick runs the fixed-rate tick loop, listening for rate changes on tickRateChannel.
func (e *engine) handleTick() {
	defer e.wg.Done()

	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.mu.Lock()
			cb := e.tickCallback
			e.mu.Unlock()
			if cb != nil {
				cb(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// handleFrames runs the frame loop. A panic inside a frame is logged and stops the engine.
func (e *engine) handleFrames() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("frame goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastFrame := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now

		e.frame(dt)

		e.mu.Lock()
		limit := e.renderFrameLimit
		e.mu.Unlock()
		if limit > 0 {
			if remaining := limit - time.Since(now); remaining > 0 {
				select {
				case <-e.quitChannel:
					return
				case <-time.After(remaining):
				}
			}
		}
	}
}

// frame gathers the draw lists of all active scenes in ascending key order and hands them to
// the frame callback.
//
// Returns:
//   - int: the number of draw items assembled
func (e *engine) frame(dt float32) int {
	e.mu.Lock()
	var active []scene.Scene
	for _, k := range slices.Sorted(maps.Keys(e.scenes)) {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	cb := e.frameCallback
	e.mu.Unlock()

	var draws []scene.DrawItem
	for _, s := range active {
		draws = append(draws, s.DrawCommands()...)
	}

	if cb != nil {
		cb(dt, draws)
	}
	if e.profilingEnabled.Load() {
		e.profiler.Tick(len(draws))
	}
	return len(draws)
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()

	if !e.running.Load() {
		return
	}
	// replace any pending update
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback FrameCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.scenes)
}

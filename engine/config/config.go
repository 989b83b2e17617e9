package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned when a decoded configuration fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root of a prism configuration file.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Log      LogConfig      `toml:"log"`
}

// WindowConfig configures the glfw window.
type WindowConfig struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Resizable bool   `toml:"resizable"`
}

// RendererConfig configures the wgpu renderer.
type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode string `toml:"present_mode"`

	// MSAA is the sample count: 1, 4, 8 or 16.
	MSAA uint32 `toml:"msaa"`

	ForceSoftware bool `toml:"force_software"`
}

// AssetsConfig configures the asset manager.
type AssetsConfig struct {
	Root string `toml:"root"`

	// DefaultTechnique is the technique definition imported glTF materials are built with.
	DefaultTechnique string `toml:"default_technique"`

	// Preload lists assets loaded before the first frame.
	Preload []string `toml:"preload"`

	Workers int `toml:"workers"`
}

// LogConfig configures the default slog logger.
type LogConfig struct {
	Level slog.Level `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the configuration used for every field a file leaves out.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:     "prism",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
			MSAA:        4,
		},
		Assets: AssetsConfig{
			Root:    ".",
			Workers: 4,
		},
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
	}
}

// Load reads a TOML configuration file on top of Default. Unknown keys are rejected.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - Config: the merged configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("config: %s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
//
// Returns:
//   - error: ErrInvalidConfig wrapped with the offending field, or nil
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		errs = append(errs, fmt.Errorf("renderer.present_mode %q must be vsync or uncapped", c.Renderer.PresentMode))
	}
	switch c.Renderer.MSAA {
	case 1, 4, 8, 16:
	default:
		errs = append(errs, fmt.Errorf("renderer.msaa %d must be 1, 4, 8 or 16", c.Renderer.MSAA))
	}
	if c.Assets.Workers < 1 {
		errs = append(errs, fmt.Errorf("assets.workers %d must be at least 1", c.Assets.Workers))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Logger builds a slog logger writing to stderr with the configured level and format.
//
// Returns:
//   - *slog.Logger: the logger
func (c LogConfig) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

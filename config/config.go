// package config loads the starter's runtime settings. Values are layered: built-in defaults, then an optional
// TOML file, then an optional .env file, then OXY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-starter/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of every environment variable the loader reads.
const EnvPrefix = "OXY_"

var (
	// ErrInvalidSize is returned when the window size is not positive.
	ErrInvalidSize = errors.New("config: window size must be positive")
	// ErrInvalidProjection is returned when the projection parameters cannot form a frustum.
	ErrInvalidProjection = errors.New("config: invalid projection parameters")
	// ErrInvalidCamera is returned when the initial camera frame is degenerate.
	ErrInvalidCamera = errors.New("config: degenerate camera frame")
	// ErrUnknownValue is returned for an enum string outside its allowed set.
	ErrUnknownValue = errors.New("config: unknown value")
)

// Window holds the window settings.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Renderer holds the GPU setup settings.
type Renderer struct {
	// PresentMode is "vsync" or "immediate".
	PresentMode string `toml:"present_mode"`
	// Backend is "auto", "vulkan", "metal", "d3d12" or "gl".
	Backend       string `toml:"backend"`
	ForceFallback bool   `toml:"force_fallback"`
}

// Camera holds the initial arcball frame, the projection and the input scaling.
type Camera struct {
	Eye         [3]float32 `toml:"eye"`
	Center      [3]float32 `toml:"center"`
	Up          [3]float32 `toml:"up"`
	FovY        float32    `toml:"fov_y"`
	Near        float32    `toml:"near"`
	Far         float32    `toml:"far"`
	ZoomScale   float32    `toml:"zoom_scale"`
	MinDistance float32    `toml:"min_distance"`
}

// Logging holds the logrus settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the complete runtime configuration.
type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Camera   Camera   `toml:"camera"`
	Logging  Logging  `toml:"logging"`
	Profile  bool     `toml:"profile"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the defaults used when no file or environment overrides are present
func Default() Config {
	return Config{
		Window: Window{
			Title:  "WebGPU Starter",
			Width:  640,
			Height: 480,
		},
		Renderer: Renderer{
			PresentMode: "vsync",
			Backend:     "auto",
		},
		Camera: Camera{
			Eye:       [3]float32{0, 0, -2.5},
			Center:    [3]float32{0, 0, 0},
			Up:        [3]float32{0, 1, 0},
			FovY:      50,
			Near:      0.1,
			Far:       100,
			ZoomScale: 0.05,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from the defaults, the TOML file at path and the environment.
// Missing files are skipped; an empty path or envFile disables that layer.
//
// Parameters:
//   - path: the TOML config file to read
//   - envFile: the .env file to load into the process environment
//
// Returns:
//   - Config: the validated configuration
//   - error: an error if a file cannot be parsed or a value is invalid
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: failed to load env file %s: %w", envFile, err)
		}
	}
	envy.Reload()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readFile decodes the TOML file at path over the current values.
func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Debug("config file not found, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides values from OXY_* environment variables.
func (c *Config) applyEnv() error {
	c.Window.Title = envy.Get(EnvPrefix+"TITLE", c.Window.Title)
	c.Renderer.PresentMode = envy.Get(EnvPrefix+"PRESENT_MODE", c.Renderer.PresentMode)
	c.Renderer.Backend = envy.Get(EnvPrefix+"BACKEND", c.Renderer.Backend)
	c.Logging.Level = envy.Get(EnvPrefix+"LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envy.Get(EnvPrefix+"LOG_FORMAT", c.Logging.Format)

	var err error
	if c.Window.Width, err = envInt("WIDTH", c.Window.Width); err != nil {
		return err
	}
	if c.Window.Height, err = envInt("HEIGHT", c.Window.Height); err != nil {
		return err
	}
	if c.Renderer.ForceFallback, err = envBool("FORCE_FALLBACK", c.Renderer.ForceFallback); err != nil {
		return err
	}
	if c.Profile, err = envBool("PROFILE", c.Profile); err != nil {
		return err
	}
	if c.Camera.FovY, err = envFloat("FOV_Y", c.Camera.FovY); err != nil {
		return err
	}
	if c.Camera.ZoomScale, err = envFloat("ZOOM_SCALE", c.Camera.ZoomScale); err != nil {
		return err
	}
	if c.Camera.MinDistance, err = envFloat("MIN_DISTANCE", c.Camera.MinDistance); err != nil {
		return err
	}
	if c.Camera.Eye, err = envVec3("EYE", c.Camera.Eye); err != nil {
		return err
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with.
//
// Returns:
//   - error: a wrapped sentinel error describing the first invalid value, or nil
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Window.Width, c.Window.Height)
	}
	if _, err := ParsePresentMode(c.Renderer.PresentMode); err != nil {
		return err
	}
	if _, err := ParseBackend(c.Renderer.Backend); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrUnknownValue, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrUnknownValue, c.Logging.Format)
	}

	cam := c.Camera
	if cam.FovY <= 0 || cam.FovY >= 180 || cam.Near <= 0 || cam.Far <= cam.Near {
		return fmt.Errorf("%w: fov %v near %v far %v", ErrInvalidProjection, cam.FovY, cam.Near, cam.Far)
	}
	dir := c.CameraCenter().Sub(c.CameraEye())
	if dir.Len() == 0 {
		return fmt.Errorf("%w: eye equals center", ErrInvalidCamera)
	}
	if dir.Normalize().Cross(c.CameraUp().Normalize()).Len() < 1e-6 {
		return fmt.Errorf("%w: up is parallel to the view direction", ErrInvalidCamera)
	}
	return nil
}

// CameraEye returns the initial eye position as a vector.
func (c Config) CameraEye() mgl32.Vec3 { return mgl32.Vec3(c.Camera.Eye) }

// CameraCenter returns the initial pivot as a vector.
func (c Config) CameraCenter() mgl32.Vec3 { return mgl32.Vec3(c.Camera.Center) }

// CameraUp returns the initial up direction as a vector.
func (c Config) CameraUp() mgl32.Vec3 { return mgl32.Vec3(c.Camera.Up) }

// FovYRadians returns the vertical field of view in radians.
func (c Config) FovYRadians() float32 { return mgl32.DegToRad(c.Camera.FovY) }

// Title returns the window title, falling back to the default title when unset.
func (c Config) Title() string {
	return common.Coalesce(c.Window.Title, Default().Window.Title)
}

// ConfigureLogging applies the logging settings to the standard logrus logger.
//
// Returns:
//   - error: an error if the level is not a logrus level
func (c Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", ErrUnknownValue, c.Logging.Level)
	}
	log.SetLevel(level)
	if c.Logging.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	raw := envy.Get(EnvPrefix+key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	return v, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := envy.Get(EnvPrefix+key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	return v, nil
}

func envFloat(key string, fallback float32) (float32, error) {
	raw := envy.Get(EnvPrefix+key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	return float32(v), nil
}

// envVec3 parses "x,y,z".
func envVec3(key string, fallback [3]float32) ([3]float32, error) {
	raw := envy.Get(EnvPrefix+key, "")
	if raw == "" {
		return fallback, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return fallback, fmt.Errorf("config: %s%s: want x,y,z, got %q", EnvPrefix, key, raw)
	}
	var out [3]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fallback, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

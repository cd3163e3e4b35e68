// Package config loads the harness settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Carmen-Shannon/gloom-go/common"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the file Load reads when the caller passes an empty path.
const DefaultPath = "gloom.yml"

// Defaults applied to zero-valued fields.
const (
	DefaultTitle           = "gloom"
	DefaultWidth           = 1280
	DefaultHeight          = 720
	DefaultTriangles       = 1
	DefaultLoaderWorkers   = 2
	DefaultShutdownTimeout = 2 * time.Second
	DefaultLogLevel        = "info"
)

// DefaultShaderPaths is the vertex and fragment pair shipped in assets/.
var DefaultShaderPaths = []string{
	"assets/shaders/simple.vert",
	"assets/shaders/simple.frag",
}

// DefaultClearColor is the dark grey the back buffer is cleared to.
var DefaultClearColor = [4]float32{0.163, 0.163, 0.163, 1}

// Config is the root of gloom.yml.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Shaders   ShaderConfig    `yaml:"shaders"`
	Render    RenderConfig    `yaml:"render"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Log       LogConfig       `yaml:"log"`
}

// WindowConfig configures the GLFW window and its context.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable *bool  `yaml:"resizable"` // pointer to distinguish unset vs false
	VSync     *bool  `yaml:"vsync"`
}

// ShaderConfig lists the shader stages linked into the program.
type ShaderConfig struct {
	Paths   []string `yaml:"paths"`
	Workers int      `yaml:"workers"` // loader worker pool size
}

// RenderConfig configures the draw loop.
type RenderConfig struct {
	Triangles       int       `yaml:"triangles"`
	ClearColor      []float32 `yaml:"clear_color"`
	FrameLimit      float64   `yaml:"frame_limit"` // frames per second, 0 = uncapped
	ShutdownTimeout Duration  `yaml:"shutdown_timeout"`
	TimeUniform     string    `yaml:"time_uniform"`
	OffsetUniform   string    `yaml:"offset_uniform"`
}

// ProfilingConfig configures the frame profiler.
type ProfilingConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
}

// Duration wraps time.Duration for YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

// Load reads and parses the YAML file at path, then fills unset fields with defaults.
// A missing file is not an error: the defaults are returned.
//
// Parameters:
//   - path: the config file, DefaultPath if empty
//
// Returns:
//   - Config: the loaded configuration
//   - error: error if the file exists but cannot be read, parsed or validated
func Load(path string) (Config, error) {
	path = common.Coalesce(path, DefaultPath)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data into a Config, applies defaults and validates it.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the parsed configuration
//   - error: error if the document is malformed or invalid
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	c.Window.Title = common.Coalesce(c.Window.Title, DefaultTitle)
	c.Window.Width = common.Coalesce(c.Window.Width, DefaultWidth)
	c.Window.Height = common.Coalesce(c.Window.Height, DefaultHeight)
	if c.Window.Resizable == nil {
		c.Window.Resizable = new(bool)
		*c.Window.Resizable = true
	}
	if c.Window.VSync == nil {
		c.Window.VSync = new(bool)
		*c.Window.VSync = true
	}

	if len(c.Shaders.Paths) == 0 {
		c.Shaders.Paths = append([]string(nil), DefaultShaderPaths...)
	}
	c.Shaders.Workers = common.Coalesce(c.Shaders.Workers, DefaultLoaderWorkers)

	c.Render.Triangles = common.Coalesce(c.Render.Triangles, DefaultTriangles)
	if len(c.Render.ClearColor) == 0 {
		c.Render.ClearColor = append([]float32(nil), DefaultClearColor[:]...)
	}
	c.Render.ShutdownTimeout = common.Coalesce(c.Render.ShutdownTimeout, Duration(DefaultShutdownTimeout))
	c.Render.TimeUniform = common.Coalesce(c.Render.TimeUniform, "elapsed")
	c.Render.OffsetUniform = common.Coalesce(c.Render.OffsetUniform, "offset")

	c.Profiling.Interval = common.Coalesce(c.Profiling.Interval, Duration(time.Second))

	c.Log.Level = common.Coalesce(c.Log.Level, DefaultLogLevel)
}

// Validate reports every setting that cannot produce a working harness.
//
// Returns:
//   - error: error describing the invalid setting, nil if the config is usable
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width < 0 || c.Window.Height < 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if len(c.Shaders.Paths) == 0 {
		errs = append(errs, errors.New("at least one shader path is required"))
	}
	if c.Shaders.Workers < 0 {
		errs = append(errs, fmt.Errorf("shader loader workers %d must be positive", c.Shaders.Workers))
	}
	if c.Render.Triangles < 0 {
		errs = append(errs, fmt.Errorf("triangle count %d must be positive", c.Render.Triangles))
	}
	if len(c.Render.ClearColor) != 4 {
		errs = append(errs, fmt.Errorf("clear color needs 4 components, got %d", len(c.Render.ClearColor)))
	}
	if c.Render.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("frame limit %v must not be negative", c.Render.FrameLimit))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ClearColorRGBA returns the clear color as a fixed-size array.
func (r RenderConfig) ClearColorRGBA() [4]float32 {
	var c [4]float32
	copy(c[:], r.ClearColor)
	return c
}

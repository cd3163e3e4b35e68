// Command gloom opens a window and draws a row of shader-animated triangles.
// Hold A or D to push the animation clock forward or back, R resets it, Escape quits.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/gloom-go/engine"
	"github.com/Carmen-Shannon/gloom-go/engine/config"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver/opengl"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/geometry"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/gloom-go/engine/window"
	"go.uber.org/zap"
)

// GLFW must run its event loop on the thread that started the program.
func init() {
	runtime.LockOSThread()
}

var configPath = flag.String("config", config.DefaultPath, "path to the YAML configuration file")

func main() {
	flag.Parse()

	// ── Config + Logger ─────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("gloom exited with an error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg config.Config, logger *zap.Logger) error {
	// ── Shaders ─────────────────────────────────────────────────────────
	// Sources are read before the window exists so a bad path fails without flashing a window.
	sources, err := shader.LoadSources(cfg.Shaders.Paths, cfg.Shaders.Workers)
	if err != nil {
		return fmt.Errorf("failed to load shaders: %w", err)
	}

	// ── Window ──────────────────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithResizable(*cfg.Window.Resizable),
		window.WithVSync(*cfg.Window.VSync),
		window.WithLogger(logger.Named("window")),
	)
	if err != nil {
		return err
	}

	// ── Render loop ─────────────────────────────────────────────────────
	vertices, indices := geometry.TriangleRow(cfg.Render.Triangles)
	rgba := cfg.Render.ClearColorRGBA()
	newRenderLoop := func(drv driver.Driver) (renderer.RenderLoop, error) {
		logger.Info("OpenGL context ready", zap.String("version", opengl.Version()))
		return renderer.NewRenderLoop(drv,
			renderer.WithSources(sources...),
			renderer.WithGeometry(vertices, indices),
			renderer.WithClearColor(rgba[0], rgba[1], rgba[2], rgba[3]),
			renderer.WithTimeUniform(cfg.Render.TimeUniform),
			renderer.WithOffsetUniform(cfg.Render.OffsetUniform),
			renderer.WithLogger(logger),
		)
	}

	// ── Engine ──────────────────────────────────────────────────────────
	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithDriverFactory(opengl.New),
		engine.WithRendererFactory(newRenderLoop),
		engine.WithLogger(logger),
		engine.WithProfiling(cfg.Profiling.Enabled, cfg.Profiling.Interval.Duration()),
		engine.WithRenderFrameLimit(cfg.Render.FrameLimit),
		engine.WithShutdownTimeout(cfg.Render.ShutdownTimeout.Duration()),
	)
	if err != nil {
		_ = win.Close()
		return err
	}

	return eng.Run()
}

// Command demo opens the island scene: seven models on a shadowed,
// environment-lit terrain, a character moved with W/A/S/D and an orbit
// camera that trails it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"island-demo/assets"
	"island-demo/config"
	"island-demo/core"
	"island-demo/renderer"
	"island-demo/window"
	"island-demo/world"
)

func main() {
	assetsDir := pflag.String("assets", "static", "directory holding models/ and textures/")
	width := pflag.Int("width", 0, "window width (default from config)")
	height := pflag.Int("height", 0, "window height (default from config)")
	verbose := pflag.BoolP("verbose", "v", false, "log at info level")
	debug := pflag.Bool("vv", false, "log at debug level")
	quiet := pflag.BoolP("quiet", "q", false, "log errors only")
	pflag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromFlags(*debug, *verbose, *quiet),
	})))

	if err := run(*assetsDir, *width, *height); err != nil {
		slog.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

func levelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	}
	return slog.LevelWarn
}

func run(assetsDir string, width, height int) error {
	cfg := config.Default()
	if width <= 0 {
		width = cfg.Window.Width
	}
	if height <= 0 {
		height = cfg.Window.Height
	}

	winCfg := window.DefaultConfig()
	winCfg.Width, winCfg.Height = width, height
	winCfg.Title = cfg.Window.Title
	win, err := window.New(winCfg)
	if err != nil {
		return err
	}
	defer win.Destroy()

	opts := renderer.DefaultOptions()
	opts.Exposure = cfg.Renderer.Exposure
	opts.Samples = cfg.Renderer.Samples
	engine, err := renderer.NewRenderEngine(width, height, opts)
	if err != nil {
		return fmt.Errorf("failed to create render engine: %w", err)
	}
	defer engine.Destroy()

	s, light := world.NewScene(cfg)
	rig := world.NewCameraRig(cfg, width, height)
	s.SetCamera(rig.Camera)
	state := world.NewState(s, cfg)

	loader := assets.NewLoader()
	world.RequestAssets(loader, state, assetsDir)
	world.RequestEnvironment(loader, s, assetsDir, cfg.Environment)

	resize := func(w, h int) {
		if w <= 0 || h <= 0 {
			return
		}
		rig.Resize(w, h, win.PixelRatio(), engine)
		engine.SetOutputSize(win.GetFramebufferSize())
	}
	resize(width, height)
	win.OnResize(resize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := world.NewInputController(state, rig, cfg.Movement.Step)
	panel := world.NewLightPanel(light, cfg.Panel)
	panel.OnChange = func(p *world.Panel) {
		win.SetTitle(cfg.Window.Title + " | " + p.Title())
	}
	exposure := engine.Exposure()
	panel.AddExposure(&exposure, cfg.Panel.Exposure, engine.SetExposure)
	win.OnKey(func(key core.Key, action core.Action) {
		if key == core.KeyEscape && action == core.Press {
			cancel()
			return
		}
		if panel.HandleKey(key, action) {
			return
		}
		input.HandleKey(key, action)
	})
	win.OnMouseButton(rig.Controls.MouseButton)
	win.OnCursorPos(rig.Controls.CursorMoved)
	win.OnScroll(rig.Controls.Scroll)

	loop := &world.Loop{
		Loader:   loader,
		Clock:    world.NewClock(),
		Rig:      rig,
		Driver:   &world.AnimationDriver{State: state},
		Renderer: engine,
		Scene:    s,
	}
	loop.Run(ctx, win)

	objects, triangles, casters, culled := engine.DrawStats()
	slog.Debug("last frame", "objects", objects, "triangles", triangles, "shadowCasters", casters,
		"culled", culled, "pendingLoads", loader.Pending())
	return nil
}

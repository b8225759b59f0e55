// Package window owns the GLFW window and its OpenGL context and forwards
// input events as core key and mouse values.
package window

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"island-demo/core"
)

func init() {
	runtime.LockOSThread()
}

type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	onKey         func(core.Key, core.Action)
	onResize      func(width, height int)
	onCursor      func(x, y float64)
	onMouseButton func(core.MouseButton, core.Action)
	onScroll      func(yoff float64)
}

type Config struct {
	Width     int
	Height    int
	Title     string
	Resizable bool
	VSync     bool
	Samples   int
}

func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Title:     "Island",
		Resizable: true,
		VSync:     true,
		Samples:   4,
	}
}

// New creates a window with a current OpenGL 4.1 core context.
func New(config Config) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))
	glfw.WindowHint(glfw.Samples, config.Samples)

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	}

	window := &Window{
		Handle: handle,
		Width:  config.Width,
		Height: config.Height,
		Title:  config.Title,
	}

	handle.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
		if window.onResize != nil {
			window.onResize(width, height)
		}
	})
	// Moving to a monitor with another scale changes only the framebuffer.
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		if window.onResize != nil {
			window.onResize(window.Width, window.Height)
		}
	})
	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if window.onKey != nil {
			window.onKey(core.Key(key), core.Action(action))
		}
	})
	handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if window.onCursor != nil {
			window.onCursor(x, y)
		}
	})
	handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if window.onMouseButton != nil {
			window.onMouseButton(core.MouseButton(button), core.Action(action))
		}
	})
	handle.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if window.onScroll != nil {
			window.onScroll(yoff)
		}
	})

	slog.Info("window created", "width", config.Width, "height", config.Height, "scale", window.PixelRatio())
	return window, nil
}

func (w *Window) OnKey(fn func(core.Key, core.Action))                 { w.onKey = fn }
func (w *Window) OnResize(fn func(width, height int))                  { w.onResize = fn }
func (w *Window) OnCursorPos(fn func(x, y float64))                    { w.onCursor = fn }
func (w *Window) OnMouseButton(fn func(core.MouseButton, core.Action)) { w.onMouseButton = fn }
func (w *Window) OnScroll(fn func(yoff float64))                       { w.onScroll = fn }

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

// PixelRatio is framebuffer pixels per screen coordinate, the desktop
// analogue of a browser's device pixel ratio.
func (w *Window) PixelRatio() float32 {
	fbW, _ := w.Handle.GetFramebufferSize()
	if w.Width <= 0 || fbW <= 0 {
		return 1
	}
	return float32(fbW) / float32(w.Width)
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func boolToInt(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

package world

import (
	"context"
	"log/slog"
	"time"

	"island-demo/scene"
)

// Renderer draws a scene through a camera.
type Renderer interface {
	Render(s *scene.Scene, camera *scene.Camera)
}

// Host is the window the loop runs in. SwapBuffers waits for vsync.
type Host interface {
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
}

// Poller delivers finished asset loads.
type Poller interface {
	Poll() int
}

type Loop struct {
	Loader   Poller
	Clock    *Clock
	Rig      *CameraRig
	Driver   *AnimationDriver
	Renderer Renderer
	Scene    *scene.Scene

	frames uint64
}

// Frame runs one cycle: deliver loads, tick the clock, damp the camera,
// move the ambient models, draw.
func (l *Loop) Frame() {
	if l.Loader != nil {
		l.Loader.Poll()
	}
	elapsed, dt := l.Clock.Tick()
	l.Rig.Update(dt)
	l.Driver.Update(elapsed, dt)
	l.Renderer.Render(l.Scene, l.Rig.Camera)
	l.frames++
}

// Frames counts completed frames.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Run renders frames until the host closes or ctx is cancelled.
func (l *Loop) Run(ctx context.Context, host Host) {
	start := time.Now()
	for !host.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		host.PollEvents()
		l.Frame()
		host.SwapBuffers()
	}
	if secs := time.Since(start).Seconds(); secs > 0 {
		slog.Info("render loop stopped", "frames", l.frames, "fps", float64(l.frames)/secs)
	}
}

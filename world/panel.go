package world

import (
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"

	"island-demo/config"
	"island-demo/core"
	"island-demo/math"
	"island-demo/scene"
)

// Slider binds a float to a range with a fixed step.
type Slider struct {
	Name  string
	Value *float32
	Min   float32
	Max   float32
	Step  float32
}

// Set quantizes v to the step, clamps it to the range and stores it.
func (s *Slider) Set(v float32) float32 {
	if s.Step > 0 {
		v = s.Min + math32.Round((v-s.Min)/s.Step)*s.Step
	}
	v = math.Clamp(v, s.Min, s.Max)
	*s.Value = v
	return v
}

// Panel is a keyboard-driven list of sliders: Tab selects the next one,
// Up and Down nudge the selection by one percent of its range.
type Panel struct {
	Sliders  []*Slider
	OnChange func(*Panel)

	selected int
}

// NewLightPanel exposes the light intensity and position.
func NewLightPanel(light *scene.DirectionalLight, ranges config.Panel) *Panel {
	pos := ranges.Position
	return &Panel{Sliders: []*Slider{
		{Name: "intensity", Value: &light.Intensity, Min: ranges.Intensity.Min, Max: ranges.Intensity.Max, Step: ranges.Intensity.Step},
		{Name: "x", Value: &light.Position.X, Min: pos.Min, Max: pos.Max, Step: pos.Step},
		{Name: "y", Value: &light.Position.Y, Min: pos.Min, Max: pos.Max, Step: pos.Step},
		{Name: "z", Value: &light.Position.Z, Min: pos.Min, Max: pos.Max, Step: pos.Step},
	}}
}

// AddExposure appends a slider for the tone-mapping exposure. apply receives
// every new value.
func (p *Panel) AddExposure(value *float32, r config.Range, apply func(float32)) {
	p.Sliders = append(p.Sliders, &Slider{Name: "exposure", Value: value, Min: r.Min, Max: r.Max, Step: r.Step})
	prev := p.OnChange
	p.OnChange = func(p *Panel) {
		if p.Selected().Value == value {
			apply(*value)
		}
		if prev != nil {
			prev(p)
		}
	}
}

func (p *Panel) Selected() *Slider {
	if len(p.Sliders) == 0 {
		return nil
	}
	return p.Sliders[p.selected]
}

// HandleKey reports whether the event was consumed.
func (p *Panel) HandleKey(key core.Key, action core.Action) bool {
	s := p.Selected()
	if action == core.Release || s == nil {
		return false
	}
	switch key {
	case core.KeyTab:
		if action != core.Press {
			return true
		}
		p.selected = (p.selected + 1) % len(p.Sliders)
	case core.KeyUp, core.KeyDown:
		delta := (s.Max - s.Min) / 100
		if key == core.KeyDown {
			delta = -delta
		}
		v := s.Set(*s.Value + delta)
		slog.Info("panel changed", "slider", s.Name, "value", v)
	default:
		return false
	}
	if p.OnChange != nil {
		p.OnChange(p)
	}
	return true
}

// Title describes the selected slider for the window title.
func (p *Panel) Title() string {
	s := p.Selected()
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%s = %.3f  [%g, %g]", s.Name, *s.Value, s.Min, s.Max)
}

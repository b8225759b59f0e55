// Package config holds the scene constants. The shipped values are embedded
// from scene.yaml and fixed at build time.
package config

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"island-demo/core"
	"island-demo/math"
)

//go:embed scene.yaml
var embedded []byte

// Kind names one of the scene's assets.
type Kind string

const (
	KindCharacter Kind = "character"
	KindTerrain   Kind = "terrain"
	KindAirplane  Kind = "airplane"
	KindCrab      Kind = "crab"
	KindHouse     Kind = "house"
	KindWood      Kind = "wood"
	KindFox       Kind = "fox"
)

// Kinds lists every asset kind in load order.
var Kinds = []Kind{KindCharacter, KindTerrain, KindAirplane, KindCrab, KindHouse, KindWood, KindFox}

// Vec3 decodes from a three element YAML sequence.
type Vec3 [3]float32

func (v Vec3) Vec() math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}

type Config struct {
	Window      Window      `yaml:"window"`
	Camera      Camera      `yaml:"camera"`
	Rig         Rig         `yaml:"rig"`
	Controls    Controls    `yaml:"controls"`
	Light       Light       `yaml:"light"`
	Renderer    Renderer    `yaml:"renderer"`
	Environment Environment `yaml:"environment"`
	Movement    Movement    `yaml:"movement"`
	Panel       Panel       `yaml:"panel"`
	Assets      []Asset     `yaml:"assets"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type Camera struct {
	FOV      float32 `yaml:"fov"` // vertical, degrees
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
	Position Vec3    `yaml:"position"`
}

type Rig struct {
	PositionOffset Vec3 `yaml:"positionOffset"`
	TargetOffset   Vec3 `yaml:"targetOffset"`
}

type Controls struct {
	Damping       bool    `yaml:"damping"`
	DampingFactor float32 `yaml:"dampingFactor"`
}

type Shadow struct {
	Left       float32 `yaml:"left"`
	Right      float32 `yaml:"right"`
	Top        float32 `yaml:"top"`
	Bottom     float32 `yaml:"bottom"`
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	NormalBias float32 `yaml:"normalBias"`
	MapSize    int     `yaml:"mapSize"`
}

type Light struct {
	Color      uint32  `yaml:"color"`
	Intensity  float32 `yaml:"intensity"`
	Position   Vec3    `yaml:"position"`
	CastShadow bool    `yaml:"castShadow"`
	Shadow     Shadow  `yaml:"shadow"`
}

func (l Light) RGB() core.Color {
	return core.ColorFromHex(l.Color)
}

type Renderer struct {
	MaxPixelRatio float32 `yaml:"maxPixelRatio"`
	Exposure      float32 `yaml:"exposure"`
	Samples       int     `yaml:"samples"`
}

type Environment struct {
	Dir   string   `yaml:"dir"`
	Faces []string `yaml:"faces"`
}

type Movement struct {
	Step float32 `yaml:"step"`
}

type Range struct {
	Min  float32 `yaml:"min"`
	Max  float32 `yaml:"max"`
	Step float32 `yaml:"step"`
}

type Panel struct {
	Intensity Range `yaml:"intensity"`
	Position  Range `yaml:"position"`
	Exposure  Range `yaml:"exposure"`
}

// Asset places one model file. RotationY is in degrees.
type Asset struct {
	Kind       Kind    `yaml:"kind"`
	Path       string  `yaml:"path"`
	Scale      float32 `yaml:"scale"`
	Position   Vec3    `yaml:"position"`
	RotationY  float32 `yaml:"rotationY"`
	CastShadow bool    `yaml:"castShadow"`
}

// Transform returns the fixed placement of the asset.
func (a Asset) Transform() core.Transform {
	return core.Transform{
		Position: a.Position.Vec(),
		Rotation: math.QuaternionFromAxisAngle(math.Vec3Up, math.DegToRad(a.RotationY)),
		Scale:    math.NewVec3(a.Scale, a.Scale, a.Scale),
	}
}

// Asset returns the entry for kind.
func (c *Config) Asset(kind Kind) (Asset, bool) {
	for _, a := range c.Assets {
		if a.Kind == kind {
			return a, true
		}
	}
	return Asset{}, false
}

// Default returns the embedded configuration. It panics if the embedded
// document is invalid, which the package tests rule out.
func Default() *Config {
	c, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded scene config: %v", err))
	}
	return c
}

// Parse decodes and validates a YAML scene document.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode scene config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var ErrInvalid = errors.New("invalid scene config")

func (c *Config) Validate() error {
	var errs []error
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera fov %v out of range", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera planes %v/%v", c.Camera.Near, c.Camera.Far))
	}
	if c.Light.Shadow.MapSize <= 0 {
		errs = append(errs, fmt.Errorf("shadow map size %d", c.Light.Shadow.MapSize))
	}
	if len(c.Environment.Faces) != 6 {
		errs = append(errs, fmt.Errorf("environment needs 6 faces, got %d", len(c.Environment.Faces)))
	}
	for _, r := range []Range{c.Panel.Intensity, c.Panel.Position, c.Panel.Exposure} {
		if r.Min >= r.Max || r.Step <= 0 {
			errs = append(errs, fmt.Errorf("panel range %+v", r))
		}
	}

	seen := make(map[Kind]int)
	for _, a := range c.Assets {
		seen[a.Kind]++
		if a.Scale <= 0 {
			errs = append(errs, fmt.Errorf("asset %s: scale must be positive", a.Kind))
		}
		if a.Path == "" {
			errs = append(errs, fmt.Errorf("asset %s: empty path", a.Kind))
		}
	}
	for _, k := range Kinds {
		if seen[k] != 1 {
			errs = append(errs, fmt.Errorf("asset %s listed %d times", k, seen[k]))
		}
	}
	if len(seen) != len(Kinds) {
		errs = append(errs, fmt.Errorf("unknown asset kinds in %v", seen))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

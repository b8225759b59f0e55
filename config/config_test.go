package config

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"island-demo/core"
	"island-demo/math"
)

func TestDefaultMatchesSceneConstants(t *testing.T) {
	c := Default()

	assert.Equal(t, float32(75), c.Camera.FOV)
	assert.Equal(t, float32(0.1), c.Camera.Near)
	assert.Equal(t, float32(100), c.Camera.Far)
	assert.Equal(t, Vec3{0, 3, 2}, c.Camera.Position)

	assert.Equal(t, core.ColorWhite, c.Light.RGB())
	assert.Equal(t, float32(3), c.Light.Intensity)
	assert.Equal(t, Vec3{1, 5, 5}, c.Light.Position)
	assert.Equal(t, Shadow{Left: -7, Right: 10, Top: 7, Bottom: -7, Near: 0.5, Far: 20, NormalBias: 0.05, MapSize: 2048}, c.Light.Shadow)

	assert.Equal(t, float32(0.2), c.Movement.Step)
	assert.Equal(t, float32(2), c.Renderer.MaxPixelRatio)
	assert.Equal(t, []string{"px.png", "nx.png", "py.png", "ny.png", "pz.png", "nz.png"}, c.Environment.Faces)
	assert.Equal(t, Range{Min: 0, Max: 10, Step: 0.001}, c.Panel.Intensity)
	assert.Equal(t, Range{Min: -5, Max: 5, Step: 0.001}, c.Panel.Position)
	assert.Equal(t, Range{Min: 0.1, Max: 4, Step: 0.01}, c.Panel.Exposure)
}

func TestDefaultAssetTransforms(t *testing.T) {
	c := Default()
	require.Len(t, c.Assets, len(Kinds))

	cases := []struct {
		kind     Kind
		scale    float32
		position math.Vec3
		yaw      float32
	}{
		{KindCharacter, 0.01, math.Vec3Zero, math32.Pi},
		{KindTerrain, 0.09, math.NewVec3(0, -4, -10), 0},
		{KindAirplane, 0.1, math.Vec3Zero, 0},
		{KindCrab, 1.2, math.NewVec3(0, -2.9, 0), math32.Pi},
		{KindHouse, 0.9, math.NewVec3(-1, 2.2, -8), math32.Pi / 2},
		{KindWood, 3, math.NewVec3(10, -23.5, -3), 0},
		{KindFox, 0.015, math.NewVec3(6.8, -1.3, -0.75), 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			a, ok := c.Asset(tc.kind)
			require.True(t, ok)
			tr := a.Transform()
			assert.Equal(t, math.NewVec3(tc.scale, tc.scale, tc.scale), tr.Scale)
			assert.Equal(t, tc.position, tr.Position)
			assert.InDelta(t, tc.yaw, tr.Rotation.YawAngle(), 1e-5)
		})
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	_, err := Parse([]byte("camera: ["))
	assert.Error(t, err)

	withoutFox := strings.Replace(string(embedded), "kind: fox", "kind: wolf", 1)
	_, err = Parse([]byte(withoutFox))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "asset fox listed 0 times")

	negative := strings.Replace(string(embedded), "scale: 0.09", "scale: -1", 1)
	_, err = Parse([]byte(negative))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "terrain: scale must be positive")
}

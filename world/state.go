// Package world holds the demo's scene state and the per-frame and
// per-event logic that drives it.
package world

import (
	"log/slog"

	"island-demo/config"
	"island-demo/scene"
)

// Character is the player-controlled model and its animation mixer.
type Character struct {
	Node   *scene.Node
	Mixer  *scene.Mixer
	Action *scene.AnimationAction
}

// State holds one optional slot per asset. A nil slot means the asset has
// not finished loading, or never will; every consumer checks before use.
type State struct {
	Scene  *scene.Scene
	Config *config.Config

	Character *Character
	Terrain   *scene.Node
	Airplane  *scene.Node
	Crab      *scene.Node
	House     *scene.Node
	Wood      *scene.Node
	Fox       *scene.Node

	// Skins of ambient models, re-applied every frame after their roots move.
	Skins []*scene.SkinBinding
}

func NewState(s *scene.Scene, cfg *config.Config) *State {
	return &State{Scene: s, Config: cfg}
}

// Slot returns the root bound for kind, or nil.
func (s *State) Slot(kind config.Kind) *scene.Node {
	switch kind {
	case config.KindCharacter:
		if s.Character != nil {
			return s.Character.Node
		}
	case config.KindTerrain:
		return s.Terrain
	case config.KindAirplane:
		return s.Airplane
	case config.KindCrab:
		return s.Crab
	case config.KindHouse:
		return s.House
	case config.KindWood:
		return s.Wood
	case config.KindFox:
		return s.Fox
	}
	return nil
}

// Bind is the completion handler of an asset load. It places the model,
// prepares its materials, adds it to the scene and fills the slot. Must run
// on the goroutine that owns the scene.
func (s *State) Bind(kind config.Kind, model *scene.Model) {
	if s.Slot(kind) != nil {
		slog.Warn("asset already bound", "asset", kind)
		return
	}
	asset, ok := s.Config.Asset(kind)
	if !ok {
		slog.Warn("no placement for asset", "asset", kind)
		return
	}

	root := model.Root
	root.Transform = asset.Transform()
	root.MarkWorldMatrixDirty()
	ApplyEnvironmentMaterials(root)
	s.Scene.AddNode(root)

	switch kind {
	case config.KindCharacter:
		s.Character = s.bindCharacter(model, asset.CastShadow)
	case config.KindTerrain:
		s.Terrain = root
	case config.KindAirplane:
		s.Airplane = root
	case config.KindCrab:
		s.Crab = root
	case config.KindHouse:
		s.House = root
	case config.KindWood:
		s.Wood = root
	case config.KindFox:
		s.Fox = root
	}
	if kind != config.KindCharacter && len(model.Skins) > 0 {
		s.Skins = append(s.Skins, model.Skins...)
		s.ApplySkins()
	}
	slog.Info("asset bound", "asset", kind, "animations", len(model.Animations))
}

// ApplySkins deforms the ambient skinned meshes from their current joint
// poses. The character is skinned by its mixer.
func (s *State) ApplySkins() {
	for _, sk := range s.Skins {
		sk.Apply()
	}
}

func (s *State) bindCharacter(model *scene.Model, shadows bool) *Character {
	if shadows {
		model.Root.Traverse(func(n *scene.Node) {
			if n.Mesh != nil {
				n.CastShadow = true
				n.ReceiveShadow = true
			}
		})
	}

	c := &Character{Node: model.Root, Mixer: scene.NewMixer(model)}
	if len(model.Animations) > 0 {
		c.Action = c.Mixer.ClipAction(model.Animations[0]).Play()
	}
	// Pose skinned meshes before the first frame draws them.
	c.Mixer.Update(0)
	return c
}

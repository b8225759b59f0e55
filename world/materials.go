package world

import "island-demo/scene"

// EnvMapIntensity is the environment reflection strength given to every
// physically based material.
const EnvMapIntensity = 5

// ApplyEnvironmentMaterials marks every mesh with a physically based
// material under root as a shadow caster and receiver, raises its
// environment intensity and flags the material for re-upload. Running it
// again changes nothing.
func ApplyEnvironmentMaterials(root *scene.Node) {
	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil || n.Mesh.Material == nil || !n.Mesh.Material.UsePBR {
			return
		}
		n.CastShadow = true
		n.ReceiveShadow = true
		n.Mesh.Material.EnvMapIntensity = EnvMapIntensity
		n.Mesh.Material.NeedsUpdate = true
	})
}

package scene

import (
	"github.com/chewxy/math32"

	"island-demo/math"
)

type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

type TargetPath int

const (
	PathTranslation TargetPath = iota
	PathRotation
	PathScale
)

// Track animates one property of one node. Values holds Components floats
// per keyframe, or three times that for cubic splines (in-tangent, value,
// out-tangent).
type Track struct {
	Node          *Node
	Path          TargetPath
	Interpolation Interpolation
	Times         []float32
	Values        []float32
}

// Components is 4 for rotations and 3 otherwise.
func (tr *Track) Components() int {
	if tr.Path == PathRotation {
		return 4
	}
	return 3
}

// AnimationClip is a named set of tracks sharing one timeline.
type AnimationClip struct {
	Name     string
	Duration float32
	Tracks   []*Track
}

// Apply samples every track at time t and writes the result to its node.
func (c *AnimationClip) Apply(t float32) {
	for _, tr := range c.Tracks {
		v := tr.Sample(t)
		switch tr.Path {
		case PathTranslation:
			tr.Node.SetPosition(math.NewVec3(v[0], v[1], v[2]))
		case PathRotation:
			tr.Node.SetRotation(math.NewQuaternion(v[0], v[1], v[2], v[3]).Normalize())
		case PathScale:
			tr.Node.SetScale(math.NewVec3(v[0], v[1], v[2]))
		}
	}
}

// Sample returns the track value at time t, clamped to the first and last
// keyframes.
func (tr *Track) Sample(t float32) []float32 {
	n := tr.Components()
	keys := len(tr.Times)
	out := make([]float32, n)
	if keys == 0 {
		return out
	}

	stride := n
	offset := 0
	if tr.Interpolation == InterpolationCubicSpline {
		stride = 3 * n
		offset = n
	}
	value := func(k int) []float32 {
		start := k*stride + offset
		return tr.Values[start : start+n]
	}

	if t <= tr.Times[0] {
		copy(out, value(0))
		return out
	}
	if t >= tr.Times[keys-1] {
		copy(out, value(keys-1))
		return out
	}

	k := 0
	for k < keys-2 && t >= tr.Times[k+1] {
		k++
	}
	t0, t1 := tr.Times[k], tr.Times[k+1]
	span := t1 - t0
	u := float32(0)
	if span > 0 {
		u = (t - t0) / span
	}

	switch tr.Interpolation {
	case InterpolationStep:
		copy(out, value(k))
	case InterpolationCubicSpline:
		v0, v1 := value(k), value(k+1)
		b0 := tr.Values[k*stride+2*n : k*stride+3*n]
		a1 := tr.Values[(k+1)*stride : (k+1)*stride+n]
		u2, u3 := u*u, u*u*u
		h00 := 2*u3 - 3*u2 + 1
		h10 := u3 - 2*u2 + u
		h01 := -2*u3 + 3*u2
		h11 := u3 - u2
		for i := 0; i < n; i++ {
			out[i] = h00*v0[i] + h10*span*b0[i] + h01*v1[i] + h11*span*a1[i]
		}
		if tr.Path == PathRotation {
			q := math.NewQuaternion(out[0], out[1], out[2], out[3]).Normalize()
			out[0], out[1], out[2], out[3] = q.X, q.Y, q.Z, q.W
		}
	default:
		v0, v1 := value(k), value(k+1)
		if tr.Path == PathRotation {
			q0 := math.NewQuaternion(v0[0], v0[1], v0[2], v0[3])
			q1 := math.NewQuaternion(v1[0], v1[1], v1[2], v1[3])
			q := q0.Slerp(q1, u)
			out[0], out[1], out[2], out[3] = q.X, q.Y, q.Z, q.W
		} else {
			for i := 0; i < n; i++ {
				out[i] = v0[i] + (v1[i]-v0[i])*u
			}
		}
	}
	return out
}

// AnimationAction is the playback cursor of one clip.
type AnimationAction struct {
	Clip      *AnimationClip
	Time      float32
	TimeScale float32
	Loop      bool
	playing   bool
}

func (a *AnimationAction) Play() *AnimationAction {
	a.playing = true
	return a
}

func (a *AnimationAction) Stop() {
	a.playing = false
	a.Time = 0
}

func (a *AnimationAction) IsPlaying() bool {
	return a.playing
}

func (a *AnimationAction) advance(dt float32) {
	a.Time += dt * a.TimeScale
	d := a.Clip.Duration
	if d <= 0 {
		a.Time = 0
		return
	}
	if a.Loop {
		a.Time = math32.Mod(a.Time, d)
		if a.Time < 0 {
			a.Time += d
		}
	} else if a.Time > d {
		a.Time = d
	}
}

// Mixer plays clips on a model and keeps its skinned meshes in sync with
// the animated joints.
type Mixer struct {
	Root    *Node
	actions []*AnimationAction
	skins   []*SkinBinding
}

func NewMixer(model *Model) *Mixer {
	return &Mixer{Root: model.Root, skins: model.Skins}
}

// ClipAction returns the action for clip, creating a looping one on first
// use.
func (m *Mixer) ClipAction(clip *AnimationClip) *AnimationAction {
	for _, a := range m.actions {
		if a.Clip == clip {
			return a
		}
	}
	a := &AnimationAction{Clip: clip, TimeScale: 1, Loop: true}
	m.actions = append(m.actions, a)
	return a
}

// Update advances every playing action by dt seconds, poses the nodes and
// re-skins deformed meshes.
func (m *Mixer) Update(dt float32) {
	for _, a := range m.actions {
		if !a.playing {
			continue
		}
		a.advance(dt)
		a.Clip.Apply(a.Time)
	}
	for _, s := range m.skins {
		s.Apply()
	}
}

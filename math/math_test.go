package math

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-4

func assertMat4InDelta(t *testing.T, expected, actual Mat4) {
	t.Helper()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, expected[i][j], actual[i][j], tolerance, "[%d][%d]", i, j)
		}
	}
}

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), v1.Add(v2))
	assert.Equal(t, NewVec3(3, 3, 3), v2.Sub(v1))
	assert.Equal(t, float32(32), v1.Dot(v2))
	assert.Equal(t, NewVec3(-3, 6, -3), v1.Cross(v2))
	assert.InDelta(t, 1, NewVec3(3, 4, 0).Normalize().Length(), tolerance)
	assert.Equal(t, NewVec3(1, 2, 3), v1.Min(v2))
	assert.Equal(t, NewVec3(4, 5, 6), v1.Max(v2))
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	assert.Equal(t, translation, m.Translation())
	assert.Equal(t, translation, m.MulVec3(Vec3Zero))
	assert.Equal(t, Vec3Right, m.MulDir(Vec3Right))
}

func TestMat4TRSOrder(t *testing.T) {
	rot := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)
	m := Mat4TRS(NewVec3(10, 0, 0), rot, NewVec3(2, 2, 2))

	// Scale 2, rotate +X onto -Z, then translate.
	got := m.MulVec3(Vec3Right)
	assert.True(t, got.ApproxEqual(NewVec3(10, 0, -2), tolerance), "got %v", got)
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := Mat4TRS(NewVec3(1, -2, 3), QuaternionFromAxisAngle(NewVec3(1, 1, 0), 0.7), NewVec3(2, 3, 0.5))

	assertMat4InDelta(t, Mat4Identity(), m.Mul(m.Inverse()))
	assertMat4InDelta(t, Mat4Identity(), m.Inverse().Mul(m))
}

func TestMat4InverseSingular(t *testing.T) {
	assert.Equal(t, Mat4Identity(), Mat4{}.Inverse())
}

func TestMat4Decompose(t *testing.T) {
	translation := NewVec3(-1, 2.2, -8)
	rotation := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)
	scale := NewVec3(0.9, 0.9, 0.9)

	gotT, gotR, gotS := Mat4TRS(translation, rotation, scale).Decompose()

	assert.True(t, gotT.ApproxEqual(translation, tolerance))
	assert.True(t, gotS.ApproxEqual(scale, tolerance))
	assert.InDelta(t, 1, math32.Abs(gotR.Dot(rotation)), tolerance)
}

func TestMat4FromColumnMajor(t *testing.T) {
	// glTF stores translation in elements 12..14.
	a := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 6, 7, 1}
	m := Mat4FromColumnMajor(a)
	assert.Equal(t, NewVec3(5, 6, 7), m.Translation())
}

func TestQuaternionRotation(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)

	// Rotating +X a quarter turn about +Y yields -Z.
	result := q.RotateVector(Vec3Right)
	assert.True(t, result.ApproxEqual(Vec3Back, tolerance), "got %v", result)

	// The matrix form agrees with the vector form.
	fromMat := q.ToMat4().MulDir(Vec3Right)
	assert.True(t, fromMat.ApproxEqual(result, tolerance))
}

func TestQuaternionFromMat4RoundTrip(t *testing.T) {
	for _, angle := range []float32{0, 0.3, 1.5, 3.0, -2.5} {
		q := QuaternionFromAxisAngle(NewVec3(0.2, 1, -0.4), angle)
		got := QuaternionFromMat4(q.ToMat4())
		assert.InDelta(t, 1, math32.Abs(got.Dot(q)), tolerance, "angle %v", angle)
	}
}

func TestQuaternionSlerp(t *testing.T) {
	a := QuaternionIdentity()
	b := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)

	assert.InDelta(t, 1, a.Slerp(b, 0).Dot(a), tolerance)
	assert.InDelta(t, 1, a.Slerp(b, 1).Dot(b), tolerance)

	mid := a.Slerp(b, 0.5)
	assert.InDelta(t, 1, mid.Length(), tolerance)
	assert.InDelta(t, math32.Pi/4, mid.YawAngle(), tolerance)
}

func TestMat4LookAt(t *testing.T) {
	eye := NewVec3(0, 0, 5)
	m := Mat4LookAt(eye, Vec3Zero, Vec3Up)

	assert.True(t, m.MulVec3(eye).ApproxEqual(Vec3Zero, tolerance))
	// The target lies on the view's -Z axis.
	assert.True(t, m.MulVec3(Vec3Zero).ApproxEqual(NewVec3(0, 0, -5), tolerance))
}

func TestMat4Perspective(t *testing.T) {
	m := Mat4Perspective(DegToRad(90), 2, 0.1, 100)

	assert.InDelta(t, 0.5, m[0][0], tolerance)
	assert.InDelta(t, 1, m[1][1], tolerance)
	// Points on the near plane map to depth -1.
	assert.InDelta(t, -1, m.MulVec3(NewVec3(0, 0, -0.1)).Z, tolerance)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(0), Clamp(-1, 0, 10))
	assert.Equal(t, float32(10), Clamp(11, 0, 10))
	assert.Equal(t, float32(3), Clamp(3, 0, 10))
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Mat4Identity()
	m2 := Mat4Identity()

	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}

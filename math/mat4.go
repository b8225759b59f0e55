package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix used with row vectors: a point p is transformed as
// p * M, translation lives in row 3, and M1.Mul(M2) applies M1 first.
type Mat4 [4][4]float32

func Mat4Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mat4FromColumnMajor converts a column-major array, as stored by glTF for
// column vectors, into the row-vector layout. Both layouts share the same
// memory order so this is a plain copy.
func Mat4FromColumnMajor(a [16]float32) Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = a[i*4+j]
		}
	}
	return m
}

func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				result[i][j] += m[i][k] * other[k][j]
			}
		}
	}
	return result
}

func (m Mat4) MulVec(v Vec4) Vec4 {
	return v.MulMat(m)
}

// MulVec3 transforms a point, dividing by w.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	return m.MulVec(v.ToVec4(1.0)).ToVec3DivW()
}

// MulDir transforms a direction, ignoring translation.
func (m Mat4) MulDir(v Vec3) Vec3 {
	return m.MulVec(v.ToVec4(0)).ToVec3()
}

// Translation returns row 3.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3][0], m[3][1], m[3][2]}
}

func (m Mat4) Transpose() Mat4 {
	return Mat4{
		{m[0][0], m[1][0], m[2][0], m[3][0]},
		{m[0][1], m[1][1], m[2][1], m[3][1]},
		{m[0][2], m[1][2], m[2][2], m[3][2]},
		{m[0][3], m[1][3], m[2][3], m[3][3]},
	}
}

func Mat4Translation(translation Vec3) Mat4 {
	m := Mat4Identity()
	m[3][0] = translation.X
	m[3][1] = translation.Y
	m[3][2] = translation.Z
	return m
}

func Mat4Scale(scale Vec3) Mat4 {
	m := Mat4Identity()
	m[0][0] = scale.X
	m[1][1] = scale.Y
	m[2][2] = scale.Z
	return m
}

func Mat4RotationY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return Mat4{
		{c, 0, -s, 0},
		{0, 1, 0, 0},
		{s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

// Mat4Perspective builds an OpenGL clip-space projection (z in [-w, w]).
func Mat4Perspective(fovY, aspect, near, far float32) Mat4 {
	tanHalfFovy := math32.Tan(fovY / 2)

	var m Mat4
	m[0][0] = 1 / (aspect * tanHalfFovy)
	m[1][1] = 1 / tanHalfFovy
	m[2][2] = -(far + near) / (far - near)
	m[2][3] = -1
	m[3][2] = -(2 * far * near) / (far - near)
	return m
}

func Mat4Orthographic(left, right, bottom, top, near, far float32) Mat4 {
	m := Mat4Identity()
	m[0][0] = 2 / (right - left)
	m[1][1] = 2 / (top - bottom)
	m[2][2] = -2 / (far - near)
	m[3][0] = -(right + left) / (right - left)
	m[3][1] = -(top + bottom) / (top - bottom)
	m[3][2] = -(far + near) / (far - near)
	return m
}

func Mat4LookAt(eye, target, up Vec3) Mat4 {
	zAxis := eye.Sub(target).Normalize()
	xAxis := up.Cross(zAxis).Normalize()
	yAxis := zAxis.Cross(xAxis)

	return Mat4{
		{xAxis.X, yAxis.X, zAxis.X, 0},
		{xAxis.Y, yAxis.Y, zAxis.Y, 0},
		{xAxis.Z, yAxis.Z, zAxis.Z, 0},
		{-xAxis.Dot(eye), -yAxis.Dot(eye), -zAxis.Dot(eye), 1},
	}
}

// Mat4TRS composes scale, then rotation, then translation.
func Mat4TRS(translation Vec3, rotation Quaternion, scale Vec3) Mat4 {
	m := rotation.ToMat4()
	for j := 0; j < 3; j++ {
		m[0][j] *= scale.X
		m[1][j] *= scale.Y
		m[2][j] *= scale.Z
	}
	m[3][0] = translation.X
	m[3][1] = translation.Y
	m[3][2] = translation.Z
	return m
}

// Decompose splits an affine matrix into translation, rotation and scale.
// A negative determinant is folded into the X scale.
func (m Mat4) Decompose() (Vec3, Quaternion, Vec3) {
	translation := m.Translation()
	sx := Vec3{m[0][0], m[0][1], m[0][2]}.Length()
	sy := Vec3{m[1][0], m[1][1], m[1][2]}.Length()
	sz := Vec3{m[2][0], m[2][1], m[2][2]}.Length()
	if m.Det3() < 0 {
		sx = -sx
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return translation, QuaternionIdentity(), Vec3{sx, sy, sz}
	}

	var r Mat4
	for j := 0; j < 3; j++ {
		r[0][j] = m[0][j] / sx
		r[1][j] = m[1][j] / sy
		r[2][j] = m[2][j] / sz
	}
	r[3][3] = 1
	return translation, QuaternionFromMat4(r), Vec3{sx, sy, sz}
}

// Det3 is the determinant of the upper 3×3; negative for mirroring transforms.
func (m Mat4) Det3() float32 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns the inverse of m, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	var a [16]float32
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i*4+j] = m[i][j]
		}
	}

	var inv [16]float32
	inv[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	inv[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	inv[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	inv[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	inv[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	inv[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	inv[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	inv[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	inv[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	inv[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	inv[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	inv[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	inv[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	inv[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	inv[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	inv[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*inv[0] + a[1]*inv[4] + a[2]*inv[8] + a[3]*inv[12]
	if det == 0 {
		return Mat4Identity()
	}
	det = 1 / det

	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = inv[i*4+j] * det
		}
	}
	return out
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

func DegToRad(deg float32) float32 {
	return deg * math32.Pi / 180
}

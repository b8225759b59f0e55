package math

import "github.com/chewxy/math32"

type Quaternion struct {
	X, Y, Z, W float32
}

func QuaternionIdentity() Quaternion {
	return Quaternion{X: 0, Y: 0, Z: 0, W: 1}
}

func NewQuaternion(x, y, z, w float32) Quaternion {
	return Quaternion{X: x, Y: y, Z: z, W: w}
}

func QuaternionFromAxisAngle(axis Vec3, angle float32) Quaternion {
	s, c := math32.Sincos(angle / 2)
	axis = axis.Normalize()
	return Quaternion{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: c,
	}
}

// QuaternionFromMat4 extracts the rotation of a pure rotation matrix in
// row-vector layout.
func QuaternionFromMat4(m Mat4) Quaternion {
	trace := m[0][0] + m[1][1] + m[2][2]
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math32.Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m[1][2] - m[2][1]) * s
		q.Y = (m[2][0] - m[0][2]) * s
		q.Z = (m[0][1] - m[1][0]) * s
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := 2 * math32.Sqrt(1+m[0][0]-m[1][1]-m[2][2])
		q.W = (m[1][2] - m[2][1]) / s
		q.X = 0.25 * s
		q.Y = (m[1][0] + m[0][1]) / s
		q.Z = (m[2][0] + m[0][2]) / s
	case m[1][1] > m[2][2]:
		s := 2 * math32.Sqrt(1+m[1][1]-m[0][0]-m[2][2])
		q.W = (m[2][0] - m[0][2]) / s
		q.X = (m[1][0] + m[0][1]) / s
		q.Y = 0.25 * s
		q.Z = (m[2][1] + m[1][2]) / s
	default:
		s := 2 * math32.Sqrt(1+m[2][2]-m[0][0]-m[1][1])
		q.W = (m[0][1] - m[1][0]) / s
		q.X = (m[2][0] + m[0][2]) / s
		q.Y = (m[2][1] + m[1][2]) / s
		q.Z = 0.25 * s
	}
	return q.Normalize()
}

// Mul returns the Hamilton product q*other, which rotates by other first.
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return Quaternion{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

func (q Quaternion) Dot(other Quaternion) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

func (q Quaternion) Length() float32 {
	return math32.Sqrt(q.Dot(q))
}

func (q Quaternion) Normalize() Quaternion {
	length := q.Length()
	if length > 0 {
		invLength := 1 / length
		return Quaternion{
			X: q.X * invLength,
			Y: q.Y * invLength,
			Z: q.Z * invLength,
			W: q.W * invLength,
		}
	}
	return q
}

func (q Quaternion) RotateVector(v Vec3) Vec3 {
	qVec := Vec3{X: q.X, Y: q.Y, Z: q.Z}
	t := qVec.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(qVec.Cross(t))
}

// ToMat4 returns the rotation in row-vector layout.
func (q Quaternion) ToMat4() Mat4 {
	xx := q.X * q.X
	yy := q.Y * q.Y
	zz := q.Z * q.Z
	xy := q.X * q.Y
	xz := q.X * q.Z
	yz := q.Y * q.Z
	wx := q.W * q.X
	wy := q.W * q.Y
	wz := q.W * q.Z

	return Mat4{
		{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0},
		{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0},
		{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0},
		{0, 0, 0, 1},
	}
}

func (q Quaternion) Lerp(other Quaternion, t float32) Quaternion {
	return Quaternion{
		X: q.X + (other.X-q.X)*t,
		Y: q.Y + (other.Y-q.Y)*t,
		Z: q.Z + (other.Z-q.Z)*t,
		W: q.W + (other.W-q.W)*t,
	}.Normalize()
}

// Slerp interpolates along the shortest arc.
func (q Quaternion) Slerp(other Quaternion, t float32) Quaternion {
	dot := q.Dot(other)
	if dot < 0 {
		dot = -dot
		other = Quaternion{-other.X, -other.Y, -other.Z, -other.W}
	}
	if dot > 0.9995 {
		return q.Lerp(other, t)
	}

	theta0 := math32.Acos(dot)
	theta := theta0 * t
	sinTheta := math32.Sin(theta)
	sinTheta0 := math32.Sin(theta0)

	s0 := math32.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quaternion{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}.Normalize()
}

// YawAngle returns the angle of a rotation about +Y.
func (q Quaternion) YawAngle() float32 {
	return 2 * math32.Atan2(q.Y, q.W)
}

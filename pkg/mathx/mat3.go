package mathx

// Mat3 is a 3x3 matrix in row-major order.
// Layout: [m0 m1 m2]
//
//	[m3 m4 m5]
//	[m6 m7 m8]
type Mat3 [9]float64

// Identity3 returns an identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// FromColumns builds a matrix whose columns are the given vectors.
func FromColumns(c0, c1, c2 Vec3) Mat3 {
	return Mat3{
		c0.X, c1.X, c2.X,
		c0.Y, c1.Y, c2.Y,
		c0.Z, c1.Z, c2.Z,
	}
}

// Col returns column i.
func (m Mat3) Col(i int) Vec3 {
	return Vec3{m[i], m[3+i], m[6+i]}
}

// Row returns row i.
func (m Mat3) Row(i int) Vec3 {
	return Vec3{m[3*i], m[3*i+1], m[3*i+2]}
}

// Mul multiplies two matrices.
func (m Mat3) Mul(other Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[3*r+c] = m[3*r]*other[c] + m[3*r+1]*other[3+c] + m[3*r+2]*other[6+c]
		}
	}
	return out
}

// MulVec applies the matrix to a vector.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Transpose returns the transposed matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// OrientationFrom builds a rotation matrix from a forward and up direction.
// The columns are [right, up, -forward] with right = forward x up, matching
// the basis convention of a -Z forward, +Y up camera.
func OrientationFrom(forward, up Vec3) Mat3 {
	f := forward.Normalize()
	u := up.Normalize()
	right := f.Cross(u)
	return FromColumns(right, u, f.Scale(-1))
}

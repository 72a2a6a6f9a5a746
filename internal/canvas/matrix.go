package canvas

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix is a 2D affine transform stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// Identity is the identity affine matrix.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

func TranslateMatrix(x, y float64) Matrix { return Matrix{1, 0, 0, 1, x, y} }

func ScaleMatrix(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

func RotateMatrix(theta float64) Matrix {
	sin, cos := math.Sincos(theta)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Mul returns m * n, i.e. n is applied first.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func (m Matrix) Det() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// Singular reports whether the matrix collapses the plane (a zero scale axis).
func (m Matrix) Singular() bool {
	det := m.Det()
	return det > -1e-9 && det < 1e-9
}

// aff3 converts to the row-major layout golang.org/x/image/draw expects.
func (m Matrix) aff3() f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

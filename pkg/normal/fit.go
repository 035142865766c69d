// Package normal estimates the direction of the fill front at a pixel by
// fitting a local quadratic curve to the traced contour.
package normal

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrSingular is returned when a matrix has no usable singular values
var ErrSingular = errors.New("normal: matrix has no non-zero singular values")

// eps is the float64 machine epsilon
const eps = 0x1p-52

// PseudoInverse returns the Moore-Penrose pseudo-inverse of a computed
// from its thin SVD. Singular values below max(r, c)*s0*eps are treated
// as zero.
func PseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.New("normal: SVD factorization failed")
	}

	r, c := a.Dims()
	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return nil, ErrSingular
	}
	tol := float64(max(r, c)) * values[0] * eps

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// V * diag(1/s) * U^T, skipping negligible singular values.
	inv := make([]float64, len(values))
	for i, s := range values {
		if s > tol {
			inv[i] = 1 / s
		}
	}
	var vs mat.Dense
	vs.Apply(func(i, j int, x float64) float64 { return x * inv[j] }, &v)

	var pinv mat.Dense
	pinv.Mul(&vs, u.T())
	return &pinv, nil
}

// Front fits x(s) = a + b*s + c*s^2/2 and the matching y(s) to 2r+1
// contour samples centred on at, weighting sample s by exp(-s^2), and
// returns the unit normal of the fitted tangent (b_x, b_y), i.e. the
// tangent rotated by 90 degrees. The contour is treated as closed. When
// it is shorter than 2r+1 the radius shrinks to (len-1)/2. ok is false
// for contours of two pixels or fewer, and when the fitted tangent
// vanishes.
func Front(contour []image.Point, at image.Point, r int) (r2.Vec, bool) {
	n := len(contour)
	if n <= 2 {
		return r2.Vec{}, false
	}
	if 2*r+1 > n {
		r = (n - 1) / 2
	}

	k := nearest(contour, at)
	m := 2*r + 1
	design := mat.NewDense(m, 3, nil)
	xs := mat.NewVecDense(m, nil)
	ys := mat.NewVecDense(m, nil)

	for i := 0; i < m; i++ {
		s := i - r
		p := at
		if s != 0 {
			p = contour[((k+s)%n+n)%n]
		}
		sf := float64(s)
		w := math.Exp(-sf * sf)

		design.Set(i, 0, w)
		design.Set(i, 1, w*sf)
		design.Set(i, 2, w*sf*sf/2)
		xs.SetVec(i, w*float64(p.X))
		ys.SetVec(i, w*float64(p.Y))
	}

	pinv, err := PseudoInverse(design)
	if err != nil {
		return r2.Vec{}, false
	}

	var cx, cy mat.VecDense
	cx.MulVec(pinv, xs)
	cy.MulVec(pinv, ys)

	tangent := r2.Vec{X: cx.AtVec(1), Y: cy.AtVec(1)}
	length := r2.Norm(tangent)
	if length == 0 || math.IsNaN(length) {
		return r2.Vec{}, false
	}
	return r2.Vec{X: tangent.Y / length, Y: -tangent.X / length}, true
}

// nearest returns the index of at in the contour, or of the closest
// contour pixel when at is not on it.
func nearest(contour []image.Point, at image.Point) int {
	best, bestDist := 0, math.MaxInt
	for i, p := range contour {
		d := p.Sub(at)
		dist := d.X*d.X + d.Y*d.Y
		if dist < bestDist {
			best, bestDist = i, dist
			if dist == 0 {
				break
			}
		}
	}
	return best
}

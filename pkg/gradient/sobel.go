// Package gradient finds the dominant image structure inside a patch.
//
// Only 3x3 neighbourhoods that are completely filled take part, so the
// Sobel response is never computed over pixels whose content is still
// unknown.
package gradient

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/patch"
)

// Sobel kernels in row-major order over a 3x3 neighbourhood
var (
	sobelX = []float64{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}
	sobelY = []float64{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
)

// Luminance converts an RGB triple to its grayscale intensity
func Luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// Grayscale returns the luminance plane of im
func Grayscale(im *models.Image) *models.Grid {
	gray := models.NewGrid(im.Width, im.Height)
	for i := range gray.Data {
		gray.Data[i] = Luminance(im.R[i], im.G[i], im.B[i])
	}
	return gray
}

// Estimate is the strongest gradient found inside a patch
type Estimate struct {
	// Gradient is the unit direction of greatest intensity change
	Gradient r2.Vec

	// Isophote is Gradient rotated by 90 degrees, i.e. the direction
	// along which intensity stays constant
	Isophote r2.Vec

	// Magnitude is the Sobel magnitude of the selected neighbourhood
	Magnitude float64

	// At is the pixel whose neighbourhood produced the estimate
	At image.Point
}

// Strongest scans the patch of radius r around center and returns the
// Sobel gradient of largest magnitude among pixels that are not on the
// image border and whose 3x3 neighbourhood is fully filled. ok is false
// when no such pixel exists. Ties keep the first pixel found.
func Strongest(gray *models.Grid, unfilled *models.Mask, center image.Point, r int) (Estimate, bool) {
	var est Estimate
	computable := false
	neigh := make([]float64, 9)

	patch.New(center, r, gray.Width, gray.Height).Each(func(p image.Point, _ int) bool {
		if !eligible(unfilled, p) {
			return true
		}
		computable = true

		n := 0
		patch.New(p, 1, gray.Width, gray.Height).Each(func(q image.Point, _ int) bool {
			neigh[n] = gray.At(q.X, q.Y)
			n++
			return true
		})

		gx := floats.Dot(sobelX, neigh)
		gy := floats.Dot(sobelY, neigh)
		mag := math.Hypot(gx, gy)

		if mag > est.Magnitude {
			g := r2.Vec{X: gx / mag, Y: gy / mag}
			est = Estimate{
				Gradient:  g,
				Isophote:  r2.Vec{X: -g.Y, Y: g.X},
				Magnitude: mag,
				At:        p,
			}
		}
		return true
	})

	return est, computable
}

// eligible reports whether p is off the image border and its 3x3
// neighbourhood contains no unfilled pixel.
func eligible(unfilled *models.Mask, p image.Point) bool {
	if p.X <= 0 || p.Y <= 0 || p.X >= unfilled.Width-1 || p.Y >= unfilled.Height-1 {
		return false
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if unfilled.At(p.X+dx, p.Y+dy) {
				return false
			}
		}
	}
	return true
}

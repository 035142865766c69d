// Package priority scores fill-front pixels by combining how much trusted
// content surrounds them with how strongly image structure flows into the
// hole at that point.
package priority

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/boundary"
	"exemplarfill/pkg/gradient"
	"exemplarfill/pkg/normal"
	"exemplarfill/pkg/patch"
)

// Mode selects which terms contribute to the priority
type Mode int

const (
	// Product uses confidence times data, the normal operating mode
	Product Mode = iota
	// ConfidenceOnly treats the data term as the constant 1
	ConfidenceOnly
	// DataOnly treats the confidence term as the constant 1
	DataOnly
)

// String returns the configuration name of the mode
func (m Mode) String() string {
	switch m {
	case Product:
		return "product"
	case ConfidenceOnly:
		return "confidence"
	case DataOnly:
		return "data"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration name into a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "product":
		return Product, nil
	case "confidence":
		return ConfidenceOnly, nil
	case "data":
		return DataOnly, nil
	default:
		return Product, errors.Errorf("unknown priority mode %q (must be product, confidence or data)", s)
	}
}

// Confidence returns the sum of the confidence values of the filled
// pixels in the patch around center divided by the full patch area.
// Unfilled pixels and positions clipped by the image border count as 0,
// so the result stays in [0,1] for any confidence map with values in
// [0,1].
func Confidence(conf *models.Grid, unfilled *models.Mask, center image.Point, r int) float64 {
	w := patch.New(center, r, conf.Width, conf.Height)
	sum := 0.0
	w.Each(func(p image.Point, _ int) bool {
		if !unfilled.At(p.X, p.Y) {
			sum += conf.At(p.X, p.Y)
		}
		return true
	})
	return sum / float64(w.Area())
}

// Data combines the isophote direction with the front normal.
//
//   - no gradient: 0
//   - alpha == 0: 0
//   - normal available: |isophote . normal| / alpha
//   - no normal: 1/alpha
func Data(isophote r2.Vec, gradientOK bool, front r2.Vec, normalOK bool, alpha float64) float64 {
	if !gradientOK || alpha == 0 {
		return 0
	}
	if !normalOK {
		return 1 / alpha
	}
	return math.Abs(r2.Dot(isophote, front)) / alpha
}

// View is the read-only state a priority evaluation looks at
type View struct {
	Gray       *models.Grid
	Unfilled   *models.Mask
	Front      *models.Mask
	Confidence *models.Grid
}

// Terms holds the components of one priority evaluation
type Terms struct {
	Confidence float64
	Data       float64
	Priority   float64

	// GradientOK and NormalOK report whether the data term had the
	// directional information it needs
	GradientOK bool
	NormalOK   bool
}

// Evaluator computes priorities for fill-front pixels
type Evaluator struct {
	Radius int
	Alpha  float64
	Mode   Mode
}

// Evaluate returns the priority terms of the patch centred on p
func (e *Evaluator) Evaluate(v View, p image.Point) Terms {
	var t Terms

	if e.Mode == DataOnly {
		t.Confidence = 1
	} else {
		t.Confidence = Confidence(v.Confidence, v.Unfilled, p, e.Radius)
	}

	if e.Mode == ConfidenceOnly {
		t.Data = 1
	} else {
		est, gok := gradient.Strongest(v.Gray, v.Unfilled, p, e.Radius)
		t.GradientOK = gok

		var n r2.Vec
		if gok {
			n, t.NormalOK = normal.Front(boundary.Trace(v.Front, p), p, e.Radius)
		}
		t.Data = Data(est.Isophote, gok, n, t.NormalOK, e.Alpha)
	}

	t.Priority = t.Confidence * t.Data
	return t
}

package normal

import (
	"image"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/boundary"
)

const tolerance = 1e-9

func closeTo(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < tolerance && math.Abs(a.Y-b.Y) < tolerance
}

func TestPseudoInverse(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 2,
		0, 0,
	})

	pinv, err := PseudoInverse(a)
	if err != nil {
		t.Fatalf("PseudoInverse failed: %v", err)
	}

	want := mat.NewDense(2, 3, []float64{
		1, 0, 0,
		0, 0.5, 0,
	})
	if !mat.EqualApprox(pinv, want, tolerance) {
		t.Errorf("Expected pseudo-inverse\n%v\ngot\n%v", mat.Formatted(want), mat.Formatted(pinv))
	}

	if _, err := PseudoInverse(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("Expected error for the zero matrix")
	}
}

func TestFrontStraightLines(t *testing.T) {
	var horizontal, vertical []image.Point
	for i := 0; i <= 10; i++ {
		horizontal = append(horizontal, image.Pt(i, 5))
		vertical = append(vertical, image.Pt(5, i))
	}

	tests := []struct {
		name    string
		contour []image.Point
		at      image.Point
		r       int
		want    r2.Vec
	}{
		{"horizontal", horizontal, image.Pt(5, 5), 2, r2.Vec{X: 0, Y: -1}},
		{"vertical", vertical, image.Pt(5, 5), 3, r2.Vec{X: 1, Y: 0}},
		{"radius larger than contour", horizontal, image.Pt(5, 5), 40, r2.Vec{X: 0, Y: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Front(tt.contour, tt.at, tt.r)
			if !ok {
				t.Fatal("Expected a normal")
			}
			if !closeTo(got, tt.want) {
				t.Errorf("Expected normal %v, got %v", tt.want, got)
			}
			if math.Abs(r2.Norm(got)-1) > tolerance {
				t.Errorf("Expected unit normal, got length %f", r2.Norm(got))
			}
		})
	}
}

func TestFrontWrapsClosedContour(t *testing.T) {
	contour := []image.Point{
		{2, 2}, {3, 2}, {4, 2}, {4, 3},
		{4, 4}, {3, 4}, {2, 4}, {2, 3},
	}

	got, ok := Front(contour, image.Pt(3, 2), 1)
	if !ok {
		t.Fatal("Expected a normal")
	}
	if !closeTo(got, r2.Vec{X: 0, Y: -1}) {
		t.Errorf("Expected normal (0,-1) on the top edge, got %v", got)
	}

	// Sample s=-1 wraps to the last contour pixel.
	got, ok = Front(contour, image.Pt(2, 2), 1)
	if !ok {
		t.Fatal("Expected a normal at the corner")
	}
	if !closeTo(got, r2.Vec{X: -math.Sqrt2 / 2, Y: -math.Sqrt2 / 2}) {
		t.Errorf("Expected diagonal normal at the corner, got %v", got)
	}
}

func TestFrontTooShort(t *testing.T) {
	tests := [][]image.Point{
		nil,
		{{1, 1}},
		{{1, 1}, {2, 1}},
	}
	for _, contour := range tests {
		if _, ok := Front(contour, image.Pt(1, 1), 2); ok {
			t.Errorf("Expected no normal for contour %v", contour)
		}
	}
}

func TestFrontAtTracedHoleCorner(t *testing.T) {
	unfilled := models.NewMask(20, 20)
	for y := 7; y < 12; y++ {
		for x := 5; x < 15; x++ {
			unfilled.Set(x, y, true)
		}
	}
	front, _ := boundary.Front(unfilled)
	corner := image.Pt(14, 11)

	// The samples come down the right side and leave along the bottom, so
	// the normal bisects the corner.
	got, ok := Front(boundary.Trace(front, corner), corner, 2)
	if !ok {
		t.Fatal("Expected a normal at the corner")
	}
	want := r2.Vec{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}
	if !closeTo(got, want) {
		t.Errorf("Expected diagonal normal %v, got %v", want, got)
	}
}

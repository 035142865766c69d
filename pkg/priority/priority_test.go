package priority

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/boundary"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Product, false},
		{"product", Product, false},
		{"Confidence", ConfidenceOnly, false},
		{" data ", DataOnly, false},
		{"gradient", Product, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ConfidenceOnly.String() != "confidence" {
		t.Errorf("Unexpected mode name %q", ConfidenceOnly.String())
	}
}

func TestConfidenceBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const size = 12

	for trial := 0; trial < 50; trial++ {
		conf := models.NewGrid(size, size)
		unfilled := models.NewMask(size, size)
		for i := range conf.Data {
			conf.Data[i] = rng.Float64()
			unfilled.Data[i] = rng.Intn(3) == 0
		}
		r := 1 + rng.Intn(3)
		center := image.Pt(rng.Intn(size), rng.Intn(size))

		c := Confidence(conf, unfilled, center, r)
		if c < 0 || c > 1 {
			t.Fatalf("Confidence %f out of [0,1] at %v radius %d", c, center, r)
		}
	}
}

func TestConfidenceCountsOnlyFilledPixels(t *testing.T) {
	conf := models.NewGrid(5, 5)
	unfilled := models.NewMask(5, 5)
	for i := range conf.Data {
		conf.Data[i] = 1
	}
	// Unfilled pixels contribute nothing even if their stored value is 1.
	unfilled.Set(2, 2, true)
	unfilled.Set(3, 2, true)

	if got, want := Confidence(conf, unfilled, image.Pt(2, 2), 1), 7.0/9.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected confidence %f, got %f", want, got)
	}

	// Clipped corner window: 4 of 9 positions exist.
	if got, want := Confidence(conf, models.NewMask(5, 5), image.Pt(0, 0), 1), 4.0/9.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected clipped confidence %f, got %f", want, got)
	}
}

func TestDataFallbacks(t *testing.T) {
	iso := r2.Vec{X: 0, Y: 1}
	n := r2.Vec{X: 0, Y: -1}

	tests := []struct {
		name       string
		gradientOK bool
		normalOK   bool
		alpha      float64
		want       float64
	}{
		{"no normal, alpha zero", true, false, 0, 0},
		{"no normal, alpha positive", true, false, 255, 1.0 / 255},
		{"no gradient, normal available", false, true, 255, 0},
		{"no gradient, no normal", false, false, 255, 0},
		{"aligned", true, true, 255, 1.0 / 255},
		{"alpha zero with normal", true, true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Data(iso, tt.gradientOK, n, tt.normalOK, tt.alpha); got != tt.want {
				t.Errorf("Expected data term %v, got %v", tt.want, got)
			}
		})
	}

	if got := Data(r2.Vec{X: 1, Y: 0}, true, n, true, 1); got != 0 {
		t.Errorf("Expected isophote parallel to the front to give 0, got %v", got)
	}
}

// edgeView builds a 9x9 view whose bottom four rows are unfilled and
// whose gray values are produced by value.
func edgeView(value func(x, y int) float64) View {
	gray := models.NewGrid(9, 9)
	unfilled := models.NewMask(9, 9)
	conf := models.NewGrid(9, 9)
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			gray.Set(x, y, value(x, y))
			if y >= 5 {
				unfilled.Set(x, y, true)
			} else {
				conf.Set(x, y, 1)
			}
		}
	}
	front, _ := boundary.Front(unfilled)
	return View{Gray: gray, Unfilled: unfilled, Front: front, Confidence: conf}
}

func TestEvaluateStructureEnteringHole(t *testing.T) {
	// A vertical edge meets a horizontal front at a right angle.
	v := edgeView(func(x, y int) float64 {
		if x >= 4 {
			return 100
		}
		return 0
	})
	e := &Evaluator{Radius: 2, Alpha: 255, Mode: Product}

	terms := e.Evaluate(v, image.Pt(4, 5))
	if !terms.GradientOK || !terms.NormalOK {
		t.Fatalf("Expected gradient and normal, got %+v", terms)
	}
	if math.Abs(terms.Confidence-0.4) > 1e-12 {
		t.Errorf("Expected confidence 0.4, got %f", terms.Confidence)
	}
	if math.Abs(terms.Data-1.0/255) > 1e-9 {
		t.Errorf("Expected data term 1/255, got %f", terms.Data)
	}
	if math.Abs(terms.Priority-terms.Confidence*terms.Data) > 1e-15 {
		t.Errorf("Expected priority to be the product of the terms, got %+v", terms)
	}
}

func TestEvaluateStructureParallelToFront(t *testing.T) {
	v := edgeView(func(x, y int) float64 {
		if y >= 4 {
			return 100
		}
		return 0
	})
	e := &Evaluator{Radius: 2, Alpha: 255, Mode: Product}

	terms := e.Evaluate(v, image.Pt(4, 5))
	if terms.Data > 1e-9 {
		t.Errorf("Expected near-zero data term for an edge parallel to the front, got %f", terms.Data)
	}
}

func TestEvaluateModes(t *testing.T) {
	v := edgeView(func(x, y int) float64 { return 0 })

	conf := (&Evaluator{Radius: 2, Alpha: 255, Mode: ConfidenceOnly}).Evaluate(v, image.Pt(4, 5))
	if conf.Data != 1 || conf.Priority != conf.Confidence {
		t.Errorf("Expected confidence-only priority, got %+v", conf)
	}

	data := (&Evaluator{Radius: 2, Alpha: 255, Mode: DataOnly}).Evaluate(v, image.Pt(4, 5))
	if data.Confidence != 1 || data.Priority != data.Data {
		t.Errorf("Expected data-only priority, got %+v", data)
	}
}

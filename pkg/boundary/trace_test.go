package boundary

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"exemplarfill/internal/models"
)

// maskFrom builds a mask from rows of '#' (true) and '.' (false)
func maskFrom(rows ...string) *models.Mask {
	m := models.NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			m.Set(x, y, c == '#')
		}
	}
	return m
}

func TestFrontOfCenteredHole(t *testing.T) {
	unfilled := maskFrom(
		".......",
		".......",
		"..###..",
		"..###..",
		"..###..",
		".......",
		".......",
	)

	front, pts := Front(unfilled)

	want := []image.Point{
		{2, 2}, {3, 2}, {4, 2},
		{2, 3}, {4, 3},
		{2, 4}, {3, 4}, {4, 4},
	}
	if diff := cmp.Diff(want, pts); diff != "" {
		t.Errorf("Front pixels mismatch (-want +got):\n%s", diff)
	}
	if front.At(3, 3) {
		t.Error("Expected hole center not to be on the front")
	}
	if front.Count() != len(want) {
		t.Errorf("Expected %d front pixels in mask, got %d", len(want), front.Count())
	}
}

func TestFrontEmptyForKnownImage(t *testing.T) {
	_, pts := Front(models.NewMask(5, 5))
	if len(pts) != 0 {
		t.Errorf("Expected empty front, got %v", pts)
	}
}

func TestFrontWholeImageHole(t *testing.T) {
	unfilled := maskFrom("###", "###")
	_, pts := Front(unfilled)
	if len(pts) != 0 {
		t.Errorf("Expected no front when nothing is known, got %v", pts)
	}
}

func TestTraceSquare(t *testing.T) {
	region := maskFrom(
		".......",
		".......",
		"..###..",
		"..###..",
		"..###..",
		".......",
		".......",
	)

	got := Trace(region, image.Pt(2, 2))
	want := []image.Point{
		{2, 2}, {3, 2}, {4, 2}, {4, 3},
		{4, 4}, {3, 4}, {2, 4}, {2, 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Contour mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceRingStartsAtSeed(t *testing.T) {
	region := maskFrom(
		".......",
		".......",
		"..###..",
		"..#.#..",
		"..###..",
		".......",
		".......",
	)

	// The west neighbour of the seed is the enclosed background pixel, so
	// the walk follows the inner side of the ring.
	got := Trace(region, image.Pt(4, 3))
	want := []image.Point{{4, 3}, {3, 2}, {2, 3}, {3, 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Contour mismatch (-want +got):\n%s", diff)
	}

	outer := Trace(region, image.Pt(2, 2))
	if len(outer) != 8 {
		t.Errorf("Expected 8 pixels on the outer contour, got %d: %v", len(outer), outer)
	}
}

func TestTraceLine(t *testing.T) {
	region := maskFrom(
		".....",
		".###.",
		".....",
	)

	got := Trace(region, image.Pt(1, 1))
	want := []image.Point{{1, 1}, {2, 1}, {3, 1}, {2, 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Contour mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		region *models.Mask
		seed   image.Point
		want   int
	}{
		{"isolated pixel", maskFrom("...", ".#.", "..."), image.Pt(1, 1), 1},
		{"two pixels", maskFrom("....", ".##.", "...."), image.Pt(1, 1), 2},
		{"seed outside", maskFrom("...", ".#.", "..."), image.Pt(0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trace(tt.region, tt.seed)
			if len(got) != tt.want {
				t.Errorf("Expected contour length %d, got %d (%v)", tt.want, len(got), got)
			}
		})
	}
}

func TestTraceInteriorSeed(t *testing.T) {
	region := maskFrom(
		".....",
		".###.",
		".###.",
		".###.",
		".....",
	)

	got := Trace(region, image.Pt(2, 2))
	if len(got) != 8 {
		t.Fatalf("Expected 8 contour pixels, got %d: %v", len(got), got)
	}
	if got[0] != image.Pt(1, 2) {
		t.Errorf("Expected trace to start at the left border pixel, got %v", got[0])
	}
}

// holeMask marks every pixel of a width x height mask for which inHole
// returns true
func holeMask(width, height int, inHole func(x, y int) bool) *models.Mask {
	m := models.NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y, inHole(x, y))
		}
	}
	return m
}

func TestTraceRectangleCornerCloses(t *testing.T) {
	unfilled := holeMask(20, 20, func(x, y int) bool {
		return x >= 5 && x < 15 && y >= 7 && y < 12
	})
	front, pts := Front(unfilled)

	got := Trace(front, image.Pt(14, 11))
	if len(got) != len(pts) {
		t.Fatalf("Expected the corner contour to visit all %d front pixels, got %d", len(pts), len(got))
	}
	if got[1] != image.Pt(13, 11) || got[len(got)-1] != image.Pt(14, 10) {
		t.Errorf("Expected corner neighbours (13,11) and (14,10), got %v and %v", got[1], got[len(got)-1])
	}

	seen := make(map[image.Point]bool)
	for _, p := range got {
		if seen[p] {
			t.Errorf("Pixel %v visited twice", p)
		}
		seen[p] = true
	}
}

func TestTraceClosesFromEveryFrontPixel(t *testing.T) {
	tests := []struct {
		name   string
		inHole func(x, y int) bool
	}{
		{"rectangle", func(x, y int) bool {
			return x >= 5 && x < 15 && y >= 7 && y < 12
		}},
		{"L-shape", func(x, y int) bool {
			return (x >= 4 && x < 10 && y >= 4 && y < 16) || (x >= 4 && x < 16 && y >= 12 && y < 16)
		}},
		{"disk", func(x, y int) bool {
			dx, dy := x-12, y-12
			return dx*dx+dy*dy <= 36
		}},
		{"diagonal band", func(x, y int) bool {
			d := x - y
			return x >= 3 && x <= 20 && y >= 3 && y <= 20 && d >= -2 && d <= 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			front, pts := Front(holeMask(24, 24, tt.inHole))

			for _, seed := range pts {
				got := Trace(front, seed)
				if len(got) == 0 || got[0] != seed {
					t.Fatalf("Seed %v: contour does not start at the seed: %v", seed, got)
				}
				if len(got) > 2*len(pts) {
					t.Fatalf("Seed %v: contour of %d pixels for a %d pixel front", seed, len(got), len(pts))
				}
				for i, p := range got {
					if !front.At(p.X, p.Y) {
						t.Fatalf("Seed %v: contour leaves the front at %v", seed, p)
					}
					next := got[(i+1)%len(got)]
					if len(got) > 1 && !adjacent(p, next) {
						t.Fatalf("Seed %v: %v and %v are not 8-neighbours", seed, p, next)
					}
				}
			}
		})
	}
}

// Package boundary extracts the fill front of a hole and traces its
// 8-connected contour.
package boundary

import (
	"image"

	"exemplarfill/internal/models"
)

// ring lists the 8 neighbour offsets in clockwise screen order (y grows
// downwards), starting from the west neighbour.
var ring = [8]image.Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// direction returns the ring index of offset d, or -1 if d is not a unit
// 8-neighbour offset.
func direction(d image.Point) int {
	for i, r := range ring {
		if r == d {
			return i
		}
	}
	return -1
}

// Front returns the unfilled pixels that touch at least one filled pixel
// through 8-connectivity. The pixels are listed in row-major order and
// also returned as a mask so the contour tracer can walk them.
func Front(unfilled *models.Mask) (*models.Mask, []image.Point) {
	front := models.NewMask(unfilled.Width, unfilled.Height)
	var pts []image.Point

	for y := 0; y < unfilled.Height; y++ {
		for x := 0; x < unfilled.Width; x++ {
			if !unfilled.At(x, y) {
				continue
			}
			for _, d := range ring {
				nx, ny := x+d.X, y+d.Y
				if nx < 0 || ny < 0 || nx >= unfilled.Width || ny >= unfilled.Height {
					continue
				}
				if !unfilled.At(nx, ny) {
					front.Set(x, y, true)
					pts = append(pts, image.Point{X: x, Y: y})
					break
				}
			}
		}
	}

	return front, pts
}

// Trace follows the outer 8-connected contour of the region of true
// pixels containing seed using Moore-neighbour tracing. The contour is
// returned in clockwise screen order starting at the seed, without
// repeating the first pixel. If the seed is not on the region border the
// trace starts at the first border pixel found by walking left from it.
// A seed outside the region yields nil; an isolated pixel yields a
// contour of length one.
func Trace(region *models.Mask, seed image.Point) []image.Point {
	in := func(p image.Point) bool {
		return region.At(p.X, p.Y)
	}
	if !in(seed) {
		return nil
	}

	start := seed
	if !touchesBackground(in, start) {
		for in(start.Add(ring[0])) {
			start = start.Add(ring[0])
		}
	}

	// Every background neighbour immediately followed (clockwise) by a
	// region neighbour is a possible backtrack. Walks from some of them
	// never return to start; the first cycle passing through start is used.
	var cycles [][]image.Point
	for d := 0; d < 8; d++ {
		if in(start.Add(ring[d])) || !in(start.Add(ring[(d+1)%8])) {
			continue
		}
		cycle := follow(in, start, d)
		for i, p := range cycle {
			if p == start {
				return rotate(cycle, i)
			}
		}
		cycles = append(cycles, cycle)
	}

	// A pixel that touches the background only diagonally is cut across
	// by the walk. It is inserted between the two cycle pixels the walk
	// jumped between.
	for _, cycle := range cycles {
		n := len(cycle)
		for j := range cycle {
			if adjacent(cycle[j], start) && adjacent(cycle[(j+1)%n], start) {
				return append([]image.Point{start}, rotate(cycle, (j+1)%n)...)
			}
		}
	}
	return []image.Point{start}
}

// rotate returns a copy of cycle starting at index i
func rotate(cycle []image.Point, i int) []image.Point {
	out := make([]image.Point, 0, len(cycle))
	out = append(out, cycle[i:]...)
	return append(out, cycle[:i]...)
}

// adjacent reports whether a and b are distinct 8-neighbours
func adjacent(a, b image.Point) bool {
	d := a.Sub(b)
	return d != image.Point{} && d.X >= -1 && d.X <= 1 && d.Y >= -1 && d.Y <= 1
}

// state is a position of the tracer: the current pixel and the ring index
// of the background neighbour the scan resumes from
type state struct {
	p    image.Point
	back int
}

// follow walks from (start, back) until a state repeats and returns the
// pixels of the closed cycle that was reached. The walk is deterministic
// in its state, so the first repeated state marks where the cycle begins.
func follow(in func(image.Point) bool, start image.Point, back int) []image.Point {
	seen := make(map[state]int)
	var pts []image.Point

	cur := state{p: start, back: back}
	for {
		if i, ok := seen[cur]; ok {
			return pts[i:]
		}
		seen[cur] = len(pts)
		pts = append(pts, cur.p)

		next, nextBack, ok := step(in, cur.p, cur.back)
		if !ok {
			return nil
		}
		cur = state{p: next, back: nextBack}
	}
}

// step performs one Moore-neighbour move from cur, scanning clockwise
// from the background neighbour at ring index back. It returns the next
// region pixel and the ring index, relative to that pixel, of the
// background pixel examined just before it.
func step(in func(image.Point) bool, cur image.Point, back int) (image.Point, int, bool) {
	for k := 1; k < 8; k++ {
		d := (back + k) % 8
		q := cur.Add(ring[d])
		if !in(q) {
			continue
		}
		b := cur.Add(ring[(back+k-1)%8])
		return q, direction(b.Sub(q)), true
	}
	return image.Point{}, 0, false
}

func touchesBackground(in func(image.Point) bool, p image.Point) bool {
	for _, d := range ring {
		if !in(p.Add(d)) {
			return true
		}
	}
	return false
}

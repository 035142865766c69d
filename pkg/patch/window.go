// Package patch provides the square pixel window every inpainting
// component iterates over.
package patch

import "image"

// Window is the (2R+1)x(2R+1) square centred on Center, clipped to an
// image of size Width x Height.
type Window struct {
	Center image.Point
	Radius int
	Width  int
	Height int
}

// New creates a window of radius r around center for an image of the given size
func New(center image.Point, r, width, height int) Window {
	return Window{Center: center, Radius: r, Width: width, Height: height}
}

// Size is the side length of the unclipped window
func (w Window) Size() int {
	return 2*w.Radius + 1
}

// Area is the number of positions in the unclipped window
func (w Window) Area() int {
	s := w.Size()
	return s * s
}

// Inside reports whether the whole window lies within the image
func (w Window) Inside() bool {
	return w.Center.X-w.Radius >= 0 && w.Center.Y-w.Radius >= 0 &&
		w.Center.X+w.Radius < w.Width && w.Center.Y+w.Radius < w.Height
}

// Local returns the index of offset (dx, dy) in the row-major local window
func (w Window) Local(dx, dy int) int {
	return (dy+w.Radius)*w.Size() + dx + w.Radius
}

// Each calls fn for every in-image position of the window in row-major
// order. p is the image coordinate and local its index in the unclipped
// (2R+1)^2 window, so companion grids and query planes can be walked in
// lock-step. Iteration stops early when fn returns false.
func (w Window) Each(fn func(p image.Point, local int) bool) {
	size := w.Size()
	for dy := -w.Radius; dy <= w.Radius; dy++ {
		y := w.Center.Y + dy
		if y < 0 || y >= w.Height {
			continue
		}
		for dx := -w.Radius; dx <= w.Radius; dx++ {
			x := w.Center.X + dx
			if x < 0 || x >= w.Width {
				continue
			}
			if !fn(image.Point{X: x, Y: y}, (dy+w.Radius)*size+dx+w.Radius) {
				return
			}
		}
	}
}

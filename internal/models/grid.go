package models

import (
	"image"
)

// Image is an RGB raster stored as three row-major channel planes.
// Channel values are in the 0-255 range but kept as float64 so that
// distance and gradient computations need no conversions.
type Image struct {
	// Width and Height are the dimensions of the image in pixels
	Width  int
	Height int

	// R, G, B hold the channel planes, each of length Width*Height
	R []float64
	G []float64
	B []float64
}

// NewImage allocates a black image of the given size
func NewImage(width, height int) *Image {
	n := width * height
	return &Image{
		Width:  width,
		Height: height,
		R:      make([]float64, n),
		G:      make([]float64, n),
		B:      make([]float64, n),
	}
}

// Index returns the offset of (x, y) in the channel planes
func (im *Image) Index(x, y int) int {
	return y*im.Width + x
}

// In reports whether p lies inside the image
func (im *Image) In(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < im.Width && p.Y < im.Height
}

// At returns the three channel values at (x, y)
func (im *Image) At(x, y int) (r, g, b float64) {
	i := im.Index(x, y)
	return im.R[i], im.G[i], im.B[i]
}

// Set stores the three channel values at (x, y)
func (im *Image) Set(x, y int, r, g, b float64) {
	i := im.Index(x, y)
	im.R[i], im.G[i], im.B[i] = r, g, b
}

// Clone returns a deep copy of the image
func (im *Image) Clone() *Image {
	c := &Image{
		Width:  im.Width,
		Height: im.Height,
		R:      make([]float64, len(im.R)),
		G:      make([]float64, len(im.G)),
		B:      make([]float64, len(im.B)),
	}
	copy(c.R, im.R)
	copy(c.G, im.G)
	copy(c.B, im.B)
	return c
}

// Mask marks pixels whose content is not yet known.
// A true entry means the pixel belongs to the hole.
type Mask struct {
	Width  int
	Height int
	Data   []bool
}

// NewMask allocates a mask with every pixel known
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Data:   make([]bool, width*height),
	}
}

// At returns the mask value at (x, y); pixels outside the mask read as false
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Data[y*m.Width+x]
}

// Set stores the mask value at (x, y)
func (m *Mask) Set(x, y int, v bool) {
	m.Data[y*m.Width+x] = v
}

// Count returns the number of true entries
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Data: make([]bool, len(m.Data))}
	copy(c.Data, m.Data)
	return c
}

// Grid is a row-major plane of real values, used for the confidence map
// and the grayscale view of an image.
type Grid struct {
	Width  int
	Height int
	Data   []float64
}

// NewGrid allocates a zeroed grid
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// At returns the value at (x, y)
func (g *Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// Set stores the value at (x, y)
func (g *Grid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}

// Package patchdb holds the exemplar patches an inpainting run may copy
// from and finds the one closest to a partially known target patch.
//
// The database is built once from the image as it was before filling
// started and is never updated afterwards: matches always come from
// genuinely observed content.
package patchdb

import (
	"image"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/patch"
)

var (
	// ErrNoCandidate is returned by Lookup when no fully known patch exists
	ErrNoCandidate = errors.New("patchdb: no fully known patch in the image")

	// ErrShapeMismatch is returned by Lookup when the query planes do not
	// match the database patch size
	ErrShapeMismatch = errors.New("patchdb: query shape does not match patch radius")
)

// minChunk is the smallest number of candidates handed to one worker
const minChunk = 256

// Query is a (2r+1)x(2r+1) target patch in row-major order. Positions
// with Unfilled set are ignored by the distance.
type Query struct {
	Radius   int
	R, G, B  []float64
	Unfilled []bool
}

// NewQuery allocates a query of radius r with every position unfilled
func NewQuery(r int) *Query {
	n := (2*r + 1) * (2*r + 1)
	q := &Query{
		Radius:   r,
		R:        make([]float64, n),
		G:        make([]float64, n),
		B:        make([]float64, n),
		Unfilled: make([]bool, n),
	}
	for i := range q.Unfilled {
		q.Unfilled[i] = true
	}
	return q
}

// Option configures a DB
type Option func(*DB)

// WithWorkers sets how many goroutines construction and lookup may use.
// Values below 1 select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(db *DB) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		db.workers = n
	}
}

// DB is the static set of fully known patch centres
type DB struct {
	radius  int
	workers int
	img     *models.Image
	centers []image.Point
}

// New scans every centre in row-major order and keeps those whose window
// lies inside the image and is entirely known. The image is deep-copied
// so later changes to im are not seen by lookups.
func New(im *models.Image, unfilled *models.Mask, r int, opts ...Option) *DB {
	db := &DB{
		radius:  r,
		workers: 1,
		img:     im.Clone(),
	}
	for _, opt := range opts {
		opt(db)
	}

	if im.Width == 0 || im.Height == 0 {
		return db
	}

	// Rows are split into contiguous bands and concatenated in order so
	// the candidate list is identical for any worker count.
	bands := min(db.workers, im.Height)
	found := make([][]image.Point, bands)
	var g errgroup.Group
	for b := 0; b < bands; b++ {
		lo := b * im.Height / bands
		hi := (b + 1) * im.Height / bands
		g.Go(func() error {
			found[b] = scanRows(unfilled, r, lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	for _, pts := range found {
		db.centers = append(db.centers, pts...)
	}
	return db
}

// scanRows returns the centres with lo <= y < hi whose window lies inside
// the image and holds no unfilled pixel
func scanRows(unfilled *models.Mask, r, lo, hi int) []image.Point {
	var pts []image.Point
	for y := lo; y < hi; y++ {
		for x := 0; x < unfilled.Width; x++ {
			win := patch.New(image.Point{X: x, Y: y}, r, unfilled.Width, unfilled.Height)
			if !win.Inside() {
				continue
			}
			known := true
			win.Each(func(p image.Point, _ int) bool {
				known = !unfilled.At(p.X, p.Y)
				return known
			})
			if known {
				pts = append(pts, win.Center)
			}
		}
	}
	return pts
}

// Len returns the number of candidate patches
func (db *DB) Len() int { return len(db.centers) }

// Pixel returns the snapshot colour at p
func (db *DB) Pixel(p image.Point) (r, g, b float64) {
	return db.img.At(p.X, p.Y)
}

// Lookup returns the candidate centre whose patch has the smallest sum of
// squared colour differences to q over the known positions of q, along
// with that distance. The first candidate in scan order reaching the
// minimum wins.
func (db *DB) Lookup(q *Query) (image.Point, float64, error) {
	if len(db.centers) == 0 {
		return image.Point{}, 0, ErrNoCandidate
	}
	n := patch.New(image.Point{}, db.radius, db.img.Width, db.img.Height).Area()
	if q.Radius != db.radius || len(q.R) != n || len(q.G) != n || len(q.B) != n || len(q.Unfilled) != n {
		return image.Point{}, 0, errors.Wrapf(ErrShapeMismatch, "query radius %d, database radius %d", q.Radius, db.radius)
	}

	chunks := min(db.workers, (len(db.centers)+minChunk-1)/minChunk)
	if chunks <= 1 {
		idx, sum := db.scan(q, 0, len(db.centers))
		return db.centers[idx], sum, nil
	}

	type partial struct {
		idx int
		sum float64
	}
	results := make([]partial, chunks)
	var g errgroup.Group
	for c := 0; c < chunks; c++ {
		lo := c * len(db.centers) / chunks
		hi := (c + 1) * len(db.centers) / chunks
		g.Go(func() error {
			idx, sum := db.scan(q, lo, hi)
			results[c] = partial{idx: idx, sum: sum}
			return nil
		})
	}
	_ = g.Wait()

	best := results[0]
	for _, res := range results[1:] {
		if res.sum < best.sum {
			best = res
		}
	}
	return db.centers[best.idx], best.sum, nil
}

// scan finds the best candidate among centers[lo:hi]. The first one is
// always evaluated in full; every later candidate is abandoned as soon as
// its partial sum exceeds the running minimum.
func (db *DB) scan(q *Query, lo, hi int) (int, float64) {
	r := db.radius
	w := db.img.Width
	win := patch.New(image.Point{}, r, w, db.img.Height)
	best, bestIdx := 0.0, lo

candidates:
	for n := lo; n < hi; n++ {
		c := db.centers[n]
		sum := 0.0
		for dy := -r; dy <= r; dy++ {
			row := (c.Y+dy)*w + c.X
			for dx := -r; dx <= r; dx++ {
				k := win.Local(dx, dy)
				if q.Unfilled[k] {
					continue
				}
				i := row + dx
				d0 := q.R[k] - db.img.R[i]
				d1 := q.G[k] - db.img.G[i]
				d2 := q.B[k] - db.img.B[i]
				sum += d0*d0 + d1*d1 + d2*d2
				if n > lo && sum > best {
					continue candidates
				}
			}
		}
		if n == lo || sum < best {
			best, bestIdx = sum, n
		}
	}
	return bestIdx, best
}

// Package inpainting fills image holes with patches copied from the
// known part of the image, in the order given by a confidence and
// structure based priority.
package inpainting

import (
	"image"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/boundary"
	"exemplarfill/pkg/gradient"
	"exemplarfill/pkg/patch"
	"exemplarfill/pkg/patchdb"
	"exemplarfill/pkg/priority"
)

var (
	// ErrSizeMismatch is returned when the image and mask dimensions differ
	ErrSizeMismatch = errors.New("inpainting: image and mask sizes differ")

	// ErrInvalidRadius is returned for a patch radius below 1
	ErrInvalidRadius = errors.New("inpainting: patch radius must be at least 1")

	// ErrInvalidAlpha is returned for a negative normalization constant
	ErrInvalidAlpha = errors.New("inpainting: alpha must not be negative")
)

// ProgressCallback reports how many hole pixels have been filled so far
type ProgressCallback func(filled, total int, message string)

// Observer is called after every iteration with the live fill state.
// The snapshot must be treated as read-only. A non-nil error aborts the
// run and is returned from Inpaint.
type Observer func(snap Snapshot) error

// Params holds the inpainting parameters
type Params struct {
	// PatchRadius is the half-width w of the (2w+1)x(2w+1) patches
	PatchRadius int

	// Alpha normalizes the data term; 255 suits 8-bit images
	Alpha float64

	// Mode selects which priority terms are used
	Mode priority.Mode

	// Workers bounds the goroutines used for priority evaluation and
	// patch search. Values below 2 keep everything on one goroutine.
	Workers int

	// RecordSteps keeps a Step entry per iteration in the Result
	RecordSteps bool

	// Logger receives per-iteration debug output; nil disables logging
	Logger *zerolog.Logger

	// Progress, if set, is called after every iteration
	Progress ProgressCallback

	// Observer, if set, is called after every iteration
	Observer Observer
}

// Step describes one fill iteration
type Step struct {
	Iteration  int
	Target     image.Point
	Source     image.Point
	Priority   float64
	Confidence float64
	Data       float64
	Distance   float64
	Filled     int
	FrontSize  int
}

// Result summarizes an inpainting run
type Result struct {
	// Iterations is the number of patches copied
	Iterations int

	// Filled is the number of hole pixels synthesized
	Filled int

	// Candidates is the number of exemplar patches in the database
	Candidates int

	// Steps is only populated when Params.RecordSteps is set
	Steps []Step
}

// Snapshot exposes the fill state to an Observer, taken after the
// iteration's patch has been copied
type Snapshot struct {
	Step       Step
	Image      *models.Image
	Unfilled   *models.Mask
	Confidence *models.Grid

	// Front is the fill front of the remaining hole
	Front *models.Mask

	Remaining int
}

// Inpainter runs exemplar-based inpainting: it repeatedly selects the
// fill-front patch of highest priority, finds the most similar fully
// known patch of the original image and copies it into the hole.
type Inpainter struct {
	params *Params
	log    zerolog.Logger
}

// NewInpainter creates an inpainter with the given parameters
func NewInpainter(params *Params) *Inpainter {
	log := zerolog.Nop()
	if params.Logger != nil {
		log = *params.Logger
	}
	return &Inpainter{params: params, log: log}
}

// Inpaint fills every pixel of im marked in unfilled, modifying both in
// place. Pixels are only ever switched from unfilled to filled. The run
// fails with patchdb.ErrNoCandidate if the image holds no fully known
// patch to copy from.
func (in *Inpainter) Inpaint(im *models.Image, unfilled *models.Mask) (*Result, error) {
	r := in.params.PatchRadius
	if r < 1 {
		return nil, errors.Wrapf(ErrInvalidRadius, "got %d", r)
	}
	if in.params.Alpha < 0 {
		return nil, errors.Wrapf(ErrInvalidAlpha, "got %g", in.params.Alpha)
	}
	if im.Width != unfilled.Width || im.Height != unfilled.Height {
		return nil, errors.Wrapf(ErrSizeMismatch, "image %dx%d, mask %dx%d",
			im.Width, im.Height, unfilled.Width, unfilled.Height)
	}

	result := &Result{}
	total := unfilled.Count()
	if total == 0 {
		in.log.Info().Msg("Mask is empty, nothing to fill")
		return result, nil
	}

	workers := max(in.params.Workers, 1)
	db := patchdb.New(im, unfilled, r, patchdb.WithWorkers(workers))
	result.Candidates = db.Len()
	if db.Len() == 0 {
		return nil, errors.Wrapf(patchdb.ErrNoCandidate, "%dx%d image, patch radius %d", im.Width, im.Height, r)
	}

	in.log.Info().
		Int("width", im.Width).
		Int("height", im.Height).
		Int("hole", total).
		Int("radius", r).
		Int("candidates", db.Len()).
		Str("mode", in.params.Mode.String()).
		Msg("Starting inpainting")

	conf := models.NewGrid(im.Width, im.Height)
	for i, u := range unfilled.Data {
		if !u {
			conf.Data[i] = 1
		}
	}
	gray := gradient.Grayscale(im)
	eval := &priority.Evaluator{Radius: r, Alpha: in.params.Alpha, Mode: in.params.Mode}

	for remaining := total; ; {
		front, pts := boundary.Front(unfilled)
		if len(pts) == 0 {
			break
		}

		view := priority.View{Gray: gray, Unfilled: unfilled, Front: front, Confidence: conf}
		terms := in.evaluate(eval, view, pts, workers)

		best := 0
		for i := 1; i < len(terms); i++ {
			if terms[i].Priority > terms[best].Priority {
				best = i
			}
		}
		target := pts[best]

		q := buildQuery(im, unfilled, target, r)
		source, dist, err := db.Lookup(q)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: lookup at %v", result.Iterations+1, target)
		}

		c := priority.Confidence(conf, unfilled, target, r)
		filled := 0
		patch.New(target, r, im.Width, im.Height).Each(func(p image.Point, _ int) bool {
			if !unfilled.At(p.X, p.Y) {
				return true
			}
			sr, sg, sb := db.Pixel(source.Add(p.Sub(target)))
			im.Set(p.X, p.Y, sr, sg, sb)
			gray.Set(p.X, p.Y, gradient.Luminance(sr, sg, sb))
			unfilled.Set(p.X, p.Y, false)
			conf.Set(p.X, p.Y, c)
			filled++
			return true
		})
		remaining -= filled

		result.Iterations++
		result.Filled += filled
		step := Step{
			Iteration:  result.Iterations,
			Target:     target,
			Source:     source,
			Priority:   terms[best].Priority,
			Confidence: c,
			Data:       terms[best].Data,
			Distance:   dist,
			Filled:     filled,
			FrontSize:  len(pts),
		}
		if in.params.RecordSteps {
			result.Steps = append(result.Steps, step)
		}

		in.log.Debug().
			Int("iteration", step.Iteration).
			Stringer("target", target).
			Stringer("source", source).
			Float64("priority", step.Priority).
			Float64("confidence", c).
			Float64("distance", dist).
			Int("filled", filled).
			Int("remaining", remaining).
			Msg("Filled patch")

		if in.params.Progress != nil {
			in.params.Progress(total-remaining, total, "")
		}
		if in.params.Observer != nil {
			front, _ = boundary.Front(unfilled)
			snap := Snapshot{
				Step:       step,
				Image:      im,
				Unfilled:   unfilled,
				Confidence: conf,
				Front:      front,
				Remaining:  remaining,
			}
			if err := in.params.Observer(snap); err != nil {
				return nil, errors.Wrapf(err, "observer at iteration %d", step.Iteration)
			}
		}
	}

	in.log.Info().
		Int("iterations", result.Iterations).
		Int("filled", result.Filled).
		Msg("Inpainting completed")
	return result, nil
}

// evaluate computes the priority terms of every front pixel. The work is
// split into contiguous chunks; results are stored by index so the
// selection afterwards does not depend on scheduling.
func (in *Inpainter) evaluate(eval *priority.Evaluator, view priority.View, pts []image.Point, workers int) []priority.Terms {
	terms := make([]priority.Terms, len(pts))
	if workers <= 1 || len(pts) < 2*workers {
		for i, p := range pts {
			terms[i] = eval.Evaluate(view, p)
		}
		return terms
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		lo := w * len(pts) / workers
		hi := (w + 1) * len(pts) / workers
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				terms[i] = eval.Evaluate(view, pts[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return terms
}

// buildQuery copies the window around target into a patch query.
// Positions outside the image or still unfilled are marked unfilled.
func buildQuery(im *models.Image, unfilled *models.Mask, target image.Point, r int) *patchdb.Query {
	q := patchdb.NewQuery(r)
	patch.New(target, r, im.Width, im.Height).Each(func(p image.Point, k int) bool {
		if unfilled.At(p.X, p.Y) {
			return true
		}
		q.R[k], q.G[k], q.B[k] = im.At(p.X, p.Y)
		q.Unfilled[k] = false
		return true
	})
	return q
}

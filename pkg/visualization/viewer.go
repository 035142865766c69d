package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"exemplarfill/pkg/imageio"
	"exemplarfill/pkg/inpainting"
)

// Layers lists the renderable views of a fill snapshot in output order
var Layers = []string{"image", "mask", "confidence", "overlay"}

var (
	holeColor  = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	frontColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Viewer renders the intermediate state of an inpainting run and writes
// it to disk. Its Observe method can be passed as inpainting.Params.Observer.
type Viewer struct {
	// outputDir receives one PNG per layer and saved iteration
	outputDir string

	// every saves a snapshot each N iterations; the final one is always saved
	every int

	log zerolog.Logger
}

// NewViewer creates a viewer writing to outputDir every N iterations
func NewViewer(outputDir string, every int, log zerolog.Logger) *Viewer {
	if every < 1 {
		every = 1
	}
	return &Viewer{
		outputDir: outputDir,
		every:     every,
		log:       log,
	}
}

// ExtractLayer renders one view of the snapshot:
//
//	image       the partially filled image
//	mask        unfilled pixels in white
//	confidence  per-pixel confidence as 16-bit gray
//	overlay     the image with the hole in magenta and the fill front in red
func (v *Viewer) ExtractLayer(snap inpainting.Snapshot, layer string) (image.Image, error) {
	im := snap.Image
	switch strings.ToLower(layer) {
	case "image":
		return imageio.ToImage(im), nil

	case "mask":
		return imageio.MaskToImage(snap.Unfilled), nil

	case "confidence":
		img := image.NewGray16(image.Rect(0, 0, im.Width, im.Height))
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				value := uint16(math.Max(0, math.Min(65535, snap.Confidence.At(x, y)*65535)))
				img.SetGray16(x, y, color.Gray16{Y: value})
			}
		}
		return img, nil

	case "overlay":
		img := imageio.ToImage(im)
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				switch {
				case snap.Front != nil && snap.Front.At(x, y):
					img.SetRGBA(x, y, frontColor)
				case snap.Unfilled.At(x, y):
					img.SetRGBA(x, y, holeColor)
				}
			}
		}
		return img, nil

	default:
		return nil, errors.Errorf("invalid layer: %s (must be one of %s)", layer, strings.Join(Layers, ", "))
	}
}

// SaveLayer saves a rendered layer; the format follows the file extension
func (v *Viewer) SaveLayer(img image.Image, filename string) error {
	return imageio.Save(img, filename)
}

// SaveSnapshot renders and saves every layer of the snapshot
func (v *Viewer) SaveSnapshot(snap inpainting.Snapshot) error {
	if err := os.MkdirAll(v.outputDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create intermediary directory")
	}

	for _, layer := range Layers {
		img, err := v.ExtractLayer(snap, layer)
		if err != nil {
			return err
		}

		filename := filepath.Join(v.outputDir, fmt.Sprintf("step_%05d_%s.png", snap.Step.Iteration, layer))
		if err := v.SaveLayer(img, filename); err != nil {
			return err
		}
	}

	v.log.Debug().
		Int("iteration", snap.Step.Iteration).
		Int("remaining", snap.Remaining).
		Str("dir", v.outputDir).
		Msg("Saved intermediary snapshot")
	return nil
}

// Observe saves the snapshot when its iteration is a multiple of the
// configured interval or the hole has been filled completely
func (v *Viewer) Observe(snap inpainting.Snapshot) error {
	if snap.Step.Iteration%v.every != 0 && snap.Remaining > 0 {
		return nil
	}
	return v.SaveSnapshot(snap)
}

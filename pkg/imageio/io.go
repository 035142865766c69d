// Package imageio loads and saves images and converts them to and from the
// float planes used by the inpainting engine.
package imageio

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"exemplarfill/internal/models"
	"exemplarfill/pkg/gradient"
)

// MaskThreshold is the luminance at or above which a mask pixel marks a hole
const MaskThreshold = 128

// ErrUnsupportedFormat is returned by Save for unknown file extensions
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Load decodes the image at path. PNG, JPEG, GIF, BMP, TIFF and WebP are
// supported.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}
	return img, nil
}

// Save encodes img to path. The format is chosen by the file extension.
func Save(img image.Image, path string) error {
	var encode func(f *os.File) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: 95}) }
	case ".gif":
		encode = func(f *os.File) error { return gif.Encode(f, img, nil) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error { return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}) }
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := encode(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return errors.Wrap(f.Close(), "failed to close file")
}

// toRGBA returns img as an *image.RGBA anchored at the origin
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FromImage converts img to float colour planes in [0, 255]. Alpha is
// dropped.
func FromImage(img image.Image) *models.Image {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	out := models.NewImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := rgba.RGBAAt(x, y)
			out.Set(x, y, float64(c.R), float64(c.G), float64(c.B))
		}
	}
	return out
}

// ToImage converts float colour planes back to an opaque RGBA image,
// rounding and clamping each channel.
func ToImage(im *models.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for i := range im.R {
		o := 4 * i
		dst.Pix[o] = clamp8(im.R[i])
		dst.Pix[o+1] = clamp8(im.G[i])
		dst.Pix[o+2] = clamp8(im.B[i])
		dst.Pix[o+3] = 0xff
	}
	return dst
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

// MaskFromImage marks every pixel whose luminance is at least
// MaskThreshold as unfilled. If width and height are positive and differ
// from the mask image, the mask is first scaled to that size with
// nearest-neighbour sampling.
func MaskFromImage(img image.Image, width, height int) *models.Mask {
	b := img.Bounds()
	if width > 0 && height > 0 && (b.Dx() != width || b.Dy() != height) {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}

	rgba := toRGBA(img)
	b = rgba.Bounds()
	m := models.NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := rgba.RGBAAt(x, y)
			m.Set(x, y, gradient.Luminance(float64(c.R), float64(c.G), float64(c.B)) >= MaskThreshold)
		}
	}
	return m
}

// MaskToImage renders unfilled pixels white and known pixels black
func MaskToImage(m *models.Mask) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, u := range m.Data {
		if u {
			dst.Pix[i] = 0xff
		}
	}
	return dst
}

// LoadImage loads path as float colour planes
func LoadImage(path string) (*models.Image, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// LoadMask loads path as a hole mask scaled to width x height. Pass zero
// sizes to keep the mask's own dimensions.
func LoadMask(path string, width, height int) (*models.Mask, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return MaskFromImage(img, width, height), nil
}

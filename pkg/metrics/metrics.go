// Package metrics measures how closely an inpainted image matches a
// reference over the filled region.
package metrics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/gradient"
)

// ErrSizeMismatch is returned when the inputs do not share dimensions
var ErrSizeMismatch = errors.New("metrics: image, reference and region sizes differ")

// peak is the dynamic range of 8-bit channels
const peak = 255.0

// Report holds quality metrics computed over a region
type Report struct {
	// Pixels is the number of pixels compared
	Pixels int

	// RMSE is the root mean square error over all colour channels.
	// Lower is better.
	RMSE float64

	// MAE is the mean absolute error over all colour channels
	MAE float64

	// PSNR is the peak signal-to-noise ratio in dB; +Inf for identical
	// regions
	PSNR float64

	// SSIM is the structural similarity of the luminance, computed over
	// the region as a single window. 1 means identical structure.
	SSIM float64

	// MI approximates the mutual information of the luminance assuming
	// jointly Gaussian values
	MI float64

	// EntropyDiff is the absolute difference of the luminance entropies
	// in bits
	EntropyDiff float64
}

// Compare evaluates result against reference over the pixels set in
// region. A nil region compares the whole image. An empty region yields a
// zero Report.
func Compare(result, reference *models.Image, region *models.Mask) (Report, error) {
	if result.Width != reference.Width || result.Height != reference.Height {
		return Report{}, errors.Wrapf(ErrSizeMismatch, "result %dx%d, reference %dx%d",
			result.Width, result.Height, reference.Width, reference.Height)
	}
	if region != nil && (region.Width != result.Width || region.Height != result.Height) {
		return Report{}, errors.Wrapf(ErrSizeMismatch, "region %dx%d, image %dx%d",
			region.Width, region.Height, result.Width, result.Height)
	}

	var got, want []float64
	var sq, abs float64
	for i := range result.R {
		if region != nil && !region.Data[i] {
			continue
		}
		for _, d := range [3]float64{
			result.R[i] - reference.R[i],
			result.G[i] - reference.G[i],
			result.B[i] - reference.B[i],
		} {
			sq += d * d
			abs += math.Abs(d)
		}
		got = append(got, gradient.Luminance(result.R[i], result.G[i], result.B[i]))
		want = append(want, gradient.Luminance(reference.R[i], reference.G[i], reference.B[i]))
	}

	n := len(got)
	if n == 0 {
		return Report{}, nil
	}

	mse := sq / float64(3*n)
	rep := Report{
		Pixels:      n,
		RMSE:        math.Sqrt(mse),
		MAE:         abs / float64(3*n),
		PSNR:        math.Inf(1),
		SSIM:        ssim(want, got),
		MI:          mutualInformation(want, got),
		EntropyDiff: math.Abs(entropy(want) - entropy(got)),
	}
	if mse > 0 {
		rep.PSNR = 10 * math.Log10(peak*peak/mse)
	}
	return rep, nil
}

func ssim(x, y []float64) float64 {
	const k1, k2 = 0.01, 0.03
	c1 := (k1 * peak) * (k1 * peak)
	c2 := (k2 * peak) * (k2 * peak)

	muX, varX := stat.PopMeanVariance(x, nil)
	muY, varY := stat.PopMeanVariance(y, nil)
	cov := popCovariance(x, y, muX, muY)

	num := (2*muX*muY + c1) * (2*cov + c2)
	den := (muX*muX + muY*muY + c1) * (varX + varY + c2)
	return num / den
}

func popCovariance(x, y []float64, muX, muY float64) float64 {
	s := 0.0
	for i := range x {
		s += (x[i] - muX) * (y[i] - muY)
	}
	return s / float64(len(x))
}

// mutualInformation returns -0.5*log(1-rho^2), or 0 when either input is
// constant. Perfectly correlated inputs give +Inf.
func mutualInformation(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	_, vx := stat.PopMeanVariance(x, nil)
	_, vy := stat.PopMeanVariance(y, nil)
	if vx == 0 || vy == 0 {
		return 0
	}
	rho := stat.Correlation(x, y, nil)
	if 1-rho*rho <= 0 {
		return math.Inf(1)
	}
	return -0.5 * math.Log(1-rho*rho)
}

// entropy returns the Shannon entropy in bits of a 256-bin histogram of
// data spanning its own range
func entropy(data []float64) float64 {
	lo, hi := floats.Min(data), floats.Max(data)
	if hi <= lo {
		return 0
	}

	const bins = 256
	hist := make([]float64, bins)
	width := (hi - lo) / bins
	for _, v := range data {
		hist[min(int((v-lo)/width), bins-1)]++
	}
	floats.Scale(1/float64(len(data)), hist)
	return stat.Entropy(hist) / math.Ln2
}

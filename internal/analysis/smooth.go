package analysis

import "math"

// Smooth applies a separable Gaussian blur to g and returns a new grid. The
// time axis wraps around midnight; the day axis clamps at Monday and Sunday.
// A sigma ≤ 0 skips that axis. Values are not re-clamped.
func Smooth(g *Grid, sigmaTime, sigmaDay float64) *Grid {
	out := g.clone()
	if sigmaTime > 0 {
		out = convolveTime(out, gaussianKernel(sigmaTime))
	}
	if sigmaDay > 0 {
		out = convolveDay(out, gaussianKernel(sigmaDay))
	}
	return out
}

func convolveTime(src *Grid, kernel []float64) *Grid {
	r := len(kernel) / 2
	w := src.bins
	dst := newGrid(w)
	for d := 0; d < DaysPerWeek; d++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for k := -r; k <= r; k++ {
				xx := ((x+k)%w + w) % w
				sum += src.At(d, xx) * kernel[k+r]
			}
			dst.set(d, x, sum)
		}
	}
	return dst
}

func convolveDay(src *Grid, kernel []float64) *Grid {
	r := len(kernel) / 2
	dst := newGrid(src.bins)
	for d := 0; d < DaysPerWeek; d++ {
		for x := 0; x < src.bins; x++ {
			sum := 0.0
			for k := -r; k <= r; k++ {
				dd := min(max(d+k, 0), DaysPerWeek-1)
				sum += src.At(dd, x) * kernel[k+r]
			}
			dst.set(d, x, sum)
		}
	}
	return dst
}

// gaussianKernel returns normalized weights exp(-i²/2σ²) for i in [-r, r],
// r = ceil(3σ).
func gaussianKernel(sigma float64) []float64 {
	radius := max(1, int(math.Ceil(3*sigma)))
	k := make([]float64, 2*radius+1)

	s2 := 2 * sigma * sigma
	total := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / s2)
		k[i+radius] = v
		total += v
	}
	for i := range k {
		k[i] /= total
	}
	return k
}

package trace

import "fmt"

// Smooth returns a copy of samples with each label's column replaced by its
// trapezoidal moving average over a window of 2*half+1 samples, clamped at
// the ends of the series. Time values are unchanged. half <= 0 returns
// samples unmodified.
func Smooth(samples []Sample, half int) []Sample {
	if half <= 0 || len(samples) == 0 {
		return samples
	}
	n := len(samples)
	nv := len(samples[0].Values)
	out := make([]Sample, n)
	for i := range samples {
		out[i] = Sample{Time: samples[i].Time, Values: make([]float64, nv)}
	}
	for col := 0; col < nv; col++ {
		for i := 0; i < n; i++ {
			lo, hi := i-half, i+half
			if lo < 0 {
				lo = 0
			}
			if hi > n-1 {
				hi = n - 1
			}
			sum, weight := 0.0, 0.0
			for j := lo; j <= hi; j++ {
				w := 1.0
				if j == lo || j == hi {
					w = 0.5
				}
				sum += w * samples[j].Values[col]
				weight += w
			}
			out[i].Values[col] = sum / weight
		}
	}
	return out
}

// Downsample returns every stride-th sample, always including the first and
// last. stride must be >= 1.
func Downsample(samples []Sample, stride int) ([]Sample, error) {
	if stride < 1 {
		return nil, fmt.Errorf("trace: downsample stride must be >= 1, got %d", stride)
	}
	if stride == 1 || len(samples) == 0 {
		return samples, nil
	}
	out := make([]Sample, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	last := samples[len(samples)-1]
	if out[len(out)-1].Time != last.Time {
		out = append(out, last)
	}
	return out, nil
}

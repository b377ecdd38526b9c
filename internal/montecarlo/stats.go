package montecarlo

import "math"

// moments returns the mean and sample standard deviation (n-1) of values in
// one pass (Welford). Fewer than two values have zero deviation.
func moments(values []float64) (mean, stddev float64) {
	var m2 float64
	for i, v := range values {
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)
	}
	if len(values) < 2 {
		return mean, 0
	}
	return mean, math.Sqrt(m2 / float64(len(values)-1))
}

// percentile interpolates linearly between closest ranks of sorted (ASC).
// p is a fraction: 0.05 is the 5th percentile.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch n {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}

	rank, frac := math.Modf(p * float64(n-1))
	lo := int(rank)
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Package stats provides the small numeric helpers shared by the pipeline
// stages: percentiles with linear interpolation and exponentially-weighted
// moving averages.
package stats

import "sort"

// Percentile computes the p-th percentile (p in [0,1]) of sorted using
// linear interpolation between closest ranks. sorted must be pre-sorted ASC.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Quantile is Percentile over an unsorted slice. The input is copied, not
// reordered.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Percentile(sorted, p)
}

// Mean computes the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// EWMA computes an exponentially-weighted moving average with the recursive
// form s[0]=x[0], s[i] = alpha*x[i] + (1-alpha)*s[i-1].
func EWMA(values []float64, alpha float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

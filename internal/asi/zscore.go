package asi

import "math"

// ZScores standardizes a series against its own mean and population
// standard deviation (ddof=0, matching the upstream table). Nil entries are
// excluded from the statistics and stay nil in the output. A series with
// zero variance yields all-nil z-scores: there is no meaningful anomaly
// against a flat baseline.
func ZScores(values []*float64) []*float64 {
	out := make([]*float64, len(values))

	var sum float64
	var n int
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return out
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range values {
		if v != nil {
			d := *v - mean
			ss += d * d
		}
	}
	sd := math.Sqrt(ss / float64(n))
	if sd == 0 {
		return out
	}

	for i, v := range values {
		if v != nil {
			z := (*v - mean) / sd
			out[i] = &z
		}
	}
	return out
}

package retrieval

// minMaxNormalize scales values to [0,1] across the candidate pool. A
// degenerate list (max == min) maps every entry to 0.5 instead of dividing
// by zero. Empty input returns an empty slice.
func minMaxNormalize(values []float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(values))
	if max == min {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}

// remapBounded maps a similarity known to lie in [-1,1] (cosine) linearly
// onto [0,1], clamping values that drift outside the range.
func remapBounded(s float64) float64 {
	v := (s + 1) / 2
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

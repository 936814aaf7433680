package humiture

import "math"

// Average combines three consecutive samples of one quantity, discarding
// the one that strays more than threshold from the mean. When no pair agrees
// the threshold is doubled and the check repeated.
func Average(d0, d1, d2, threshold float64) float64 {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return (d0 + d1 + d2) / 3
	}
	for {
		avg := (d0 + d1 + d2) / 3
		if math.IsNaN(avg) || math.IsInf(avg, 0) {
			return avg
		}
		df0 := math.Abs(d0 - avg)
		df1 := math.Abs(d1 - avg)
		df2 := math.Abs(d2 - avg)
		switch {
		case df0 <= threshold && df1 <= threshold && df2 <= threshold:
			return avg
		case df0 <= threshold && df1 <= threshold:
			return (d0 + d1) / 2
		case df0 <= threshold && df2 <= threshold:
			return (d0 + d2) / 2
		case df1 <= threshold && df2 <= threshold:
			return (d1 + d2) / 2
		}
		threshold += threshold
	}
}

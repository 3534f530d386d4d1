package calc

// Threshold marks every value strictly above thr
func Threshold(values []float64, thr float64) []bool {
	mask := make([]bool, len(values))

	for i, value := range values {
		if value > thr {
			mask[i] = true
		}
	}

	return mask
}

// Overlap sums the two 0/1 masks and marks the positions where the sum is 2
func Overlap(a []bool, b []bool) []bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	overlap := make([]bool, n)
	for i := 0; i < n; i++ {
		overlap[i] = b2i(a[i])+b2i(b[i]) == 2
	}

	return overlap
}

// Count returns the number of true elements
func Count(mask []bool) int {
	cnt := 0
	for _, m := range mask {
		if m {
			cnt++
		}
	}

	return cnt
}

func b2i(b bool) int {
	if b {
		return 1
	}

	return 0
}

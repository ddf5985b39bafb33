package chart

import (
	"cmp"
	"math"
	"slices"
)

// LayoutLabels positions one label per value inside [lo, hi] so that
// neighbouring labels are at least minGap apart and the total squared distance
// to the values is minimal. Positions are returned in the order of values and
// keep their relative order. When the range cannot fit all labels the gap
// shrinks to spread them evenly.
func LayoutLabels(values []float64, lo, hi, minGap float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if n > 1 && float64(n-1)*minGap > hi-lo {
		minGap = (hi - lo) / float64(n-1)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(values[a], values[b])
	})

	// shifting label k down by k·minGap turns the spacing constraint into a
	// monotonicity constraint, solved by pool adjacent violators
	shifted := make([]float64, n)
	for k, i := range order {
		shifted[k] = values[i] - float64(k)*minGap
	}
	fitted := isotonic(shifted)

	upper := hi - float64(n-1)*minGap
	positions := make([]float64, n)
	for k, i := range order {
		positions[i] = math.Max(lo, math.Min(upper, fitted[k])) + float64(k)*minGap
	}
	return positions
}

// isotonic returns the non-decreasing sequence closest to ys in least squares.
func isotonic(ys []float64) []float64 {
	type block struct {
		sum   float64
		count int
	}
	mean := func(b block) float64 { return b.sum / float64(b.count) }

	var blocks []block
	for _, y := range ys {
		blocks = append(blocks, block{sum: y, count: 1})
		for len(blocks) > 1 {
			last, prev := blocks[len(blocks)-1], blocks[len(blocks)-2]
			if mean(prev) <= mean(last) {
				break
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, block{sum: prev.sum + last.sum, count: prev.count + last.count})
		}
	}

	out := make([]float64, 0, len(ys))
	for _, b := range blocks {
		m := mean(b)
		for j := 0; j < b.count; j++ {
			out = append(out, m)
		}
	}
	return out
}

package collect

import (
	"math"
	"sort"
)

// Summary statistics over trait value series. Callers format the results;
// empty input yields NaN where no meaningful value exists.

func Sum(vals []float64) float64 {
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s
}

func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return Sum(vals) / float64(len(vals))
}

func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Variance is the population variance (n divisor).
func Variance(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	mean := Mean(vals)
	acc := 0.0
	for _, v := range vals {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(vals))
}

func StdDev(vals []float64) float64 {
	return math.Sqrt(Variance(vals))
}

func Min(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	out := vals[0]
	for _, v := range vals[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func Max(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	out := vals[0]
	for _, v := range vals[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

// MinIndex returns the position of the smallest value, first winner on
// ties; -1 on empty input.
func MinIndex(vals []float64) int {
	idx := -1
	for i, v := range vals {
		if idx < 0 || v < vals[idx] {
			idx = i
		}
	}
	return idx
}

// MaxIndex returns the position of the largest value, first winner on ties.
func MaxIndex(vals []float64) int {
	idx := -1
	for i, v := range vals {
		if idx < 0 || v > vals[idx] {
			idx = i
		}
	}
	return idx
}

// Mode returns the most frequent value, first encountered on ties.
func Mode(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	counts := make(map[float64]int, len(vals))
	best, bestCount := vals[0], 0
	for _, v := range vals {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// Richness counts distinct values.
func Richness(vals []float64) int {
	seen := make(map[float64]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Entropy is the Shannon entropy of the value distribution, in bits.
func Entropy(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	counts := make(map[float64]int, len(vals))
	for _, v := range vals {
		counts[v]++
	}
	total := float64(len(vals))
	h := 0.0
	for _, n := range counts {
		p := float64(n) / total
		h -= p * math.Log2(p)
	}
	return h
}

// String-trait variants for the categorical summaries.

func ModeString(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	counts := make(map[string]int, len(vals))
	best, bestCount := vals[0], 0
	for _, v := range vals {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func RichnessString(vals []string) int {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func EntropyString(vals []string) float64 {
	if len(vals) == 0 {
		return 0
	}
	counts := make(map[string]int, len(vals))
	for _, v := range vals {
		counts[v]++
	}
	total := float64(len(vals))
	h := 0.0
	for _, n := range counts {
		p := float64(n) / total
		h -= p * math.Log2(p)
	}
	return h
}

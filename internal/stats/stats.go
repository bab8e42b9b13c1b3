// Package stats computes summary statistics over trait values collected
// from a population, for the data-collection and reporting layers.
package stats

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"demiurge/internal/population"
	"demiurge/internal/trait"
)

// Summary describes one numeric trait across the live organisms of a
// population at a point in time.
type Summary struct {
	Count    int
	Min      float64
	Max      float64
	Mean     float64
	Variance float64
	StdDev   float64
}

// Summarize computes the summary of a float trait over a population's
// live organisms. A population with no live organisms yields a zero
// Count and NaN moments.
func Summarize(pop *population.Population, traitName string) Summary {
	vals := CollectFloat(pop, traitName)
	s := Summary{Count: len(vals)}
	if len(vals) == 0 {
		s.Min, s.Max, s.Mean, s.Variance, s.StdDev = nan, nan, nan, nan, nan
		return s
	}
	s.Min, s.Max = vals[0], vals[0]
	for _, v := range vals[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean, s.Variance = stat.MeanVariance(vals, nil)
	if math.IsNaN(s.Variance) { // single sample
		s.Variance = 0
	}
	s.StdDev = math.Sqrt(s.Variance)
	return s
}

var nan = math.NaN()

// CollectFloat gathers a float trait's values from every live organism,
// in slot order.
func CollectFloat(pop *population.Population, traitName string) []float64 {
	var vals []float64
	for pos := range pop.Alive {
		vals = append(vals, pos.Org().Traits().GetFloat(traitName))
	}
	return vals
}

// CollectString gathers a string trait's values from every live
// organism, in slot order.
func CollectString(pop *population.Population, traitName string) []string {
	var vals []string
	for pos := range pop.Alive {
		vals = append(vals, pos.Org().Traits().GetString(traitName))
	}
	return vals
}

// ShannonEntropy measures the diversity of a string trait across a
// population's live organisms, in bits. Zero when every organism shares
// one value or the population is empty.
func ShannonEntropy(vals []string) float64 {
	if len(vals) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, v := range vals {
		counts[v]++
	}
	weights := make([]float64, 0, len(counts))
	for _, n := range counts {
		weights = append(weights, float64(n))
	}
	// Entropy in nats over the normalized distribution, converted to bits.
	total := float64(len(vals))
	for i := range weights {
		weights[i] /= total
	}
	return stat.Entropy(weights) / math.Ln2
}

// Dominant returns the most frequent value of a string trait and its
// count; ties break toward the lexically smallest value.
func Dominant(vals []string) (string, int) {
	if len(vals) == 0 {
		return "", 0
	}
	counts := make(map[string]int)
	for _, v := range vals {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestN := keys[0], counts[keys[0]]
	for _, k := range keys[1:] {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best, bestN
}

// Histogram counts the values of an integer trait, keyed by value.
func Histogram(pop *population.Population, traitName string) map[int64]int {
	counts := make(map[int64]int)
	for pos := range pop.Alive {
		counts[pos.Org().Traits().GetInt(traitName)]++
	}
	return counts
}

// DescribeRecord renders a trait record as "name=value" pairs in layout
// order, for log lines and debugging.
func DescribeRecord(rec *trait.Record, layout *trait.Layout) string {
	var sb strings.Builder
	for i, e := range layout.Entries() {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(e.Name)
		sb.WriteString("=")
		sb.WriteString(trait.FormatValue(rec.Get(e.Name)))
	}
	return sb.String()
}

package engine

import (
	"math"
	"sort"
)

// ============================================================================
// DISTRIBUTIONS — box statistics and kernel density for box/violin panels
// ============================================================================

const (
	whiskerIQR   = 1.5 // Tukey fences at Q1-1.5·IQR and Q3+1.5·IQR
	kdeSpan      = 2.0 // density is sampled this many bandwidths past the data
	kdeGridPoint = 50
)

// Quantile returns the p-quantile of sorted values using linear interpolation
// between closest ranks. sorted must be ascending and non-empty.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ComputeBox summarises values. It returns nil when values is empty.
func ComputeBox(values []float64) *BoxStats {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	lowLimit := q1 - whiskerIQR*iqr
	highLimit := q3 + whiskerIQR*iqr

	box := &BoxStats{
		Min:         sorted[0],
		Q1:          q1,
		Median:      Quantile(sorted, 0.5),
		Q3:          q3,
		Max:         sorted[len(sorted)-1],
		SampleCount: len(sorted),
		LowerFence:  q1,
		UpperFence:  q3,
	}

	var sum float64
	lowerSet, upperSet := false, false
	for _, v := range sorted {
		sum += v
		if v < lowLimit || v > highLimit {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		// whiskers end at the most extreme non-outlier points
		if !lowerSet {
			box.LowerFence = v
			lowerSet = true
		}
		if !upperSet || v > box.UpperFence {
			box.UpperFence = v
			upperSet = true
		}
	}
	box.Mean = sum / float64(len(sorted))
	return box
}

// SilvermanBandwidth is Silverman's rule of thumb:
// 0.9 · min(σ, IQR/1.34) · n^(-1/5). Degenerate samples fall back to a
// bandwidth proportional to the mean magnitude.
func SilvermanBandwidth(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var mean float64
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(n)

	var sd float64
	if n > 1 {
		var ss float64
		for _, v := range sorted {
			ss += (v - mean) * (v - mean)
		}
		sd = math.Sqrt(ss / float64(n-1))
	}
	iqr := Quantile(sorted, 0.75) - Quantile(sorted, 0.25)

	spread := sd
	if iqr > 0 && iqr/1.34 < spread {
		spread = iqr / 1.34
	}
	if spread <= 0 {
		return math.Max(math.Abs(mean)*0.1, 1e-3)
	}
	return 0.9 * spread * math.Pow(float64(n), -0.2)
}

// KernelDensity samples a Gaussian KDE of values on an even grid that spans
// the data plus two bandwidths on each side.
func KernelDensity(values []float64) []DensityPoint {
	if len(values) == 0 {
		return nil
	}
	h := SilvermanBandwidth(values)
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo -= kdeSpan * h
	hi += kdeSpan * h

	norm := 1 / (float64(len(values)) * h * math.Sqrt(2*math.Pi))
	step := (hi - lo) / float64(kdeGridPoint-1)
	out := make([]DensityPoint, kdeGridPoint)
	for i := range out {
		x := lo + float64(i)*step
		var d float64
		for _, v := range values {
			u := (x - v) / h
			d += math.Exp(-0.5 * u * u)
		}
		out[i] = DensityPoint{Value: x, Density: d * norm}
	}
	return out
}

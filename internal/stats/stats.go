// Package stats provides the pure numeric helpers behind anomaly detection
// and trend analysis. Functions here have no side effects and perform no
// I/O; empty sample sets are rejected explicitly so division by zero can
// never silently produce NaN.
package stats

import (
	"math"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
)

// DefaultSigmaThreshold is the z-score multiplier above which a value is
// considered an outlier.
const DefaultSigmaThreshold = 2.0

// DefaultTrendBandPct is the percentage band within which two values are
// considered a stable trend.
const DefaultTrendBandPct = 10.0

// TrendDirectionValue labels the movement between two period aggregates
type TrendDirectionValue string

const (
	TrendUp     TrendDirectionValue = "up"
	TrendDown   TrendDirectionValue = "down"
	TrendStable TrendDirectionValue = "stable"
)

// Mean returns the arithmetic mean of values. It fails on an empty
// sample set.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.EmptyInputError("mean")
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// StandardDeviation returns the population standard deviation of values
// (dividing by N, not N-1). It fails on an empty sample set.
func StandardDeviation(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, errors.EmptyInputError("standard deviation")
	}

	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}

	return math.Sqrt(sumSquares / float64(len(values))), nil
}

// ZScoreOutliers returns the indices of values whose absolute deviation
// from the mean exceeds thresholdSigma times the population standard
// deviation. A zero standard deviation yields no outliers. It fails on an
// empty sample set.
func ZScoreOutliers(values []float64, thresholdSigma float64) ([]int, error) {
	mean, err := Mean(values)
	if err != nil {
		return nil, errors.EmptyInputError("z-score outliers")
	}

	stdDev, err := StandardDeviation(values)
	if err != nil {
		return nil, err
	}

	if stdDev == 0 {
		return []int{}, nil
	}

	var outliers []int
	for i, v := range values {
		if math.Abs(v-mean) > thresholdSigma*stdDev {
			outliers = append(outliers, i)
		}
	}

	return outliers, nil
}

// ZScore returns |value - mean| / stdDev, the outlier score used to rank
// anomaly severity. A zero stdDev yields zero.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return math.Abs(value-mean) / stdDev
}

// Percentage returns part/whole expressed as a percentage. When whole is
// zero the result is zero; this is the documented edge-case policy, not
// an error.
func Percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// TrendDirection compares current against previous within a percentage
// band: "up" when current exceeds previous by more than bandPct percent,
// "down" when it falls short by more than bandPct percent, otherwise
// "stable".
func TrendDirection(current, previous, bandPct float64) TrendDirectionValue {
	upper := previous * (1 + bandPct/100)
	lower := previous * (1 - bandPct/100)

	switch {
	case current > upper:
		return TrendUp
	case current < lower:
		return TrendDown
	default:
		return TrendStable
	}
}

package insights

import (
	"fmt"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/stats"
)

const anomalyConfidence = 90

// AnomalyDetector flags the single largest transaction whose amount
// deviates from the batch mean by more than the sigma threshold.
type AnomalyDetector struct {
	// SigmaThreshold is the z-score multiplier above which an amount is
	// an outlier.
	SigmaThreshold float64
}

func NewAnomalyDetector(sigmaThreshold float64) *AnomalyDetector {
	return &AnomalyDetector{SigmaThreshold: sigmaThreshold}
}

func (a *AnomalyDetector) Type() models.InsightType {
	return models.InsightAnomalies
}

// Generate returns at most one insight for the largest-amount outlier.
// With fewer than 2 transactions the standard deviation is undefined and
// the detector returns nothing rather than an error.
func (a *AnomalyDetector) Generate(batch []models.Transaction, window models.InsightWindow) []models.Insight {
	if len(batch) < 2 {
		return nil
	}

	values := make([]float64, len(batch))
	for i := range batch {
		values[i] = float64(batch[i].Amount)
	}

	outliers, err := stats.ZScoreOutliers(values, a.SigmaThreshold)
	if err != nil || len(outliers) == 0 {
		return nil
	}

	mean, _ := stats.Mean(values)
	stdDev, _ := stats.StandardDeviation(values)

	// largest-amount outlier wins
	largest := outliers[0]
	for _, idx := range outliers[1:] {
		if values[idx] > values[largest] {
			largest = idx
		}
	}

	tx := batch[largest]
	amount := values[largest]
	outlierScore := stats.ZScore(amount, mean, stdDev)

	impact := models.ImpactMedium
	if amount > 3*mean {
		impact = models.ImpactHigh
	}

	return []models.Insight{{
		Type:              models.InsightAnomalies,
		Title:             "Unusual transaction amount detected",
		Description:       fmt.Sprintf("%q is %.1f standard deviations away from the period average.", tx.Description, outlierScore),
		Confidence:        anomalyConfidence,
		Impact:            impact,
		RelatedCategoryID: tx.CategoryName,
		Metrics: metricsMap(map[string]float64{
			"amount":            amount,
			"mean":              mean,
			"standardDeviation": stdDev,
			"outlierScore":      outlierScore,
		}),
		TrendSeries: dailySeries(batch, false),
	}}
}

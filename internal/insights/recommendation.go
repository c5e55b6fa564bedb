package insights

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
)

// DeductibleRate is the estimated fraction of a deductible business
// expense recoverable at tax time. Kept as a named constant so the
// assumption stays visible and adjustable.
const DeductibleRate = 0.25

// deductibleKeywords mark descriptions as likely deductible business
// expenses.
var deductibleKeywords = []string{"office", "software", "equipment", "travel", "supplies", "marketing"}

const recommendationConfidence = 70

// RecommendationAnalyzer surfaces tax-deduction opportunities from
// deductible-looking expenses.
type RecommendationAnalyzer struct{}

func NewRecommendationAnalyzer() *RecommendationAnalyzer {
	return &RecommendationAnalyzer{}
}

func (a *RecommendationAnalyzer) Type() models.InsightType {
	return models.InsightRecommendations
}

func (a *RecommendationAnalyzer) Generate(batch []models.Transaction, window models.InsightWindow) []models.Insight {
	var deductible []models.Transaction
	for _, tx := range filterExpenses(batch) {
		if containsAnyKeyword(tx.Description, deductibleKeywords) {
			deductible = append(deductible, tx)
		}
	}
	if len(deductible) == 0 {
		return nil
	}

	total, _ := sumAmounts(deductible).Float64()
	potentialSavings := total * DeductibleRate

	return []models.Insight{{
		Type:        models.InsightRecommendations,
		Title:       "Potential tax deductions found",
		Description: fmt.Sprintf("%d expenses look like deductible business costs.", len(deductible)),
		Confidence:  recommendationConfidence,
		Impact:      models.ImpactMedium,
		Metrics: metricsMap(map[string]float64{
			"deductibleTotal":  total,
			"potentialSavings": potentialSavings,
			"count":            float64(len(deductible)),
		}),
		TrendSeries: dailySeries(deductible, false),
		RecommendedActions: []models.RecommendedAction{
			{
				ID:          uuid.NewString(),
				Description: "Review flagged expenses with your accountant before filing.",
				ActionType:  "review_deductions",
			},
			{
				ID:          uuid.NewString(),
				Description: "Keep receipts for all flagged transactions.",
				ActionType:  "collect_receipts",
			},
		},
	}}
}

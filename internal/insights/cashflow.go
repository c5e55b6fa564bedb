package insights

import (
	"fmt"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
)

const cashFlowConfidence = 95

// positiveFlowHighRatio is the net-to-income ratio above which a positive
// cash flow counts as high impact.
const positiveFlowHighRatio = 0.3

// CashFlowAnalyzer reports the period's net position: exactly one insight
// per non-empty batch.
type CashFlowAnalyzer struct{}

func NewCashFlowAnalyzer() *CashFlowAnalyzer {
	return &CashFlowAnalyzer{}
}

func (a *CashFlowAnalyzer) Type() models.InsightType {
	return models.InsightCashFlow
}

func (a *CashFlowAnalyzer) Generate(batch []models.Transaction, window models.InsightWindow) []models.Insight {
	if len(batch) == 0 {
		return nil
	}

	var totalIncome, totalExpenses float64
	for i := range batch {
		if batch[i].IsIncome() {
			totalIncome += float64(batch[i].Amount)
		} else {
			totalExpenses += float64(batch[i].Amount)
		}
	}
	netIncome := totalIncome - totalExpenses

	metrics := map[string]float64{
		"totalIncome":   totalIncome,
		"totalExpenses": totalExpenses,
		"netIncome":     netIncome,
	}

	insight := models.Insight{
		Type:        models.InsightCashFlow,
		Confidence:  cashFlowConfidence,
		TrendSeries: dailySeries(batch, true),
	}

	if netIncome > 0 {
		insight.Title = "Positive cash flow"
		insight.Description = "Income exceeded expenses in this period."
		insight.Impact = models.ImpactMedium
		if netIncome > positiveFlowHighRatio*totalIncome {
			insight.Impact = models.ImpactHigh
		}
		// ratio is undefined when income is zero; a positive net implies
		// income > 0 here
		metrics["cashFlowRatio"] = netIncome / totalIncome
	} else {
		days := window.Days()
		burnRate := -netIncome / float64(days)
		insight.Title = "Negative cash flow"
		insight.Description = fmt.Sprintf("Expenses exceeded income in this period; average burn is %.2f per day.", burnRate/100)
		insight.Impact = models.ImpactHigh
		metrics["burnRate"] = burnRate
		if totalIncome > 0 {
			metrics["cashFlowRatio"] = netIncome / totalIncome
		}
	}

	insight.Metrics = metricsMap(metrics)
	return []models.Insight{insight}
}

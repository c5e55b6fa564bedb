package insights

import (
	"fmt"
	"sort"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/stats"
)

// recurringKeywords flag descriptions that look like repeating charges.
var recurringKeywords = []string{"subscription", "monthly", "annual", "recurring"}

// Insight confidence levels for spending-trend findings.
const (
	majorCategoryConfidence = 85
	recurringConfidence     = 75
)

// SpendingTrendAnalyzer finds expense concentration by category and
// recurring-charge aggregates.
type SpendingTrendAnalyzer struct {
	// MajorCategoryPercentThreshold is the share of total expense above
	// which a category is flagged.
	MajorCategoryPercentThreshold float64
}

func NewSpendingTrendAnalyzer(majorCategoryPercentThreshold float64) *SpendingTrendAnalyzer {
	return &SpendingTrendAnalyzer{MajorCategoryPercentThreshold: majorCategoryPercentThreshold}
}

func (a *SpendingTrendAnalyzer) Type() models.InsightType {
	return models.InsightSpendingTrends
}

func (a *SpendingTrendAnalyzer) Generate(batch []models.Transaction, window models.InsightWindow) []models.Insight {
	expenses := filterExpenses(batch)
	if len(expenses) == 0 {
		return nil
	}

	totalExpense := sumAmounts(expenses)
	totalFloat, _ := totalExpense.Float64()

	var insights []models.Insight
	insights = append(insights, a.majorCategories(expenses, totalFloat)...)

	if recurring := a.recurringCharges(expenses, totalFloat); recurring != nil {
		insights = append(insights, *recurring)
	}

	return insights
}

// majorCategories emits one insight per category whose share of total
// expense exceeds the threshold, largest share first.
func (a *SpendingTrendAnalyzer) majorCategories(expenses []models.Transaction, totalExpense float64) []models.Insight {
	byCategory := make(map[string][]models.Transaction)
	for _, tx := range expenses {
		name := tx.CategoryName
		if name == "" {
			name = "Uncategorized"
		}
		byCategory[name] = append(byCategory[name], tx)
	}

	type categoryShare struct {
		name  string
		txs   []models.Transaction
		total float64
		share float64
	}

	var shares []categoryShare
	for name, txs := range byCategory {
		catTotal, _ := sumAmounts(txs).Float64()
		share := stats.Percentage(catTotal, totalExpense)
		if share > a.MajorCategoryPercentThreshold {
			shares = append(shares, categoryShare{name: name, txs: txs, total: catTotal, share: share})
		}
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].share != shares[j].share {
			return shares[i].share > shares[j].share
		}
		return shares[i].name < shares[j].name
	})

	var insights []models.Insight
	for _, s := range shares {
		impact := models.ImpactMedium
		if s.share > 50 {
			impact = models.ImpactHigh
		}
		insights = append(insights, models.Insight{
			Type:              models.InsightSpendingTrends,
			Title:             fmt.Sprintf("High spending concentration in %s", s.name),
			Description:       fmt.Sprintf("%s accounts for %.1f%% of total expenses in this period.", s.name, s.share),
			Confidence:        majorCategoryConfidence,
			Impact:            impact,
			RelatedCategoryID: s.name,
			Metrics: metricsMap(map[string]float64{
				"amount":     s.total,
				"percentage": s.share,
			}),
			TrendSeries: dailySeries(s.txs, false),
		})
	}
	return insights
}

// recurringCharges aggregates expenses whose description matches the
// recurring-keyword set. Returns nil when nothing matches.
func (a *SpendingTrendAnalyzer) recurringCharges(expenses []models.Transaction, totalExpense float64) *models.Insight {
	var recurring []models.Transaction
	for _, tx := range expenses {
		if containsAnyKeyword(tx.Description, recurringKeywords) {
			recurring = append(recurring, tx)
		}
	}
	if len(recurring) == 0 {
		return nil
	}

	total, _ := sumAmounts(recurring).Float64()
	share := stats.Percentage(total, totalExpense)

	return &models.Insight{
		Type:        models.InsightSpendingTrends,
		Title:       "Recurring charges detected",
		Description: fmt.Sprintf("%d recurring charges make up %.1f%% of total expenses in this period.", len(recurring), share),
		Confidence:  recurringConfidence,
		Impact:      models.ImpactMedium,
		Metrics: metricsMap(map[string]float64{
			"amount":     total,
			"percentage": share,
			"count":      float64(len(recurring)),
		}),
		TrendSeries: dailySeries(recurring, false),
	}
}

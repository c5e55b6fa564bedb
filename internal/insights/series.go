// Package insights implements the financial insight generators and the
// orchestrator that dispatches them over a transaction window. Generators
// are pure functions over their batch: no I/O, no shared state, safe to run
// independently.
package insights

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
)

// Generator produces zero or more insights from a transaction batch.
type Generator interface {
	Type() models.InsightType
	Generate(batch []models.Transaction, window models.InsightWindow) []models.Insight
}

// dailySeries aggregates transaction amounts into one point per UTC day,
// sorted by date. Income counts positive and expense negative when signed
// is true; otherwise absolute amounts are summed.
func dailySeries(batch []models.Transaction, signed bool) []models.TrendPoint {
	totals := make(map[time.Time]decimal.Decimal)
	for i := range batch {
		tx := &batch[i]
		day := tx.OccurredAt.UTC().Truncate(24 * time.Hour)
		amount := tx.AmountDecimal()
		if signed && tx.IsExpense() {
			amount = amount.Neg()
		}
		totals[day] = totals[day].Add(amount)
	}

	series := make([]models.TrendPoint, 0, len(totals))
	for day, value := range totals {
		series = append(series, models.TrendPoint{Date: day, Value: value})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// metricsMap converts computed float metrics into the decimal form the
// Insight contract carries.
func metricsMap(values map[string]float64) map[string]decimal.Decimal {
	metrics := make(map[string]decimal.Decimal, len(values))
	for name, v := range values {
		metrics[name] = decimal.NewFromFloat(v)
	}
	return metrics
}

func sumAmounts(batch []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range batch {
		total = total.Add(batch[i].AmountDecimal())
	}
	return total
}

func filterExpenses(batch []models.Transaction) []models.Transaction {
	var expenses []models.Transaction
	for _, tx := range batch {
		if tx.IsExpense() {
			expenses = append(expenses, tx)
		}
	}
	return expenses
}

// containsAnyKeyword reports whether the lowercased description contains
// any of the given lowercase keywords.
func containsAnyKeyword(description string, keywords []string) bool {
	lowered := strings.ToLower(description)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

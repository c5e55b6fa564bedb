// Package models defines the value types exchanged between the
// categorization engine, the insight generators, and their callers.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	// TransactionTypeIncome represents money coming into the business
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeExpense represents money leaving the business
	TransactionTypeExpense TransactionType = "expense"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// ParseTransactionType parses and validates a transaction type from string
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "in", "credit":
		return TransactionTypeIncome, nil
	case "expense", "out", "debit":
		return TransactionTypeExpense, nil
	default:
		return "", errors.ValidationError(errors.CodeInvalidType, "type", s,
			"must be 'income' or 'expense'")
	}
}

// Transaction is an immutable monetary record supplied by the surrounding
// application. Amount is in minor currency units and must be positive; the
// direction is carried by Type, not by sign.
type Transaction struct {
	Description  string          `json:"description"`
	Amount       int64           `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	Type         TransactionType `json:"type"`
	OccurredAt   time.Time       `json:"occurredAt"`

	// CategoryName is set when the transaction has already been
	// categorized; insight generation requires it, categorization does not.
	CategoryName string `json:"categoryName,omitempty"`
}

// Validate performs input validation on the Transaction. It returns a
// field-level validation error, never a panic, for malformed input.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return errors.ValidationError(errors.CodeMissingField, "description", t.Description,
			"description is required")
	}

	if t.Amount <= 0 {
		return errors.ValidationError(errors.CodeInvalidAmount, "amount", t.Amount,
			"must be greater than zero")
	}

	if !isISOCurrency(t.CurrencyCode) {
		return errors.ValidationError(errors.CodeInvalidCurrency, "currencyCode", t.CurrencyCode,
			"must be a 3-letter ISO code")
	}

	if !t.Type.IsValid() {
		return errors.ValidationError(errors.CodeInvalidType, "type", string(t.Type),
			"must be 'income' or 'expense'")
	}

	if t.OccurredAt.IsZero() {
		return errors.ValidationError(errors.CodeMissingField, "occurredAt", t.OccurredAt,
			"transaction date is required")
	}

	return nil
}

// AmountDecimal returns the amount in minor units as a decimal, the form
// all aggregate arithmetic uses.
func (t *Transaction) AmountDecimal() decimal.Decimal {
	return decimal.NewFromInt(t.Amount)
}

// AmountMajor returns the amount in major currency units, assuming a
// two-decimal currency.
func (t *Transaction) AmountMajor() decimal.Decimal {
	return decimal.New(t.Amount, -2)
}

// IsIncome returns true if the transaction is income
func (t *Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}

// IsExpense returns true if the transaction is an expense
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{%q, %d %s, %s, %s}",
		t.Description, t.Amount, t.CurrencyCode, t.Type, t.OccurredAt.Format("2006-01-02"))
}

func isISOCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// Category identifies a bookkeeping category available to the categorizer
type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// CategorySignal is the ordered set of categories available for a given
// user and transaction type, deduplicated by (name, type) with user-defined
// entries taking precedence over system defaults.
type CategorySignal struct {
	Categories []Category
}

// NewCategorySignal merges user-defined categories with system defaults.
// Order is preserved; when a user entry and a default collide on
// (name, type), the user entry wins.
func NewCategorySignal(userDefined, defaults []Category) CategorySignal {
	seen := make(map[string]bool)
	merged := make([]Category, 0, len(userDefined)+len(defaults))

	for _, lists := range [][]Category{userDefined, defaults} {
		for _, cat := range lists {
			key := strings.ToLower(cat.Name) + "|" + string(cat.Type)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, cat)
		}
	}

	return CategorySignal{Categories: merged}
}

// FindByName returns the first category matching name (case-insensitive)
// and type.
func (s CategorySignal) FindByName(name string, txType TransactionType) (Category, bool) {
	for _, cat := range s.Categories {
		if cat.Type == txType && strings.EqualFold(cat.Name, name) {
			return cat, true
		}
	}
	return Category{}, false
}

// ForType returns the categories available for the given transaction type,
// preserving order.
func (s CategorySignal) ForType(txType TransactionType) []Category {
	var result []Category
	for _, cat := range s.Categories {
		if cat.Type == txType {
			result = append(result, cat)
		}
	}
	return result
}

// SourceModel identifies which strategy produced a categorization result
type SourceModel string

const (
	// SourceAI marks results produced by the language-model call
	SourceAI SourceModel = "ai"
	// SourceFallback marks results produced by the rule-based categorizer
	SourceFallback SourceModel = "fallback"
)

// MaxFallbackConfidence is the ceiling for rule-based results; the
// fallback path is never represented as highly confident.
const MaxFallbackConfidence = 60

// ExtractedMetadata carries structured details pulled from a transaction
// description during categorization.
type ExtractedMetadata struct {
	Vendor   string   `json:"vendor,omitempty"`
	Location string   `json:"location,omitempty"`
	Tags     []string `json:"tags"`
}

// Suggestion is an auxiliary hint attached to a categorization result
type Suggestion struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

// CategorizationResult is the outcome of categorizing one transaction.
// It is created once per categorization call and never mutated; a
// re-categorization produces a new result.
type CategorizationResult struct {
	// Category may be nil when the categorizer could not assign one;
	// the orchestrator only accepts nil together with Uncategorized=true.
	Category             *Category         `json:"category"`
	Uncategorized        bool              `json:"uncategorized,omitempty"`
	Confidence           int               `json:"confidence"`
	ProcessedDescription string            `json:"processedDescription"`
	Metadata             ExtractedMetadata `json:"extractedMetadata"`
	Suggestions          []Suggestion      `json:"suggestions,omitempty"`
	SourceModel          SourceModel       `json:"sourceModel"`
	Warnings             []string          `json:"warnings,omitempty"`

	// Extra captures bounded provider-specific fields that do not map to
	// the fixed contract above.
	Extra map[string]string `json:"extra,omitempty"`
}

// Validate checks the structural invariants of a categorization result
func (r *CategorizationResult) Validate() error {
	if r.Confidence < 0 || r.Confidence > 100 {
		return errors.ValidationError(errors.CodeInvalidAmount, "confidence", r.Confidence,
			"must be between 0 and 100")
	}

	if r.Category == nil && !r.Uncategorized {
		return errors.ValidationError(errors.CodeMissingField, "category", nil,
			"category is required unless the result is flagged uncategorized")
	}

	if r.SourceModel == SourceFallback && r.Confidence > MaxFallbackConfidence {
		return errors.ValidationError(errors.CodeInvalidAmount, "confidence", r.Confidence,
			fmt.Sprintf("fallback results are capped at %d", MaxFallbackConfidence))
	}

	if strings.TrimSpace(r.ProcessedDescription) == "" {
		return errors.ValidationError(errors.CodeMissingField, "processedDescription", "",
			"processed description is required")
	}

	return nil
}

// MaxWindowDays bounds the span of an insight window
const MaxWindowDays = 365

// InsightWindow is the bounded date range over which a transaction batch
// is analyzed.
type InsightWindow struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Validate checks that the window is well-formed: start strictly before
// end, span at most MaxWindowDays.
func (w InsightWindow) Validate() error {
	if w.StartDate.IsZero() || w.EndDate.IsZero() {
		return errors.ValidationError(errors.CodeMissingField, "window", w,
			"both start and end dates are required")
	}

	if !w.StartDate.Before(w.EndDate) {
		return errors.ValidationError(errors.CodeInvalidWindow, "window", w,
			"start date must be before end date")
	}

	if w.EndDate.Sub(w.StartDate) > MaxWindowDays*24*time.Hour {
		return errors.ValidationError(errors.CodeInvalidWindow, "window", w,
			fmt.Sprintf("window span must not exceed %d days", MaxWindowDays))
	}

	return nil
}

// Days returns the window span in whole days, never less than 1
func (w InsightWindow) Days() int {
	days := int(w.EndDate.Sub(w.StartDate).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Contains reports whether the given date falls inside the window
// (start inclusive, end inclusive).
func (w InsightWindow) Contains(t time.Time) bool {
	return !t.Before(w.StartDate) && !t.After(w.EndDate)
}

// InsightType identifies the analysis family that produced an insight
type InsightType string

const (
	InsightSpendingTrends  InsightType = "spending_trends"
	InsightAnomalies       InsightType = "anomalies"
	InsightCashFlow        InsightType = "cash_flow"
	InsightRecommendations InsightType = "recommendations"
)

// AllInsightTypes returns the recognized focus areas in their fixed
// generator-priority order. Output ordering of the orchestrator follows
// this order.
func AllInsightTypes() []InsightType {
	return []InsightType{
		InsightSpendingTrends,
		InsightAnomalies,
		InsightCashFlow,
		InsightRecommendations,
	}
}

// ParseInsightType parses a focus-area string; unrecognized values are
// reported so callers can ignore or reject them.
func ParseInsightType(s string) (InsightType, bool) {
	switch InsightType(strings.ToLower(strings.TrimSpace(s))) {
	case InsightSpendingTrends:
		return InsightSpendingTrends, true
	case InsightAnomalies:
		return InsightAnomalies, true
	case InsightCashFlow:
		return InsightCashFlow, true
	case InsightRecommendations:
		return InsightRecommendations, true
	default:
		return "", false
	}
}

// Impact expresses the salience of an insight for display purposes
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// TrendPoint is one sub-period aggregate in an insight's trend series
type TrendPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// RecommendedAction is a concrete follow-up attached to an insight
type RecommendedAction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	ActionType  string `json:"actionType"`
}

// Insight is a single piece of synthesized financial guidance. Insights
// have no lifecycle beyond the call that produced them; persistence is the
// surrounding application's concern.
type Insight struct {
	Type               InsightType                `json:"type"`
	Title              string                     `json:"title"`
	Description        string                     `json:"description"`
	Confidence         int                        `json:"confidence"`
	Impact             Impact                     `json:"impact"`
	RelatedCategoryID  string                     `json:"relatedCategoryId,omitempty"`
	Metrics            map[string]decimal.Decimal `json:"metrics"`
	TrendSeries        []TrendPoint               `json:"trendSeries,omitempty"`
	RecommendedActions []RecommendedAction        `json:"recommendedActions,omitempty"`
	ProcessingTimeMs   int64                      `json:"processingTimeMs"`
}

// Package rules implements deterministic keyword-based transaction
// categorization. It is the offline baseline and the fallback path when the
// AI classifier is unavailable: no network calls, no shared mutable state,
// the same input always produces the same result.
package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/logger"
)

// categoryRule pairs a keyword set with a target category name. Rules are
// evaluated in slice order and the first match wins.
type categoryRule struct {
	keywords []string
	category string
}

// expenseRules is the priority-ordered rule table for expense transactions.
var expenseRules = []categoryRule{
	{keywords: []string{"adobe", "software", "saas", "license", "figma", "slack", "github", "zoom", "dropbox", "cloud"}, category: "Software"},
	{keywords: []string{"office", "supplies", "stationery", "staples", "paper"}, category: "Office Supplies"},
	{keywords: []string{"flight", "airline", "hotel", "airbnb", "uber", "lyft", "taxi", "travel", "mileage"}, category: "Travel"},
	{keywords: []string{"restaurant", "lunch", "dinner", "coffee", "catering", "meal"}, category: "Meals & Entertainment"},
	{keywords: []string{"marketing", "advertising", "ads", "campaign", "sponsorship"}, category: "Marketing"},
	{keywords: []string{"laptop", "computer", "monitor", "printer", "hardware", "equipment"}, category: "Equipment"},
	{keywords: []string{"electricity", "internet", "phone", "water", "utility", "utilities"}, category: "Utilities"},
	{keywords: []string{"rent", "lease", "coworking"}, category: "Rent"},
	{keywords: []string{"insurance", "premium"}, category: "Insurance"},
	{keywords: []string{"legal", "accounting", "consulting", "lawyer", "accountant", "bookkeeping"}, category: "Professional Services"},
}

// incomeRules is the priority-ordered rule table for income transactions.
var incomeRules = []categoryRule{
	{keywords: []string{"invoice", "client", "retainer", "payment from", "project fee"}, category: "Client Revenue"},
	{keywords: []string{"sale", "sales", "order", "product revenue"}, category: "Sales Revenue"},
	{keywords: []string{"interest", "dividend"}, category: "Interest Income"},
	{keywords: []string{"refund", "reimbursement", "rebate"}, category: "Refunds"},
}

// incomeIndicators are scanned when the caller did not fix the transaction
// type. Anything else defaults to expense.
var incomeIndicators = []string{
	"income", "revenue", "payment from", "client", "invoice",
	"deposit from", "received", "payout",
}

// tagTable maps description keywords to tags attached as metadata.
var tagTable = []struct {
	keyword string
	tag     string
}{
	{"subscription", "recurring"},
	{"monthly", "recurring"},
	{"annual", "recurring"},
	{"recurring", "recurring"},
	{"software", "software"},
	{"travel", "travel"},
	{"office", "office"},
	{"client", "client"},
	{"tax", "tax-related"},
	{"urgent", "urgent"},
}

// Names of the catch-all categories used when no rule matches.
const (
	fallbackExpenseCategory = "Other Expenses"
	fallbackIncomeCategory  = "Other Income"
	uncategorizedName       = "Uncategorized"
)

// Confidence levels assigned by the rule engine. Never above
// models.MaxFallbackConfidence.
const (
	unmatchedConfidence  = 50
	matchedConfidence    = 55
	multiMatchConfidence = 60
)

// capitalized phrase after "from" / "at" / "@", e.g. "from Acme Corp".
var (
	vendorPattern   = regexp.MustCompile(`(?:\bfrom\b|\bFrom\b)\s+([A-Z][A-Za-z0-9&'.-]*(?:\s+[A-Z][A-Za-z0-9&'.-]*)*)`)
	locationPattern = regexp.MustCompile(`(?:\bat\b|\bAt\b|@)\s*([A-Z][A-Za-z0-9&'.-]*(?:\s+[A-Z][A-Za-z0-9&'.-]*)*)`)

	markupPattern     = regexp.MustCompile(`(?is)<script.*?</script>`)
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Categorizer assigns categories by keyword matching against fixed rule
// tables. Construct once and share; it holds no per-call state.
type Categorizer struct {
	logger logger.Logger
}

// NewCategorizer creates a rule-based categorizer.
func NewCategorizer(log logger.Logger) *Categorizer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Categorizer{logger: log.WithComponent("rules")}
}

// Categorize assigns a category to the transaction using keyword rules.
// Input validation is the caller's responsibility; on well-formed input this
// never fails.
func (c *Categorizer) Categorize(tx models.Transaction, signal models.CategorySignal) *models.CategorizationResult {
	lowered := strings.ToLower(tx.Description)

	txType := tx.Type
	if !txType.IsValid() {
		txType = inferType(lowered)
	}

	table := expenseRules
	if txType == models.TransactionTypeIncome {
		table = incomeRules
	}

	result := &models.CategorizationResult{
		ProcessedDescription: sanitizeDescription(tx.Description),
		Metadata:             extractMetadata(tx.Description, lowered),
		SourceModel:          models.SourceFallback,
	}

	rule, matches := matchRule(table, lowered)
	if rule == nil {
		result.Category = fallbackCategory(signal, txType)
		result.Confidence = unmatchedConfidence
		c.logger.WithFields(logger.Fields{
			"type":     txType.String(),
			"category": result.Category.Name,
		}).Debug("no rule matched, using fallback category")
		return result
	}

	result.Confidence = matchedConfidence
	if matches > 1 {
		result.Confidence = multiMatchConfidence
	}

	if known, ok := signal.FindByName(rule.category, txType); ok {
		result.Category = &known
	} else {
		result.Category = &models.Category{Name: rule.category, Type: txType}
	}

	c.logger.WithFields(logger.Fields{
		"type":       txType.String(),
		"category":   result.Category.Name,
		"confidence": result.Confidence,
	}).Debug("rule matched")

	return result
}

// inferType scans a lowercased description for income indicators. Ambiguous
// descriptions default to expense.
func inferType(lowered string) models.TransactionType {
	for _, indicator := range incomeIndicators {
		if strings.Contains(lowered, indicator) {
			return models.TransactionTypeIncome
		}
	}
	return models.TransactionTypeExpense
}

// matchRule returns the first rule whose keywords appear in the lowered
// description, plus the number of its keywords that matched.
func matchRule(table []categoryRule, lowered string) (*categoryRule, int) {
	for i := range table {
		matches := 0
		for _, kw := range table[i].keywords {
			if strings.Contains(lowered, kw) {
				matches++
			}
		}
		if matches > 0 {
			return &table[i], matches
		}
	}
	return nil, 0
}

// fallbackCategory resolves the catch-all category for the given type,
// preferring an entry from the signal list over the synthetic
// "Uncategorized" placeholder.
func fallbackCategory(signal models.CategorySignal, txType models.TransactionType) *models.Category {
	name := fallbackExpenseCategory
	if txType == models.TransactionTypeIncome {
		name = fallbackIncomeCategory
	}
	if known, ok := signal.FindByName(name, txType); ok {
		return &known
	}
	if known, ok := signal.FindByName(uncategorizedName, txType); ok {
		return &known
	}
	return &models.Category{Name: uncategorizedName, Type: txType}
}

// extractMetadata pulls vendor and location from the original-cased
// description and tags from the lowered one.
func extractMetadata(original, lowered string) models.ExtractedMetadata {
	meta := models.ExtractedMetadata{}

	if m := vendorPattern.FindStringSubmatch(original); m != nil {
		meta.Vendor = strings.TrimSpace(m[1])
	}
	if m := locationPattern.FindStringSubmatch(original); m != nil {
		meta.Location = strings.TrimSpace(m[1])
	}

	seen := make(map[string]bool)
	for _, entry := range tagTable {
		if strings.Contains(lowered, entry.keyword) && !seen[entry.tag] {
			seen[entry.tag] = true
			meta.Tags = append(meta.Tags, entry.tag)
		}
	}

	return meta
}

// sanitizeDescription strips markup, collapses whitespace, and title-cases
// the description for display.
func sanitizeDescription(description string) string {
	clean := markupPattern.ReplaceAllString(description, " ")
	clean = tagPattern.ReplaceAllString(clean, " ")
	clean = whitespacePattern.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)
	return titleCase(clean)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

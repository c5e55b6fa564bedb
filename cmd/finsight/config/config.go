// Package config builds the runtime configurations the CLI hands to the
// parsers, the categorization engine, and the report generator.
package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/aiclient"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/engine"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/parsers"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/reporter"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
)

// DefaultCategories returns the built-in category set used when the user
// does not supply their own. Names line up with what the rule-based
// categorizer can produce so fallback results resolve to known entries.
func DefaultCategories() []models.Category {
	expense := []string{
		"Software",
		"Office Supplies",
		"Travel",
		"Meals & Entertainment",
		"Marketing",
		"Equipment",
		"Utilities",
		"Rent",
		"Insurance",
		"Professional Services",
		"Other Expenses",
	}
	income := []string{
		"Client Revenue",
		"Sales Revenue",
		"Interest Income",
		"Refunds",
		"Other Income",
	}

	categories := make([]models.Category, 0, len(expense)+len(income))
	for _, name := range expense {
		categories = append(categories, models.Category{
			ID:   slugify(name),
			Name: name,
			Type: models.TransactionTypeExpense,
		})
	}
	for _, name := range income {
		categories = append(categories, models.Category{
			ID:   slugify(name),
			Name: name,
			Type: models.TransactionTypeIncome,
		})
	}
	return categories
}

func slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, "&", "and")
	fields := strings.Fields(slug)
	return strings.Join(fields, "-")
}

// categoryFile is the on-disk shape of a user-supplied category list.
type categoryFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// LoadCategories reads a JSON array of user-defined categories from path.
func LoadCategories(path string) ([]models.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.CodeInvalidConfig,
			"failed to read categories file").
			WithContext("path", path).
			WithSuggestion("Check that the categories file exists and is readable")
	}

	var entries []categoryFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.CodeInvalidConfig,
			"categories file is not a valid JSON array").
			WithContext("path", path).
			WithSuggestion(`Expected entries like {"id":"software","name":"Software","type":"expense"}`)
	}

	categories := make([]models.Category, 0, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, errors.ConfigError("categories", path,
				"category name must not be empty").
				WithContext("index", i)
		}
		txType, err := models.ParseTransactionType(entry.Type)
		if err != nil {
			return nil, errors.ConfigError("categories", entry.Type,
				"category type must be income or expense").
				WithContext("name", entry.Name)
		}
		id := entry.ID
		if id == "" {
			id = slugify(entry.Name)
		}
		categories = append(categories, models.Category{
			ID:   id,
			Name: entry.Name,
			Type: txType,
		})
	}
	return categories, nil
}

// BuildCategorySignal loads user categories from categoriesFile (when
// given) and merges them with the built-in defaults.
func BuildCategorySignal(categoriesFile string) (models.CategorySignal, error) {
	var userDefined []models.Category
	if categoriesFile != "" {
		loaded, err := LoadCategories(categoriesFile)
		if err != nil {
			return models.CategorySignal{}, err
		}
		userDefined = loaded
	}
	return models.NewCategorySignal(userDefined, DefaultCategories()), nil
}

// CreateParserConfig builds a CSV parser configuration from CLI values.
func CreateParserConfig(delimiter, defaultCurrency string) (*parsers.Config, error) {
	config := parsers.DefaultConfig()
	if defaultCurrency != "" {
		config.DefaultCurrency = strings.ToUpper(defaultCurrency)
	}
	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, errors.ConfigError("delimiter", delimiter,
				"delimiter must be a single character")
		}
		config.Delimiter = runes[0]
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateEngineConfig builds the orchestrator configuration, applying CLI
// overrides on top of the defaults. Zero values mean "keep the default".
func CreateEngineConfig(aiTimeout time.Duration, maxTransactions int, sigmaThreshold, categoryThreshold float64) *engine.Config {
	config := engine.DefaultConfig()
	if aiTimeout > 0 {
		config.AITimeout = aiTimeout
	}
	if maxTransactions > 0 {
		config.MaxTransactionsPerInsightCall = maxTransactions
	}
	if sigmaThreshold > 0 {
		config.AnomalySigmaThreshold = sigmaThreshold
	}
	if categoryThreshold > 0 {
		config.MajorCategoryPercentThreshold = categoryThreshold
	}
	return config
}

// CreateClassifierConfig builds the AI client configuration.
func CreateClassifierConfig(model string, maxRetries int) aiclient.Config {
	config := aiclient.DefaultConfig()
	if model != "" {
		config.Model = model
	}
	if maxRetries > 0 {
		config.MaxRetries = maxRetries
	}
	return config
}

// CreateReportConfig builds the report configuration for the requested
// output format.
func CreateReportConfig(format string, includeMetadata bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.IncludeMetadata = includeMetadata

	switch format {
	case "console", "":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	default:
		return nil, errors.ConfigError("output-format", format,
			"valid formats are console and json")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

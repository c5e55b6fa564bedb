// Package reporter renders categorization results and insight batches for
// terminal display or programmatic consumption.
//
// Supported output formats:
//   - Console: human-readable tabular output
//   - JSON: structured output for piping into other tools
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
)

// OutputFormat selects how reports are rendered.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportConfig holds options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeMetadata renders vendor/location/tags for each result.
	IncludeMetadata bool `json:"include_metadata"`

	// IncludeTrendSeries renders each insight's daily series.
	IncludeTrendSeries bool `json:"include_trend_series"`

	// MaxInsightActions caps the recommended actions shown per insight.
	MaxInsightActions int `json:"max_insight_actions"`
}

// DefaultReportConfig returns the standard report settings.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		IncludeMetadata:    true,
		IncludeTrendSeries: false,
		MaxInsightActions:  3,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return errors.ConfigError("format", c.Format, "unsupported output format")
	}
	if c.MaxInsightActions < 0 {
		return errors.ConfigError("max_insight_actions", c.MaxInsightActions, "must not be negative")
	}
	return nil
}

// CategorizationReport pairs each transaction with its result for
// rendering.
type CategorizationReport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Entries     []CategorizedEntry `json:"entries"`
}

// CategorizedEntry is one transaction plus its categorization.
type CategorizedEntry struct {
	Transaction models.Transaction           `json:"transaction"`
	Result      *models.CategorizationResult `json:"result"`
}

// InsightReport wraps an insight batch for rendering.
type InsightReport struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Window      models.InsightWindow `json:"window"`
	Insights    []models.Insight     `json:"insights"`
}

// ReportGenerator renders reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a generator. A nil config uses defaults.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReportGenerator{config: config}, nil
}

// WriteCategorizations renders a categorization report to writer.
func (rg *ReportGenerator) WriteCategorizations(report *CategorizationReport, writer io.Writer) error {
	if report == nil {
		return errors.EmptyInputError("categorization report")
	}

	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(report, writer)
	default:
		return rg.writeCategorizationsConsole(report, writer)
	}
}

// WriteInsights renders an insight report to writer.
func (rg *ReportGenerator) WriteInsights(report *InsightReport, writer io.Writer) error {
	if report == nil {
		return errors.EmptyInputError("insight report")
	}

	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(report, writer)
	default:
		return rg.writeInsightsConsole(report, writer)
	}
}

func writeJSON(v interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (rg *ReportGenerator) writeCategorizationsConsole(report *CategorizationReport, writer io.Writer) error {
	fmt.Fprintf(writer, "CATEGORIZATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	if len(report.Entries) == 0 {
		fmt.Fprintf(writer, "No transactions categorized.\n")
		return nil
	}

	fallbackCount := 0
	for _, entry := range report.Entries {
		tx := entry.Transaction
		result := entry.Result

		fmt.Fprintf(writer, "%s  %s %s\n", tx.OccurredAt.Format("2006-01-02"), tx.AmountMajor().StringFixed(2), tx.CurrencyCode)
		fmt.Fprintf(writer, "  %s\n", result.ProcessedDescription)

		categoryName := "Uncategorized"
		if result.Category != nil {
			categoryName = result.Category.Name
		}
		fmt.Fprintf(writer, "  Category: %-24s Confidence: %d%%  Source: %s\n", categoryName, result.Confidence, result.SourceModel)

		if result.SourceModel == models.SourceFallback {
			fallbackCount++
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(writer, "  Warning: %s\n", warning)
		}

		if rg.config.IncludeMetadata {
			if result.Metadata.Vendor != "" {
				fmt.Fprintf(writer, "  Vendor: %s\n", result.Metadata.Vendor)
			}
			if result.Metadata.Location != "" {
				fmt.Fprintf(writer, "  Location: %s\n", result.Metadata.Location)
			}
			if len(result.Metadata.Tags) > 0 {
				fmt.Fprintf(writer, "  Tags: %s\n", strings.Join(result.Metadata.Tags, ", "))
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Total: %d  AI: %d  Fallback: %d\n",
		len(report.Entries), len(report.Entries)-fallbackCount, fallbackCount)

	return nil
}

func (rg *ReportGenerator) writeInsightsConsole(report *InsightReport, writer io.Writer) error {
	fmt.Fprintf(writer, "FINANCIAL INSIGHTS\n")
	fmt.Fprintf(writer, "Window: %s to %s\n", report.Window.StartDate.Format("2006-01-02"), report.Window.EndDate.Format("2006-01-02"))
	fmt.Fprintf(writer, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	if len(report.Insights) == 0 {
		fmt.Fprintf(writer, "No insights for this period.\n")
		return nil
	}

	for i, insight := range report.Insights {
		fmt.Fprintf(writer, "%d. [%s] %s (impact: %s, confidence: %d%%)\n",
			i+1, insight.Type, insight.Title, insight.Impact, insight.Confidence)
		fmt.Fprintf(writer, "   %s\n", insight.Description)

		names := make([]string, 0, len(insight.Metrics))
		for name := range insight.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(writer, "   %s: %s\n", name, insight.Metrics[name].String())
		}

		actions := insight.RecommendedActions
		if len(actions) > rg.config.MaxInsightActions {
			actions = actions[:rg.config.MaxInsightActions]
		}
		for _, action := range actions {
			fmt.Fprintf(writer, "   -> %s\n", action.Description)
		}

		if rg.config.IncludeTrendSeries {
			for _, point := range insight.TrendSeries {
				fmt.Fprintf(writer, "   %s: %s\n", point.Date.Format("2006-01-02"), point.Value.String())
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	return nil
}

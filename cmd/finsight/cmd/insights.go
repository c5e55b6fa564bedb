package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/cmd/finsight/config"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/insights"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/reporter"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the insights command
var (
	insightsInput     string
	insightsFormat    string
	insightsOutput    string
	insightsStartDate string
	insightsEndDate   string
	focusAreas        []string
	maxTransactions   int
	sigmaThreshold    float64
	categoryThreshold float64
	showTrendSeries   bool
)

// insightsCmd represents the insights command
var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate financial insights from a CSV file",
	Long: `Insights analyzes a batch of transactions over a date window and produces
financial insights: major spending categories and recurring charges,
statistical anomalies, cash flow health, and tax deduction opportunities.

When no window is given, it is derived from the earliest and latest
transaction dates in the file. The window may span at most one year.

Examples:
  # All insight types over the data's own date range
  finsight insights --input transactions.csv

  # Explicit quarter window, JSON output
  finsight insights --input tx.csv \
    --start-date 2026-01-01 --end-date 2026-03-31 --output-format json

  # Only cash flow and anomalies
  finsight insights --input tx.csv --focus cash_flow,anomalies`,

	PreRunE: validateInsightsFlags,
	RunE:    runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)

	insightsCmd.Flags().StringVarP(&insightsInput, "input", "i", "", "path to transaction CSV file (required)")
	insightsCmd.Flags().StringVarP(&insightsFormat, "output-format", "f", "console", "output format: console, json")
	insightsCmd.Flags().StringVarP(&insightsOutput, "output-file", "o", "", "output file path (default: stdout)")
	insightsCmd.Flags().StringVar(&insightsStartDate, "start-date", "", "analysis window start (YYYY-MM-DD)")
	insightsCmd.Flags().StringVar(&insightsEndDate, "end-date", "", "analysis window end (YYYY-MM-DD)")
	insightsCmd.Flags().StringSliceVar(&focusAreas, "focus", nil,
		"comma-separated insight types: spending_trends, anomalies, cash_flow, recommendations")
	insightsCmd.Flags().IntVar(&maxTransactions, "max-transactions", 0, "cap on transactions analyzed per call")
	insightsCmd.Flags().Float64Var(&sigmaThreshold, "sigma-threshold", 0, "z-score threshold for anomaly detection")
	insightsCmd.Flags().Float64Var(&categoryThreshold, "category-threshold", 0, "percent of spending that makes a category major")
	insightsCmd.Flags().BoolVar(&showTrendSeries, "trend-series", false, "include daily trend series in output")

	insightsCmd.MarkFlagRequired("input")

	viper.BindPFlag("insights-input", insightsCmd.Flags().Lookup("input"))
	viper.BindPFlag("insights-output-format", insightsCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("focus", insightsCmd.Flags().Lookup("focus"))
}

func validateInsightsFlags(cmd *cobra.Command, args []string) error {
	if err := validateInputFile(insightsInput, "transaction file"); err != nil {
		return err
	}

	if err := validateOutputFormat(insightsFormat); err != nil {
		return err
	}

	if err := validateDateFlag("start-date", insightsStartDate); err != nil {
		return err
	}
	if err := validateDateFlag("end-date", insightsEndDate); err != nil {
		return err
	}

	if err := validateFocusAreas(focusAreas); err != nil {
		return err
	}

	return validateOutputPath(insightsOutput)
}

func validateDateFlag(name, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid %s format. Use YYYY-MM-DD: %w", name, err)
	}
	return nil
}

// validateFocusAreas rejects focus values that name no insight type.
func validateFocusAreas(areas []string) error {
	for _, area := range areas {
		if _, ok := models.ParseInsightType(area); !ok {
			return fmt.Errorf("unknown focus area '%s'. Valid areas: %s",
				area, strings.Join(insightTypeNames(), ", "))
		}
	}
	return nil
}

func insightTypeNames() []string {
	types := models.AllInsightTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

// resolveWindow builds the analysis window from the date flags, falling
// back to the span of the transaction batch itself. The derived end is
// pushed to the start of the next day so the latest transaction falls
// inside the window.
func resolveWindow(startDate, endDate string, transactions []models.Transaction) (models.InsightWindow, error) {
	var window models.InsightWindow

	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return window, err
		}
		window.StartDate = t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return window, err
		}
		// End of the named day.
		window.EndDate = t.Add(24*time.Hour - time.Second)
	}

	if window.StartDate.IsZero() || window.EndDate.IsZero() {
		if len(transactions) == 0 {
			return window, fmt.Errorf("no transactions to derive a window from; use --start-date and --end-date")
		}
		earliest, latest := transactions[0].OccurredAt, transactions[0].OccurredAt
		for _, tx := range transactions[1:] {
			if tx.OccurredAt.Before(earliest) {
				earliest = tx.OccurredAt
			}
			if tx.OccurredAt.After(latest) {
				latest = tx.OccurredAt
			}
		}
		if window.StartDate.IsZero() {
			window.StartDate = earliest.Truncate(24 * time.Hour)
		}
		if window.EndDate.IsZero() {
			window.EndDate = latest.Truncate(24 * time.Hour).Add(24*time.Hour - time.Second)
		}
	}

	return window, nil
}

func runInsights(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger().WithComponent("insights")

	transactions, stats, err := parseTransactions(ctx, insightsInput)
	if err != nil {
		return err
	}
	reportParseStats(stats)

	window, err := resolveWindow(insightsStartDate, insightsEndDate, transactions)
	if err != nil {
		return err
	}

	engineConfig := config.CreateEngineConfig(0, maxTransactions, sigmaThreshold, categoryThreshold)
	orchestrator, err := insights.NewOrchestrator(engineConfig, log)
	if err != nil {
		return err
	}

	results, err := orchestrator.GenerateInsights(transactions, window, focusAreas)
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(insightsFormat, false)
	if err != nil {
		return err
	}
	reportConfig.IncludeTrendSeries = showTrendSeries

	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	output, cleanup, err := openOutput(insightsOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	report := &reporter.InsightReport{
		GeneratedAt: time.Now().UTC(),
		Window:      window,
		Insights:    results,
	}
	if err := generator.WriteInsights(report, output); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nAnalyzed %d transactions over %d days, produced %d insights.\n",
			len(transactions), window.Days(), len(results))
	}
	return nil
}

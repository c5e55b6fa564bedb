package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/cmd/finsight/config"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/aiclient"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/cache"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/engine"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/parsers"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/reporter"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/rules"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the categorize command
var (
	categorizeInput   string
	categorizeFormat  string
	categorizeOutput  string
	categoriesFile    string
	defaultCurrency   string
	csvDelimiter      string
	aiModel           string
	aiTimeout         time.Duration
	aiMaxRetries      int
	cacheScope        string
	offlineMode       bool
	includeTxMetadata bool
)

// categorizeCmd represents the categorize command
var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize transactions from a CSV file",
	Long: `Categorize reads transactions from a CSV export and assigns each one a
bookkeeping category. The Gemini API produces the primary categorization;
when it is unavailable, a rule-based fallback takes over and the result is
flagged with a warning.

The CSV file needs description, amount, and date columns (common header
aliases are recognized). Optional columns: currency, type, category.

Examples:
  # Categorize with the AI service (needs GEMINI_API_KEY)
  finsight categorize --input transactions.csv

  # Rules only, no network calls
  finsight categorize --input transactions.csv --offline

  # JSON output with user-defined categories
  finsight categorize --input tx.csv --categories my-categories.json \
    --output-format json --output-file results.json`,

	PreRunE: validateCategorizeFlags,
	RunE:    runCategorize,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)

	categorizeCmd.Flags().StringVarP(&categorizeInput, "input", "i", "", "path to transaction CSV file (required)")
	categorizeCmd.Flags().StringVarP(&categorizeFormat, "output-format", "f", "console", "output format: console, json")
	categorizeCmd.Flags().StringVarP(&categorizeOutput, "output-file", "o", "", "output file path (default: stdout)")
	categorizeCmd.Flags().StringVar(&categoriesFile, "categories", "", "JSON file with user-defined categories")
	categorizeCmd.Flags().StringVar(&defaultCurrency, "currency", "USD", "currency code for rows without one")
	categorizeCmd.Flags().StringVar(&csvDelimiter, "delimiter", ",", "CSV field delimiter")
	categorizeCmd.Flags().StringVar(&aiModel, "model", aiclient.DefaultModel, "Gemini model name")
	categorizeCmd.Flags().DurationVar(&aiTimeout, "ai-timeout", 30*time.Second, "per-transaction AI call deadline")
	categorizeCmd.Flags().IntVar(&aiMaxRetries, "max-retries", 3, "AI call retries before falling back")
	categorizeCmd.Flags().StringVar(&cacheScope, "scope", "cli", "cache scope identifier")
	categorizeCmd.Flags().BoolVar(&offlineMode, "offline", false, "skip the AI service and use rules only")
	categorizeCmd.Flags().BoolVar(&includeTxMetadata, "metadata", true, "include extracted vendor/location/tags in output")

	categorizeCmd.MarkFlagRequired("input")

	viper.BindPFlag("input", categorizeCmd.Flags().Lookup("input"))
	viper.BindPFlag("output-format", categorizeCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", categorizeCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("model", categorizeCmd.Flags().Lookup("model"))
	viper.BindPFlag("offline", categorizeCmd.Flags().Lookup("offline"))
}

func validateCategorizeFlags(cmd *cobra.Command, args []string) error {
	if err := validateInputFile(categorizeInput, "transaction file"); err != nil {
		return err
	}

	if err := validateOutputFormat(categorizeFormat); err != nil {
		return err
	}

	if categoriesFile != "" {
		if err := validateInputFile(categoriesFile, "categories file"); err != nil {
			return err
		}
	}

	return validateOutputPath(categorizeOutput)
}

// validateInputFile checks that path names a readable regular file.
func validateInputFile(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func validateOutputFormat(format string) error {
	valid := map[string]bool{"console": true, "json": true}
	if !valid[format] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", format)
	}
	return nil
}

// validateOutputPath checks that the directory of the output file exists.
func validateOutputPath(outputFile string) error {
	if outputFile == "" {
		return nil
	}
	dir := filepath.Dir(outputFile)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

func runCategorize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger().WithComponent("categorize")

	transactions, stats, err := parseTransactions(ctx, categorizeInput)
	if err != nil {
		return err
	}
	reportParseStats(stats)

	signal, err := config.BuildCategorySignal(categoriesFile)
	if err != nil {
		return err
	}

	entries, err := categorizeBatch(ctx, transactions, signal, log)
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(categorizeFormat, includeTxMetadata)
	if err != nil {
		return err
	}
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	output, cleanup, err := openOutput(categorizeOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	report := &reporter.CategorizationReport{
		GeneratedAt: time.Now().UTC(),
		Entries:     entries,
	}
	return generator.WriteCategorizations(report, output)
}

// categorizeBatch runs every transaction through the engine, or through
// the rule categorizer alone in offline mode.
func categorizeBatch(ctx context.Context, transactions []models.Transaction, signal models.CategorySignal, log logger.Logger) ([]reporter.CategorizedEntry, error) {
	fallback := rules.NewCategorizer(log)

	if offlineMode {
		entries := make([]reporter.CategorizedEntry, 0, len(transactions))
		for _, tx := range transactions {
			entries = append(entries, reporter.CategorizedEntry{
				Transaction: tx,
				Result:      fallback.Categorize(tx, signal),
			})
		}
		return entries, nil
	}

	engineConfig := config.CreateEngineConfig(aiTimeout, 0, 0, 0)
	classifier, err := aiclient.NewGeminiClassifier(ctx,
		config.CreateClassifierConfig(aiModel, aiMaxRetries), log)
	if err != nil {
		return nil, err
	}

	resultCache := cache.New(engineConfig.CacheTTL, engineConfig.CacheSweepInterval)
	defer resultCache.Shutdown()

	eng, err := engine.New(classifier, fallback, resultCache, engineConfig, log)
	if err != nil {
		return nil, err
	}

	entries := make([]reporter.CategorizedEntry, 0, len(transactions))
	for i, tx := range transactions {
		catCtx := engine.CategorizationContext{
			Scope:  cacheScope,
			Signal: signal,
			Recent: transactions[:i],
		}
		result, err := eng.CategorizeTransaction(ctx, tx, catCtx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, reporter.CategorizedEntry{
			Transaction: tx,
			Result:      result,
		})
	}
	return entries, nil
}

// parseTransactions reads and validates the CSV input.
func parseTransactions(ctx context.Context, inputFile string) ([]models.Transaction, *parsers.Stats, error) {
	parserConfig, err := config.CreateParserConfig(csvDelimiter, defaultCurrency)
	if err != nil {
		return nil, nil, err
	}

	parser, err := parsers.NewTransactionParser(parserConfig, logger.GetGlobalLogger())
	if err != nil {
		return nil, nil, err
	}

	return parser.ParseFile(ctx, inputFile)
}

// reportParseStats surfaces row-level parse problems on stderr without
// aborting the run.
func reportParseStats(stats *parsers.Stats) {
	if stats == nil {
		return
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "%s\n", stats.String())
	}
	if stats.HasErrors() {
		fmt.Fprintf(os.Stderr, "Warning: %d rows skipped due to errors:\n", len(stats.Errors))
		for _, sample := range stats.SampleErrors(5) {
			fmt.Fprintf(os.Stderr, "  %s\n", sample)
		}
	}
}

// openOutput returns the report destination and a cleanup func.
func openOutput(outputFile string) (*os.File, func(), error) {
	if outputFile == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

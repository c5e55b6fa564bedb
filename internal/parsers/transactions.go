// Package parsers loads transaction batches from CSV files. It tolerates
// the usual real-world variation: different column names, several date
// formats, currency symbols and thousands separators in amounts, and rows
// that fail validation without aborting the whole file.
package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/logger"
)

// ParseError records a single bad row. The file keeps parsing; callers
// inspect Stats for the collected errors.
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d, %s=%q: %s", e.Line, e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Stats summarizes a parse run.
type Stats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	Errors        []*ParseError
}

func (s *Stats) addError(err *ParseError) {
	s.Errors = append(s.Errors, err)
}

// HasErrors returns true when any row failed to parse or validate.
func (s *Stats) HasErrors() bool {
	return len(s.Errors) > 0
}

func (s *Stats) String() string {
	return fmt.Sprintf("parsed %d lines, %d records (%d valid), %d errors",
		s.TotalLines, s.RecordsParsed, s.RecordsValid, len(s.Errors))
}

// SampleErrors returns up to max error messages for logging.
func (s *Stats) SampleErrors(max int) []string {
	var samples []string
	for i, err := range s.Errors {
		if i >= max {
			break
		}
		samples = append(samples, err.Error())
	}
	return samples
}

// columnAliases maps each logical field to the header names it may appear
// under, lowercased. The first alias found in the header row wins.
var columnAliases = map[string][]string{
	"description": {"description", "desc", "memo", "narrative", "details"},
	"amount":      {"amount", "value", "amt"},
	"currency":    {"currency", "currency_code", "ccy"},
	"type":        {"type", "transaction_type", "direction"},
	"date":        {"date", "transaction_date", "occurred_at", "posted_date"},
	"category":    {"category", "category_name"},
}

// dateFormats are tried in order when parsing the date column.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Config controls CSV interpretation.
type Config struct {
	// HasHeader indicates the first row names the columns.
	HasHeader bool

	// Delimiter separates fields, comma by default.
	Delimiter rune

	// DefaultCurrency fills in rows with no currency column.
	DefaultCurrency string

	// DefaultType fills in rows with no type column; negative amounts
	// still force expense.
	DefaultType models.TransactionType
}

// DefaultConfig returns the standard CSV settings.
func DefaultConfig() *Config {
	return &Config{
		HasHeader:       true,
		Delimiter:       ',',
		DefaultCurrency: "USD",
		DefaultType:     models.TransactionTypeExpense,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !c.HasHeader {
		return errors.ConfigError("has_header", c.HasHeader, "headerless files are not supported")
	}
	if c.Delimiter == 0 {
		return errors.ConfigError("delimiter", c.Delimiter, "delimiter must be set")
	}
	if len(c.DefaultCurrency) != 3 {
		return errors.ConfigError("default_currency", c.DefaultCurrency, "must be a 3-letter ISO code")
	}
	if !c.DefaultType.IsValid() {
		return errors.ConfigError("default_type", c.DefaultType, "must be income or expense")
	}
	return nil
}

// TransactionParser reads transaction CSV files.
type TransactionParser struct {
	config *Config
	logger logger.Logger
}

// NewTransactionParser creates a parser. A nil config uses defaults.
func NewTransactionParser(config *Config, log logger.Logger) (*TransactionParser, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &TransactionParser{
		config: config,
		logger: log.WithComponent("parsers"),
	}, nil
}

// ParseFile parses a transaction CSV file. Row-level problems are
// collected in Stats; only file-level failures (missing file, no usable
// header) return an error.
func (p *TransactionParser) ParseFile(ctx context.Context, filePath string) ([]models.Transaction, *Stats, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, errors.ValidationError(errors.CodeMissingField, "file", filePath, "cannot open file").
			WithSuggestion("Check that the file exists and is readable")
	}
	defer file.Close()

	return p.Parse(ctx, file)
}

// Parse parses transaction CSV data from a reader.
func (p *TransactionParser) Parse(ctx context.Context, r io.Reader) ([]models.Transaction, *Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	stats := &Stats{}

	columns, err := p.readHeader(reader)
	if err != nil {
		return nil, stats, err
	}
	stats.TotalLines = 1

	var transactions []models.Transaction
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return transactions, stats, errors.Wrap(ctxErr, errors.CategoryInternal, errors.CodeUnexpectedError, "parsing cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.TotalLines++
		if err != nil {
			stats.addError(&ParseError{Line: stats.TotalLines, Message: err.Error()})
			continue
		}
		if isEmptyRecord(record) {
			continue
		}
		stats.RecordsParsed++

		tx, perr := p.parseRecord(record, columns, stats.TotalLines)
		if perr != nil {
			stats.addError(perr)
			continue
		}
		if err := tx.Validate(); err != nil {
			stats.addError(&ParseError{
				Line:    stats.TotalLines,
				Message: errors.FieldMessage(err),
			})
			continue
		}

		transactions = append(transactions, tx)
		stats.RecordsValid++
	}

	p.logger.WithFields(logger.Fields{
		"total_lines":   stats.TotalLines,
		"records_valid": stats.RecordsValid,
		"error_count":   len(stats.Errors),
	}).Info("transaction parsing complete")
	if stats.HasErrors() {
		rowErrs := make([]error, len(stats.Errors))
		for i, perr := range stats.Errors {
			rowErrs[i] = perr
		}
		p.logger.WithField("detail", errors.JoinMessages(rowErrs)).Warn("some rows failed to parse")
	}

	return transactions, stats, nil
}

// readHeader maps logical field names to column indices using the alias
// table. Description, amount, and date are mandatory.
func (p *TransactionParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	headers, err := reader.Read()
	if err != nil {
		return nil, errors.EmptyInputError("csv header").
			WithSuggestion("Ensure the file contains a header row and data rows")
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	columns := make(map[string]int)
	for field, aliases := range columnAliases {
		columns[field] = -1
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				columns[field] = i
				break
			}
		}
	}

	for _, required := range []string{"description", "amount", "date"} {
		if columns[required] == -1 {
			return nil, errors.ValidationError(errors.CodeMissingField, required, strings.Join(headers, ","), "required column not found").
				WithSuggestion(fmt.Sprintf("Accepted header names: %s", strings.Join(columnAliases[required], ", ")))
		}
	}

	return columns, nil
}

func (p *TransactionParser) parseRecord(record []string, columns map[string]int, line int) (models.Transaction, *ParseError) {
	tx := models.Transaction{
		Description:  fieldValue(record, columns["description"]),
		CurrencyCode: p.config.DefaultCurrency,
		CategoryName: fieldValue(record, columns["category"]),
	}

	if currency := fieldValue(record, columns["currency"]); currency != "" {
		tx.CurrencyCode = strings.ToUpper(currency)
	}

	amountStr := fieldValue(record, columns["amount"])
	amount, negative, err := parseAmount(amountStr)
	if err != nil {
		return tx, &ParseError{Line: line, Field: "amount", Value: amountStr, Message: err.Error()}
	}
	tx.Amount = amount

	tx.Type = p.config.DefaultType
	if typeStr := fieldValue(record, columns["type"]); typeStr != "" {
		parsed, err := models.ParseTransactionType(typeStr)
		if err != nil {
			return tx, &ParseError{Line: line, Field: "type", Value: typeStr, Message: err.Error()}
		}
		tx.Type = parsed
	} else if negative {
		tx.Type = models.TransactionTypeExpense
	}

	dateStr := fieldValue(record, columns["date"])
	occurredAt, err := parseDate(dateStr)
	if err != nil {
		return tx, &ParseError{Line: line, Field: "date", Value: dateStr, Message: err.Error()}
	}
	tx.OccurredAt = occurredAt

	return tx, nil
}

func fieldValue(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// parseAmount converts a display amount like "$1,234.56" or "-59.99" into
// minor units, reporting whether the raw value was negative.
func parseAmount(raw string) (int64, bool, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimPrefix(cleaned, "€")
	cleaned = strings.TrimPrefix(cleaned, "£")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "" {
		return 0, false, fmt.Errorf("amount is empty")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false, fmt.Errorf("amount is not a number")
	}

	negative := d.IsNegative()
	minor := d.Abs().Shift(2).Round(0).IntPart()
	return minor, negative, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

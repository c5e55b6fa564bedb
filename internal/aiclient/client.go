// Package aiclient is the adapter to the external language-model provider.
// It builds a categorization prompt, requests structured JSON output, and
// validates the parsed response. It never falls back to rules itself; when
// the provider is unreachable or returns garbage it reports a typed error
// and leaves the fallback decision to the orchestrator.
package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/logger"
)

// Classifier categorizes a single transaction given the available category
// list and a bounded window of recent transactions for context.
type Classifier interface {
	Categorize(ctx context.Context, tx models.Transaction, signal models.CategorySignal, recent []models.Transaction) (*models.CategorizationResult, error)
}

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// maxRecentTransactions bounds how much recent-transaction context goes
// into the prompt to keep cost and latency predictable.
const maxRecentTransactions = 10

// requestTemperature biases the model toward deterministic, parseable
// output.
const requestTemperature = 0.1

// Config holds provider settings for the Gemini-backed classifier.
type Config struct {
	// Model is the Gemini model name.
	Model string

	// MaxRetries bounds transport-level retries before the call is
	// reported as service-unavailable.
	MaxRetries int

	// RetryBackoff is the initial delay between retries; it doubles on
	// each attempt.
	RetryBackoff time.Duration
}

// DefaultConfig returns provider settings with standard values.
func DefaultConfig() Config {
	return Config{
		Model:        DefaultModel,
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Model == "" {
		return errors.ConfigError("model", c.Model, "model name must not be empty")
	}
	if c.MaxRetries < 1 {
		return errors.ConfigError("max_retries", c.MaxRetries, "must be at least 1")
	}
	if c.RetryBackoff <= 0 {
		return errors.ConfigError("retry_backoff", c.RetryBackoff, "must be positive")
	}
	return nil
}

// contentGenerator is the slice of the genai client the classifier uses,
// extracted so tests can substitute a fake transport.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiModels struct {
	client *genai.Client
}

func (g genaiModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, model, contents, config)
}

// GeminiClassifier implements Classifier against the Gemini API.
type GeminiClassifier struct {
	generator contentGenerator
	config    Config
	logger    logger.Logger
}

// NewGeminiClassifier creates a classifier backed by the Gemini API. The
// API key is read from the environment by the underlying client
// (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGeminiClassifier(ctx context.Context, config Config, log logger.Logger) (*GeminiClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, errors.ServiceUnavailableError("create genai client", err)
	}

	return &GeminiClassifier{
		generator: genaiModels{client: client},
		config:    config,
		logger:    log.WithComponent("aiclient"),
	}, nil
}

// Categorize sends the transaction to the model and parses the structured
// response. Transport failures after retries surface as
// ServiceUnavailableError; unparseable or invalid responses as
// MalformedResponseError.
func (g *GeminiClassifier) Categorize(ctx context.Context, tx models.Transaction, signal models.CategorySignal, recent []models.Transaction) (*models.CategorizationResult, error) {
	prompt := buildPrompt(tx, signal, recent)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](requestTemperature),
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	backoff := g.config.RetryBackoff
	for attempt := 1; attempt <= g.config.MaxRetries; attempt++ {
		resp, err := g.generator.GenerateContent(ctx, g.config.Model, contents, genConfig)
		if err == nil {
			raw := resp.Text()
			if raw == "" {
				return nil, errors.MalformedResponseError("empty response from model", nil)
			}
			result, perr := ParseResponse(raw, tx.Type, signal)
			if perr != nil {
				return nil, perr
			}
			categoryName := ""
			if result.Category != nil {
				categoryName = result.Category.Name
			}
			g.logger.WithFields(logger.Fields{
				"category":      categoryName,
				"uncategorized": result.Uncategorized,
				"confidence":    result.Confidence,
				"attempt":       attempt,
			}).Debug("model categorization succeeded")
			return result, nil
		}

		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.TimeoutError("ai categorization", ctxErr)
		}

		g.logger.WithError(err).WithField("attempt", attempt).Warn("model call failed")
		if attempt < g.config.MaxRetries {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return nil, errors.TimeoutError("ai categorization", ctx.Err())
			}
		}
	}

	return nil, errors.ServiceUnavailableError("ai categorization", lastErr).
		WithContext("attempts", g.config.MaxRetries)
}

// aiResponse is the JSON shape the model is instructed to return.
type aiResponse struct {
	Category             string   `json:"category"`
	Uncategorized        bool     `json:"uncategorized"`
	Confidence           *int     `json:"confidence"`
	ProcessedDescription string   `json:"processedDescription"`
	Vendor               string   `json:"vendor"`
	Location             string   `json:"location"`
	Tags                 []string `json:"tags"`
	Suggestions          []struct {
		Type       string `json:"type"`
		Value      string `json:"value"`
		Confidence int    `json:"confidence"`
	} `json:"suggestions"`
}

// buildPrompt assembles the categorization instructions, the available
// categories, and up to maxRecentTransactions of recent context.
func buildPrompt(tx models.Transaction, signal models.CategorySignal, recent []models.Transaction) string {
	var b strings.Builder

	b.WriteString("You are a transaction categorizer for business finance tracking.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign the transaction below to the most appropriate category.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no extra text).\n")
	b.WriteString("- Output a single JSON object with these fields:\n")
	b.WriteString("  - \"category\": string (one of the available categories, or \"\" if none fits)\n")
	b.WriteString("  - \"uncategorized\": boolean (true only when no category fits)\n")
	b.WriteString("  - \"confidence\": integer 0-100\n")
	b.WriteString("  - \"processedDescription\": string (cleaned, title-cased description)\n")
	b.WriteString("  - \"vendor\": string or \"\"\n")
	b.WriteString("  - \"location\": string or \"\"\n")
	b.WriteString("  - \"tags\": array of short lowercase strings\n")
	b.WriteString("  - \"suggestions\": array of {\"type\", \"value\", \"confidence\"} objects, may be empty\n\n")

	b.WriteString("Available categories:\n")
	for _, cat := range signal.ForType(tx.Type) {
		fmt.Fprintf(&b, "- %s (%s)\n", cat.Name, cat.Type)
	}

	if len(recent) > 0 {
		if len(recent) > maxRecentTransactions {
			recent = recent[:maxRecentTransactions]
		}
		b.WriteString("\nRecent transactions for context:\n")
		for _, r := range recent {
			fmt.Fprintf(&b, "- %s | %s %s | %s | %s\n",
				r.Description, r.AmountMajor().StringFixed(2), r.CurrencyCode, r.Type, r.CategoryName)
		}
	}

	b.WriteString("\nTransaction to categorize:\n")
	fmt.Fprintf(&b, "- description: %s\n", tx.Description)
	fmt.Fprintf(&b, "- amount: %s %s\n", tx.AmountMajor().StringFixed(2), tx.CurrencyCode)
	fmt.Fprintf(&b, "- type: %s\n", tx.Type)
	fmt.Fprintf(&b, "- date: %s\n", tx.OccurredAt.Format("2006-01-02"))

	b.WriteString("\nReturn ONLY valid raw JSON. Do NOT wrap the response in code fences.\n")

	return b.String()
}

// ParseResponse parses and validates the model's JSON reply, resolving the
// returned category name against the signal list.
func ParseResponse(raw string, txType models.TransactionType, signal models.CategorySignal) (*models.CategorizationResult, error) {
	clean := cleanModelJSON(raw)

	var parsed aiResponse
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, errors.MalformedResponseError("response is not valid JSON", err).
			WithContext("raw", truncate(raw, 200))
	}

	if parsed.Confidence == nil {
		return nil, errors.MalformedResponseError("confidence field is missing", nil)
	}
	if *parsed.Confidence < 0 || *parsed.Confidence > 100 {
		return nil, errors.MalformedResponseError("confidence out of range", nil).
			WithContext("confidence", *parsed.Confidence)
	}
	if parsed.ProcessedDescription == "" {
		return nil, errors.MalformedResponseError("processedDescription field is missing", nil)
	}
	if parsed.Category == "" && !parsed.Uncategorized {
		return nil, errors.MalformedResponseError("category is empty without uncategorized flag", nil)
	}

	result := &models.CategorizationResult{
		Uncategorized:        parsed.Uncategorized,
		Confidence:           *parsed.Confidence,
		ProcessedDescription: parsed.ProcessedDescription,
		Metadata: models.ExtractedMetadata{
			Vendor:   parsed.Vendor,
			Location: parsed.Location,
			Tags:     parsed.Tags,
		},
		SourceModel: models.SourceAI,
	}

	if parsed.Category != "" {
		if known, ok := signal.FindByName(parsed.Category, txType); ok {
			result.Category = &known
		} else {
			result.Category = &models.Category{Name: parsed.Category, Type: txType}
		}
	}

	for _, s := range parsed.Suggestions {
		result.Suggestions = append(result.Suggestions, models.Suggestion{
			Type:       s.Type,
			Value:      s.Value,
			Confidence: s.Confidence,
		})
	}

	if err := result.Validate(); err != nil {
		return nil, errors.MalformedResponseError("response failed validation", err)
	}

	return result, nil
}

// cleanModelJSON strips Markdown code fences and surrounding junk the model
// sometimes emits despite instructions, keeping only the outermost JSON
// object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/reporter"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
)

func TestDefaultCategories(t *testing.T) {
	categories := DefaultCategories()
	if len(categories) == 0 {
		t.Fatal("expected a non-empty default category set")
	}

	seen := make(map[string]bool)
	var hasExpense, hasIncome bool
	for _, cat := range categories {
		if cat.ID == "" {
			t.Errorf("category %q has an empty ID", cat.Name)
		}
		key := cat.ID + "|" + string(cat.Type)
		if seen[key] {
			t.Errorf("duplicate category ID %q", cat.ID)
		}
		seen[key] = true

		switch cat.Type {
		case models.TransactionTypeExpense:
			hasExpense = true
		case models.TransactionTypeIncome:
			hasIncome = true
		default:
			t.Errorf("category %q has invalid type %q", cat.Name, cat.Type)
		}
	}
	if !hasExpense || !hasIncome {
		t.Error("default categories should cover both expense and income")
	}

	// Fallback results must resolve against the defaults.
	signal := models.NewCategorySignal(nil, categories)
	for _, name := range []string{"Software", "Other Expenses"} {
		if _, ok := signal.FindByName(name, models.TransactionTypeExpense); !ok {
			t.Errorf("expected default category %q to be findable", name)
		}
	}
	if _, ok := signal.FindByName("Other Income", models.TransactionTypeIncome); !ok {
		t.Error("expected default category \"Other Income\" to be findable")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Software", want: "software"},
		{name: "Office Supplies", want: "office-supplies"},
		{name: "Meals & Entertainment", want: "meals-and-entertainment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slugify(tt.name); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoadCategories(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile := func(t *testing.T, name, content string) string {
		t.Helper()
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
		return path
	}

	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, "valid.json", `[
			{"id": "cloud-hosting", "name": "Cloud Hosting", "type": "expense"},
			{"name": "Consulting Revenue", "type": "income"}
		]`)

		categories, err := LoadCategories(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(categories) != 2 {
			t.Fatalf("expected 2 categories, got %d", len(categories))
		}
		if categories[0].ID != "cloud-hosting" {
			t.Errorf("expected explicit ID to be kept, got %q", categories[0].ID)
		}
		if categories[1].ID != "consulting-revenue" {
			t.Errorf("expected derived ID consulting-revenue, got %q", categories[1].ID)
		}
		if categories[1].Type != models.TransactionTypeIncome {
			t.Errorf("unexpected type %q", categories[1].Type)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCategories(filepath.Join(tmpDir, "absent.json"))
		if err == nil {
			t.Fatal("expected error but got none")
		}
		if engineErr, ok := errors.AsEngineError(err); !ok || engineErr.Category != errors.CategoryConfig {
			t.Errorf("expected a configuration error, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeFile(t, "broken.json", `{"not": "an array"}`)
		if _, err := LoadCategories(path); err == nil {
			t.Fatal("expected error but got none")
		}
	})

	t.Run("empty name", func(t *testing.T) {
		path := writeFile(t, "noname.json", `[{"name": "  ", "type": "expense"}]`)
		if _, err := LoadCategories(path); err == nil {
			t.Fatal("expected error but got none")
		}
	})

	t.Run("bad type", func(t *testing.T) {
		path := writeFile(t, "badtype.json", `[{"name": "Misc", "type": "transfer"}]`)
		if _, err := LoadCategories(path); err == nil {
			t.Fatal("expected error but got none")
		}
	})
}

func TestBuildCategorySignal(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		signal, err := BuildCategorySignal("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(signal.Categories) != len(DefaultCategories()) {
			t.Errorf("expected the default set, got %d categories", len(signal.Categories))
		}
	})

	t.Run("user categories take precedence", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "categories.json")
		content := `[{"id": "custom-software", "name": "Software", "type": "expense"}]`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}

		signal, err := BuildCategorySignal(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		found, ok := signal.FindByName("Software", models.TransactionTypeExpense)
		if !ok {
			t.Fatal("expected Software category to be present")
		}
		if found.ID != "custom-software" {
			t.Errorf("expected the user entry to win, got ID %q", found.ID)
		}
	})
}

func TestCreateParserConfig(t *testing.T) {
	tests := []struct {
		name        string
		delimiter   string
		currency    string
		expectError bool
	}{
		{name: "defaults", delimiter: "", currency: "", expectError: false},
		{name: "semicolon delimiter", delimiter: ";", currency: "EUR", expectError: false},
		{name: "lowercase currency normalized", delimiter: ",", currency: "gbp", expectError: false},
		{name: "multi-char delimiter", delimiter: "||", currency: "USD", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateParserConfig(tt.delimiter, tt.currency)

			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.currency == "gbp" && config.DefaultCurrency != "GBP" {
				t.Errorf("expected currency to be uppercased, got %q", config.DefaultCurrency)
			}
			if tt.delimiter == ";" && config.Delimiter != ';' {
				t.Errorf("expected semicolon delimiter, got %q", config.Delimiter)
			}
		})
	}
}

func TestCreateEngineConfig(t *testing.T) {
	t.Run("zero values keep defaults", func(t *testing.T) {
		config := CreateEngineConfig(0, 0, 0, 0)
		if err := config.Validate(); err != nil {
			t.Fatalf("default config should validate: %v", err)
		}
		if config.AITimeout != 30*time.Second {
			t.Errorf("unexpected AI timeout: %v", config.AITimeout)
		}
	})

	t.Run("overrides applied", func(t *testing.T) {
		config := CreateEngineConfig(10*time.Second, 500, 3.0, 40)
		if config.AITimeout != 10*time.Second {
			t.Errorf("unexpected AI timeout: %v", config.AITimeout)
		}
		if config.MaxTransactionsPerInsightCall != 500 {
			t.Errorf("unexpected batch cap: %d", config.MaxTransactionsPerInsightCall)
		}
		if config.AnomalySigmaThreshold != 3.0 {
			t.Errorf("unexpected sigma threshold: %v", config.AnomalySigmaThreshold)
		}
		if config.MajorCategoryPercentThreshold != 40 {
			t.Errorf("unexpected category threshold: %v", config.MajorCategoryPercentThreshold)
		}
		if err := config.Validate(); err != nil {
			t.Fatalf("overridden config should validate: %v", err)
		}
	})
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format      string
		want        reporter.OutputFormat
		expectError bool
	}{
		{format: "console", want: reporter.FormatConsole},
		{format: "", want: reporter.FormatConsole},
		{format: "json", want: reporter.FormatJSON},
		{format: "yaml", expectError: true},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			config, err := CreateReportConfig(tt.format, true)

			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Format != tt.want {
				t.Errorf("expected format %q, got %q", tt.want, config.Format)
			}
			if !config.IncludeMetadata {
				t.Error("expected metadata to be included")
			}
		})
	}
}

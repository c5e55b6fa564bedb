package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/cache"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/rules"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/logger"
)

// fakeClassifier scripts AI outcomes and counts calls.
type fakeClassifier struct {
	result *models.CategorizationResult
	err    error
	calls  int
}

func (f *fakeClassifier) Categorize(ctx context.Context, tx models.Transaction, signal models.CategorySignal, recent []models.Transaction) (*models.CategorizationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testSignal() models.CategorySignal {
	return models.NewCategorySignal(nil, []models.Category{
		{ID: "c1", Name: "Software", Type: models.TransactionTypeExpense},
		{ID: "c2", Name: "Other Expenses", Type: models.TransactionTypeExpense},
	})
}

func testTransaction(description string) models.Transaction {
	return models.Transaction{
		Description:  description,
		Amount:       5999,
		CurrencyCode: "USD",
		Type:         models.TransactionTypeExpense,
		OccurredAt:   time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func aiResult() *models.CategorizationResult {
	return &models.CategorizationResult{
		Category:             &models.Category{ID: "c1", Name: "Software", Type: models.TransactionTypeExpense},
		Confidence:           85,
		ProcessedDescription: "Adobe Creative Cloud Monthly Subscription",
		SourceModel:          models.SourceAI,
	}
}

func newTestEngine(t *testing.T, classifier *fakeClassifier) *Engine {
	t.Helper()

	resultCache := cache.New(5*time.Minute, time.Hour)
	t.Cleanup(resultCache.Shutdown)

	e, err := New(classifier, rules.NewCategorizer(logger.Nop()), resultCache, nil, logger.Nop())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return e
}

func testContext() CategorizationContext {
	return CategorizationContext{Scope: "s1", Signal: testSignal()}
}

func TestCategorizeTransactionAISuccess(t *testing.T) {
	classifier := &fakeClassifier{result: aiResult()}
	e := newTestEngine(t, classifier)

	result, err := e.CategorizeTransaction(context.Background(), testTransaction("Adobe Creative Cloud monthly subscription"), testContext())
	if err != nil {
		t.Fatalf("CategorizeTransaction() unexpected error: %v", err)
	}
	if result.SourceModel != models.SourceAI {
		t.Errorf("sourceModel = %q, want %q", result.SourceModel, models.SourceAI)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", result.Warnings)
	}
}

// A valid AI response may decline to pick a category. That is still a
// successful categorization, not a fallback case.
func TestCategorizeTransactionAIUncategorized(t *testing.T) {
	classifier := &fakeClassifier{result: &models.CategorizationResult{
		Uncategorized:        true,
		Confidence:           30,
		ProcessedDescription: "Mystery Charge",
		SourceModel:          models.SourceAI,
	}}
	e := newTestEngine(t, classifier)

	result, err := e.CategorizeTransaction(context.Background(), testTransaction("mystery charge 8841"), testContext())
	if err != nil {
		t.Fatalf("CategorizeTransaction() unexpected error: %v", err)
	}
	if result.Category != nil {
		t.Errorf("category = %+v, want nil", result.Category)
	}
	if !result.Uncategorized {
		t.Error("Uncategorized flag not set")
	}
	if result.SourceModel != models.SourceAI {
		t.Errorf("sourceModel = %q, want %q", result.SourceModel, models.SourceAI)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", result.Warnings)
	}
}

func TestCategorizeTransactionValidationPropagates(t *testing.T) {
	classifier := &fakeClassifier{result: aiResult()}
	e := newTestEngine(t, classifier)

	tests := []struct {
		name   string
		modify func(*models.Transaction)
	}{
		{name: "empty description", modify: func(tx *models.Transaction) { tx.Description = "" }},
		{name: "zero amount", modify: func(tx *models.Transaction) { tx.Amount = 0 }},
		{name: "negative amount", modify: func(tx *models.Transaction) { tx.Amount = -100 }},
		{name: "bad currency", modify: func(tx *models.Transaction) { tx.CurrencyCode = "US" }},
		{name: "bad type", modify: func(tx *models.Transaction) { tx.Type = "transfer" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := testTransaction("some purchase")
			tt.modify(&tx)

			_, err := e.CategorizeTransaction(context.Background(), tx, testContext())
			if err == nil {
				t.Fatal("CategorizeTransaction() expected error, got nil")
			}
			if !errors.IsValidationError(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}

	if classifier.calls != 0 {
		t.Errorf("classifier called %d times for invalid input, want 0", classifier.calls)
	}
}

// When the AI service is down, categorization still succeeds via the
// rule fallback with the documented warning attached.
func TestCategorizeTransactionFallbackOnServiceUnavailable(t *testing.T) {
	classifier := &fakeClassifier{err: errors.ServiceUnavailableError("ai categorization", nil)}
	e := newTestEngine(t, classifier)

	result, err := e.CategorizeTransaction(context.Background(), testTransaction("Adobe Creative Cloud monthly subscription"), testContext())
	if err != nil {
		t.Fatalf("CategorizeTransaction() unexpected error: %v", err)
	}

	if result.SourceModel != models.SourceFallback {
		t.Errorf("sourceModel = %q, want %q", result.SourceModel, models.SourceFallback)
	}
	if result.Category == nil || result.Category.Name != "Software" {
		t.Errorf("category = %+v, want the software rule match", result.Category)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != FallbackWarning {
		t.Errorf("warnings = %v, want [%q]", result.Warnings, FallbackWarning)
	}
	if result.Confidence > models.MaxFallbackConfidence {
		t.Errorf("fallback confidence %d exceeds cap %d", result.Confidence, models.MaxFallbackConfidence)
	}
}

func TestCategorizeTransactionFallbackOnMalformedResponse(t *testing.T) {
	classifier := &fakeClassifier{err: errors.MalformedResponseError("not json", nil)}
	e := newTestEngine(t, classifier)

	result, err := e.CategorizeTransaction(context.Background(), testTransaction("hotel booking"), testContext())
	if err != nil {
		t.Fatalf("CategorizeTransaction() unexpected error: %v", err)
	}
	if result.SourceModel != models.SourceFallback {
		t.Errorf("sourceModel = %q, want %q", result.SourceModel, models.SourceFallback)
	}
}

// Errors outside the service taxonomy (e.g. from a third-party Classifier
// implementation) are normalized and recovered the same way.
func TestCategorizeTransactionFallbackOnUnknownError(t *testing.T) {
	classifier := &fakeClassifier{err: fmt.Errorf("connection reset by peer")}
	e := newTestEngine(t, classifier)

	result, err := e.CategorizeTransaction(context.Background(), testTransaction("hotel booking"), testContext())
	if err != nil {
		t.Fatalf("CategorizeTransaction() unexpected error: %v", err)
	}
	if result.SourceModel != models.SourceFallback {
		t.Errorf("sourceModel = %q, want %q", result.SourceModel, models.SourceFallback)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != FallbackWarning {
		t.Errorf("warnings = %v, want [%q]", result.Warnings, FallbackWarning)
	}
}

func TestCategorizeTransactionFallbackOnInvalidAIResult(t *testing.T) {
	bad := aiResult()
	bad.ProcessedDescription = ""
	classifier := &fakeClassifier{result: bad}
	e := newTestEngine(t, classifier)

	result, err := e.CategorizeTransaction(context.Background(), testTransaction("hotel booking"), testContext())
	if err != nil {
		t.Fatalf("CategorizeTransaction() unexpected error: %v", err)
	}
	if result.SourceModel != models.SourceFallback {
		t.Errorf("sourceModel = %q, want %q", result.SourceModel, models.SourceFallback)
	}
}

func TestCategorizeTransactionCachesResult(t *testing.T) {
	classifier := &fakeClassifier{result: aiResult()}
	e := newTestEngine(t, classifier)
	tx := testTransaction("Adobe Creative Cloud monthly subscription")

	first, err := e.CategorizeTransaction(context.Background(), tx, testContext())
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := e.CategorizeTransaction(context.Background(), tx, testContext())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if classifier.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (at most one external call per key within TTL)", classifier.calls)
	}
	if first != second {
		t.Error("second call did not return the cached result")
	}
}

func TestCategorizeTransactionCachesFallback(t *testing.T) {
	classifier := &fakeClassifier{err: errors.ServiceUnavailableError("ai categorization", nil)}
	e := newTestEngine(t, classifier)
	tx := testTransaction("Adobe Creative Cloud monthly subscription")

	for i := 0; i < 3; i++ {
		if _, err := e.CategorizeTransaction(context.Background(), tx, testContext()); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if classifier.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (failing provider must not be re-hit within TTL)", classifier.calls)
	}
}

func TestCategorizeTransactionDistinctKeysMiss(t *testing.T) {
	classifier := &fakeClassifier{result: aiResult()}
	e := newTestEngine(t, classifier)

	if _, err := e.CategorizeTransaction(context.Background(), testTransaction("adobe subscription"), testContext()); err != nil {
		t.Fatal(err)
	}
	other := testTransaction("adobe subscription")
	other.Amount = 9999
	if _, err := e.CategorizeTransaction(context.Background(), other, testContext()); err != nil {
		t.Fatal(err)
	}

	if classifier.calls != 2 {
		t.Errorf("classifier calls = %d, want 2 for distinct keys", classifier.calls)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	resultCache := cache.New(time.Minute, time.Hour)
	defer resultCache.Shutdown()

	config := DefaultConfig()
	config.AITimeout = 0

	_, err := New(&fakeClassifier{}, rules.NewCategorizer(logger.Nop()), resultCache, config, logger.Nop())
	if err == nil {
		t.Fatal("New() expected error for invalid config, got nil")
	}
}

func TestConfigClone(t *testing.T) {
	config := DefaultConfig()
	clone := config.Clone()
	clone.AIMaxRetries = 99

	if config.AIMaxRetries == 99 {
		t.Error("Clone() shares state with the original")
	}
}
